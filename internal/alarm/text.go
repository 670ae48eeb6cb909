package alarm

import (
	"strconv"

	"github.com/oshokin/dispatch-monitor/internal/domain/station"
)

// Alarm texts shown to the operator.
const (
	// TextLinkLoss is the synthetic entry shown while polling without a link.
	TextLinkLoss = "АВАРИЯ (Обрыв Ethernet связи)"
	// TextNormal is shown instead of an empty alarm list.
	TextNormal = "Параметры в норме"

	textInputBreak      = "АВАРИЯ ВХОД1(КТВ) - ОБРЫВ"
	textInputShort      = "АВАРИЯ ВХОД1(КТВ) - ЗАМЫКАНИЕ"
	textInputOff        = "АВАРИЯ ВХОД1(КТВ) - ВЫКЛ"
	textSpeakerProblem  = "АВАРИЯ НЕИСПРАВНОСТЬ ДИНАМИКОВ"
	textConnectedPoints = "АВАРИЯ: Число подключенных точек - "
	textCountUnknown    = "не известно"
	textExpected        = "ожидается "
)

// inputAlarmText returns the di1 alarm suffix for a state, or "" when the state is not alarmed.
func inputAlarmText(state station.InputState) string {
	switch state {
	case station.InputBreak:
		return textInputBreak
	case station.InputShort:
		return textInputShort
	case station.InputOff:
		return textInputOff
	default:
		return ""
	}
}

// pointEntry renders "<group> <point>: <suffix>".
func pointEntry(groupName, pointName, suffix string, group, point int) station.AlarmEntry {
	return station.AlarmEntry{
		Text:     groupName + " " + pointName + ": " + suffix,
		Severity: station.SeverityCritical,
		Source:   station.PointRef(group, point),
	}
}

// countBlock renders the 4-line group block: header, count, expected count and a separator.
func countBlock(groupName, count string, expected, group int) []station.AlarmEntry {
	ref := station.GroupRef(group)

	return []station.AlarmEntry{
		{Text: groupName + ":", Severity: station.SeverityInfo, Source: ref},
		{Text: textConnectedPoints + count, Severity: station.SeverityCritical, Source: ref},
		{Text: textExpected + strconv.Itoa(expected), Severity: station.SeverityInfo, Source: ref},
		{Text: "", Severity: station.SeverityInfo, Source: ref},
	}
}

// linkLossEntry is the synthetic link-loss entry.
func linkLossEntry() station.AlarmEntry {
	return station.AlarmEntry{
		Text:     TextLinkLoss,
		Severity: station.SeverityCritical,
	}
}
