package station

import "strconv"

// InputState is the supervised state of a digital input line.
// Values are ordered by severity: Break > Short > On > Off.
type InputState uint8

const (
	// InputUnknown is the state of a line that has not been reported yet.
	InputUnknown InputState = iota
	// InputOff means the contact loop is open.
	InputOff
	// InputOn means the contact loop is closed.
	InputOn
	// InputShort means the line wiring is short-circuited.
	InputShort
	// InputBreak means the line wiring is broken.
	InputBreak
)

// IsFault reports whether the state is a wiring fault.
func (s InputState) IsFault() bool {
	return s == InputShort || s == InputBreak
}

// String returns the console rendering of the state.
func (s InputState) String() string {
	switch s {
	case InputOff:
		return "выкл"
	case InputOn:
		return "вкл"
	case InputShort:
		return "замыкание"
	case InputBreak:
		return "обрыв"
	default:
		return "-"
	}
}

// SpeakerStatus is the result of the last speaker self-test of a point.
type SpeakerStatus uint8

const (
	// SpeakerNotChecked means no self-test result is available.
	SpeakerNotChecked SpeakerStatus = iota
	// SpeakerCorrect means the self-test passed.
	SpeakerCorrect
	// SpeakerProblem means the self-test found a speaker failure.
	SpeakerProblem
)

func (s SpeakerStatus) String() string {
	switch s {
	case SpeakerCorrect:
		return "исправны"
	case SpeakerProblem:
		return "неисправны"
	default:
		return "не проверены"
	}
}

// bootloaderOffset is added to the firmware number by units running their bootloader.
const bootloaderOffset = 200

// VersionTag is the firmware version reported by a point.
type VersionTag struct {
	// Number is the firmware number with the bootloader offset removed.
	Number uint8
	// Bootloader is set when the unit runs its bootloader instead of the application.
	Bootloader bool
	// Known is false until the point reports its version.
	Known bool
}

// VersionFromWire decodes the raw version byte. Values above 200 mean bootloader mode.
func VersionFromWire(raw uint8) VersionTag {
	if raw > bootloaderOffset {
		return VersionTag{Number: raw - bootloaderOffset, Bootloader: true, Known: true}
	}

	return VersionTag{Number: raw, Known: true}
}

// String renders the version as the console shows it, for example "15.0" or "Загрузчик 3.0".
func (v VersionTag) String() string {
	if !v.Known {
		return ""
	}

	text := strconv.Itoa(int(v.Number)) + ".0"
	if v.Bootloader {
		return "Загрузчик " + text
	}

	return text
}

// VolumeKind classifies a volume setting.
type VolumeKind uint8

const (
	// VolumeUnknown is the setting of a point that has not been reported yet.
	VolumeUnknown VolumeKind = iota
	// VolumeMax is full volume (wire value 0).
	VolumeMax
	// VolumeDivisor attenuates output by 2^n (wire values 1..3).
	VolumeDivisor
	// VolumeInvalid is any wire value above 3.
	VolumeInvalid
)

// maxVolumeStep is the largest valid attenuation step on the wire.
const maxVolumeStep = 3

// VolumeTag is the volume setting reported by a point.
type VolumeTag struct {
	// Kind classifies the setting.
	Kind VolumeKind
	// Raw is the wire value the tag was decoded from.
	Raw uint8
}

// VolumeFromWire decodes the raw volume byte.
func VolumeFromWire(raw uint8) VolumeTag {
	switch {
	case raw == 0:
		return VolumeTag{Kind: VolumeMax, Raw: raw}
	case raw <= maxVolumeStep:
		return VolumeTag{Kind: VolumeDivisor, Raw: raw}
	default:
		return VolumeTag{Kind: VolumeInvalid, Raw: raw}
	}
}

// Divisor returns the attenuation divisor: 1 for maximum volume, 2^n for a divisor step
// and 0 when the setting is unknown or invalid.
func (v VolumeTag) Divisor() int {
	switch v.Kind {
	case VolumeMax:
		return 1
	case VolumeDivisor:
		return 1 << v.Raw
	default:
		return 0
	}
}

// String renders the volume as the console shows it.
func (v VolumeTag) String() string {
	switch v.Kind {
	case VolumeMax:
		return "максимум"
	case VolumeDivisor:
		return "1/" + strconv.Itoa(v.Divisor())
	case VolumeInvalid:
		return "некорректное значение" + strconv.Itoa(int(v.Raw))
	default:
		return ""
	}
}
