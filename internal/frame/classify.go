package frame

import "github.com/oshokin/dispatch-monitor/internal/domain/station"

// lineState maps the three bits of one input line to its state.
// Faults win over the contact state: Break > Short > On > Off.
func lineState(state, broken, shorted bool) station.InputState {
	switch {
	case broken:
		return station.InputBreak
	case shorted:
		return station.InputShort
	case state:
		return station.InputOn
	default:
		return station.InputOff
	}
}

// speakerStatus maps the speaker self-test bits.
func speakerStatus(checked, ok bool) station.SpeakerStatus {
	switch {
	case !checked:
		return station.SpeakerNotChecked
	case ok:
		return station.SpeakerCorrect
	default:
		return station.SpeakerProblem
	}
}

// status converts the raw fields of a point record into a status.
func (f PointFlags) status(battery, power, version, volume byte) station.PointStatus {
	return station.PointStatus{
		BatteryTenths: battery,
		PowerTenths:   power,
		Firmware:      station.VersionFromWire(version),
		Volume:        station.VolumeFromWire(volume),
		Lines: [2]station.InputState{
			lineState(f.Has(PointDI1State), f.Has(PointDI1Break), f.Has(PointDI1Short)),
			lineState(f.Has(PointDI2State), f.Has(PointDI2Break), f.Has(PointDI2Short)),
		},
		Outputs:     [2]bool{f.Has(PointDO1State), f.Has(PointDO2State)},
		LimitSwitch: f.Has(PointLimitSwitch),
		Speaker:     speakerStatus(f.Has(PointSpeakerCheck), f.Has(PointSpeakerState)),
	}
}

// status converts a group flag word and reported count into a status.
func (f GroupFlags) status(count byte) station.GroupStatus {
	return station.GroupStatus{
		ReportedCount: count,
		Reported:      true,
		Lines: [3]station.InputState{
			lineState(f.Has(GroupDI1State), f.Has(GroupDI1Break), f.Has(GroupDI1Short)),
			lineState(f.Has(GroupDI2State), f.Has(GroupDI2Break), f.Has(GroupDI2Short)),
			lineState(f.Has(GroupDI3State), f.Has(GroupDI3Break), f.Has(GroupDI3Short)),
		},
		Outputs: [2]bool{f.Has(GroupDO1State), f.Has(GroupDO2State)},
		Stale:   f.Has(GroupNotActual),
	}
}
