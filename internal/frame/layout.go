package frame

import "github.com/oshokin/dispatch-monitor/internal/domain/station"

// Frame layout constants. These values are fixed by the field units.

const (
	// PointHeaderSize is the page byte plus the big-endian used-point count.
	PointHeaderSize = 3
	// PointRecordSize is the size of one point record.
	PointRecordSize = 8
	// GroupRecordSize is the size of one group record.
	GroupRecordSize = 5
	// GroupSlots is the number of group records in a group frame.
	GroupSlots = station.MaxGroups
	// GroupFrameSize is the minimum length of a group frame.
	GroupFrameSize = GroupSlots * GroupRecordSize
)

// Offsets within a point record.
const (
	pointOffsetGroup = iota
	pointOffsetPoint
	pointOffsetBattery
	pointOffsetPower
	pointOffsetVersion
	pointOffsetBitsHigh
	pointOffsetBitsLow
	pointOffsetVolume
)

// Offsets within a group record.
const (
	groupOffsetNumber = iota
	groupOffsetCount
	_ // reserved
	groupOffsetBitsHigh
	groupOffsetBitsLow
)

// PointFlags is the 16-bit flag word of a point record.
type PointFlags uint16

// Point flag bits, LSB first.
const (
	PointDI1State PointFlags = 1 << iota
	PointDI1Break
	PointDI1Short
	PointDI2State
	PointDI2Break
	PointDI2Short
	PointDO1State
	PointDO2State
	PointSpeakerState
	PointSpeakerCheck
	PointLimitSwitch
)

// Has reports whether every bit of flag is set.
func (f PointFlags) Has(flag PointFlags) bool {
	return f&flag == flag
}

// GroupFlags is the 16-bit flag word of a group record.
type GroupFlags uint16

// Group flag bits, LSB first. Bits 11 and 12 are unused.
const (
	GroupDI1State GroupFlags = 1 << iota
	GroupDI1Break
	GroupDI1Short
	GroupDI2State
	GroupDI2Break
	GroupDI2Short
	GroupDI3State
	GroupDI3Break
	GroupDI3Short
	GroupDO1State
	GroupDO2State

	GroupNotActual GroupFlags = 1 << 13
)

// Has reports whether every bit of flag is set.
func (f GroupFlags) Has(flag GroupFlags) bool {
	return f&flag == flag
}

// word assembles a big-endian 16-bit value.
func word(high, low byte) uint16 {
	return uint16(high)<<8 | uint16(low)
}
