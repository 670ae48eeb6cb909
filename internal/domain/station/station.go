package station

// Line indices into the Lines arrays of points and groups.
const (
	DI1 = iota
	DI2
	DI3
)

// Output indices into the Outputs arrays of points and groups.
const (
	DO1 = iota
	DO2
)

const (
	// MaxGroups is the fixed number of group slots of a station.
	MaxGroups = 32
	// MaxPointsPerGroup is the largest point number addressable within a group.
	MaxPointsPerGroup = 127
)

// PointStatus is the reported part of a point's state.
// Its zero value is the unconfigured (default) state.
type PointStatus struct {
	// BatteryTenths is the battery voltage multiplied by ten.
	BatteryTenths uint8
	// PowerTenths is the supply voltage multiplied by ten.
	PowerTenths uint8
	// Firmware is the reported firmware version.
	Firmware VersionTag
	// Volume is the reported volume setting.
	Volume VolumeTag
	// Lines holds di1 and di2.
	Lines [2]InputState
	// Outputs holds do1 and do2.
	Outputs [2]bool
	// LimitSwitch is the supervisory contact state.
	LimitSwitch bool
	// Speaker is the speaker self-test result.
	Speaker SpeakerStatus
}

// Battery returns the battery voltage in volts.
func (s *PointStatus) Battery() float64 {
	return float64(s.BatteryTenths) / 10
}

// Power returns the supply voltage in volts.
func (s *PointStatus) Power() float64 {
	return float64(s.PowerTenths) / 10
}

// Point is the last-known state of one field unit.
type Point struct {
	PointStatus

	// Name is the configured point name.
	Name string
}

// Reset returns the point to its unconfigured state, keeping only its name.
func (p *Point) Reset() {
	p.PointStatus = PointStatus{}
}

// GroupStatus is the reported part of a group's state.
type GroupStatus struct {
	// ReportedCount is the number of live points in the last group report.
	// Valid only when Reported is set.
	ReportedCount uint8
	// Reported is false until the group appears in a group frame.
	Reported bool
	// Lines holds di1, di2 and di3.
	Lines [3]InputState
	// Outputs holds do1 and do2.
	Outputs [2]bool
	// Stale mirrors the "not actual" flag of the last report.
	Stale bool
}

// Group is the last-known state of a group slot and its points.
type Group struct {
	GroupStatus

	// Name is the configured group name. Empty for unconfigured slots.
	Name string
	// Points are the configured points of the group, in wire order.
	Points []Point
}

// ExpectedCount returns the configured number of points.
func (g *Group) ExpectedCount() int {
	return len(g.Points)
}

// Clone returns a deep copy of the group.
func (g *Group) Clone() *Group {
	if g == nil {
		return nil
	}

	cloned := *g
	cloned.Points = append([]Point(nil), g.Points...)

	return &cloned
}
