package tree

import (
	"strconv"

	"github.com/oshokin/dispatch-monitor/internal/domain/station"
)

// GroupConfig describes one configured group slot.
type GroupConfig struct {
	// Name is the group name shown to the operator.
	Name string
	// Points are the point names, in wire order.
	Points []string
}

// Tree holds the state of every group slot and its points.
type Tree struct {
	// groups are indexed by zero-based slot number.
	groups [station.MaxGroups]station.Group
}

// New builds a tree from the configured groups. Slot i takes groups[i];
// entries beyond the last slot are ignored and missing slots stay unconfigured.
func New(groups []GroupConfig) *Tree {
	t := new(Tree)

	for i, cfg := range groups {
		if i >= station.MaxGroups {
			break
		}

		points := make([]station.Point, len(cfg.Points))
		for j, name := range cfg.Points {
			points[j].Name = name
		}

		t.groups[i] = station.Group{
			Name:   cfg.Name,
			Points: points,
		}
	}

	return t
}

// group returns the slot or nil when the index is out of range.
func (t *Tree) group(group int) *station.Group {
	if group < 0 || group >= station.MaxGroups {
		return nil
	}

	return &t.groups[group]
}

// point returns the configured point or nil.
func (t *Tree) point(group, point int) *station.Point {
	g := t.group(group)
	if g == nil || point < 0 || point >= len(g.Points) {
		return nil
	}

	return &g.Points[point]
}

// PointCount returns the configured number of points of a group slot.
func (t *Tree) PointCount(group int) int {
	g := t.group(group)
	if g == nil {
		return 0
	}

	return g.ExpectedCount()
}

// GroupName returns the configured name of a group slot.
// The second value is false for unconfigured slots.
func (t *Tree) GroupName(group int) (string, bool) {
	g := t.group(group)
	if g == nil || g.Name == "" {
		return "", false
	}

	return g.Name, true
}

// PointName returns the configured name of a point.
func (t *Tree) PointName(group, point int) (string, bool) {
	p := t.point(group, point)
	if p == nil || p.Name == "" {
		return "", false
	}

	return p.Name, true
}

// Group returns a copy of a group slot.
func (t *Tree) Group(group int) (*station.Group, bool) {
	g := t.group(group)
	if g == nil {
		return nil, false
	}

	return g.Clone(), true
}

// Point returns a copy of a point.
func (t *Tree) Point(group, point int) (station.Point, bool) {
	p := t.point(group, point)
	if p == nil {
		return station.Point{}, false
	}

	return *p, true
}

// Snapshot returns a deep copy of every group slot.
func (t *Tree) Snapshot() []station.Group {
	result := make([]station.Group, station.MaxGroups)
	for i := range t.groups {
		result[i] = *t.groups[i].Clone()
	}

	return result
}

// SetPointStatus stores the reported status of a point.
// It returns false when the point is not configured.
func (t *Tree) SetPointStatus(group, point int, status station.PointStatus) bool {
	p := t.point(group, point)
	if p == nil {
		return false
	}

	p.PointStatus = status

	return true
}

// SetGroupStatus stores the reported status of a group slot.
func (t *Tree) SetGroupStatus(group int, status station.GroupStatus) bool {
	g := t.group(group)
	if g == nil {
		return false
	}

	g.GroupStatus = status

	return true
}

// ResetPoint returns a point to its default state.
func (t *Tree) ResetPoint(group, point int) bool {
	p := t.point(group, point)
	if p == nil {
		return false
	}

	p.Reset()

	return true
}

// Attribute names accepted by GroupValue and PointValue.
const (
	AttrName          = "name"
	AttrReportedCount = "real_point_cnt"
	AttrBattery       = "battery"
	AttrPower         = "power"
	AttrVersion       = "version"
	AttrVolume        = "volume"
	AttrDI1           = "di1"
	AttrDI2           = "di2"
	AttrDI3           = "di3"
	AttrDO1           = "do1"
	AttrDO2           = "do2"
	AttrLimitSwitch   = "limit_switch"
	AttrSpeaker       = "speaker"
	AttrNotActual     = "not_actual"
)

// GroupValue returns the rendered value of a group attribute.
// The second value is false for unknown attributes, out-of-range slots
// and a reported count that has not been received yet.
func (t *Tree) GroupValue(group int, attr string) (string, bool) {
	g := t.group(group)
	if g == nil {
		return "", false
	}

	return RenderGroup(g, attr)
}

// RenderGroup renders one attribute of a group.
func RenderGroup(g *station.Group, attr string) (string, bool) {
	switch attr {
	case AttrName:
		return g.Name, g.Name != ""
	case AttrReportedCount:
		if !g.Reported {
			return "", false
		}

		return strconv.Itoa(int(g.ReportedCount)), true
	case AttrDI1:
		return g.Lines[station.DI1].String(), true
	case AttrDI2:
		return g.Lines[station.DI2].String(), true
	case AttrDI3:
		return g.Lines[station.DI3].String(), true
	case AttrDO1:
		return strconv.FormatBool(g.Outputs[station.DO1]), true
	case AttrDO2:
		return strconv.FormatBool(g.Outputs[station.DO2]), true
	case AttrNotActual:
		return strconv.FormatBool(g.Stale), true
	default:
		return "", false
	}
}

// PointValue returns the rendered value of a point attribute.
func (t *Tree) PointValue(group, point int, attr string) (string, bool) {
	p := t.point(group, point)
	if p == nil {
		return "", false
	}

	return RenderPoint(p, attr)
}

// RenderPoint renders one attribute of a point.
func RenderPoint(p *station.Point, attr string) (string, bool) {
	switch attr {
	case AttrName:
		return p.Name, p.Name != ""
	case AttrBattery:
		return strconv.FormatFloat(p.Battery(), 'f', 1, 64), true
	case AttrPower:
		return strconv.FormatFloat(p.Power(), 'f', 1, 64), true
	case AttrVersion:
		return p.Firmware.String(), p.Firmware.Known
	case AttrVolume:
		return p.Volume.String(), p.Volume.Kind != station.VolumeUnknown
	case AttrDI1:
		return p.Lines[station.DI1].String(), true
	case AttrDI2:
		return p.Lines[station.DI2].String(), true
	case AttrDO1:
		return strconv.FormatBool(p.Outputs[station.DO1]), true
	case AttrDO2:
		return strconv.FormatBool(p.Outputs[station.DO2]), true
	case AttrLimitSwitch:
		return strconv.FormatBool(p.LimitSwitch), true
	case AttrSpeaker:
		return p.Speaker.String(), true
	default:
		return "", false
	}
}

// GroupAttributes lists the attributes a group exposes, in display order.
func GroupAttributes() []string {
	return []string{
		AttrName, AttrReportedCount, AttrDI1, AttrDI2, AttrDI3, AttrDO1, AttrDO2, AttrNotActual,
	}
}

// PointAttributes lists the attributes a point exposes, in display order.
func PointAttributes() []string {
	return []string{
		AttrName, AttrBattery, AttrPower, AttrVersion, AttrVolume,
		AttrDI1, AttrDI2, AttrDO1, AttrDO2, AttrLimitSwitch, AttrSpeaker,
	}
}
