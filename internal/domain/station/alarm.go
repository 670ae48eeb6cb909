package station

// Severity routes an alarm entry in presentation.
type Severity uint8

const (
	// SeverityInfo is an informational line.
	SeverityInfo Severity = iota
	// SeverityWarning is a condition that needs attention.
	SeverityWarning
	// SeverityCritical is an alarm.
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return "info"
	}
}

// SourceKind tells what an alarm entry refers to.
type SourceKind uint8

const (
	// SourceNone is used for station-wide entries such as link loss.
	SourceNone SourceKind = iota
	// SourceGroup refers to a group slot.
	SourceGroup
	// SourcePoint refers to a point within a group.
	SourcePoint
)

// SourceRef identifies the group or point an alarm entry was raised for.
// Indices are zero-based.
type SourceRef struct {
	Kind  SourceKind
	Group int
	Point int
}

// GroupRef returns a reference to a group slot.
func GroupRef(group int) SourceRef {
	return SourceRef{Kind: SourceGroup, Group: group}
}

// PointRef returns a reference to a point.
func PointRef(group, point int) SourceRef {
	return SourceRef{Kind: SourcePoint, Group: group, Point: point}
}

// AlarmEntry is one line of the alarm list.
type AlarmEntry struct {
	// Text is the rendered line.
	Text string
	// Severity is set by the rule that produced the line.
	Severity Severity
	// Source is the group or point the line refers to.
	Source SourceRef
}

// ParseSeverity is the inverse of Severity.String.
func ParseSeverity(s string) (Severity, bool) {
	for _, severity := range []Severity{SeverityInfo, SeverityWarning, SeverityCritical} {
		if severity.String() == s {
			return severity, true
		}
	}

	return SeverityInfo, false
}
