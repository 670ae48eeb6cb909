package address

import (
	"errors"
	"fmt"

	"github.com/oshokin/dispatch-monitor/internal/domain/station"
)

// Wire encoding constants.
const (
	// GroupSelectBit marks a whole-group target in the group byte.
	GroupSelectBit = 0x80
	// AllPointsGroup and AllPointsPoint form the all-points sentinel.
	AllPointsGroup = 1
	AllPointsPoint = 128
	// wholeGroupPoint is the point byte sent with whole-group targets.
	wholeGroupPoint = 1
)

var (
	// ErrInvalidTarget is returned when a target has out-of-range numbers.
	ErrInvalidTarget = errors.New("invalid address target")
	// ErrUnknownAddressEncoding is returned when a byte pair matches no target form.
	ErrUnknownAddressEncoding = errors.New("unknown address encoding")
)

// Kind is the form of a target.
type Kind uint8

const (
	// KindNone means no target is selected.
	KindNone Kind = iota
	// KindPoint selects a single point.
	KindPoint
	// KindGroup selects every point of a group.
	KindGroup
	// KindAll selects every point of the station.
	KindAll
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindGroup:
		return "group"
	case KindAll:
		return "all"
	default:
		return "none"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for _, k := range []Kind{KindNone, KindPoint, KindGroup, KindAll} {
		if k.String() == s {
			return k, true
		}
	}

	return KindNone, false
}

// Target is a logical command target. Group and Point are 1-based.
type Target struct {
	Kind  Kind
	Group uint8
	Point uint8
}

// SinglePoint targets one point.
func SinglePoint(group, point uint8) Target {
	return Target{Kind: KindPoint, Group: group, Point: point}
}

// WholeGroup targets every point of a group.
func WholeGroup(group uint8) Target {
	return Target{Kind: KindGroup, Group: group}
}

// AllPoints targets the whole station.
func AllPoints() Target {
	return Target{Kind: KindAll}
}

// String renders the target for logs.
func (t Target) String() string {
	switch t.Kind {
	case KindPoint:
		return fmt.Sprintf("point %d/%d", t.Group, t.Point)
	case KindGroup:
		return fmt.Sprintf("group %d", t.Group)
	default:
		return t.Kind.String()
	}
}

// Validate checks the number ranges of the target.
func (t Target) Validate() error {
	switch t.Kind {
	case KindAll, KindNone:
		return nil
	case KindGroup:
		return validGroup(t.Group)
	case KindPoint:
		if err := validGroup(t.Group); err != nil {
			return err
		}

		return validPoint(t.Point)
	default:
		return fmt.Errorf("%w: kind %d", ErrInvalidTarget, t.Kind)
	}
}

// validGroup checks a 1-based group number.
func validGroup(group uint8) error {
	if group < 1 || group > station.MaxGroups {
		return fmt.Errorf("%w: group %d out of 1..%d", ErrInvalidTarget, group, station.MaxGroups)
	}

	return nil
}

// validPoint checks a 1-based point number.
func validPoint(point uint8) error {
	if point < 1 || point > station.MaxPointsPerGroup {
		return fmt.Errorf("%w: point %d out of 1..%d", ErrInvalidTarget, point, station.MaxPointsPerGroup)
	}

	return nil
}

// Resolve encodes a target into its group and point bytes.
// KindNone encodes as 0, 0.
func Resolve(t Target) (group, point byte, err error) {
	if err = t.Validate(); err != nil {
		return 0, 0, err
	}

	switch t.Kind {
	case KindPoint:
		return t.Group, t.Point, nil
	case KindGroup:
		return t.Group | GroupSelectBit, wholeGroupPoint, nil
	case KindAll:
		return AllPointsGroup, AllPointsPoint, nil
	default:
		return 0, 0, nil
	}
}

// Decode interprets a group and point byte pair.
// A zero group or point means no target.
func Decode(group, point byte) (Target, error) {
	switch {
	case group == 0:
		return Target{}, nil
	case group&GroupSelectBit != 0:
		t := WholeGroup(group &^ GroupSelectBit)
		if err := t.Validate(); err != nil {
			return Target{}, fmt.Errorf("%w: group byte 0x%02x", ErrUnknownAddressEncoding, group)
		}

		return t, nil
	case point == 0:
		return Target{}, nil
	case group == AllPointsGroup && point == AllPointsPoint:
		return AllPoints(), nil
	}

	t := SinglePoint(group, point)
	if err := t.Validate(); err != nil {
		return Target{}, fmt.Errorf("%w: 0x%02x 0x%02x", ErrUnknownAddressEncoding, group, point)
	}

	return t, nil
}

// VolumeCommand sets the volume of one point or of the first Count points of a group.
type VolumeCommand struct {
	// Group is the 1-based group number.
	Group uint8
	// Point is the 1-based point number. Used when AllInGroup is false.
	Point uint8
	// Count is the number of points of the group. Used when AllInGroup is true.
	Count uint8
	// AllInGroup selects the group form of the command.
	AllInGroup bool
	// Level is passed through to the unit unchanged.
	Level uint8
}

// PointVolume builds a command for a single point.
func PointVolume(group, point, level uint8) (VolumeCommand, error) {
	if err := SinglePoint(group, point).Validate(); err != nil {
		return VolumeCommand{}, err
	}

	return VolumeCommand{Group: group, Point: point, Level: level}, nil
}

// GroupVolume builds a command for every point of a group.
func GroupVolume(group, count, level uint8) (VolumeCommand, error) {
	if err := validGroup(group); err != nil {
		return VolumeCommand{}, err
	}

	if err := validPoint(count); err != nil {
		return VolumeCommand{}, fmt.Errorf("point count: %w", err)
	}

	return VolumeCommand{Group: group, Count: count, AllInGroup: true, Level: level}, nil
}

// Target returns the logical target of the command.
func (c VolumeCommand) Target() Target {
	if c.AllInGroup {
		return WholeGroup(c.Group)
	}

	return SinglePoint(c.Group, c.Point)
}
