package monitor

import (
	"errors"
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/dispatch-monitor/internal/address"
	"github.com/oshokin/dispatch-monitor/internal/alarm"
	"github.com/oshokin/dispatch-monitor/internal/domain/station"
	"github.com/oshokin/dispatch-monitor/internal/tree"
)

// Field names of the Struct views.
const (
	FieldEntries     = "entries"
	FieldLines       = "lines"
	FieldNormal      = "normal"
	FieldActiveSince = "active_since"
	FieldTransition  = "transition"
	FieldText        = "text"
	FieldSeverity    = "severity"
	FieldGroup       = "group"
	FieldPoint       = "point"
	FieldKind        = "kind"
	FieldNumber      = "number"
	FieldExpected    = "expected"
	FieldAttributes  = "attributes"
	FieldPoints      = "points"
	FieldGroupByte   = "group_byte"
	FieldPointByte   = "point_byte"
	FieldCount       = "count"
	FieldAllInGroup  = "all_in_group"
	FieldLevel       = "level"
)

// errMalformedView is returned when a Struct does not have the expected shape.
var errMalformedView = errors.New("malformed view")

// AlarmView is the client-side form of an alarm list.
type AlarmView struct {
	// Entries carries the structured alarm lines. Group and point are 1-based, 0 when absent.
	Entries []station.AlarmEntry
	// Lines is the display rendering; it holds the all-clear text when Normal is set.
	Lines []string
	// Normal reports an empty alarm list.
	Normal bool
	// ActiveSince is when the current alarm started.
	ActiveSince time.Time
	// Transition is "none", "raised" or "cleared".
	Transition string
}

// alarmStruct renders a report as a Struct.
func alarmStruct(report *alarm.Report) (*structpb.Struct, error) {
	entries := make([]any, len(report.Entries))
	for i, entry := range report.Entries {
		item := map[string]any{
			FieldText:     entry.Text,
			FieldSeverity: entry.Severity.String(),
		}

		switch entry.Source.Kind {
		case station.SourceGroup:
			item[FieldGroup] = entry.Source.Group + 1
		case station.SourcePoint:
			item[FieldGroup] = entry.Source.Group + 1
			item[FieldPoint] = entry.Source.Point + 1
		case station.SourceNone:
		}

		entries[i] = item
	}

	lines := report.Lines()
	rendered := make([]any, len(lines))

	for i, line := range lines {
		rendered[i] = line
	}

	var since string
	if !report.ActiveSince.IsZero() {
		since = report.ActiveSince.UTC().Format(time.RFC3339Nano)
	}

	return structpb.NewStruct(map[string]any{
		FieldEntries:     entries,
		FieldLines:       rendered,
		FieldNormal:      report.Normal(),
		FieldActiveSince: since,
		FieldTransition:  report.Transition.String(),
	})
}

// DecodeAlarmView parses an alarm-list Struct returned by the service.
func DecodeAlarmView(doc *structpb.Struct) (*AlarmView, error) {
	fields := doc.GetFields()

	view := &AlarmView{
		Normal:     fields[FieldNormal].GetBoolValue(),
		Transition: fields[FieldTransition].GetStringValue(),
	}

	if since := fields[FieldActiveSince].GetStringValue(); since != "" {
		parsed, err := time.Parse(time.RFC3339Nano, since)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", errMalformedView, FieldActiveSince, err)
		}

		view.ActiveSince = parsed
	}

	for _, line := range fields[FieldLines].GetListValue().GetValues() {
		view.Lines = append(view.Lines, line.GetStringValue())
	}

	for i, value := range fields[FieldEntries].GetListValue().GetValues() {
		entry := value.GetStructValue().GetFields()
		if entry == nil {
			return nil, fmt.Errorf("%w: entry %d is not an object", errMalformedView, i)
		}

		severity, ok := station.ParseSeverity(entry[FieldSeverity].GetStringValue())
		if !ok {
			return nil, fmt.Errorf("%w: entry %d has unknown severity", errMalformedView, i)
		}

		source := station.SourceRef{
			Group: int(entry[FieldGroup].GetNumberValue()),
			Point: int(entry[FieldPoint].GetNumberValue()),
		}

		switch {
		case source.Point > 0:
			source.Kind = station.SourcePoint
		case source.Group > 0:
			source.Kind = station.SourceGroup
		}

		view.Entries = append(view.Entries, station.AlarmEntry{
			Text:     entry[FieldText].GetStringValue(),
			Severity: severity,
			Source:   source,
		})
	}

	return view, nil
}

// groupStruct renders a group slot with its rendered attributes and points.
func groupStruct(slot int, g *station.Group) (*structpb.Struct, error) {
	points := make([]any, 0, len(g.Points))

	for i := range g.Points {
		points = append(points, renderAttributes(tree.PointAttributes(), func(attr string) (string, bool) {
			return tree.RenderPoint(&g.Points[i], attr)
		}))
	}

	return structpb.NewStruct(map[string]any{
		FieldNumber:     slot + 1,
		FieldExpected:   g.ExpectedCount(),
		FieldAttributes: renderAttributes(tree.GroupAttributes(), func(attr string) (string, bool) { return tree.RenderGroup(g, attr) }),
		FieldPoints:     points,
	})
}

// renderAttributes collects the attributes that have a value.
func renderAttributes(attrs []string, render func(string) (string, bool)) map[string]any {
	values := make(map[string]any, len(attrs))

	for _, attr := range attrs {
		if value, ok := render(attr); ok {
			values[attr] = value
		}
	}

	return values
}

// TargetStruct renders a logical target.
func TargetStruct(target address.Target) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldKind:  structpb.NewStringValue(target.Kind.String()),
		FieldGroup: structpb.NewNumberValue(float64(target.Group)),
		FieldPoint: structpb.NewNumberValue(float64(target.Point)),
	}}
}

// DecodeTarget parses a logical target Struct.
func DecodeTarget(doc *structpb.Struct) (address.Target, error) {
	fields := doc.GetFields()

	kind, ok := address.ParseKind(fields[FieldKind].GetStringValue())
	if !ok {
		return address.Target{}, fmt.Errorf("%w: kind %q", address.ErrInvalidTarget, fields[FieldKind].GetStringValue())
	}

	group, err := byteField(fields, FieldGroup)
	if err != nil {
		return address.Target{}, err
	}

	point, err := byteField(fields, FieldPoint)
	if err != nil {
		return address.Target{}, err
	}

	return address.Target{Kind: kind, Group: group, Point: point}, nil
}

// AddressStruct renders a wire byte pair.
func AddressStruct(group, point byte) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldGroupByte: structpb.NewNumberValue(float64(group)),
		FieldPointByte: structpb.NewNumberValue(float64(point)),
	}}
}

// DecodeAddress parses a wire byte pair Struct.
func DecodeAddress(doc *structpb.Struct) (group, point byte, err error) {
	fields := doc.GetFields()

	group, err = byteField(fields, FieldGroupByte)
	if err != nil {
		return 0, 0, err
	}

	point, err = byteField(fields, FieldPointByte)
	if err != nil {
		return 0, 0, err
	}

	return group, point, nil
}

// byteField reads an optional number field that must fit in a byte.
func byteField(fields map[string]*structpb.Value, name string) (byte, error) {
	value := fields[name].GetNumberValue()
	if value < 0 || value > math.MaxUint8 || value != math.Trunc(value) {
		return 0, fmt.Errorf("%w: %s %v is not a byte", errMalformedView, name, value)
	}

	return byte(value), nil
}

// VolumeStruct renders a volume command request.
func VolumeStruct(command address.VolumeCommand) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldGroup:      structpb.NewNumberValue(float64(command.Group)),
		FieldPoint:      structpb.NewNumberValue(float64(command.Point)),
		FieldCount:      structpb.NewNumberValue(float64(command.Count)),
		FieldAllInGroup: structpb.NewBoolValue(command.AllInGroup),
		FieldLevel:      structpb.NewNumberValue(float64(command.Level)),
	}}
}

// DecodeVolume parses and validates a volume command request.
func DecodeVolume(doc *structpb.Struct) (address.VolumeCommand, error) {
	fields := doc.GetFields()

	values := make(map[string]byte, 4)

	for _, name := range []string{FieldGroup, FieldPoint, FieldCount, FieldLevel} {
		value, err := byteField(fields, name)
		if err != nil {
			return address.VolumeCommand{}, err
		}

		values[name] = value
	}

	if fields[FieldAllInGroup].GetBoolValue() {
		return address.GroupVolume(values[FieldGroup], values[FieldCount], values[FieldLevel])
	}

	return address.PointVolume(values[FieldGroup], values[FieldPoint], values[FieldLevel])
}

// VolumeView is the client-side form of a resolved volume command.
type VolumeView struct {
	// Command is the validated command.
	Command address.VolumeCommand
	// GroupByte and PointByte address the command target on the wire.
	GroupByte byte
	PointByte byte
}

// volumeResolutionStruct renders a resolved volume command.
func volumeResolutionStruct(command address.VolumeCommand, group, point byte) *structpb.Struct {
	doc := VolumeStruct(command)
	doc.Fields[FieldKind] = structpb.NewStringValue(command.Target().Kind.String())
	doc.Fields[FieldGroupByte] = structpb.NewNumberValue(float64(group))
	doc.Fields[FieldPointByte] = structpb.NewNumberValue(float64(point))

	return doc
}

// DecodeVolumeResolution parses a ResolveVolume response.
func DecodeVolumeResolution(doc *structpb.Struct) (*VolumeView, error) {
	command, err := DecodeVolume(doc)
	if err != nil {
		return nil, err
	}

	group, point, err := DecodeAddress(doc)
	if err != nil {
		return nil, err
	}

	return &VolumeView{Command: command, GroupByte: group, PointByte: point}, nil
}
