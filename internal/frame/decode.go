package frame

import (
	"errors"
	"fmt"

	"github.com/oshokin/dispatch-monitor/internal/domain/station"
)

var (
	// ErrTruncatedFrame is returned when a point frame is shorter than its declared record count.
	ErrTruncatedFrame = errors.New("truncated point frame")
	// ErrMalformedGroupFrame is returned when a group frame is shorter than 32 records.
	ErrMalformedGroupFrame = errors.New("malformed group frame")
)

// PointRecord is one decoded point record.
type PointRecord struct {
	// Group is the zero-based group slot.
	Group int
	// Point is the zero-based point index within the group.
	Point int
	// Flags is the raw flag word.
	Flags PointFlags
	// Status is the decoded point status.
	Status station.PointStatus
}

// PointFrameUpdate is a decoded point-status frame.
type PointFrameUpdate struct {
	// Page is the page number. Page 0 starts a new polling cycle.
	Page uint8
	// UsedCount is the declared number of records.
	UsedCount uint16
	// Records are the records addressing a point, in frame order.
	Records []PointRecord
	// Skipped counts records with a zero group or point number.
	Skipped int
}

// StartsCycle reports whether the frame resets the point alarms.
func (u *PointFrameUpdate) StartsCycle() bool {
	return u.Page == 0
}

// DecodePointFrame parses a point-status frame.
// The frame is rejected as a whole when it is shorter than its declared record count.
func DecodePointFrame(data []byte) (*PointFrameUpdate, error) {
	if len(data) < PointHeaderSize {
		return nil, fmt.Errorf("%w: length %d is below the %d-byte header", ErrTruncatedFrame, len(data), PointHeaderSize)
	}

	var (
		used      = word(data[1], data[2])
		available = (len(data) - PointHeaderSize) / PointRecordSize
	)

	if int(used) > available {
		return nil, fmt.Errorf("%w: %d records declared, %d present", ErrTruncatedFrame, used, available)
	}

	update := &PointFrameUpdate{
		Page:      data[0],
		UsedCount: used,
		Records:   make([]PointRecord, 0, used),
	}

	for i := range int(used) {
		rec := data[PointHeaderSize+i*PointRecordSize : PointHeaderSize+(i+1)*PointRecordSize]

		group, point := rec[pointOffsetGroup], rec[pointOffsetPoint]
		if group == 0 || point == 0 {
			update.Skipped++
			continue
		}

		flags := PointFlags(word(rec[pointOffsetBitsHigh], rec[pointOffsetBitsLow]))

		update.Records = append(update.Records, PointRecord{
			Group: int(group) - 1,
			Point: int(point) - 1,
			Flags: flags,
			Status: flags.status(
				rec[pointOffsetBattery],
				rec[pointOffsetPower],
				rec[pointOffsetVersion],
				rec[pointOffsetVolume],
			),
		})
	}

	return update, nil
}

// GroupRecord is one decoded group slot.
type GroupRecord struct {
	// Number is the 1-based group number on the wire. Zero means the group did not report.
	Number uint8
	// Flags is the raw flag word.
	Flags GroupFlags
	// Status is the decoded group status. Valid only when Reported returns true.
	Status station.GroupStatus
}

// Reported reports whether the group answered in this frame.
func (r *GroupRecord) Reported() bool {
	return r.Number != 0
}

// GroupFrameUpdate is a decoded group-status frame. Records are indexed by slot.
type GroupFrameUpdate struct {
	Records [GroupSlots]GroupRecord
}

// DecodeGroupFrame parses a group-status frame. Bytes beyond the 32 records are ignored.
func DecodeGroupFrame(data []byte) (*GroupFrameUpdate, error) {
	if len(data) < GroupFrameSize {
		return nil, fmt.Errorf("%w: length %d, want at least %d", ErrMalformedGroupFrame, len(data), GroupFrameSize)
	}

	update := new(GroupFrameUpdate)

	for i := range GroupSlots {
		rec := data[i*GroupRecordSize : (i+1)*GroupRecordSize]

		number := rec[groupOffsetNumber]
		if number == 0 {
			continue
		}

		flags := GroupFlags(word(rec[groupOffsetBitsHigh], rec[groupOffsetBitsLow]))

		update.Records[i] = GroupRecord{
			Number: number,
			Flags:  flags,
			Status: flags.status(rec[groupOffsetCount]),
		}
	}

	return update, nil
}
