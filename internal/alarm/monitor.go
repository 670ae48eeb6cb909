package alarm

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/oshokin/dispatch-monitor/internal/domain/station"
	"github.com/oshokin/dispatch-monitor/internal/frame"
	"github.com/oshokin/dispatch-monitor/internal/tree"
)

// Signaler drives the audible or visual alarm output.
// Raise is called once when the alarm list becomes non-empty, Clear once when it empties.
type Signaler interface {
	Raise(since time.Time)
	Clear()
}

// Transition describes how a call changed the alarm-active state.
type Transition uint8

const (
	// TransitionNone means the alarm-active state did not change.
	TransitionNone Transition = iota
	// TransitionRaised means the alarm list became non-empty.
	TransitionRaised
	// TransitionCleared means the alarm list became empty.
	TransitionCleared
	// TransitionDiscarded means a restored start time was dropped by a report
	// without alarms. The alarm-active state itself did not change.
	TransitionDiscarded
)

func (t Transition) String() string {
	switch t {
	case TransitionRaised:
		return "raised"
	case TransitionCleared:
		return "cleared"
	case TransitionDiscarded:
		return "discarded"
	default:
		return "none"
	}
}

// Report is the combined alarm list after a monitor call.
type Report struct {
	// Entries is link loss, then group alarms, then point alarms.
	Entries []station.AlarmEntry
	// ActiveSince is when the current alarm started. Zero when Entries is empty.
	ActiveSince time.Time
	// Transition tells whether this call raised or cleared the alarm.
	Transition Transition
}

// Normal reports whether there is nothing to alarm about.
func (r *Report) Normal() bool {
	return len(r.Entries) == 0
}

// Lines renders the list for display, substituting TextNormal for an empty list.
func (r *Report) Lines() []string {
	if r.Normal() {
		return []string{TextNormal}
	}

	lines := make([]string, len(r.Entries))
	for i, entry := range r.Entries {
		lines[i] = entry.Text
	}

	return lines
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock overrides the time source used for ActiveSince.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// WithSignaler sets the alarm output.
func WithSignaler(s Signaler) Option {
	return func(m *Monitor) {
		if s != nil {
			m.signaler = s
		}
	}
}

// Monitor applies frames to the state tree and maintains the alarm list.
// It is not safe for concurrent use.
type Monitor struct {
	// tree is the station state the monitor mutates.
	tree *tree.Tree
	// groupAlarms is rebuilt on every group frame.
	groupAlarms []station.AlarmEntry
	// pointAlarms is cleared on page 0 and accumulated across later pages.
	pointAlarms []station.AlarmEntry
	// linkUp is the last connectivity signal of the transport.
	linkUp bool
	// polling is set while the station is being polled.
	polling bool
	// active mirrors whether the last combined list was non-empty.
	active bool
	// activeSince is when the current alarm started.
	activeSince time.Time
	// now is the time source.
	now func() time.Time
	// signaler is notified on transitions.
	signaler Signaler
}

// NewMonitor creates a monitor over the provided tree.
// Polling starts stopped and the link starts down.
func NewMonitor(t *tree.Tree, opts ...Option) *Monitor {
	m := &Monitor{
		tree:     t,
		now:      time.Now,
		signaler: nopSignaler{},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Tree returns the state tree the monitor works on.
func (m *Monitor) Tree() *tree.Tree {
	return m.tree
}

// HandlePointFrame decodes and applies a point-status frame.
// A rejected frame leaves the tree and the alarm lists untouched.
func (m *Monitor) HandlePointFrame(data []byte) (*Report, error) {
	update, err := frame.DecodePointFrame(data)
	if err != nil {
		return nil, fmt.Errorf("decode point frame: %w", err)
	}

	return m.ApplyPointFrame(update), nil
}

// HandleGroupFrame decodes and applies a group-status frame.
func (m *Monitor) HandleGroupFrame(data []byte) (*Report, error) {
	update, err := frame.DecodeGroupFrame(data)
	if err != nil {
		return nil, fmt.Errorf("decode group frame: %w", err)
	}

	return m.ApplyGroupFrame(update), nil
}

// ApplyPointFrame applies a decoded point frame.
func (m *Monitor) ApplyPointFrame(update *frame.PointFrameUpdate) *Report {
	if update.StartsCycle() {
		m.pointAlarms = nil
	}

	for i := range update.Records {
		m.applyPoint(&update.Records[i])
	}

	return m.report()
}

// applyPoint stores one record and replaces its alarms.
// Records for points missing from the configuration are dropped.
func (m *Monitor) applyPoint(rec *frame.PointRecord) {
	if !m.tree.SetPointStatus(rec.Group, rec.Point, rec.Status) {
		return
	}

	ref := station.PointRef(rec.Group, rec.Point)
	m.pointAlarms = slices.DeleteFunc(m.pointAlarms, func(entry station.AlarmEntry) bool {
		return entry.Source == ref
	})

	groupName, ok := m.tree.GroupName(rec.Group)
	if !ok {
		return
	}

	pointName, ok := m.tree.PointName(rec.Group, rec.Point)
	if !ok {
		return
	}

	// di2 and the other lines update state only.
	if suffix := inputAlarmText(rec.Status.Lines[station.DI1]); suffix != "" {
		m.pointAlarms = append(m.pointAlarms, pointEntry(groupName, pointName, suffix, rec.Group, rec.Point))
	}

	if rec.Status.Speaker == station.SpeakerProblem {
		m.pointAlarms = append(m.pointAlarms, pointEntry(groupName, pointName, textSpeakerProblem, rec.Group, rec.Point))
	}
}

// ApplyGroupFrame applies a decoded group frame and rebuilds the group alarms.
func (m *Monitor) ApplyGroupFrame(update *frame.GroupFrameUpdate) *Report {
	m.groupAlarms = nil

	for slot := range update.Records {
		rec := &update.Records[slot]
		expected := m.tree.PointCount(slot)

		if !rec.Reported() {
			if expected > 0 {
				m.appendCountBlock(slot, textCountUnknown, expected)
			}

			continue
		}

		m.tree.SetGroupStatus(slot, rec.Status)

		reported := int(rec.Status.ReportedCount)
		if reported >= expected {
			continue
		}

		m.appendCountBlock(slot, strconv.Itoa(reported), expected)

		for point := reported; point < expected; point++ {
			m.tree.ResetPoint(slot, point)
		}
	}

	return m.report()
}

// appendCountBlock adds the 4-line block for a group slot with a configured name.
func (m *Monitor) appendCountBlock(slot int, count string, expected int) {
	name, ok := m.tree.GroupName(slot)
	if !ok {
		return
	}

	m.groupAlarms = append(m.groupAlarms, countBlock(name, count, expected, slot)...)
}

// SetLinkState records a connectivity signal from the transport.
func (m *Monitor) SetLinkState(up bool) *Report {
	m.linkUp = up

	return m.report()
}

// SetPolling starts or stops polling. Stopping discards the accumulated
// alarms so the signaler is silenced until the next cycle.
func (m *Monitor) SetPolling(on bool) *Report {
	m.polling = on
	if !on {
		m.groupAlarms = nil
		m.pointAlarms = nil
	}

	return m.report()
}

// Reload replaces the tree after a configuration change. Alarms raised
// against the old configuration are dropped.
func (m *Monitor) Reload(t *tree.Tree) *Report {
	m.tree = t
	m.groupAlarms = nil
	m.pointAlarms = nil

	return m.report()
}

// Restore carries over the start time of an alarm that was active before a restart.
// It takes effect only if the alarm is raised by the next report.
func (m *Monitor) Restore(since time.Time) {
	if m.active || since.IsZero() {
		return
	}

	m.activeSince = since
}

// Alarms returns the current combined list without changing anything.
func (m *Monitor) Alarms() *Report {
	return &Report{
		Entries:     m.entries(),
		ActiveSince: m.sinceIfActive(),
	}
}

// entries builds the combined list: link loss, group alarms, point alarms.
func (m *Monitor) entries() []station.AlarmEntry {
	entries := make([]station.AlarmEntry, 0, 1+len(m.groupAlarms)+len(m.pointAlarms))

	if m.polling && !m.linkUp {
		entries = append(entries, linkLossEntry())
	}

	entries = append(entries, m.groupAlarms...)
	entries = append(entries, m.pointAlarms...)

	return entries
}

// sinceIfActive returns activeSince while an alarm is active.
func (m *Monitor) sinceIfActive() time.Time {
	if !m.active {
		return time.Time{}
	}

	return m.activeSince
}

// report builds the combined list and handles the alarm-active transition.
func (m *Monitor) report() *Report {
	entries := m.entries()
	transition := TransitionNone

	switch active := len(entries) > 0; {
	case active && !m.active:
		if m.activeSince.IsZero() {
			m.activeSince = m.now()
		}

		m.active = true
		transition = TransitionRaised
		m.signaler.Raise(m.activeSince)
	case !active && m.active:
		m.active = false
		m.activeSince = time.Time{}
		transition = TransitionCleared
		m.signaler.Clear()
	case !active && !m.activeSince.IsZero():
		// A restored start time does not outlive a cycle without alarms.
		m.activeSince = time.Time{}
		transition = TransitionDiscarded
	}

	return &Report{
		Entries:     entries,
		ActiveSince: m.sinceIfActive(),
		Transition:  transition,
	}
}

// nopSignaler is used when no output is configured.
type nopSignaler struct{}

func (nopSignaler) Raise(time.Time) {}
func (nopSignaler) Clear()          {}
