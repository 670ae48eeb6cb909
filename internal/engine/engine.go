package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/dispatch-monitor/internal/address"
	"github.com/oshokin/dispatch-monitor/internal/alarm"
	"github.com/oshokin/dispatch-monitor/internal/domain/station"
	"github.com/oshokin/dispatch-monitor/internal/logger"
	"github.com/oshokin/dispatch-monitor/internal/repository/snapshot"
	"github.com/oshokin/dispatch-monitor/internal/tree"
)

// defaultQueueSize is the capacity of the job queue.
const defaultQueueSize = 64

var (
	// ErrEngineStopped is returned for requests made after Run has returned.
	ErrEngineStopped = errors.New("engine stopped")
	// ErrGroupNotFound is returned for group slots outside 0..31.
	ErrGroupNotFound = errors.New("group not found")
)

// job is a unit of work executed on the consumer goroutine.
type job struct {
	// run does the work. It may set the report to persist.
	run func(ctx context.Context) *alarm.Report
	// done is closed once run has returned.
	done chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithRepository persists alarm transitions and restores the alarm start time on Run.
func WithRepository(repo snapshot.Repository) Option {
	return func(e *Engine) {
		e.repo = repo
	}
}

// WithQueueSize sets the capacity of the job queue.
func WithQueueSize(size int) Option {
	return func(e *Engine) {
		if size > 0 {
			e.jobs = make(chan job, size)
		}
	}
}

// WithClock overrides the time source used for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine owns an alarm monitor and runs every operation on it in order.
type Engine struct {
	// monitor is accessed only from the Run goroutine.
	monitor *alarm.Monitor
	// target is the last decoded target feedback.
	target address.Target
	// repo persists alarm transitions. Optional.
	repo snapshot.Repository
	// jobs is the single-consumer queue.
	jobs chan job
	// stopped is closed when Run returns.
	stopped chan struct{}
	// now is the time source.
	now func() time.Time
}

// New creates an engine around the monitor. Nothing runs until Run is called.
func New(monitor *alarm.Monitor, opts ...Option) *Engine {
	e := &Engine{
		monitor: monitor,
		jobs:    make(chan job, defaultQueueSize),
		stopped: make(chan struct{}),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Run consumes the job queue until ctx is canceled.
func (e *Engine) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "engine")

	defer close(e.stopped)

	e.restore(ctx)

	logger.Info(ctx, "Engine started")

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Engine stopped")
			return nil
		case j := <-e.jobs:
			report := j.run(ctx)
			if report != nil && report.Transition != alarm.TransitionNone {
				e.persist(ctx, report)
			}

			close(j.done)
		}
	}
}

// restore carries a persisted alarm start time into the monitor.
func (e *Engine) restore(ctx context.Context) {
	if e.repo == nil {
		return
	}

	snap, err := e.repo.Load(ctx)
	switch {
	case err == nil:
		if !snap.ActiveSince.IsZero() {
			e.monitor.Restore(snap.ActiveSince)
			logger.InfoKV(ctx, "Restored alarm start time", "active_since", snap.ActiveSince)
		}
	case errors.Is(err, snapshot.ErrNotFound):
		// Nothing persisted yet.
	default:
		logger.WarnKV(ctx, "Unable to load alarm snapshot", "error", err)
	}
}

// persist saves the alarm state after a transition. Failures are logged only.
func (e *Engine) persist(ctx context.Context, report *alarm.Report) {
	logger.InfoKV(ctx, "Alarm state changed",
		"transition", report.Transition.String(),
		"entries", len(report.Entries),
		"active_since", report.ActiveSince,
	)

	if e.repo == nil {
		return
	}

	snap := &snapshot.Snapshot{
		ActiveSince: report.ActiveSince,
		SavedAt:     e.now(),
		Entries:     report.Entries,
	}

	if err := e.repo.Save(ctx, snap); err != nil {
		logger.ErrorKV(ctx, "Failed to persist alarm snapshot", "error", err)
	}
}

// do enqueues fn and waits until it has run.
func (e *Engine) do(ctx context.Context, fn func(ctx context.Context) *alarm.Report) error {
	j := job{run: fn, done: make(chan struct{})}

	select {
	case e.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	case <-e.stopped:
		return ErrEngineStopped
	}

	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.stopped:
		return ErrEngineStopped
	}
}

// PushPointFrame decodes and applies a point-status frame.
// A rejected frame is logged and returned as an error; the state is untouched.
func (e *Engine) PushPointFrame(ctx context.Context, data []byte) (*alarm.Report, error) {
	var (
		report    *alarm.Report
		decodeErr error
	)

	err := e.do(ctx, func(ctx context.Context) *alarm.Report {
		report, decodeErr = e.monitor.HandlePointFrame(data)
		if decodeErr != nil {
			logger.WarnKV(ctx, "Point frame rejected", "length", len(data), "error", decodeErr)
		}

		return report
	})
	if err != nil {
		return nil, err
	}

	return report, decodeErr
}

// PushGroupFrame decodes and applies a group-status frame.
func (e *Engine) PushGroupFrame(ctx context.Context, data []byte) (*alarm.Report, error) {
	var (
		report    *alarm.Report
		decodeErr error
	)

	err := e.do(ctx, func(ctx context.Context) *alarm.Report {
		report, decodeErr = e.monitor.HandleGroupFrame(data)
		if decodeErr != nil {
			logger.WarnKV(ctx, "Group frame rejected", "length", len(data), "error", decodeErr)
		}

		return report
	})
	if err != nil {
		return nil, err
	}

	return report, decodeErr
}

// SetLinkState records a connectivity signal from the transport.
func (e *Engine) SetLinkState(ctx context.Context, up bool) (*alarm.Report, error) {
	return e.apply(ctx, func(ctx context.Context) *alarm.Report {
		logger.InfoKV(ctx, "Link state changed", "up", up)

		return e.monitor.SetLinkState(up)
	})
}

// SetPolling starts or stops polling.
func (e *Engine) SetPolling(ctx context.Context, on bool) (*alarm.Report, error) {
	return e.apply(ctx, func(ctx context.Context) *alarm.Report {
		logger.InfoKV(ctx, "Polling state changed", "polling", on)

		return e.monitor.SetPolling(on)
	})
}

// Reload replaces the state tree after a configuration change.
func (e *Engine) Reload(ctx context.Context, t *tree.Tree) (*alarm.Report, error) {
	return e.apply(ctx, func(ctx context.Context) *alarm.Report {
		logger.Info(ctx, "State tree rebuilt from configuration")

		return e.monitor.Reload(t)
	})
}

// Alarms returns the current combined alarm list.
func (e *Engine) Alarms(ctx context.Context) (*alarm.Report, error) {
	var report *alarm.Report

	err := e.do(ctx, func(context.Context) *alarm.Report {
		report = e.monitor.Alarms()

		return nil
	})
	if err != nil {
		return nil, err
	}

	return report, nil
}

// apply runs a state change and returns its report.
func (e *Engine) apply(ctx context.Context, fn func(ctx context.Context) *alarm.Report) (*alarm.Report, error) {
	var report *alarm.Report

	err := e.do(ctx, func(ctx context.Context) *alarm.Report {
		report = fn(ctx)

		return report
	})
	if err != nil {
		return nil, err
	}

	return report, nil
}

// Group returns a copy of a group slot (zero-based).
func (e *Engine) Group(ctx context.Context, slot int) (*station.Group, error) {
	var (
		group *station.Group
		found bool
	)

	err := e.do(ctx, func(context.Context) *alarm.Report {
		group, found = e.monitor.Tree().Group(slot)

		return nil
	})
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, fmt.Errorf("%w: slot %d", ErrGroupNotFound, slot)
	}

	return group, nil
}

// ReportTarget decodes inbound "currently targeted" feedback and stores it.
// An undecodable pair is returned as an error and the stored target is kept.
func (e *Engine) ReportTarget(ctx context.Context, group, point byte) (address.Target, error) {
	target, err := address.Decode(group, point)
	if err != nil {
		return address.Target{}, err
	}

	err = e.do(ctx, func(ctx context.Context) *alarm.Report {
		if e.target != target {
			logger.DebugKV(ctx, "Target feedback", "target", target.String())
		}

		e.target = target

		return nil
	})
	if err != nil {
		return address.Target{}, err
	}

	return target, nil
}

// Target returns the last reported target.
func (e *Engine) Target(ctx context.Context) (address.Target, error) {
	var target address.Target

	err := e.do(ctx, func(context.Context) *alarm.Report {
		target = e.target

		return nil
	})

	return target, err
}
