package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mj1618/page-turner/internal/platform"
	"pkt.systems/pslog"
)

// Default scheduler timings.
const (
	DefaultStartDelay  = time.Second
	DefaultWaitTimeout = 5 * time.Second
)

// SchedulerOptions configures a Scheduler.
type SchedulerOptions struct {
	StartDelay time.Duration

	// WaitFor, if set, is awaited after the start delay and before the
	// first tick. A timeout is logged and the schedule starts anyway.
	WaitFor     *platform.Query
	WaitTimeout time.Duration

	// OnTurn, if set, is called after every scheduled cycle.
	OnTurn func(Result, error)
}

// Scheduler drives a Turner periodically at the session's interval. One
// scheduler owns one run; create a new one to start again after Stop.
type Scheduler struct {
	turner *Turner
	opts   SchedulerOptions

	stop     chan struct{}
	stopOnce sync.Once
	rearm    chan time.Duration
	done     chan struct{}
}

// NewScheduler returns a scheduler for t.
func NewScheduler(t *Turner, opts SchedulerOptions) *Scheduler {
	if opts.WaitTimeout == 0 {
		opts.WaitTimeout = DefaultWaitTimeout
	}
	return &Scheduler{
		turner: t,
		opts:   opts,
		stop:   make(chan struct{}),
		rearm:  make(chan time.Duration, 1),
		done:   make(chan struct{}),
	}
}

// Run blocks until the session halts, Stop is called or ctx is done. It
// returns nil on halt and stop, and ctx's error on cancellation.
func (s *Scheduler) Run(ctx context.Context) error {
	state := s.turner.State
	state.setRunning(true)
	defer func() {
		state.setRunning(false)
		close(s.done)
	}()
	logger := pslog.Ctx(ctx).With("session", state.ID())
	ctx = pslog.ContextWithLogger(ctx, logger)
	logger.Info("session started", "interval", state.Interval(), "page", state.Page())

	if !s.pause(ctx, s.opts.StartDelay) {
		return ctx.Err()
	}
	if q := s.opts.WaitFor; q != nil {
		if _, err := WaitFor(ctx, s.turner.Doc, *q, s.opts.WaitTimeout); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("marker not present before first tick", "selector", q.String(), "err", err)
		}
	}

	ticker := time.NewTicker(state.Interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stop:
			logger.Info("session stopped", "page", state.Page())
			return nil
		case d := <-s.rearm:
			ticker.Reset(d)
			logger.Info("interval changed", "interval", d)
		case <-ticker.C:
			if s.stopped() {
				continue
			}
			if state.Phase() == PhaseHalted {
				logger.Info("session halted", "page", state.Page())
				return nil
			}
			res, err := s.turner.Turn(ctx)
			if s.opts.OnTurn != nil {
				s.opts.OnTurn(res, err)
			}
			if errors.Is(err, ErrBusy) {
				logger.Debug("tick skipped, turn in flight")
				continue
			}
			if state.Phase() == PhaseHalted {
				logger.Info("session halted", "page", state.Page(), "err", err)
				return nil
			}
		}
	}
}

// Stop prevents further cycles. A cycle already in flight finishes.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Done is closed when Run returns.
func (s *Scheduler) Done() <-chan struct{} { return s.done }

// SetInterval validates d, stores it in the session and re-arms the ticker.
func (s *Scheduler) SetInterval(d time.Duration) error {
	if err := s.turner.State.SetInterval(d); err != nil {
		return err
	}
	for {
		select {
		case s.rearm <- d:
			return nil
		default:
		}
		select {
		case <-s.rearm:
		default:
		}
	}
}

// TurnNow runs a cycle immediately, subject to the same single-flight
// guard as scheduled cycles.
func (s *Scheduler) TurnNow(ctx context.Context) (Result, error) {
	return s.turner.Turn(ctx)
}

func (s *Scheduler) stopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// pause waits d. It returns false if ctx ended or Stop was called first.
func (s *Scheduler) pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil && !s.stopped()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-s.stop:
		return false
	case <-t.C:
		return true
	}
}
