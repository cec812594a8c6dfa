// Package activation turns a discovered candidate into a page turn.
package activation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mj1618/page-turner/internal/model"
	"github.com/mj1618/page-turner/internal/platform"
	"pkt.systems/pslog"
)

// Default timings, matching the reader's own pacing.
const (
	DefaultPrePause = 200 * time.Millisecond
	DefaultSettle   = time.Second
)

// ErrStale is returned when the candidate became disabled, hidden or
// detached between discovery and activation. The page counter is not
// advanced.
var ErrStale = errors.New("candidate is stale")

// Fault is an unexpected host error or panic during activation.
type Fault struct {
	Step string // "inspect", "focus", "click" or "dispatch"
	Err  error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("activation fault during %s: %v", f.Step, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

// Counter receives a tick for each confirmed activation and returns the new
// page number.
type Counter interface {
	Advance() int
}

// Driver performs the activation sequence: pause, staleness check, focus,
// native click, synthetic bubbling click, count, settle.
type Driver struct {
	Host     platform.Activator
	Counter  Counter
	PrePause time.Duration
	Settle   time.Duration

	// Event is the synthetic event type dispatched after the native click.
	// Empty means "click".
	Event string
}

// New returns a driver with the default timings.
func New(host platform.Activator, counter Counter) *Driver {
	return &Driver{Host: host, Counter: counter, PrePause: DefaultPrePause, Settle: DefaultSettle}
}

// Activate runs the sequence against c and returns the new page number.
// It returns ErrStale if c no longer qualifies and a *Fault for anything
// unexpected; in both cases the counter is untouched. Cancelling ctx during
// the settle pause cuts the pause short but still reports success.
func (d *Driver) Activate(ctx context.Context, c model.Candidate) (page int, err error) {
	logger := pslog.Ctx(ctx).With("element", model.Ref(c.Element), "tier", c.Tier)
	step := "inspect"
	defer func() {
		if r := recover(); r != nil {
			page = 0
			err = &Fault{Step: step, Err: fmt.Errorf("panic: %v", r)}
			logger.Error("activation panicked", "step", step, "panic", r)
		}
	}()

	if err := sleep(ctx, d.PrePause); err != nil {
		return 0, err
	}

	id := c.Element.ID
	cur, err := d.Host.Inspect(ctx, id)
	if err != nil {
		return 0, d.classify(ctx, step, err)
	}
	if !cur.Eligible() {
		logger.Warn("candidate went stale", "disabled", cur.Disabled(), "hidden", !cur.Visible())
		return 0, fmt.Errorf("%w: element %d is no longer visible and enabled", ErrStale, id)
	}

	step = "focus"
	if err := d.Host.Focus(ctx, id); err != nil {
		return 0, d.classify(ctx, step, err)
	}
	step = "click"
	if err := d.Host.Click(ctx, id); err != nil {
		return 0, d.classify(ctx, step, err)
	}
	step = "dispatch"
	event := d.Event
	if event == "" {
		event = "click"
	}
	if err := d.Host.Dispatch(ctx, id, event); err != nil {
		// The native click already went through and may have re-rendered
		// the control away.
		if !errors.Is(err, platform.ErrDetached) {
			return 0, d.classify(ctx, step, err)
		}
		logger.Debug("control detached after click", "event", event)
	}

	if d.Counter != nil {
		page = d.Counter.Advance()
	}
	logger.Info("page turned", "page", page)

	if err := sleep(ctx, d.Settle); err != nil {
		logger.Debug("settle cut short", "err", err)
	}
	return page, nil
}

// classify maps a host error to ErrStale, the caller's context error, or a
// Fault.
func (d *Driver) classify(ctx context.Context, step string, err error) error {
	if errors.Is(err, platform.ErrDetached) {
		return fmt.Errorf("%w: %v", ErrStale, err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return &Fault{Step: step, Err: err}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
