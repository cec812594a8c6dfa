package session

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/mj1618/page-turner/internal/activation"
	"github.com/mj1618/page-turner/internal/discovery"
	"github.com/mj1618/page-turner/internal/model"
	"github.com/mj1618/page-turner/internal/platform"
	"pkt.systems/pslog"
)

// ErrBusy is returned when a cycle is requested while another is in flight.
var ErrBusy = errors.New("a turn is already in progress")

// Result describes one discover+activate cycle.
type Result struct {
	OK     bool   `yaml:"ok"               json:"ok"`
	Page   int    `yaml:"page"             json:"page"`
	Tier   string `yaml:"tier,omitempty"   json:"tier,omitempty"`
	Ref    string `yaml:"ref,omitempty"    json:"ref,omitempty"`
	Bounds [4]int `yaml:"bounds,flow"      json:"bounds"`
	Phase  Phase  `yaml:"phase"            json:"phase"`
	Retry  bool   `yaml:"retry,omitempty"  json:"retry,omitempty"`
	Error  string `yaml:"error,omitempty"  json:"error,omitempty"`
}

// Turner runs one cycle at a time against a document.
type Turner struct {
	Engine *discovery.Engine
	Doc    platform.Document
	Driver *activation.Driver
	State  *State

	// RetryStale re-runs discovery once when the candidate goes stale
	// between discovery and activation.
	RetryStale bool

	busy atomic.Bool
}

// NewTurner wires the driver's counter to state.
func NewTurner(engine *discovery.Engine, doc platform.Document, driver *activation.Driver, state *State) *Turner {
	driver.Counter = state
	return &Turner{Engine: engine, Doc: doc, Driver: driver, State: state, RetryStale: true}
}

// Turn runs one cycle: Idle -> Activating -> Idle on a found candidate,
// Idle -> Halted when discovery finds nothing. The returned Result is
// filled in on failure too.
func (t *Turner) Turn(ctx context.Context) (Result, error) {
	if !t.busy.CompareAndSwap(false, true) {
		return Result{Page: t.State.Page(), Phase: t.State.Phase(), Error: ErrBusy.Error()}, ErrBusy
	}
	defer t.busy.Store(false)

	logger := pslog.Ctx(ctx).With("session", t.State.ID())
	ctx = pslog.ContextWithLogger(ctx, logger)

	res, err := t.turn(ctx, true)
	t.State.record(res.Tier, err)
	res.Page = t.State.Page()
	res.Phase = t.State.Phase()
	if err != nil {
		res.Error = err.Error()
		logger.Warn("turn failed", "err", err, "phase", res.Phase)
	}
	return res, err
}

func (t *Turner) turn(ctx context.Context, mayRetry bool) (Result, error) {
	if t.State.Phase() == PhaseHalted {
		return Result{}, ErrHalted
	}
	c, err := t.Engine.Discover(ctx, t.Doc)
	if errors.Is(err, discovery.ErrNotFound) {
		_ = t.State.transition(PhaseIdle, PhaseHalted)
		return Result{}, err
	}
	if err != nil {
		return Result{}, err
	}

	res := Result{Tier: c.Tier, Ref: model.Ref(c.Element), Bounds: c.Element.Bounds}
	if err := t.State.transition(PhaseIdle, PhaseActivating); err != nil {
		return res, err
	}
	_, err = t.Driver.Activate(ctx, c)
	_ = t.State.transition(PhaseActivating, PhaseIdle)

	if errors.Is(err, activation.ErrStale) && mayRetry && t.RetryStale {
		pslog.Ctx(ctx).Info("candidate went stale, rediscovering", "ref", res.Ref)
		retry, err := t.turn(ctx, false)
		retry.Retry = true
		return retry, err
	}
	if err != nil {
		return res, err
	}
	res.OK = true
	return res, nil
}
