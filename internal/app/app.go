// Package app wires a configured driver, discovery engine, activation
// driver and session together. Both the CLI and the MCP server build on it.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/mj1618/page-turner/internal/activation"
	"github.com/mj1618/page-turner/internal/config"
	"github.com/mj1618/page-turner/internal/discovery"
	"github.com/mj1618/page-turner/internal/platform"
	"github.com/mj1618/page-turner/internal/session"
	"pkt.systems/pslog"
)

// App is one opened page plus everything needed to turn it.
type App struct {
	Config   config.Config
	Provider *platform.Provider
	Engine   *discovery.Engine
	State    *session.State
	Turner   *session.Turner
}

// Open starts the configured driver and wires an App around it.
func Open(ctx context.Context, cfg config.Config) (*App, error) {
	logger := pslog.Ctx(ctx).With("driver", cfg.Driver)
	logger.Debug("opening page", "url", cfg.URL, "headless", cfg.Headless, "viewport", cfg.Viewport)
	provider, err := platform.Open(cfg.Driver, cfg.PlatformOptions())
	if err != nil {
		return nil, fmt.Errorf("open %s driver: %w", cfg.Driver, err)
	}
	a, err := New(cfg, provider)
	if err != nil {
		_ = provider.Close()
		return nil, err
	}
	logger.Info("page opened", "session", a.State.ID())
	return a, nil
}

// New wires an App around an already opened provider.
func New(cfg config.Config, provider *platform.Provider) (*App, error) {
	if provider == nil || provider.Document == nil || provider.Activator == nil {
		return nil, errors.New("driver provides no document access")
	}
	matchers, err := discovery.LoadConfig(cfg.Matchers)
	if err != nil {
		return nil, err
	}
	engine, err := discovery.New(matchers)
	if err != nil {
		return nil, err
	}
	state, err := session.NewState(cfg.Interval)
	if err != nil {
		return nil, err
	}
	driver := &activation.Driver{
		Host:     provider.Activator,
		PrePause: cfg.PrePause,
		Settle:   cfg.Settle,
	}
	turner := session.NewTurner(engine, provider.Document, driver, state)
	turner.RetryStale = cfg.RetryStale
	return &App{
		Config:   cfg,
		Provider: provider,
		Engine:   engine,
		State:    state,
		Turner:   turner,
	}, nil
}

// Scheduler returns a new scheduler for the session. onTurn may be nil.
func (a *App) Scheduler(onTurn func(session.Result, error)) *session.Scheduler {
	return session.NewScheduler(a.Turner, session.SchedulerOptions{
		StartDelay:  a.Config.StartDelay,
		WaitFor:     a.WaitQuery(),
		WaitTimeout: a.Config.WaitTimeout,
		OnTurn:      onTurn,
	})
}

// WaitQuery is what the scheduler waits for before its first tick: the
// configured wait_for selector, else the first marker tier.
func (a *App) WaitQuery() *platform.Query {
	if a.Config.WaitFor != "" {
		return &platform.Query{Selector: a.Config.WaitFor}
	}
	for _, t := range a.Engine.Config().Tiers {
		if t.Kind == discovery.KindMarker {
			return &platform.Query{Selector: t.Selector, Closest: t.Closest}
		}
	}
	return nil
}

// Probe runs a dry-run discovery against the page.
func (a *App) Probe(ctx context.Context) (discovery.Report, error) {
	return a.Engine.Probe(ctx, a.Provider.Document)
}

// Navigate loads url in the page, if the driver supports it.
func (a *App) Navigate(ctx context.Context, url string) error {
	if a.Provider.Navigator == nil {
		return fmt.Errorf("%s driver cannot navigate", a.Config.Driver)
	}
	return a.Provider.Navigator.Navigate(ctx, url)
}

// Close releases the driver.
func (a *App) Close() error {
	return a.Provider.Close()
}
