// Package cdp drives a local Chrome/Chromium over the DevTools protocol
// using chromedp.
package cdp

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/mj1618/page-turner/internal/model"
	"github.com/mj1618/page-turner/internal/platform"
	"github.com/mj1618/page-turner/internal/platform/script"
)

// Browser is one chromedp-controlled tab.
type Browser struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	timeout     time.Duration
}

// Launch starts a browser, sizes the viewport and opens opts.URL.
func Launch(opts platform.Options) (*Browser, error) {
	vp := opts.ViewportOrDefault()
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", opts.Headless),
		chromedp.WindowSize(vp.Width, vp.Height),
	)
	if opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	b := &Browser{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		timeout:     opts.Timeout,
	}

	// The first Run starts the browser process.
	if err := chromedp.Run(tabCtx, chromedp.EmulateViewport(int64(vp.Width), int64(vp.Height))); err != nil {
		b.Close()
		return nil, fmt.Errorf("chromedp failed to start: %w", err)
	}
	if opts.URL != "" {
		if err := b.Navigate(context.Background(), opts.URL); err != nil {
			b.Close()
			return nil, err
		}
	}
	return b, nil
}

// Provider wraps the browser as a platform.Provider.
func (b *Browser) Provider() *platform.Provider {
	return &platform.Provider{
		Document:      b,
		Activator:     b,
		Navigator:     b,
		Screenshotter: b,
		Closer:        b.Close,
	}
}

// Close shuts down the tab and the browser process.
func (b *Browser) Close() error {
	b.cancelTab()
	b.cancelAlloc()
	return nil
}

// run executes actions on the tab, bounded by ctx and the per-call timeout.
func (b *Browser) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(b.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if b.timeout > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, b.timeout)
		defer cancelTimeout()
	}
	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// Navigate loads url and waits for the body to be ready.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	if err := b.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// Query evaluates the measurement script for q.
func (b *Browser) Query(ctx context.Context, q platform.Query) ([]model.Element, error) {
	var elements []model.Element
	if err := b.run(ctx, chromedp.Evaluate(script.Query(q), &elements)); err != nil {
		return nil, fmt.Errorf("query %s: %w", q, err)
	}
	return script.Normalize(elements), nil
}

// Viewport reads window.innerWidth/innerHeight.
func (b *Browser) Viewport(ctx context.Context) (model.Viewport, error) {
	var vp model.Viewport
	if err := b.run(ctx, chromedp.Evaluate(script.Viewport, &vp)); err != nil {
		return model.Viewport{}, fmt.Errorf("viewport: %w", err)
	}
	return vp, nil
}

// Inspect re-measures a stamped element.
func (b *Browser) Inspect(ctx context.Context, id int) (model.Element, error) {
	var res script.InspectResult
	if err := b.run(ctx, chromedp.Evaluate(script.Inspect(id), &res)); err != nil {
		return model.Element{}, fmt.Errorf("inspect %d: %w", id, err)
	}
	if !res.Found {
		return model.Element{}, fmt.Errorf("element %d: %w", id, platform.ErrDetached)
	}
	return script.NormalizeOne(res.Element), nil
}

// Focus focuses a stamped element.
func (b *Browser) Focus(ctx context.Context, id int) error {
	return b.act(ctx, id, "focus", script.Focus(id))
}

// Click invokes a stamped element's native click().
func (b *Browser) Click(ctx context.Context, id int) error {
	return b.act(ctx, id, "click", script.Click(id))
}

// Dispatch fires a synthetic bubbling event at a stamped element.
func (b *Browser) Dispatch(ctx context.Context, id int, event string) error {
	return b.act(ctx, id, "dispatch "+event, script.Dispatch(id, event))
}

// act evaluates an activation snippet as a user gesture, so the page treats
// the resulting events like real input.
func (b *Browser) act(ctx context.Context, id int, what, js string) error {
	var ok bool
	userGesture := func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithUserGesture(true)
	}
	if err := b.run(ctx, chromedp.Evaluate(js, &ok, userGesture)); err != nil {
		return fmt.Errorf("%s %d: %w", what, id, err)
	}
	if !ok {
		return fmt.Errorf("%s element %d: %w", what, id, platform.ErrDetached)
	}
	return nil
}

// Screenshot captures the viewport as PNG.
func (b *Browser) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := b.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return buf, nil
}
