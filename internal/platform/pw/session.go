// Package pw drives Chromium through playwright-go. It is the alternative
// to the chromedp driver for hosts where Playwright's bundled browser is
// easier to provision than a system Chrome.
package pw

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/mj1618/page-turner/internal/model"
	"github.com/mj1618/page-turner/internal/platform"
	"github.com/mj1618/page-turner/internal/platform/script"
	"github.com/playwright-community/playwright-go"
)

// Session is one Playwright browser with a single page.
type Session struct {
	mu        sync.Mutex
	pw        *playwright.Playwright
	browser   playwright.Browser
	context   playwright.BrowserContext
	page      playwright.Page
	closeOnce sync.Once
}

// Start installs (if needed) and runs Playwright, launches Chromium and
// opens opts.URL.
func Start(opts platform.Options) (*Session, error) {
	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if err := playwright.Install(runOpts); err != nil {
		return nil, fmt.Errorf("failed to install playwright: %w", err)
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	s := &Session{pw: pw}
	vp := opts.ViewportOrDefault()
	if opts.UserDataDir != "" {
		bctx, err := pw.Chromium.LaunchPersistentContext(opts.UserDataDir, playwright.BrowserTypeLaunchPersistentContextOptions{
			Headless: playwright.Bool(opts.Headless),
			Viewport: &playwright.Size{Width: vp.Width, Height: vp.Height},
		})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		s.context = bctx
	} else {
		browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(opts.Headless),
		})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		s.browser = browser
		bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
			Viewport: &playwright.Size{Width: vp.Width, Height: vp.Height},
		})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to create context: %w", err)
		}
		s.context = bctx
	}

	page, err := s.context.NewPage()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	if opts.Timeout > 0 {
		page.SetDefaultTimeout(float64(opts.Timeout.Milliseconds()))
	}
	s.page = page

	if opts.URL != "" {
		if err := s.Navigate(context.Background(), opts.URL); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

// Provider wraps the session as a platform.Provider.
func (s *Session) Provider() *platform.Provider {
	return &platform.Provider{
		Document:      s,
		Activator:     s,
		Navigator:     s,
		Screenshotter: s,
		Closer:        s.Close,
	}
}

// Close shuts down the page, browser and Playwright driver.
func (s *Session) Close() error {
	var firstErr error
	s.closeOnce.Do(func() {
		if s.context != nil {
			if err := s.context.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if s.browser != nil {
			if err := s.browser.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if s.pw != nil {
			if err := s.pw.Stop(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	})
	return firstErr
}

// Navigate loads url and waits for DOMContentLoaded.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// evaluate runs a snippet and decodes its JSON result into dest.
func (s *Session) evaluate(ctx context.Context, js string, dest any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := s.page.Evaluate(js)
	if err != nil {
		return err
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode evaluate result: %w", err)
	}
	return json.Unmarshal(b, dest)
}

// Query evaluates the measurement script for q.
func (s *Session) Query(ctx context.Context, q platform.Query) ([]model.Element, error) {
	var elements []model.Element
	if err := s.evaluate(ctx, script.Query(q), &elements); err != nil {
		return nil, fmt.Errorf("query %s: %w", q, err)
	}
	return script.Normalize(elements), nil
}

// Viewport reads window.innerWidth/innerHeight.
func (s *Session) Viewport(ctx context.Context) (model.Viewport, error) {
	var vp model.Viewport
	if err := s.evaluate(ctx, script.Viewport, &vp); err != nil {
		return model.Viewport{}, fmt.Errorf("viewport: %w", err)
	}
	return vp, nil
}

// Inspect re-measures a stamped element.
func (s *Session) Inspect(ctx context.Context, id int) (model.Element, error) {
	var res script.InspectResult
	if err := s.evaluate(ctx, script.Inspect(id), &res); err != nil {
		return model.Element{}, fmt.Errorf("inspect %d: %w", id, err)
	}
	if !res.Found {
		return model.Element{}, fmt.Errorf("element %d: %w", id, platform.ErrDetached)
	}
	return script.NormalizeOne(res.Element), nil
}

// Focus focuses a stamped element.
func (s *Session) Focus(ctx context.Context, id int) error {
	return s.act(ctx, id, "focus", script.Focus(id))
}

// Click invokes a stamped element's native click().
func (s *Session) Click(ctx context.Context, id int) error {
	return s.act(ctx, id, "click", script.Click(id))
}

// Dispatch fires a synthetic bubbling event at a stamped element.
func (s *Session) Dispatch(ctx context.Context, id int, event string) error {
	return s.act(ctx, id, "dispatch "+event, script.Dispatch(id, event))
}

func (s *Session) act(ctx context.Context, id int, what, js string) error {
	var ok bool
	if err := s.evaluate(ctx, js, &ok); err != nil {
		return fmt.Errorf("%s %d: %w", what, id, err)
	}
	if !ok {
		return fmt.Errorf("%s element %d: %w", what, id, platform.ErrDetached)
	}
	return nil
}

// Screenshot captures the viewport as PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	buf, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		Type: playwright.ScreenshotTypePng,
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return buf, nil
}
