package platform

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mj1618/page-turner/internal/model"
)

// Query selects elements in the document.
type Query struct {
	Selector string // CSS selector (groups allowed)
	Closest  string // Optional ancestor selector each match is mapped to
}

func (q Query) String() string {
	if q.Closest == "" {
		return q.Selector
	}
	return fmt.Sprintf("%s => closest(%s)", q.Selector, q.Closest)
}

// Options configures how a driver opens the page.
type Options struct {
	URL         string         // Page to load; empty leaves the browser on about:blank
	Headless    bool           // Run without a visible window
	Viewport    model.Viewport // Window size; zero uses the driver default
	Timeout     time.Duration  // Per-call timeout; zero means none
	UserDataDir string         // Browser profile directory, keeps logins between runs
}

// DefaultViewport is used when Options.Viewport is zero.
var DefaultViewport = model.Viewport{Width: 1280, Height: 800}

// ViewportOrDefault returns the configured viewport or DefaultViewport.
func (o Options) ViewportOrDefault() model.Viewport {
	if o.Viewport.Width <= 0 || o.Viewport.Height <= 0 {
		return DefaultViewport
	}
	return o.Viewport
}

// Bounds represents a screen rectangle.
type Bounds struct {
	X, Y, Width, Height int
}

// Array returns the bounds as [x, y, width, height].
func (b Bounds) Array() [4]int {
	return [4]int{b.X, b.Y, b.Width, b.Height}
}

// ParseBBox parses a "x,y,w,h" string into a Bounds.
func ParseBBox(s string) (*Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("invalid bbox %q: expected x,y,w,h", s)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid bbox %q: %w", s, err)
		}
		vals[i] = v
	}
	return &Bounds{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}

// ParseViewport parses a "WxH" string such as "1280x800".
func ParseViewport(s string) (model.Viewport, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return model.Viewport{}, fmt.Errorf("invalid viewport %q: expected WxH", s)
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return model.Viewport{}, fmt.Errorf("invalid viewport %q: %w", s, err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return model.Viewport{}, fmt.Errorf("invalid viewport %q: %w", s, err)
	}
	if width <= 0 || height <= 0 {
		return model.Viewport{}, fmt.Errorf("invalid viewport %q: dimensions must be positive", s)
	}
	return model.Viewport{Width: width, Height: height}, nil
}
