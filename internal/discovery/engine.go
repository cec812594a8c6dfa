package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mj1618/page-turner/internal/model"
	"github.com/mj1618/page-turner/internal/platform"
	"pkt.systems/pslog"
)

// ErrNotFound is returned by Discover when no tier yields an acceptable
// next-page control.
var ErrNotFound = errors.New("next-page control not found")

// ErrGuardRejected is returned when a tier produced a winner that lies on
// the left half of the viewport. It wraps ErrNotFound.
var ErrGuardRejected = fmt.Errorf("%w: candidate rejected by right-side guard", ErrNotFound)

// Engine locates the next-page control in a document. It holds no page
// state: every call reads the document afresh.
type Engine struct {
	cfg Config
}

// New validates cfg and returns an engine using it.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine's matcher configuration.
func (e *Engine) Config() Config { return e.cfg }

// Select runs the fallback chain and returns the first tier's winner without
// applying the guard. A resolution without a candidate means no tier matched.
func (e *Engine) Select(ctx context.Context, doc platform.Document) (model.Resolution, error) {
	vp, err := doc.Viewport(ctx)
	if err != nil {
		return model.Resolution{}, fmt.Errorf("read viewport: %w", err)
	}
	res := model.Resolution{Viewport: vp}
	logger := pslog.Ctx(ctx)
	for _, tier := range e.cfg.Tiers {
		out, err := e.evalTier(ctx, doc, tier, vp)
		if err != nil {
			return res, err
		}
		if out.winner < 0 {
			logger.Debug("tier miss", "tier", tier.Name, "matches", len(out.matches))
			continue
		}
		el := out.matches[out.winner]
		res.Candidate = &model.Candidate{Element: el, Tier: tier.Name, Order: out.winner}
		logger.Debug("tier hit", "tier", tier.Name, "ref", model.Ref(el), "x", el.Left())
		return res, nil
	}
	return res, nil
}

// Discover runs Select and applies the guard. It returns ErrNotFound when
// nothing matched and ErrGuardRejected when the winner is on the wrong side.
// A rejected winner does not fall through to later tiers.
func (e *Engine) Discover(ctx context.Context, doc platform.Document) (model.Candidate, error) {
	res, err := e.Select(ctx, doc)
	if err != nil {
		return model.Candidate{}, err
	}
	if !res.Found() {
		return model.Candidate{}, ErrNotFound
	}
	c := *res.Candidate
	if err := e.Guard(res.Viewport, c); err != nil {
		pslog.Ctx(ctx).Warn("candidate rejected", "tier", c.Tier, "ref", model.Ref(c.Element),
			"x", c.X(), "viewport_width", res.Viewport.Width)
		return model.Candidate{}, err
	}
	return c, nil
}

// Guard accepts c only if its left edge lies strictly to the right of the
// configured fraction of the viewport width.
func (e *Engine) Guard(vp model.Viewport, c model.Candidate) error {
	limit := float64(vp.Width) * e.cfg.Guard.MinLeftFraction
	if float64(c.X()) > limit {
		return nil
	}
	return fmt.Errorf("%w (tier %s, x=%d, limit=%.0f)", ErrGuardRejected, c.Tier, c.X(), limit)
}

// tierResult is every element a tier looked at, plus the index of its winner
// or -1.
type tierResult struct {
	matches []model.Element
	winner  int
}

func (e *Engine) evalTier(ctx context.Context, doc platform.Document, t Tier, vp model.Viewport) (tierResult, error) {
	switch t.Kind {
	case KindMarker:
		return evalMarker(ctx, doc, t)
	case KindSelectors:
		return evalSelectors(ctx, doc, t)
	case KindPositional:
		return evalPositional(ctx, doc, t, vp)
	}
	return tierResult{winner: -1}, fmt.Errorf("tier %q: unknown kind %q", t.Name, t.Kind)
}

// evalMarker takes the single eligible match, or the rightmost of several.
func evalMarker(ctx context.Context, doc platform.Document, t Tier) (tierResult, error) {
	els, err := doc.Query(ctx, platform.Query{Selector: t.Selector, Closest: t.Closest})
	if err != nil {
		return tierResult{winner: -1}, fmt.Errorf("tier %q: %w", t.Name, err)
	}
	res := tierResult{matches: els, winner: -1}
	eligible := model.FilterEligible(els)
	best := model.Rightmost(eligible)
	if best < 0 {
		return res, nil
	}
	for i, el := range els {
		if el.ID == eligible[best].ID {
			res.winner = i
			break
		}
	}
	return res, nil
}

// evalSelectors tries each selector in order and takes the first eligible
// match of the first selector that has one. An element matched by several
// selectors is reported once.
func evalSelectors(ctx context.Context, doc platform.Document, t Tier) (tierResult, error) {
	res := tierResult{winner: -1}
	for _, sel := range t.Selectors {
		els, err := doc.Query(ctx, platform.Query{Selector: sel, Closest: t.Closest})
		if err != nil {
			return res, fmt.Errorf("tier %q: %w", t.Name, err)
		}
		before := len(res.matches)
		res.matches = model.Dedup(append(res.matches, els...))
		for i := before; i < len(res.matches); i++ {
			if res.matches[i].Eligible() {
				res.winner = i
				return res, nil
			}
		}
	}
	return res, nil
}

// evalPositional takes the first eligible interactive element on screen in
// the rightmost part of the viewport whose content looks like a forward
// arrow.
func evalPositional(ctx context.Context, doc platform.Document, t Tier, vp model.Viewport) (tierResult, error) {
	els, err := doc.Query(ctx, platform.Query{Selector: t.Interactive})
	if err != nil {
		return tierResult{winner: -1}, fmt.Errorf("tier %q: %w", t.Name, err)
	}
	res := tierResult{matches: els, winner: -1}
	edge := vp.FromRight(t.RightFraction)
	for i, el := range els {
		if !el.Eligible() || !model.InViewport(el, vp) || float64(el.Left()) < edge {
			continue
		}
		if looksForward(el, t) {
			res.winner = i
			break
		}
	}
	return res, nil
}

// looksForward reports whether the element's text carries a forward glyph or
// its markup carries a forward icon marker.
func looksForward(el model.Element, t Tier) bool {
	for _, g := range t.Glyphs {
		if g != "" && strings.Contains(el.Text, g) {
			return true
		}
	}
	html := strings.ToLower(el.HTML)
	for _, m := range t.IconMarkers {
		if m == "" {
			continue
		}
		if model.MatchesText(el, m) || strings.Contains(html, strings.ToLower(m)) {
			return true
		}
	}
	return false
}
