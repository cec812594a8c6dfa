package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mj1618/page-turner/internal/model"
	"github.com/mj1618/page-turner/internal/platform"
)

// TierReport is what one tier saw during a probe.
type TierReport struct {
	Name     string          `yaml:"name"               json:"name"`
	Kind     Kind            `yaml:"kind"               json:"kind"`
	Matches  []model.Element `yaml:"matches,omitempty"  json:"matches,omitempty"`
	Eligible int             `yaml:"eligible"           json:"eligible"`
	Winner   *model.Element  `yaml:"winner,omitempty"   json:"winner,omitempty"`
}

// Report is the outcome of a dry-run discovery: every tier's view of the
// page, the candidate Discover would pick and the guard's verdict. Nothing
// is activated.
type Report struct {
	Viewport  model.Viewport   `yaml:"viewport"            json:"viewport"`
	Tiers     []TierReport     `yaml:"tiers"               json:"tiers"`
	Candidate *model.Candidate `yaml:"candidate,omitempty" json:"candidate,omitempty"`
	Ref       string           `yaml:"ref,omitempty"       json:"ref,omitempty"`
	Guard     string           `yaml:"guard"               json:"guard"`

	// Forward and Backward report whether the winner's markup carries the
	// configured forward/backward hints.
	Forward  bool `yaml:"forward"  json:"forward"`
	Backward bool `yaml:"backward" json:"backward"`

	// Debug lists elements matching the debug selector, dumped when no
	// candidate was found.
	Debug []model.Element `yaml:"debug,omitempty" json:"debug,omitempty"`
}

// Accepted reports whether Discover would return the candidate.
func (r Report) Accepted() bool { return r.Candidate != nil && r.Guard == "pass" }

// LooksForward reports whether the winner carries the forward hint and not
// the backward one.
func (r Report) LooksForward() bool { return r.Forward && !r.Backward }

// Probe evaluates every tier, including those after the winning one, and
// reports what each saw.
func (e *Engine) Probe(ctx context.Context, doc platform.Document) (Report, error) {
	vp, err := doc.Viewport(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("read viewport: %w", err)
	}
	rep := Report{Viewport: vp, Guard: "none"}
	for _, tier := range e.cfg.Tiers {
		out, err := e.evalTier(ctx, doc, tier, vp)
		if err != nil {
			return rep, err
		}
		tr := TierReport{Name: tier.Name, Kind: tier.Kind, Matches: out.matches}
		for _, el := range out.matches {
			if el.Eligible() {
				tr.Eligible++
			}
		}
		if out.winner >= 0 {
			w := out.matches[out.winner]
			tr.Winner = &w
			if rep.Candidate == nil {
				rep.Candidate = &model.Candidate{Element: w, Tier: tier.Name, Order: out.winner}
			}
		}
		rep.Tiers = append(rep.Tiers, tr)
	}

	if rep.Candidate == nil {
		if e.cfg.DebugSelector != "" {
			rep.Debug, err = doc.Query(ctx, platform.Query{Selector: e.cfg.DebugSelector})
			if err != nil {
				return rep, fmt.Errorf("debug query: %w", err)
			}
		}
		return rep, nil
	}

	rep.Ref = model.Ref(rep.Candidate.Element)
	if err := e.Guard(vp, *rep.Candidate); err != nil {
		if !errors.Is(err, ErrGuardRejected) {
			return rep, err
		}
		rep.Guard = "rejected"
	} else {
		rep.Guard = "pass"
	}
	markup := strings.ToLower(rep.Candidate.Element.HTML + " " + strings.Join(rep.Candidate.Element.Markers, " "))
	if h := e.cfg.Hints.Forward; h != "" {
		rep.Forward = strings.Contains(markup, strings.ToLower(h))
	}
	if h := e.cfg.Hints.Backward; h != "" {
		rep.Backward = strings.Contains(markup, strings.ToLower(h))
	}
	return rep, nil
}
