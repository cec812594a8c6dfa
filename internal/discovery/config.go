package discovery

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Kind selects the strategy a tier uses.
type Kind string

const (
	// KindMarker matches an application-specific marker. A single eligible
	// match wins outright; several are disambiguated by taking the rightmost.
	KindMarker Kind = "marker"
	// KindSelectors tries broader selectors in priority order and takes the
	// first eligible match.
	KindSelectors Kind = "selectors"
	// KindPositional scans interactive elements for one in the right part
	// of the viewport whose content looks like a forward arrow.
	KindPositional Kind = "positional"
)

// Tier is one level of the discovery fallback chain.
type Tier struct {
	Name string `yaml:"name"`
	Kind Kind   `yaml:"kind"`

	// Marker tiers.
	Selector string `yaml:"selector,omitempty"`

	// Closest maps each match to its nearest ancestor (or self) matching this
	// selector. Used by marker and selectors tiers.
	Closest string `yaml:"closest,omitempty"`

	// Selectors tiers, highest priority first.
	Selectors []string `yaml:"selectors,omitempty"`

	// Positional tiers.
	Interactive   string   `yaml:"interactive,omitempty"`
	RightFraction float64  `yaml:"right_fraction,omitempty"`
	Glyphs        []string `yaml:"glyphs,omitempty"`
	IconMarkers   []string `yaml:"icon_markers,omitempty"`
}

// Guard is the right-side safety check applied to the winner before it may
// be activated.
type Guard struct {
	// MinLeftFraction is the fraction of the viewport width the winner's
	// left edge must lie strictly beyond.
	MinLeftFraction float64 `yaml:"min_left_fraction"`
}

// Hints are substrings used by Probe to sanity-check a winner's markup.
type Hints struct {
	Forward  string `yaml:"forward"`
	Backward string `yaml:"backward"`
}

// Config is the ordered list of matchers plus the guard. It is data, so the
// reader's current markup can be supplied without code changes.
type Config struct {
	Tiers []Tier `yaml:"tiers"`
	Guard Guard  `yaml:"guard"`
	Hints Hints  `yaml:"hints"`

	// DebugSelector lists markers dumped by Probe when nothing is found.
	DebugSelector string `yaml:"debug_selector,omitempty"`
}

const (
	defaultMinLeftFraction = 0.5
	defaultRightFraction   = 0.3
	defaultInteractive     = `button, a, [role="button"]`
)

// DefaultConfig returns matchers for the Árvore/Leia reader, with generic
// fallbacks for layouts that drop the caret test ids.
func DefaultConfig() Config {
	return Config{
		Tiers: []Tier{
			{
				Name:     "caret-marker",
				Kind:     KindMarker,
				Selector: `span[data-testid="bonsai-icon-caret-right"]`,
				Closest:  "button",
			},
			{
				Name:    "semantic",
				Kind:    KindSelectors,
				Closest: defaultInteractive,
				Selectors: []string{
					`[aria-label*="Next"]`,
					`[aria-label*="next"]`,
					`[aria-label*="Próxima"]`,
					`[aria-label*="próxima"]`,
					`[aria-label*="Avançar"]`,
					`[aria-label*="avançar"]`,
					`[aria-label*="Siguiente"]`,
					`[rel="next"]`,
					`.next-page`,
					`.nav-next`,
					`.pagination-next`,
					`[class*="next"]`,
					`[class*="forward"]`,
					`[class*="right"]`,
				},
			},
			{
				Name:          "positional",
				Kind:          KindPositional,
				Interactive:   defaultInteractive,
				RightFraction: defaultRightFraction,
				Glyphs:        []string{"›", "»", "→", "❯", "〉", "⟩", "▶", "►", ">"},
				IconMarkers: []string{
					"caret-right", "chevron-right", "arrow-right", "angle-right",
					"arrow_forward", "navigate_next", "icon-next",
				},
			},
		},
		Guard:         Guard{MinLeftFraction: defaultMinLeftFraction},
		Hints:         Hints{Forward: "caret-right", Backward: "caret-left"},
		DebugSelector: `[data-testid*="caret"]`,
	}
}

// ParseConfig decodes a YAML matcher config, fills defaults and validates it.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode matchers: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a matcher config file. An empty path returns DefaultConfig.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read matchers: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Guard.MinLeftFraction == 0 {
		c.Guard.MinLeftFraction = defaultMinLeftFraction
	}
	for i := range c.Tiers {
		t := &c.Tiers[i]
		if t.Kind == KindPositional {
			if t.RightFraction == 0 {
				t.RightFraction = defaultRightFraction
			}
			if t.Interactive == "" {
				t.Interactive = defaultInteractive
			}
		}
	}
}

// Validate checks that every tier carries what its kind needs.
func (c Config) Validate() error {
	if len(c.Tiers) == 0 {
		return errors.New("matchers: at least one tier is required")
	}
	if c.Guard.MinLeftFraction < 0 || c.Guard.MinLeftFraction >= 1 {
		return fmt.Errorf("matchers: guard.min_left_fraction %v must be in [0, 1)", c.Guard.MinLeftFraction)
	}
	seen := make(map[string]bool, len(c.Tiers))
	for i, t := range c.Tiers {
		if t.Name == "" {
			return fmt.Errorf("matchers: tier %d has no name", i)
		}
		if seen[t.Name] {
			return fmt.Errorf("matchers: duplicate tier name %q", t.Name)
		}
		seen[t.Name] = true
		switch t.Kind {
		case KindMarker:
			if t.Selector == "" {
				return fmt.Errorf("matchers: marker tier %q needs a selector", t.Name)
			}
		case KindSelectors:
			if len(t.Selectors) == 0 {
				return fmt.Errorf("matchers: selectors tier %q needs at least one selector", t.Name)
			}
		case KindPositional:
			if t.RightFraction <= 0 || t.RightFraction > 1 {
				return fmt.Errorf("matchers: positional tier %q right_fraction %v must be in (0, 1]", t.Name, t.RightFraction)
			}
			if len(t.Glyphs) == 0 && len(t.IconMarkers) == 0 {
				return fmt.Errorf("matchers: positional tier %q needs glyphs or icon_markers", t.Name)
			}
		default:
			return fmt.Errorf("matchers: tier %q has unknown kind %q (use marker, selectors, or positional)", t.Name, t.Kind)
		}
	}
	return nil
}
