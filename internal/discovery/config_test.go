package discovery

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Tiers[0].Kind != KindMarker {
		t.Errorf("first tier kind = %q, want marker", cfg.Tiers[0].Kind)
	}
	if cfg.Guard.MinLeftFraction != 0.5 {
		t.Errorf("guard = %v, want 0.5", cfg.Guard.MinLeftFraction)
	}
}

func TestLoadConfig_File(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata", "matchers.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	want := Config{
		Tiers: []Tier{
			{Name: "pager-marker", Kind: KindMarker, Selector: `[data-role="pager-next"]`, Closest: "button"},
			{
				Name:          "arrows",
				Kind:          KindPositional,
				Interactive:   defaultInteractive,
				RightFraction: 0.25,
				Glyphs:        []string{"→"},
			},
		},
		Guard: Guard{MinLeftFraction: 0.6},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_EmptyPathIsDefault(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("default mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "read matchers") {
		t.Fatalf("err = %v, want read error", err)
	}
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
tiers:
  - name: arrows
    kind: positional
    icon_markers: [chevron-right]
`))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Guard.MinLeftFraction != 0.5 {
		t.Errorf("guard = %v, want 0.5", cfg.Guard.MinLeftFraction)
	}
	if cfg.Tiers[0].RightFraction != 0.3 {
		t.Errorf("right_fraction = %v, want 0.3", cfg.Tiers[0].RightFraction)
	}
	if cfg.Tiers[0].Interactive == "" {
		t.Error("interactive selector not defaulted")
	}
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"no tiers", "guard: {min_left_fraction: 0.5}", "at least one tier"},
		{"unknown field", "tiers: []\nbogus: 1", "decode matchers"},
		{"unknown kind", "tiers: [{name: a, kind: magic}]", "unknown kind"},
		{"unnamed tier", "tiers: [{kind: marker, selector: x}]", "has no name"},
		{"duplicate name", "tiers: [{name: a, kind: marker, selector: x}, {name: a, kind: marker, selector: y}]", "duplicate"},
		{"marker without selector", "tiers: [{name: a, kind: marker}]", "needs a selector"},
		{"selectors without list", "tiers: [{name: a, kind: selectors}]", "at least one selector"},
		{"positional without content hints", "tiers: [{name: a, kind: positional}]", "glyphs or icon_markers"},
		{"positional fraction too big", "tiers: [{name: a, kind: positional, glyphs: ['>'], right_fraction: 1.5}]", "right_fraction"},
		{"guard out of range", "tiers: [{name: a, kind: marker, selector: x}]\nguard: {min_left_fraction: 1.2}", "min_left_fraction"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_DrivesEngine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.yaml")
	data := "tiers:\n  - name: pager\n    kind: selectors\n    selectors: ['[data-role=\"pager-next\"]']\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	doc := page(t, 1000, `<button data-role="pager-next" data-bounds="900,10,40,40">Go</button>`)
	c, err := e.Discover(t.Context(), doc)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if c.Tier != "pager" || c.X() != 900 {
		t.Errorf("got tier %q x %d", c.Tier, c.X())
	}
}
