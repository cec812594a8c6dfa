package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mj1618/page-turner/internal/model"
	"gopkg.in/yaml.v3"
)

type result struct {
	Page     int             `yaml:"page"              json:"page"`
	Tier     string          `yaml:"tier,omitempty"    json:"tier,omitempty"`
	Elements []model.Element `yaml:"elements"          json:"elements"`
}

func sample() result {
	return result{
		Page: 2,
		Tier: "caret-marker",
		Elements: []model.Element{
			{ID: 1, Role: "btn", Title: "Próxima <página>", Bounds: [4]int{800, 380, 40, 40}},
		},
	}
}

// capture swaps Stdout and the format globals for the duration of fn.
func capture(t *testing.T, format Format, pretty bool, fn func() error) string {
	t.Helper()
	oldOut, oldFormat, oldPretty := Stdout, OutputFormat, PrettyOutput
	var buf bytes.Buffer
	Stdout, OutputFormat, PrettyOutput = &buf, format, pretty
	defer func() { Stdout, OutputFormat, PrettyOutput = oldOut, oldFormat, oldPretty }()
	if err := fn(); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestPrint_JSONCompact(t *testing.T) {
	out := capture(t, FormatJSON, false, func() error { return Print(sample()) })
	if strings.Count(out, "\n") != 1 {
		t.Errorf("compact output should be single line, got:\n%s", out)
	}
	if !strings.Contains(out, "<página>") {
		t.Errorf("HTML should not be escaped: %s", out)
	}
	var decoded result
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Page != 2 || len(decoded.Elements) != 1 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestPrint_JSONPretty(t *testing.T) {
	out := capture(t, FormatJSON, true, func() error { return Print(sample()) })
	if strings.Count(out, "\n") <= 1 {
		t.Errorf("pretty output should be multi-line, got:\n%s", out)
	}
}

func TestPrint_YAML(t *testing.T) {
	out := capture(t, FormatYAML, false, func() error { return Print(sample()) })
	var decoded result
	if err := yaml.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if decoded.Tier != "caret-marker" || decoded.Elements[0].Bounds[0] != 800 {
		t.Errorf("decoded = %+v", decoded)
	}
	if !strings.HasPrefix(out, "page: 2\n") {
		t.Errorf("unexpected YAML layout:\n%s", out)
	}
}

func TestPrint_UnsupportedFormat(t *testing.T) {
	oldFormat := OutputFormat
	OutputFormat = "xml"
	defer func() { OutputFormat = oldFormat }()
	if err := Print(sample()); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestRender_MatchesPrint(t *testing.T) {
	printed := capture(t, FormatJSON, false, func() error { return Print(sample()) })
	oldFormat := OutputFormat
	OutputFormat = FormatJSON
	defer func() { OutputFormat = oldFormat }()
	rendered, err := Render(sample())
	if err != nil {
		t.Fatal(err)
	}
	if rendered != printed {
		t.Errorf("Render = %q, Print = %q", rendered, printed)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"yaml", FormatYAML, false},
		{"json", FormatJSON, false},
		{"toml", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}
