package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mj1618/page-turner/internal/output"
)

const readerPage = `<html data-viewport="1000x800"><body>
<button data-bounds="100,380,40,40"><span data-testid="bonsai-icon-caret-left"></span></button>
<button data-bounds="800,380,40,40"><span data-testid="bonsai-icon-caret-right"></span></button>
</body></html>`

const lastPage = `<html data-viewport="1000x800"><body>
<button data-bounds="100,380,40,40"><span data-testid="bonsai-icon-caret-left"></span></button>
</body></html>`

func snapshot(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reader.html")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the root command with args against the offline driver and
// returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	var buf bytes.Buffer
	old := output.Stdout
	output.Stdout = &buf
	defer func() { output.Stdout = old }()

	base := []string{"--driver", "html", "--pre-pause", "0s", "--settle", "0s", "--start-delay", "0s", "--format", "yaml"}
	rootCmd.SetArgs(append(args[:1:1], append(base, args[1:]...)...))
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	expected := []string{"probe", "turn", "run", "serve"}
	found := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		found[c.Name()] = true
	}
	for _, name := range expected {
		if !found[name] {
			t.Errorf("expected subcommand %q not found", name)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	if rootCmd.Version == "" {
		t.Error("root command version should be set")
	}
}

func TestProbeCommand(t *testing.T) {
	out, err := execute(t, "probe", "--url", snapshot(t, readerPage))
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	for _, want := range []string{"guard: pass", "tier: caret-marker", "forward: true"} {
		if !strings.Contains(out, want) {
			t.Errorf("probe output missing %q:\n%s", want, out)
		}
	}
}

func TestProbeCommand_ScreenshotUnsupported(t *testing.T) {
	defer probeCmd.Flags().Set("screenshot", "")
	_, err := execute(t, "probe", "--url", snapshot(t, readerPage), "--screenshot", filepath.Join(t.TempDir(), "p.png"))
	if err == nil || !strings.Contains(err.Error(), "cannot take screenshots") {
		t.Errorf("err = %v", err)
	}
}

func TestTurnCommand(t *testing.T) {
	out, err := execute(t, "turn", "--url", snapshot(t, readerPage))
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if !strings.Contains(out, "ok: true") || !strings.Contains(out, "page: 2") {
		t.Errorf("turn output:\n%s", out)
	}
}

func TestTurnCommand_LastPage(t *testing.T) {
	out, err := execute(t, "turn", "--url", snapshot(t, lastPage))
	if err == nil {
		t.Fatal("expected error on the last page")
	}
	if !strings.Contains(out, "ok: false") || !strings.Contains(out, "phase: halted") {
		t.Errorf("turn output:\n%s", out)
	}
}

func TestTurnCommand_JSON(t *testing.T) {
	out, err := execute(t, "turn", "--url", snapshot(t, readerPage), "--format", "json")
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if !strings.HasPrefix(out, `{"ok":true,"page":2`) {
		t.Errorf("json output: %s", out)
	}
}

func TestBadFormat(t *testing.T) {
	_, err := execute(t, "probe", "--url", snapshot(t, readerPage), "--format", "xml")
	if err == nil || !strings.Contains(err.Error(), "unsupported output format") {
		t.Errorf("err = %v", err)
	}
}

func TestUnknownDriver(t *testing.T) {
	_, err := execute(t, "probe", "--url", snapshot(t, readerPage), "--driver", "lynx")
	if err == nil || !strings.Contains(err.Error(), "unknown driver") {
		t.Errorf("err = %v", err)
	}
}

func TestRunCommand_HaltsAtLastPage(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for one full interval")
	}
	out, err := execute(t, "run", "--url", snapshot(t, lastPage), "--interval", "2s", "--wait-timeout", "10ms")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "phase: halted") || !strings.Contains(out, "page: 1") {
		t.Errorf("run output:\n%s", out)
	}
}
