package session

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mj1618/page-turner/internal/activation"
	"github.com/mj1618/page-turner/internal/discovery"
	"github.com/mj1618/page-turner/internal/platform"
	"github.com/mj1618/page-turner/internal/platform/htmldoc"
)

var caretQuery = platform.Query{Selector: `span[data-testid="bonsai-icon-caret-right"]`, Closest: "button"}

func caret(dir string, x int) string {
	return fmt.Sprintf(`<button data-bounds="%d,380,40,40"><span data-testid="bonsai-icon-caret-%s"></span></button>`, x, dir)
}

func page(t *testing.T, body ...string) *htmldoc.Document {
	t.Helper()
	doc, err := htmldoc.ParseString(`<html data-viewport="1000x800"><body>`+strings.Join(body, "\n")+`</body></html>`, platform.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

// newTurner wires a turner with no pauses over doc. host defaults to doc.
func newTurner(t *testing.T, doc *htmldoc.Document, host platform.Activator) *Turner {
	t.Helper()
	if host == nil {
		host = doc
	}
	e, err := discovery.New(discovery.DefaultConfig())
	if err != nil {
		t.Fatalf("discovery.New: %v", err)
	}
	state, err := NewState(DefaultInterval)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	return NewTurner(e, doc, &activation.Driver{Host: host}, state)
}

// fast shortens the tick interval below the user-facing minimum.
func fast(tr *Turner) {
	tr.State.mu.Lock()
	tr.State.interval = 5 * time.Millisecond
	tr.State.mu.Unlock()
}

// nextID returns the id of the first forward caret button.
func nextID(t *testing.T, doc *htmldoc.Document) int {
	t.Helper()
	els, err := doc.Query(t.Context(), caretQuery)
	if err != nil || len(els) == 0 {
		t.Fatalf("query next button: %v (%d found)", err, len(els))
	}
	return els[0].ID
}

func waitDone(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
	}
}
