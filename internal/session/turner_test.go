package session

import (
	"context"
	"errors"
	"testing"

	"github.com/mj1618/page-turner/internal/activation"
	"github.com/mj1618/page-turner/internal/discovery"
	"github.com/mj1618/page-turner/internal/model"
	"github.com/mj1618/page-turner/internal/platform"
	"github.com/mj1618/page-turner/internal/platform/htmldoc"
)

func TestTurn_Success(t *testing.T) {
	doc := page(t, caret("left", 100), caret("right", 800))
	tr := newTurner(t, doc, nil)

	res, err := tr.Turn(context.Background())
	if err != nil {
		t.Fatalf("Turn: %v", err)
	}
	if !res.OK || res.Page != 2 || res.Phase != PhaseIdle {
		t.Errorf("result = %+v", res)
	}
	if res.Tier != "caret-marker" || res.Bounds != [4]int{800, 380, 40, 40} {
		t.Errorf("tier %q bounds %v", res.Tier, res.Bounds)
	}
	if st := tr.State.Snapshot(); st.LastTier != "caret-marker" || st.Turns != 1 {
		t.Errorf("status = %+v", st)
	}

	if _, err := tr.Turn(context.Background()); err != nil {
		t.Fatalf("second Turn: %v", err)
	}
	if tr.State.Page() != 3 {
		t.Errorf("Page = %d, want 3", tr.State.Page())
	}
}

func TestTurn_NotFoundHalts(t *testing.T) {
	tests := []struct {
		name string
		body []string
	}{
		{"empty page", nil},
		{"guard rejection", []string{caret("right", 400)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTurner(t, page(t, tt.body...), nil)
			res, err := tr.Turn(context.Background())
			if !errors.Is(err, discovery.ErrNotFound) {
				t.Fatalf("err = %v, want ErrNotFound", err)
			}
			if res.OK || res.Phase != PhaseHalted || res.Page != 1 || res.Error == "" {
				t.Errorf("result = %+v", res)
			}
			if _, err := tr.Turn(context.Background()); !errors.Is(err, ErrHalted) {
				t.Errorf("after halt err = %v, want ErrHalted", err)
			}
			tr.State.Rearm()
			if _, err := tr.Turn(context.Background()); errors.Is(err, ErrHalted) {
				t.Errorf("rearmed session still halted")
			}
		})
	}
}

// staleOnce disables the inspected element the first time it is inspected.
type staleOnce struct {
	*htmldoc.Document
	fired bool
}

func (s *staleOnce) Inspect(ctx context.Context, id int) (model.Element, error) {
	if !s.fired {
		s.fired = true
		if err := s.Document.SetDisabled(id); err != nil {
			return model.Element{}, err
		}
	}
	return s.Document.Inspect(ctx, id)
}

func TestTurn_StaleRetry(t *testing.T) {
	doc := page(t, caret("right", 700), caret("right", 800))
	tr := newTurner(t, doc, &staleOnce{Document: doc})

	res, err := tr.Turn(context.Background())
	if err != nil {
		t.Fatalf("Turn: %v", err)
	}
	if !res.Retry || res.Bounds[0] != 700 || res.Page != 2 {
		t.Errorf("result = %+v, want retried turn on x=700", res)
	}
}

func TestTurn_StaleWithoutRetry(t *testing.T) {
	doc := page(t, caret("right", 700), caret("right", 800))
	tr := newTurner(t, doc, &staleOnce{Document: doc})
	tr.RetryStale = false

	res, err := tr.Turn(context.Background())
	if !errors.Is(err, activation.ErrStale) {
		t.Fatalf("err = %v, want ErrStale", err)
	}
	if res.Page != 1 || res.Phase != PhaseIdle {
		t.Errorf("result = %+v, want page 1 idle", res)
	}
}

func TestTurn_StaleRetryFindsNothing(t *testing.T) {
	doc := page(t, caret("right", 800))
	tr := newTurner(t, doc, &staleOnce{Document: doc})
	_, err := tr.Turn(context.Background())
	if !errors.Is(err, discovery.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if tr.State.Phase() != PhaseHalted {
		t.Errorf("Phase = %s, want halted", tr.State.Phase())
	}
}

func TestTurn_Busy(t *testing.T) {
	doc := page(t, caret("right", 800))
	tr := newTurner(t, doc, nil)
	var nested error
	doc.Hook = func(ev htmldoc.Event) {
		if ev.Kind == "focus" {
			_, nested = tr.Turn(context.Background())
		}
	}
	if _, err := tr.Turn(context.Background()); err != nil {
		t.Fatalf("Turn: %v", err)
	}
	if !errors.Is(nested, ErrBusy) {
		t.Errorf("nested err = %v, want ErrBusy", nested)
	}
	if tr.State.Page() != 2 {
		t.Errorf("Page = %d, want 2", tr.State.Page())
	}
}

type brokenDoc struct{ platform.Document }

func (brokenDoc) Query(context.Context, platform.Query) ([]model.Element, error) {
	return nil, errors.New("target closed")
}

func TestTurn_HostErrorDoesNotHalt(t *testing.T) {
	doc := page(t, caret("right", 800))
	tr := newTurner(t, doc, nil)
	tr.Doc = brokenDoc{Document: doc}
	_, err := tr.Turn(context.Background())
	if err == nil || errors.Is(err, discovery.ErrNotFound) {
		t.Fatalf("err = %v, want host error", err)
	}
	if tr.State.Phase() != PhaseIdle {
		t.Errorf("Phase = %s, want idle", tr.State.Phase())
	}
	if tr.State.Snapshot().LastError == "" {
		t.Error("last error not recorded")
	}
}

func TestTurn_FaultReturnsToIdle(t *testing.T) {
	doc := page(t, caret("right", 800))
	tr := newTurner(t, doc, nil)
	doc.Hook = func(ev htmldoc.Event) {
		if ev.Kind == "click" {
			panic("page script threw")
		}
	}
	_, err := tr.Turn(context.Background())
	var fault *activation.Fault
	if !errors.As(err, &fault) {
		t.Fatalf("err = %v, want *activation.Fault", err)
	}
	if tr.State.Phase() != PhaseIdle || tr.State.Page() != 1 {
		t.Errorf("phase=%s page=%d", tr.State.Phase(), tr.State.Page())
	}
}
