package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mj1618/page-turner/internal/model"
	"github.com/mj1618/page-turner/internal/platform"
)

// ErrWaitTimeout is returned by WaitFor when no eligible element appears in
// time.
var ErrWaitTimeout = errors.New("timed out waiting for element")

// DefaultWatchEvery is the polling period used when Watch is given zero.
const DefaultWatchEvery = 100 * time.Millisecond

// Change is one observed state of the watched elements.
type Change struct {
	Elements []model.Element
	Digest   string
}

// Subscription reports changes to the elements matching a query. It has a
// single owner, who must call Close.
type Subscription struct {
	C <-chan Change

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	mu  sync.Mutex
	err error
}

// Watch polls doc for q every period and sends a Change whenever the
// digest of the matched elements differs from the last one sent. The first
// poll always sends. The channel is closed when ctx ends, Close is called or
// a query fails.
func Watch(ctx context.Context, doc platform.Document, q platform.Query, every time.Duration) *Subscription {
	if every <= 0 {
		every = DefaultWatchEvery
	}
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan Change)
	sub := &Subscription{C: ch, cancel: cancel, done: make(chan struct{})}
	go sub.loop(ctx, doc, q, every, ch)
	return sub
}

func (s *Subscription) loop(ctx context.Context, doc platform.Document, q platform.Query, every time.Duration, ch chan<- Change) {
	defer close(s.done)
	defer close(ch)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	last := ""
	first := true
	for {
		els, err := doc.Query(ctx, q)
		if err != nil {
			if ctx.Err() == nil {
				s.setErr(fmt.Errorf("watch %s: %w", q, err))
			}
			return
		}
		if digest := model.Digest(els); first || digest != last {
			select {
			case ch <- Change{Elements: els, Digest: digest}:
			case <-ctx.Done():
				return
			}
			first = false
			last = digest
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Subscription) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Err returns the query error that ended the subscription, if any.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops polling and waits for the watcher to exit. Safe to call more
// than once.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	<-s.done
	return s.Err()
}

// WaitFor blocks until at least one element matching q is visible and
// enabled, and returns the matches.
func WaitFor(ctx context.Context, doc platform.Document, q platform.Query, timeout time.Duration) ([]model.Element, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	sub := Watch(ctx, doc, q, 0)
	defer sub.Close()
	for ch := range sub.C {
		if len(model.FilterEligible(ch.Elements)) > 0 {
			return ch.Elements, nil
		}
	}
	if err := sub.Err(); err != nil {
		return nil, err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: %s after %v", ErrWaitTimeout, q, timeout)
	}
	return nil, ctx.Err()
}
