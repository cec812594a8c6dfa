package platform

import (
	"errors"
	"testing"
)

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("no-such-driver", Options{})
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	if !errors.Is(err, ErrUnknownDriver) {
		t.Errorf("expected ErrUnknownDriver, got: %v", err)
	}
}

func TestRegisterAndOpen(t *testing.T) {
	var got Options
	Register("test-fake", func(opts Options) (*Provider, error) {
		got = opts
		return &Provider{}, nil
	})
	defer func() {
		registryMu.Lock()
		delete(registry, "test-fake")
		registryMu.Unlock()
	}()

	p, err := Open("test-fake", Options{URL: "https://example.com", Headless: true})
	if err != nil {
		t.Fatal(err)
	}
	if p == nil {
		t.Fatal("expected provider")
	}
	if got.URL != "https://example.com" || !got.Headless {
		t.Errorf("options not forwarded: %+v", got)
	}

	found := false
	for _, name := range Drivers() {
		if name == "test-fake" {
			found = true
		}
	}
	if !found {
		t.Errorf("Drivers() = %v, missing test-fake", Drivers())
	}
}

func TestProvider_CloseNil(t *testing.T) {
	var p *Provider
	if err := p.Close(); err != nil {
		t.Errorf("nil provider Close: %v", err)
	}
	if err := (&Provider{}).Close(); err != nil {
		t.Errorf("provider without closer: %v", err)
	}
	calls := 0
	p = &Provider{Closer: func() error { calls++; return nil }}
	_ = p.Close()
	if calls != 1 {
		t.Errorf("closer called %d times, want 1", calls)
	}
}
