package platform

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Provider bundles the backends of one driver. Backends a driver cannot
// offer are left nil.
type Provider struct {
	Document      Document
	Activator     Activator
	Navigator     Navigator
	Screenshotter Screenshotter

	// Closer releases the browser; nil when the driver holds nothing.
	Closer func() error
}

// Close releases the provider's resources.
func (p *Provider) Close() error {
	if p == nil || p.Closer == nil {
		return nil
	}
	return p.Closer()
}

// ErrUnknownDriver is returned by Open for unregistered driver names.
var ErrUnknownDriver = errors.New("unknown driver")

// NewProviderFunc builds a Provider for the given options.
type NewProviderFunc func(opts Options) (*Provider, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]NewProviderFunc{}
)

// Register makes a driver available under name. Drivers call it from init().
// See internal/platform/cdp/init.go for the chromedp registration.
func Register(name string, fn NewProviderFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = fn
}

// Drivers returns the registered driver names, sorted.
func Drivers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open returns a Provider from the named driver.
func Open(name string, opts Options) (*Provider, error) {
	registryMu.RLock()
	fn, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownDriver, name, strings.Join(Drivers(), ", "))
	}
	return fn(opts)
}
