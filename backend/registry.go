package backend

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mwantia/uvfs/data"
)

// Factory builds an unopened driver from its opaque configuration.
type Factory func(cfg Config) (Driver, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// Register makes a driver kind available to New. Drivers call it from init.
// Registering the same kind twice panics.
func Register(kind string, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	if factory == nil {
		panic("backend: register factory is nil")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("backend: register called twice for kind '%s'", kind))
	}

	factories[kind] = factory
}

// New constructs a driver of kind from cfg.
func New(kind string, cfg Config) (Driver, error) {
	factoriesMu.RLock()
	factory, exists := factories[kind]
	factoriesMu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: unknown backend kind '%s'", data.ErrConstruction, kind)
	}

	driver, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", data.ErrConstruction, kind, err)
	}

	return driver, nil
}

// Kinds returns the registered driver kinds in sorted order.
func Kinds() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	kinds := make([]string, 0, len(factories))
	for kind := range factories {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	return kinds
}
