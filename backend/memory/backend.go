package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mwantia/uvfs/backend"
	"github.com/tidwall/btree"
)

const Kind = "memory"

func init() {
	backend.Register(Kind, func(cfg backend.Config) (backend.Driver, error) {
		var config MemoryConfig
		if err := cfg.Decode(&config); err != nil {
			return nil, err
		}

		if config.Namespace == "" {
			return NewMemoryBackend(NewStore()), nil
		}

		return NewMemoryBackend(SharedStore(config.Namespace)), nil
	})
}

type MemoryConfig struct {
	// Drivers using the same namespace share one store within the process
	Namespace string `mapstructure:"namespace"`
}

type object struct {
	data    []byte
	modTime time.Time
}

// Store holds objects ordered by key. It outlives the drivers using it.
type Store struct {
	mu      sync.RWMutex
	objects *btree.Map[string, *object]
}

func NewStore() *Store {
	return &Store{
		objects: btree.NewMap[string, *object](0),
	}
}

// Len returns the number of stored objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.objects.Len()
}

var (
	sharedMu sync.Mutex
	shared   = make(map[string]*Store)
)

// SharedStore returns the process wide store registered under namespace.
func SharedStore(namespace string) *Store {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	store, exists := shared[namespace]
	if !exists {
		store = NewStore()
		shared[namespace] = store
	}

	return store
}

type MemoryBackend struct {
	store *Store
}

func NewMemoryBackend(store *Store) *MemoryBackend {
	return &MemoryBackend{
		store: store,
	}
}

// Returns the identifier name defined for this backend
func (*MemoryBackend) Name() string {
	return Kind
}

// Open is part of the lifecycle behaviour and gets called when opening this backend.
func (mb *MemoryBackend) Open(ctx context.Context) error {
	// No initialization needed - backend is ready to use
	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend.
// The store is left untouched so another driver can reuse it.
func (mb *MemoryBackend) Close(ctx context.Context) error {
	return nil
}

// Capabilities returns a list of capabilities supported by this backend.
func (mb *MemoryBackend) Capabilities() *backend.Capabilities {
	return &backend.Capabilities{
		Capabilities: []backend.Capability{
			backend.CapabilityConditionalWrite,
			backend.CapabilityBatchDelete,
			backend.CapabilityModifyTime,
		},
	}
}
