package directory

import (
	"strings"
	"sync"

	"github.com/mwantia/uvfs/data"
	"github.com/tidwall/btree"
)

// PendingSet records directories created without a backing object. It lives
// only as long as the process and is safe for concurrent use.
type PendingSet struct {
	mu   sync.RWMutex
	keys btree.Set[string]
}

func NewPendingSet() *PendingSet {
	return &PendingSet{}
}

func (p *PendingSet) Add(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.keys.Insert(key)
}

func (p *PendingSet) Contains(key string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.keys.Contains(key)
}

// ContainsTree reports whether key or any descendant of key is pending.
func (p *PendingSet) ContainsTree(key string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.keys.Contains(key) {
		return true
	}

	found := false
	p.keys.Ascend(data.DirPrefix(key), func(k string) bool {
		found = data.HasPrefix(k, key)
		return false
	})

	return found
}

// Remove evicts key only.
func (p *PendingSet) Remove(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.keys.Delete(key)
}

// RemoveTree evicts key and every pending descendant of key.
func (p *PendingSet) RemoveTree(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.keys.Delete(key)

	var descendants []string
	p.keys.Ascend(data.DirPrefix(key), func(k string) bool {
		if !data.HasPrefix(k, key) {
			return false
		}
		descendants = append(descendants, k)
		return true
	})

	for _, k := range descendants {
		p.keys.Delete(k)
	}
}

// Children returns the immediate child directory keys of dir implied by the
// pending entries, in order.
func (p *PendingSet) Children(dir string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var result []string
	seen := make(map[string]struct{})
	prefix := data.DirPrefix(dir)

	p.keys.Ascend(prefix, func(k string) bool {
		if !strings.HasPrefix(k, prefix) {
			return false
		}

		rel := strings.TrimPrefix(k, prefix)
		if i := strings.Index(rel, "/"); i >= 0 {
			rel = rel[:i]
		}

		child := prefix + rel
		if _, exists := seen[child]; !exists {
			seen[child] = struct{}{}
			result = append(result, child)
		}
		return true
	})

	return result
}

func (p *PendingSet) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.keys.Len()
}
