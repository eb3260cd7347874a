package core

import (
	"sync"

	"github.com/tidwall/btree"
)

// Keyspace is the in-memory, ordered key/value map behind the dispatcher.
//
// Keys are kept sorted so LIST returns them in lexical order without an
// extra sort. All methods are safe for concurrent use.
type Keyspace struct {
	mu   sync.RWMutex
	data btree.Map[string, string]
}

func NewKeyspace() *Keyspace {
	return &Keyspace{}
}

func (ks *Keyspace) Set(key, value string) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	ks.data.Set(key, value)
}

func (ks *Keyspace) Get(key string) (string, bool) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	return ks.data.Get(key)
}

// Delete removes every given key and returns how many existed.
func (ks *Keyspace) Delete(keys ...string) int {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	removed := 0
	for _, key := range keys {
		if _, ok := ks.data.Delete(key); ok {
			removed++
		}
	}
	return removed
}

// Exists counts how many of keys are present. A key named twice counts twice.
func (ks *Keyspace) Exists(keys ...string) int {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	found := 0
	for _, key := range keys {
		if _, ok := ks.data.Get(key); ok {
			found++
		}
	}
	return found
}

func (ks *Keyspace) Len() int {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	return ks.data.Len()
}

// Keys returns all keys in ascending order.
func (ks *Keyspace) Keys() []string {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	return ks.data.Keys()
}
