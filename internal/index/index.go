// Package index provides the in-memory hash table for the ember key-value
// store. It embodies the core Bitcask principle: keep every key in memory
// with minimal metadata while the actual values stay on disk.
//
// The index enables O(1) key lookups while keeping per-entry overhead to a
// segment identifier, a byte offset and a byte length. Datasets can therefore
// grow well past available RAM as long as the key population fits in memory.
package index

import (
	"context"
	stdErrors "errors"

	"github.com/emberkv/ember/pkg/errors"
)

var (
	ErrIndexClosed = stdErrors.New("operation failed: cannot access closed index")
)

// New creates and initializes a new Index instance. The returned Index is
// immediately ready for use; recovery populates it by replaying segments.
func New(ctx context.Context, config *Config) (*Index, error) {
	if config == nil || config.Logger == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "Index configuration is required",
		).WithField("config").WithRule("required").WithProvided(config)
	}

	return &Index{
		log:      config.Logger,
		pointers: make(map[string]*RecordPointer, 1024),
	}, nil
}

// Get returns the pointer for key, or false when the key has no live entry.
func (idx *Index) Get(key string) (*RecordPointer, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ptr, ok := idx.pointers[key]
	return ptr, ok
}

// Set records ptr as the live position for key, replacing any prior entry.
// Later wins: callers apply writes in log order, so the entry always names
// the most recent Set.
func (idx *Index) Set(key string, ptr *RecordPointer) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.pointers[key] = ptr
}

// Delete drops the entry for key, returning whether one existed. After a
// Delete the key has no live record, regardless of what remains on disk.
func (idx *Index) Delete(key string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	_, ok := idx.pointers[key]
	if ok {
		delete(idx.pointers, key)
	}
	return ok
}

// Len returns the number of live keys.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.pointers)
}

// Range calls fn for every live entry until fn returns false. The pointer
// passed to fn is the live entry itself: the compactor mutates it in place
// after relocating the record, which is safe because compaction runs with
// the engine's single writer and no concurrent readers of the index.
func (idx *Index) Range(fn func(key string, ptr *RecordPointer) bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	for key, ptr := range idx.pointers {
		if !fn(key, ptr) {
			return
		}
	}
}

// Close shuts down the Index and releases the entry map. The index cannot be
// used after closure.
func (idx *Index) Close() error {
	if !idx.closed.CompareAndSwap(false, true) {
		return ErrIndexClosed
	}

	idx.log.Infow("Closing index")

	idx.mu.Lock()
	defer idx.mu.Unlock()

	clear(idx.pointers)
	idx.pointers = nil

	return nil
}
