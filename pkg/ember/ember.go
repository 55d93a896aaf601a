// Package ember provides a persistent key/value store whose on-disk state is
// a sequence of append-only log segments, inspired by Bitcask. It combines an
// in-memory hash table mapping every live key to the byte range of its most
// recent write with direct positional reads of those ranges, giving O(1)
// lookups and append-only write throughput with durability across process
// restarts. Periodic compaction rewrites live records into a fresh segment
// and deletes the superseded ones, bounding disk usage by the live data
// rather than the write history.
//
// A store directory belongs to one Instance at a time; operations on a
// single Instance may be issued from multiple goroutines.
package ember

import (
	"context"

	"github.com/emberkv/ember/internal/engine"
	"github.com/emberkv/ember/pkg/logger"
	"github.com/emberkv/ember/pkg/options"
)

// Instance represents one handle on an ember store. It encapsulates the core
// engine responsible for data handling and the configuration options applied
// to this store.
//
// Instance is the primary entry point for interacting with the store,
// providing methods for setting, getting, and removing key-value pairs.
type Instance struct {
	engine  *engine.Engine   // The underlying engine handling read/write operations.
	options *options.Options // Configuration options applied to this store instance.
}

// NewInstance creates and initializes a store handle over the configured
// directory, creating the directory if absent and replaying any existing
// segments to rebuild the in-memory index.
func NewInstance(ctx context.Context, service string, opts ...options.OptionFunc) (*Instance, error) {
	// Initialize default options, then apply any provided overrides.
	defaultOpts := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&defaultOpts)
	}

	// Initialize a logger for the given service at the configured level.
	log := logger.NewWithLevel(service, defaultOpts.LogLevel)

	eng, err := engine.New(ctx, &engine.Config{Logger: log, Options: &defaultOpts})
	if err != nil {
		return nil, err
	}

	return &Instance{engine: eng, options: &defaultOpts}, nil
}

// Set stores a key-value pair in the store. If the key already exists, its
// value is replaced. The write is appended to the log and flushed before Set
// returns.
func (i *Instance) Set(ctx context.Context, key, value string) error {
	return i.engine.Set(ctx, key, value)
}

// Get retrieves the value associated with the given key. The boolean reports
// whether the key has a live entry; a miss is not an error.
func (i *Instance) Get(ctx context.Context, key string) (string, bool, error) {
	return i.engine.Get(ctx, key)
}

// Remove deletes a key-value pair from the store. Removing a key with no
// live entry fails with a KEY_NOT_FOUND error (see errors.IsKeyNotFound).
func (i *Instance) Remove(ctx context.Context, key string) error {
	return i.engine.Remove(ctx, key)
}

// Close gracefully shuts down the store handle, flushing pending writes and
// releasing all file handles.
func (i *Instance) Close(ctx context.Context) error {
	return i.engine.Close()
}
