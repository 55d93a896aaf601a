// Package engine provides the core database engine for the ember storage
// system.
//
// The engine is the central coordinator and entry point for all store
// operations. It orchestrates the interaction between three subsystems:
//   - Index: the in-memory map from every live key to the byte range of its
//     most recent Set record
//   - Storage: the on-disk segment directory, the single append writer and
//     the per-segment readers
//   - Compaction: the maintenance procedure that bounds space amplification
//
// Operations on one engine handle linearize in call order: a Get issued
// after a successful Set or Remove observes that write, because every
// mutation is written and flushed before its call returns. The engine
// serializes its operations internally, but a store directory belongs to at
// most one engine instance at a time — two handles over the same directory
// would race on segment identifiers and compaction.
package engine

import (
	"context"
	stdErrors "errors"
	"sync"
	"sync/atomic"

	"github.com/emberkv/ember/internal/compaction"
	"github.com/emberkv/ember/internal/index"
	"github.com/emberkv/ember/internal/record"
	"github.com/emberkv/ember/internal/storage"
	"github.com/emberkv/ember/pkg/errors"
	"github.com/emberkv/ember/pkg/options"
	"go.uber.org/zap"
)

var (
	// ErrEngineClosed is returned when attempting to perform operations on a closed engine.
	ErrEngineClosed = stdErrors.New("operation failed: cannot access closed engine")
)

// Engine represents the main database engine that coordinates all subsystems
// and manages their lifecycle.
type Engine struct {
	options    *options.Options       // Configuration parameters for the engine and its subsystems.
	log        *zap.SugaredLogger     // Structured logging throughout the engine.
	closed     atomic.Bool            // Tracks the engine's lifecycle state.
	mu         sync.Mutex             // Serializes store operations over the shared writer, readers and index.
	index      *index.Index           // In-memory map from live keys to record positions.
	storage    *storage.Storage       // Persistent segment storage.
	compaction *compaction.Compaction // Live-record rewrite procedure.
}

// Config holds the parameters needed to initialize a new Engine instance.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// New creates a fully initialized Engine: it opens (or creates) the store
// directory, replays every segment in ascending identifier order to
// reconstruct the index, and prepares the writer on the active segment.
//
// Recovery is strict: a segment whose bytes don't decode as a clean record
// sequence — including a torn record at the active segment's tail — fails
// open with a SERDE_ERROR rather than silently dropping data.
func New(ctx context.Context, config *Config) (*Engine, error) {
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "Engine configuration is required",
		).WithField("config").WithRule("required").WithProvided(config)
	}

	idx, err := index.New(ctx, &index.Config{Logger: config.Logger})
	if err != nil {
		return nil, err
	}

	store, err := storage.New(ctx, &storage.Config{
		Logger:  config.Logger,
		Options: config.Options,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		options: config.Options,
		log:     config.Logger,
		index:   idx,
		storage: store,
	}

	// Fold the full write history into the index before accepting
	// operations. Ascending order makes later segments supersede older ones.
	if err := engine.recover(); err != nil {
		return nil, err
	}

	comp, err := compaction.New(ctx, &compaction.Config{
		Logger:  config.Logger,
		Index:   idx,
		Storage: store,
	})
	if err != nil {
		return nil, err
	}
	engine.compaction = comp

	config.Logger.Debugw(
		"Engine ready",
		"dataDir", config.Options.DataDir,
		"liveKeys", idx.Len(),
		"activeSegmentID", store.ActiveID(),
	)

	return engine, nil
}

// Get retrieves the value stored under key. The second return value reports
// whether the key has a live entry; a miss is not an error.
//
// On a hit the engine seeks the owning segment's reader to the entry's
// offset, reads exactly the entry's length, and decodes one record. That
// record must be a Set — the index never points at anything else — so a
// Remove decoding out of the range indicates corruption and fails with
// UNSUPPORTED_COMMAND.
func (e *Engine) Get(ctx context.Context, key string) (string, bool, error) {
	if e.closed.Load() {
		return "", false, ErrEngineClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ptr, ok := e.index.Get(key)
	if !ok {
		return "", false, nil
	}

	data, err := e.storage.ReadAt(ptr.SegmentID, ptr.Offset, ptr.Size)
	if err != nil {
		return "", false, err
	}

	cmd, err := record.DecodeOne(data)
	if err != nil {
		return "", false, errors.NewStorageError(err, errors.ErrorCodeSerde, "Failed to decode record at index position").
			WithSegmentID(ptr.SegmentID).
			WithOffset(ptr.Offset).
			WithDetail("key", key)
	}

	if !cmd.IsSet() {
		return "", false, errors.NewKVError(nil, errors.ErrorCodeUnsupportedCommand, "Index entry resolved to a non-Set record").
			WithKey(key).
			WithOperation("Get").
			WithSegmentID(ptr.SegmentID)
	}

	return cmd.Value, true, nil
}

// Set durably stores key ↦ value. The record is appended to the active
// segment and flushed before the call returns, so a subsequent open of the
// same directory observes the write. Crossing the compaction threshold runs
// a compaction cycle before returning.
func (e *Engine) Set(ctx context.Context, key, value string) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	data, err := record.Encode(record.NewSet(key, value))
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeSerde, "Failed to encode Set record").
			WithDetail("key", key)
	}

	pos, err := e.storage.Append(data)
	if err != nil {
		return err
	}

	e.index.Set(key, &index.RecordPointer{
		SegmentID: e.storage.ActiveID(),
		Offset:    pos,
		Size:      int64(len(data)),
	})

	return e.maybeCompact(ctx)
}

// Remove durably deletes key. A key with no live entry fails with
// KEY_NOT_FOUND; otherwise a Remove record is appended and flushed and the
// index entry dropped. Crossing the compaction threshold runs a compaction
// cycle before returning.
func (e *Engine) Remove(ctx context.Context, key string) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.index.Get(key); !ok {
		return errors.NewKeyNotFoundError(key)
	}

	data, err := record.Encode(record.NewRemove(key))
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeSerde, "Failed to encode Remove record").
			WithDetail("key", key)
	}

	if _, err := e.storage.Append(data); err != nil {
		return err
	}

	e.index.Delete(key)

	return e.maybeCompact(ctx)
}

// Size returns the cumulative bytes accounted since open. Exposed for
// observability; compaction resets it.
func (e *Engine) Size() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.storage.Size()
}

// maybeCompact runs a compaction cycle when the accounted bytes have reached
// the configured threshold. Called with the engine mutex held, after every
// successful mutation.
func (e *Engine) maybeCompact(ctx context.Context) error {
	if e.storage.Size() < e.options.CompactThreshold {
		return nil
	}
	return e.compaction.Run(ctx)
}

// Close gracefully shuts down the engine, flushing the writer and releasing
// every file handle. Only the first call performs the shutdown.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrEngineClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	storageErr := e.storage.Close()
	indexErr := e.index.Close()

	if storageErr != nil {
		return storageErr
	}
	return indexErr
}
