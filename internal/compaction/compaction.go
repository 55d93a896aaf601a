// Package compaction implements the procedure that bounds the store's space
// amplification: copying every live record into a fresh segment and deleting
// the segments they came from.
//
// The log grows with every mutation — overwrites and removes leave their
// superseded records in place — so without intervention disk usage is
// proportional to the write history rather than the live data. Compaction
// restores the bound: the index already names the exact byte range of every
// live record, so the compactor copies those ranges verbatim into a new
// segment, repoints the index, and retires everything older.
//
// Ordering is the crash-safety story. The new segment carries an identifier
// strictly greater than every segment it replaces and is fully written and
// flushed before any old file is deleted. A crash at any point leaves a
// directory that ascending-identifier replay reconstructs correctly: the old
// segments in full, the new segment in full, or a transient overlap of both,
// where the new segment's higher identifier wins.
package compaction

import (
	"context"

	"github.com/emberkv/ember/internal/index"
	"github.com/emberkv/ember/internal/storage"
	"github.com/emberkv/ember/pkg/errors"
	"go.uber.org/zap"
)

// Compaction rewrites live records into a fresh segment and retires the
// segments they superseded.
type Compaction struct {
	log     *zap.SugaredLogger // Structured logging.
	index   *index.Index       // The live-key index being relocated.
	storage *storage.Storage   // The segment layer records move through.
}

// Config holds the parameters needed to initialize a Compaction instance.
type Config struct {
	Logger  *zap.SugaredLogger
	Index   *index.Index
	Storage *storage.Storage
}

// New creates a Compaction instance bound to the given index and storage.
func New(ctx context.Context, config *Config) (*Compaction, error) {
	if config == nil || config.Logger == nil || config.Index == nil || config.Storage == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "Compaction configuration is required",
		).WithField("config").WithRule("required").WithProvided(config)
	}

	return &Compaction{
		log:     config.Logger,
		index:   config.Index,
		storage: config.Storage,
	}, nil
}

// Run performs one compaction cycle:
//
//  1. Rotate to a fresh segment under a strictly greater identifier; the
//     writer moves there and the size counter resets.
//  2. For every index entry, copy the raw record bytes — no re-encoding —
//     from wherever they live into the new segment, and repoint the entry
//     at its new position. Entry order doesn't matter: each key contributes
//     exactly one live record.
//  3. Only after every copy has been written and flushed, delete the
//     retired segments.
//
// Because the engine serializes operations, nothing reads the index while
// entries are repointed in place.
func (c *Compaction) Run(ctx context.Context) error {
	// Snapshot the identifiers to retire before rotation adds the new one.
	oldIDs := c.storage.Segments()

	newID, err := c.storage.Rotate()
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeCompactionFailed, "Failed to open compaction segment")
	}

	c.log.Debugw("Compaction started", "newSegmentID", newID, "liveKeys", c.index.Len(), "retiring", oldIDs)

	var copied int64
	var copyErr error

	c.index.Range(func(key string, ptr *index.RecordPointer) bool {
		data, err := c.storage.ReadAt(ptr.SegmentID, ptr.Offset, ptr.Size)
		if err != nil {
			copyErr = errors.NewStorageError(err, errors.ErrorCodeCompactionFailed, "Failed to read live record").
				WithSegmentID(ptr.SegmentID).
				WithOffset(ptr.Offset).
				WithDetail("key", key)
			return false
		}

		pos, err := c.storage.Append(data)
		if err != nil {
			copyErr = errors.NewStorageError(err, errors.ErrorCodeCompactionFailed, "Failed to copy live record").
				WithSegmentID(newID).
				WithDetail("key", key)
			return false
		}

		// Repoint the live entry at the copy. The byte length is unchanged:
		// the record moved verbatim.
		ptr.SegmentID = newID
		ptr.Offset = pos
		copied += ptr.Size
		return true
	})

	if copyErr != nil {
		return copyErr
	}

	// Every live record is now flushed into the new segment; the old files
	// hold nothing the index references. Retire them.
	if err := c.storage.RemoveSegments(oldIDs); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeCompactionFailed, "Failed to retire superseded segments")
	}

	c.log.Infow("Compaction finished", "segmentID", newID, "liveBytes", copied, "retired", len(oldIDs))
	return nil
}
