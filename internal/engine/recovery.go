package engine

import (
	stdErrors "errors"
	"io"

	"github.com/emberkv/ember/internal/index"
	"github.com/emberkv/ember/internal/record"
	"github.com/emberkv/ember/pkg/errors"
)

// recover reconstructs the in-memory index from the on-disk segments.
//
// Segments replay in ascending identifier order — sealed segments first,
// the active segment last — so a record always supersedes every record for
// the same key written before it. After recovery the index is exactly what
// re-executing the full write history would have produced.
func (e *Engine) recover() error {
	for _, id := range e.storage.Segments() {
		if err := e.replaySegment(id); err != nil {
			return err
		}
	}
	return nil
}

// replaySegment streams one segment through the record decoder and folds
// each record into the index.
//
// The decoder reports the byte offset at which each following record begins;
// the gap between consecutive offsets is the replayed record's exact length
// on disk. That offset arithmetic is the only length source — records carry
// no length prefix and no separator.
func (e *Engine) replaySegment(id uint64) error {
	reader, ok := e.storage.Reader(id)
	if !ok {
		return errors.NewStorageError(nil, errors.ErrorCodeInternal, "No reader for segment during recovery").
			WithSegmentID(id)
	}

	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to rewind segment for replay").
			WithSegmentID(id)
	}

	decoder := record.NewDecoder(reader)

	var prev int64
	for {
		cmd, after, err := decoder.Next()
		if stdErrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Anything that isn't a clean end of stream — including a torn
			// record at the tail — fails recovery. The store refuses to open
			// over bytes it can't account for.
			return errors.NewStorageError(err, errors.ErrorCodeSerde, "Failed to decode record during replay").
				WithSegmentID(id).
				WithOffset(prev)
		}

		switch {
		case cmd.IsSet():
			e.index.Set(cmd.Key, &index.RecordPointer{
				SegmentID: id,
				Offset:    prev,
				Size:      after - prev,
			})
		case cmd.IsRemove():
			e.index.Delete(cmd.Key)
		}

		prev = after
	}

	e.log.Debugw("Replayed segment", "segmentID", id, "bytes", prev)
	return nil
}
