// Package storage provides the file-based storage layer for the ember store:
// the on-disk segment directory and the byte-level append and read paths.
//
// The on-disk state is a directory of append-only segment files named by a
// monotonically increasing integer identifier. Exactly one segment — the one
// with the largest identifier present — is active and receives every write;
// the rest are sealed and read-only. The storage layer holds the single
// positional writer on the active segment and a positional reader for every
// segment on disk, so higher layers address records purely by
// (segment id, offset, length) triples.
//
// Initialization and Recovery:
//
// On startup the storage layer scans the store directory for segment files,
// opens a reader for each in ascending identifier order, selects the highest
// identifier as the active segment (creating segment 0 on a fresh
// directory), and positions the writer at the active segment's end. The
// cumulative size counter starts at the sum of the discovered segments'
// lengths, so a store that was already large compacts promptly rather than
// waiting for fresh writes to re-accumulate the threshold.
//
// Rotation is driven from above: when the engine's compactor needs a fresh
// segment it calls Rotate, which seals the current active segment (its
// reader stays open), opens the next identifier, and swaps the writer.
// Identifiers are never reused, so ascending-identifier replay remains
// correct even if retired segments transiently coexist with their
// replacement.
package storage

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/emberkv/ember/pkg/errors"
	"github.com/emberkv/ember/pkg/filesys"
	"github.com/emberkv/ember/pkg/posio"
	"github.com/emberkv/ember/pkg/seginfo"
)

var (
	ErrStorageClosed = stdErrors.New("operation failed: cannot access closed storage")
)

// New creates and initializes a new Storage instance: it creates the store
// directory if absent, discovers existing segments, opens a reader for every
// one of them, and prepares the writer on the active segment.
func New(ctx context.Context, config *Config) (*Storage, error) {
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, fmt.Errorf("invalid configuration")
	}

	config.Logger.Debugw(
		"Initializing storage",
		"dataDir", config.Options.DataDir,
		"compactThreshold", config.Options.CompactThreshold,
	)

	// Create the store directory if it doesn't exist yet. The directory
	// itself is the entire on-disk state; there is no metadata file.
	if err := filesys.CreateDir(config.Options.DataDir, 0755, true); err != nil {
		return nil, errors.ClassifyDirectoryCreationError(err, config.Options.DataDir)
	}

	storage := &Storage{
		log:     config.Logger,
		options: config.Options,
		readers: make(map[uint64]*posio.Reader),
	}

	// Discover existing segments. Their identifiers come back ascending;
	// the largest one is the segment we keep appending to.
	ids, err := seginfo.List(config.Options.DataDir)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to enumerate segment files").
			WithPath(config.Options.DataDir)
	}

	if len(ids) == 0 {
		// Bootstrap case: fresh directory, start with segment 0.
		storage.activeID = 0

		file, err := storage.openSegmentFile(0)
		if err != nil {
			return nil, err
		}
		if storage.writer, err = posio.NewWriter(file, config.Options.WriteBufferSize); err != nil {
			return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to prepare segment writer").
				WithSegmentID(0)
		}
		if err := storage.openReader(0); err != nil {
			return nil, err
		}

		config.Logger.Debugw("No existing segments found, starting fresh", "activeSegmentID", 0)
		return storage, nil
	}

	// Open a reader per discovered segment and account its current length.
	// The sum seeds the size counter that triggers compaction.
	for _, id := range ids {
		if err := storage.openReader(id); err != nil {
			return nil, err
		}

		info, err := os.Stat(seginfo.Path(config.Options.DataDir, id))
		if err != nil {
			return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to stat segment file").
				WithSegmentID(id).
				WithPath(seginfo.Path(config.Options.DataDir, id))
		}
		storage.size += info.Size()
	}

	storage.activeID = ids[len(ids)-1]

	file, err := storage.openSegmentFile(storage.activeID)
	if err != nil {
		return nil, err
	}
	if storage.writer, err = posio.NewWriter(file, config.Options.WriteBufferSize); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to prepare segment writer").
			WithSegmentID(storage.activeID)
	}

	config.Logger.Debugw(
		"Storage initialized",
		"segments", len(ids),
		"activeSegmentID", storage.activeID,
		"accountedBytes", storage.size,
	)

	return storage, nil
}

// Append writes one encoded record to the active segment and returns the byte
// offset at which it begins. The offset is the writer's logical position
// captured before the write — the only offset the buffer has acknowledged —
// and the buffer is flushed before returning, so the record is visible to a
// subsequent open of the same directory.
func (s *Storage) Append(data []byte) (int64, error) {
	if s.closed.Load() {
		return 0, ErrStorageClosed
	}

	pos := s.writer.Pos()

	if _, err := s.writer.Write(data); err != nil {
		return 0, errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to append record").
			WithSegmentID(s.activeID).
			WithOffset(pos).
			WithFileName(seginfo.GenerateName(s.activeID))
	}

	if err := s.writer.Flush(); err != nil {
		return 0, errors.ClassifyFlushError(
			err,
			seginfo.GenerateName(s.activeID),
			seginfo.Path(s.options.DataDir, s.activeID),
			pos,
		)
	}

	s.size += int64(len(data))
	return pos, nil
}

// ReadAt reads exactly size bytes starting at offset from the given segment.
// This is the read path behind every Get: an absolute seek plus one exact
// read of the range an index entry names.
func (s *Storage) ReadAt(segmentID uint64, offset, size int64) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrStorageClosed
	}

	reader, ok := s.readers[segmentID]
	if !ok {
		return nil, errors.NewStorageError(nil, errors.ErrorCodeInternal, "No reader for segment").
			WithSegmentID(segmentID).
			WithOffset(offset)
	}

	if _, err := reader.Seek(offset, io.SeekStart); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to seek segment reader").
			WithSegmentID(segmentID).
			WithOffset(offset)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(reader, data); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to read record bytes").
			WithSegmentID(segmentID).
			WithOffset(offset).
			WithDetail("length", size)
	}

	return data, nil
}

// Reader returns the positional reader for the given segment. Recovery uses
// it to stream a whole segment through the record decoder.
func (s *Storage) Reader(segmentID uint64) (*posio.Reader, bool) {
	reader, ok := s.readers[segmentID]
	return reader, ok
}

// Segments returns the identifiers of every segment currently on disk in
// ascending order.
func (s *Storage) Segments() []uint64 {
	ids := make([]uint64, 0, len(s.readers))
	for id := range s.readers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ActiveID returns the identifier of the segment currently receiving appends.
func (s *Storage) ActiveID() uint64 {
	return s.activeID
}

// Size returns the cumulative number of bytes accounted since open: the
// replayed segment lengths plus every appended record. Rotation resets it.
func (s *Storage) Size() int64 {
	return s.size
}

// Rotate seals the current active segment and opens a fresh one under the
// next identifier, replacing the writer and resetting the size counter. The
// sealed segment's reader stays open; identifiers strictly increase and are
// never reused, so replay order stays correct even if old and new segments
// transiently coexist after a crash.
func (s *Storage) Rotate() (uint64, error) {
	if s.closed.Load() {
		return 0, ErrStorageClosed
	}

	newID := s.activeID + 1

	// Flush and release the old writer before swapping. Its segment remains
	// readable through the readers map.
	if err := s.writer.Close(); err != nil {
		return 0, errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to seal active segment").
			WithSegmentID(s.activeID)
	}

	file, err := s.openSegmentFile(newID)
	if err != nil {
		return 0, err
	}

	writer, err := posio.NewWriter(file, s.options.WriteBufferSize)
	if err != nil {
		return 0, errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to prepare segment writer").
			WithSegmentID(newID)
	}

	if err := s.openReader(newID); err != nil {
		return 0, err
	}

	s.writer = writer
	s.activeID = newID
	s.size = 0

	s.log.Debugw("Rotated to new segment", "activeSegmentID", newID)
	return newID, nil
}

// RemoveSegments closes the readers of the given segments and deletes their
// files. Callers only retire segments whose live records have already been
// rewritten elsewhere and flushed.
func (s *Storage) RemoveSegments(ids []uint64) error {
	if s.closed.Load() {
		return ErrStorageClosed
	}

	for _, id := range ids {
		if reader, ok := s.readers[id]; ok {
			if err := reader.Close(); err != nil {
				return errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to close retired segment reader").
					WithSegmentID(id)
			}
			delete(s.readers, id)
		}

		path := seginfo.Path(s.options.DataDir, id)
		if err := filesys.DeleteFile(path); err != nil {
			return errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to delete retired segment file").
				WithSegmentID(id).
				WithPath(path)
		}

		s.log.Debugw("Retired segment", "segmentID", id)
	}

	return nil
}

// Close flushes the writer and closes every file handle. The storage cannot
// be used after closure.
func (s *Storage) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrStorageClosed
	}

	var closeErr error
	if err := s.writer.Close(); err != nil {
		closeErr = err
	}

	for id, reader := range s.readers {
		if err := reader.Close(); err != nil && closeErr == nil {
			closeErr = err
		}
		delete(s.readers, id)
	}

	return closeErr
}

// openSegmentFile opens the segment file for the given identifier for
// appending, creating it when absent, and positions the handle at
// end-of-file so the positional writer starts from the true append offset.
//
//	O_CREATE: create the file if it doesn't exist
//	O_RDWR:   open for both reading and writing
//	O_APPEND: all writes go to the end of the file
func (s *Storage) openSegmentFile(segmentID uint64) (*os.File, error) {
	filename := seginfo.GenerateName(segmentID)
	filePath := seginfo.Path(s.options.DataDir, segmentID)

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.ClassifyFileOpenError(err, filePath, filename)
	}

	// Position the file pointer at the end. This is essential even with
	// O_APPEND: the positional writer captures the handle's current offset
	// at construction, and that offset must be the true append position.
	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		if closeErr := file.Close(); closeErr != nil {
			s.log.Errorw("Failed to close segment file after seek error", "error", closeErr, "path", filePath)
		}
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to seek to end of segment file").
			WithFileName(filename).
			WithPath(filePath).
			WithSegmentID(segmentID)
	}

	return file, nil
}

// openReader opens a read-only positional reader for the given segment and
// registers it. Every segment present on disk has exactly one registered
// reader for the storage's lifetime.
func (s *Storage) openReader(segmentID uint64) error {
	filePath := seginfo.Path(s.options.DataDir, segmentID)

	file, err := os.OpenFile(filePath, os.O_RDONLY, 0644)
	if err != nil {
		return errors.ClassifyFileOpenError(err, filePath, seginfo.GenerateName(segmentID))
	}

	reader, err := posio.NewReader(file, s.options.ReadBufferSize)
	if err != nil {
		if closeErr := file.Close(); closeErr != nil {
			s.log.Errorw("Failed to close segment file after reader error", "error", closeErr, "path", filePath)
		}
		return errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to prepare segment reader").
			WithSegmentID(segmentID).
			WithPath(filePath)
	}

	s.readers[segmentID] = reader
	return nil
}
