package index

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// RecordPointer contains the minimum metadata required to locate and retrieve
// a live record from disk. It is the primary memory consumer in the system:
// one pointer exists per live key, so every field has to earn its place.
//
// Each RecordPointer is a precise address — segment, byte offset, byte
// length — that lets the read path jump directly to the right range of the
// right file and decode a single record, without scanning and without any
// additional lookup.
type RecordPointer struct {
	// Offset is the byte position within the segment file at which the
	// record's first byte lives. Reads seek here directly, giving O(1)
	// access regardless of segment size or where the record sits in it.
	Offset int64

	// Size is the total number of bytes the encoded record occupies on
	// disk. It lets the read path fetch the whole record in a single exact
	// read, and bounds that read so adjacent records are never touched.
	Size int64

	// SegmentID identifies which segment file contains the record. Segments
	// are addressed by their numeric identifier, not by filename; the
	// storage layer resolves identifiers to open readers.
	SegmentID uint64
}

// Index is the in-memory hash table mapping every live key to the position
// of its most recent Set record. This is the central Bitcask structure: all
// keys live in memory with minimal metadata, all values live on disk.
//
// The index holds exactly one entry per live key. A key overwritten by a
// later Set has its entry replaced; a key deleted by a Remove has its entry
// dropped. Nothing else is recorded — superseded records exist only on disk
// until compaction rewrites them away.
type Index struct {
	log      *zap.SugaredLogger        // Structured logging.
	pointers map[string]*RecordPointer // The core mapping from key to disk location.
	mu       sync.RWMutex              // Protects concurrent access to the pointers map.
	closed   atomic.Bool               // Indicates whether the index has been closed.
}

// Config encapsulates the parameters required to initialize an Index.
type Config struct {
	Logger *zap.SugaredLogger
}
