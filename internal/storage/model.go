package storage

import (
	"sync/atomic"

	"github.com/emberkv/ember/pkg/options"
	"github.com/emberkv/ember/pkg/posio"
	"go.uber.org/zap"
)

// Storage is the file-based storage component managing the store's segment
// files. It owns the single positional writer on the active segment, one
// positional reader per segment on disk (sealed and active alike), and the
// cumulative byte counter that drives compaction.
type Storage struct {
	size     int64                    // Bytes accounted since open: replayed segment lengths plus appended records.
	activeID uint64                   // Identifier of the segment currently receiving appends.
	closed   atomic.Bool              // Flag indicating whether the storage has been closed.
	writer   *posio.Writer            // Positional writer on the active segment, positioned at end.
	readers  map[uint64]*posio.Reader // One positional reader per segment file present on disk.
	options  *options.Options         // Configuration parameters controlling storage behavior.
	log      *zap.SugaredLogger       // Structured logger for operational visibility.
}

// Config encapsulates the configuration parameters required to initialize a
// Storage instance.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}
