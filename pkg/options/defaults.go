package options

const (
	// Specifies the default store directory. The CLI front-end overrides
	// this with the invoking process's working directory.
	DefaultDataDir = "."

	// Defines the default cumulative written-byte threshold that triggers
	// compaction (1MiB).
	DefaultCompactThreshold int64 = 1 * 1024 * 1024

	// Specifies the default buffer size for positional readers and the
	// positional writer (4KB).
	DefaultBufferSize = 4 * 1024

	// Defines the default logging verbosity.
	DefaultLogLevel = "info"
)

// Holds the default configuration settings for an ember store instance.
var defaultOptions = Options{
	DataDir:          DefaultDataDir,
	CompactThreshold: DefaultCompactThreshold,
	ReadBufferSize:   DefaultBufferSize,
	WriteBufferSize:  DefaultBufferSize,
	LogLevel:         DefaultLogLevel,
}

func NewDefaultOptions() Options {
	return defaultOptions
}
