// Package options provides data structures and functions for configuring the
// ember store. It defines the parameters that control storage behavior and
// maintenance: the store directory, the compaction threshold, I/O buffer
// sizes and the log level.
package options

import (
	"strings"
)

// Options defines the configuration parameters for an ember store instance.
type Options struct {
	// Specifies the directory holding the store's segment files.
	// Created on open if absent. The engine never changes the process
	// working directory; every filesystem operation is rooted here.
	//
	// Default: "." (the invoking process's current directory)
	DataDir string `json:"dataDir"`

	// Defines the cumulative written-byte threshold at which compaction
	// runs. After any mutation, once the bytes accounted since open reach
	// this value, live records are rewritten into a fresh segment and
	// superseded segments are deleted. Lower values bound disk usage more
	// tightly at the cost of more frequent rewrites.
	//
	// Default: 1MiB
	CompactThreshold int64 `json:"compactThreshold"`

	// Sets the buffer size for positional segment readers.
	//
	// Default: 4KB
	ReadBufferSize int `json:"readBufferSize"`

	// Sets the buffer size for the positional segment writer.
	//
	// Default: 4KB
	WriteBufferSize int `json:"writeBufferSize"`

	// Controls logging verbosity: "debug", "info", "warn" or "error".
	//
	// Default: "info"
	LogLevel string `json:"logLevel"`
}

// OptionFunc is a function type that modifies the store's configuration.
type OptionFunc func(*Options)

// WithDataDir sets the directory the store operates on.
func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

// WithCompactThreshold sets the written-byte threshold that triggers
// compaction. Non-positive values are ignored; the threshold must exist.
func WithCompactThreshold(threshold int64) OptionFunc {
	return func(o *Options) {
		if threshold > 0 {
			o.CompactThreshold = threshold
		}
	}
}

// WithReadBufferSize sets the buffer size for segment readers.
func WithReadBufferSize(size int) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.ReadBufferSize = size
		}
	}
}

// WithWriteBufferSize sets the buffer size for the segment writer.
func WithWriteBufferSize(size int) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.WriteBufferSize = size
		}
	}
}

// WithLogLevel sets the logging verbosity.
func WithLogLevel(level string) OptionFunc {
	return func(o *Options) {
		level = strings.ToLower(strings.TrimSpace(level))
		switch level {
		case "debug", "info", "warn", "error":
			o.LogLevel = level
		}
	}
}
