package options

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileOptions mirrors Options for YAML decoding. Absent keys leave the
// corresponding option at its current value, so a config file can override
// just the settings it names.
type fileOptions struct {
	DataDir          *string `yaml:"dataDir"`
	CompactThreshold *int64  `yaml:"compactThreshold"`
	ReadBufferSize   *int    `yaml:"readBufferSize"`
	WriteBufferSize  *int    `yaml:"writeBufferSize"`
	LogLevel         *string `yaml:"logLevel"`
}

// FromFile reads a YAML configuration file and returns an OptionFunc applying
// its settings. The file shape mirrors the Options struct:
//
//	dataDir: /var/lib/ember
//	compactThreshold: 1048576
//	readBufferSize: 4096
//	writeBufferSize: 4096
//	logLevel: info
func FromFile(path string) (OptionFunc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fo fileOptions
	if err := yaml.Unmarshal(data, &fo); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return func(o *Options) {
		if fo.DataDir != nil {
			WithDataDir(*fo.DataDir)(o)
		}
		if fo.CompactThreshold != nil {
			WithCompactThreshold(*fo.CompactThreshold)(o)
		}
		if fo.ReadBufferSize != nil {
			WithReadBufferSize(*fo.ReadBufferSize)(o)
		}
		if fo.WriteBufferSize != nil {
			WithWriteBufferSize(*fo.WriteBufferSize)(o)
		}
		if fo.LogLevel != nil {
			WithLogLevel(*fo.LogLevel)(o)
		}
	}, nil
}
