package minicask

import (
	"io"

	"github.com/phuslu/log"
)

type ConfOption func(*Config)

// Config is the configuration for a Store instance.
type Config struct {
	MaxSegmentSize      int64
	CompactionThreshold int64
	Logger              log.Logger
}

// DefaultMaxSegmentSize is the default size cap of a log segment. The
// active segment rotates once an append would push it past this cap.
const DefaultMaxSegmentSize = 4 * 1024 * 1024

// DefaultCompactionThreshold is the default number of logged bytes after
// which a compaction pass runs.
const DefaultCompactionThreshold = 64 * 1024 * 1024

// MaxSegmentSize sets the size cap of a log segment.
func MaxSegmentSize(size int64) ConfOption {
	return func(c *Config) {
		c.MaxSegmentSize = size
	}
}

// CompactionThreshold sets the number of logged bytes that triggers a
// compaction pass.
func CompactionThreshold(bytes int64) ConfOption {
	return func(c *Config) {
		c.CompactionThreshold = bytes
	}
}

// Logger sets the logger the store reports activity through. The default
// configuration discards all output.
func Logger(logger log.Logger) ConfOption {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxSegmentSize:      DefaultMaxSegmentSize,
		CompactionThreshold: DefaultCompactionThreshold,
		Logger:              log.Logger{Writer: &log.IOWriter{Writer: io.Discard}},
	}
}
