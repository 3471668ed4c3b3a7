package minicask

import (
	"errors"
	"os"
	"sync"

	"github.com/phuslu/log"
)

// Store is an embedded key-value store backed by a directory of numbered
// append-only log segments. All methods are safe for concurrent use
// within a single process.
type Store struct {
	directory  string
	active     *os.File
	activeID   uint64
	activeSize int64
	keydir     *keydir
	readers    map[uint64]*os.File
	logged     int64
	lastStamp  uint64
	mutex      sync.RWMutex
	config     *Config
	logger     log.Logger
}

// entry locates the newest value for a key: the segment holding it, the
// byte offset of the record, and the stamp the record was written with.
type entry struct {
	segment uint64
	offset  int64
	stamp   uint64
}

var (
	// ErrKeyNotFound is returned when an operation requires a live value
	// for a key and none exists.
	ErrKeyNotFound = errors.New("key not found")
	// ErrCorruptRecord is returned when a log location does not hold the
	// record the keydir says it should.
	ErrCorruptRecord = errors.New("corrupt log record")
	// ErrSegmentNotFound is returned when the keydir references a segment
	// the store holds no handle for.
	ErrSegmentNotFound = errors.New("segment file not found")
)
