package minicask

import (
	"fmt"
	"os"
	"time"
)

// Open opens the store rooted at dir, creating the directory if needed,
// and replays the log segments found there to rebuild the in-memory
// keydir.
func Open(dir string, opts ...ConfOption) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}

	s := &Store{
		directory: dir,
		keydir:    newKeydir(),
		readers:   make(map[uint64]*os.File),
		config:    config,
		logger:    config.Logger,
	}

	if err := s.load(); err != nil {
		s.release()
		return nil, err
	}

	s.logger.Info().Str("dir", dir).Int("segments", len(s.readers)).
		Int("keys", s.keydir.size()).Msg("store opened")
	return s, nil
}

// Get returns the value for key. The second return reports whether the
// key has a live value; a missing key is not an error.
func (s *Store) Get(key string) (string, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	pos, ok := s.keydir.get(key)
	if !ok {
		return "", false, nil
	}

	value, err := s.readValue(key, pos)
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set stores value under key. The record is on stable storage by the
// time Set returns.
func (s *Store) Set(key, value string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stamp := s.nextStamp()
	seg, offset, err := s.appendRecord(&record{Type: typePut, Key: key, Value: value, Stamp: stamp})
	if err != nil {
		return err
	}
	s.keydir.put(key, entry{segment: seg, offset: offset, stamp: stamp})

	return s.maybeCompact()
}

// Remove deletes key. It appends a tombstone carrying the value that was
// current at removal time, so the log itself records what was deleted.
// Removing a key with no live value returns ErrKeyNotFound.
func (s *Store) Remove(key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	pos, ok := s.keydir.get(key)
	if !ok {
		return ErrKeyNotFound
	}
	value, err := s.readValue(key, pos)
	if err != nil {
		return err
	}

	if _, _, err := s.appendRecord(&record{Type: typeDel, Key: key, Value: value, Stamp: s.nextStamp()}); err != nil {
		return err
	}
	s.keydir.delete(key)

	return s.maybeCompact()
}

// Keys returns the live keys in ascending order.
func (s *Store) Keys() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	keys := make([]string, 0, s.keydir.size())
	s.keydir.ascend(func(key string, _ entry) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Len returns the number of live keys.
func (s *Store) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.keydir.size()
}

// Fold calls fn for every live key-value pair in ascending key order
// until fn returns false.
func (s *Store) Fold(fn func(key, value string) bool) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var walkErr error
	s.keydir.ascend(func(key string, pos entry) bool {
		value, err := s.readValue(key, pos)
		if err != nil {
			walkErr = err
			return false
		}
		return fn(key, value)
	})
	return walkErr
}

// Stats reports point-in-time figures about the store. LoggedBytes is
// the counter driving compaction, not an exact disk-usage figure.
type Stats struct {
	Segments    int
	Keys        int
	LoggedBytes int64
}

// Stats returns current store statistics.
func (s *Store) Stats() Stats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return Stats{
		Segments:    len(s.readers),
		Keys:        s.keydir.size(),
		LoggedBytes: s.logged,
	}
}

// Close releases every file handle. The store must not be used after
// Close returns.
func (s *Store) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var closeErr error
	if s.active != nil {
		closeErr = s.active.Close()
		s.active = nil
	}
	for id, file := range s.readers {
		if err := file.Close(); err != nil && closeErr == nil {
			closeErr = err
		}
		delete(s.readers, id)
	}
	return closeErr
}

// readValue reads the record a keydir entry points at and returns its
// value after checking the location really holds a put for that key.
func (s *Store) readValue(key string, pos entry) (string, error) {
	rec, err := s.readRecordAt(pos.segment, pos.offset)
	if err != nil {
		return "", err
	}
	if rec.Type != typePut || rec.Key != key {
		return "", fmt.Errorf("%w: segment %d offset %d does not hold a put for %q",
			ErrCorruptRecord, pos.segment, pos.offset, key)
	}
	return rec.Value, nil
}

// nextStamp returns a stamp strictly greater than any handed out or
// replayed before it. Stamps track wall-clock milliseconds when the
// clock allows, but ordering is what compaction relies on.
func (s *Store) nextStamp() uint64 {
	stamp := uint64(time.Now().UnixMilli())
	if stamp <= s.lastStamp {
		stamp = s.lastStamp + 1
	}
	s.lastStamp = stamp
	return stamp
}

// maybeCompact runs a compaction pass once enough bytes have been
// logged since the last one.
func (s *Store) maybeCompact() error {
	if s.logged <= s.config.CompactionThreshold {
		return nil
	}
	return s.compact()
}
