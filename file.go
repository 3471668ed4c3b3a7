package minicask

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const segmentSuffix = ".log"

func segmentName(id uint64) string {
	return fmt.Sprintf("%d%s", id, segmentSuffix)
}

func (s *Store) segmentPath(id uint64) string {
	return filepath.Join(s.directory, segmentName(id))
}

// listSegments returns the ids of the segment files in dir in ascending
// order. Files whose names are not a decimal index plus the segment
// suffix are ignored.
func listSegments(dir string) ([]uint64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data directory: %w", err)
	}

	var ids []uint64
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), segmentSuffix) {
			continue
		}
		id, err := strconv.ParseUint(strings.TrimSuffix(ent.Name(), segmentSuffix), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// openActive makes segment id the active one: it opens an append handle,
// records the current size, and registers a read handle in the pool.
func (s *Store) openActive(id uint64) error {
	file, err := os.OpenFile(s.segmentPath(id), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open active segment %d: %w", id, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("stat active segment %d: %w", id, err)
	}
	if _, err := s.reader(id); err != nil {
		file.Close()
		return err
	}

	s.active = file
	s.activeID = id
	s.activeSize = info.Size()
	return nil
}

// rotate closes the active segment and opens the next one.
func (s *Store) rotate() error {
	if err := s.active.Close(); err != nil {
		return fmt.Errorf("close active segment %d: %w", s.activeID, err)
	}
	if err := s.openActive(s.activeID + 1); err != nil {
		return err
	}

	s.logger.Debug().Uint64("segment", s.activeID).Msg("rotated active segment")
	return nil
}

// appendRecord writes one record to the log and reports the segment and
// offset it actually landed in. If the record would push the active
// segment past the size cap, the segment rotates first and the record
// lands at the start of the new one. The append is synced to stable
// storage before returning; on a write error the in-memory counters are
// left untouched and recovery is replay's job.
func (s *Store) appendRecord(rec *record) (uint64, int64, error) {
	line, err := encodeRecord(rec)
	if err != nil {
		return 0, 0, err
	}

	if s.activeSize+int64(len(line)) > s.config.MaxSegmentSize {
		if err := s.rotate(); err != nil {
			return 0, 0, err
		}
	}

	offset := s.activeSize
	if _, err := s.active.Write(line); err != nil {
		return 0, 0, fmt.Errorf("append to segment %d: %w", s.activeID, err)
	}
	if err := fdatasync(s.active); err != nil {
		return 0, 0, fmt.Errorf("sync segment %d: %w", s.activeID, err)
	}

	s.activeSize += int64(len(line))
	s.logged += int64(len(line))
	return s.activeID, offset, nil
}

// reader returns the pooled read handle for segment id, opening and
// registering one on first use. Every segment the store knows about gets
// its handle registered while the writer lock is held, so lookups from
// the read path never mutate the pool.
func (s *Store) reader(id uint64) (*os.File, error) {
	if file, ok := s.readers[id]; ok {
		return file, nil
	}
	file, err := os.Open(s.segmentPath(id))
	if err != nil {
		return nil, fmt.Errorf("open segment %d: %w", id, err)
	}
	s.readers[id] = file
	return file, nil
}

// readRecordAt reads the record starting at the given offset of the
// given segment through the pooled handle.
func (s *Store) readRecordAt(seg uint64, offset int64) (*record, error) {
	file, ok := s.readers[seg]
	if !ok {
		return nil, fmt.Errorf("%w: segment %d", ErrSegmentNotFound, seg)
	}

	r := bufio.NewReader(io.NewSectionReader(file, offset, math.MaxInt64-offset))
	line, err := r.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read segment %d at %d: %w", seg, offset, err)
	}

	rec, err := decodeRecord(line)
	if err != nil {
		return nil, fmt.Errorf("%w: segment %d offset %d: %v", ErrCorruptRecord, seg, offset, err)
	}
	return rec, nil
}

// load rebuilds the keydir by replaying every segment in ascending
// order. A torn tail ends replay of its segment without error; if the
// tail belongs to the newest segment it is also truncated away so later
// appends cannot fuse with it.
func (s *Store) load() error {
	ids, err := listSegments(s.directory)
	if err != nil {
		return err
	}

	for i, id := range ids {
		clean, damaged, err := s.loadSegment(id)
		if err != nil {
			return err
		}
		if damaged {
			s.logger.Warn().Uint64("segment", id).Int64("offset", clean).
				Msg("discarding torn segment tail")
			if i == len(ids)-1 {
				if err := os.Truncate(s.segmentPath(id), clean); err != nil {
					return fmt.Errorf("truncate segment %d: %w", id, err)
				}
			}
		}
	}

	activeID := uint64(0)
	if len(ids) > 0 {
		activeID = ids[len(ids)-1]
	}
	return s.openActive(activeID)
}

// loadSegment replays one segment into the keydir. It returns the offset
// just past the last intact record and whether a torn or undecodable
// tail was found. Only I/O failures are reported as errors.
func (s *Store) loadSegment(id uint64) (int64, bool, error) {
	file, err := s.reader(id)
	if err != nil {
		return 0, false, err
	}
	info, err := file.Stat()
	if err != nil {
		return 0, false, fmt.Errorf("stat segment %d: %w", id, err)
	}

	r := bufio.NewReader(io.NewSectionReader(file, 0, info.Size()))
	var offset int64
	for {
		line, err := r.ReadBytes('\n')
		if err == io.EOF {
			// A record without its newline never finished writing.
			return offset, len(line) > 0, nil
		}
		if err != nil {
			return offset, false, fmt.Errorf("read segment %d: %w", id, err)
		}

		rec, err := decodeRecord(line)
		if err != nil {
			return offset, true, nil
		}

		switch rec.Type {
		case typePut:
			s.keydir.put(rec.Key, entry{segment: id, offset: offset, stamp: rec.Stamp})
			s.logged += int64(len(line))
		case typeDel:
			s.keydir.delete(rec.Key)
		}
		if rec.Stamp > s.lastStamp {
			s.lastStamp = rec.Stamp
		}
		offset += int64(len(line))
	}
}

// release closes every file handle. Used on the error paths of Open,
// where reporting the original failure matters more than close errors.
func (s *Store) release() {
	if s.active != nil {
		s.active.Close()
		s.active = nil
	}
	for id, file := range s.readers {
		file.Close()
		delete(s.readers, id)
	}
}
