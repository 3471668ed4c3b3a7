package minicask

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Compact rewrites every live record into fresh segments and deletes
// the old ones, reclaiming the space held by overwritten values and
// tombstones.
func (s *Store) Compact() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.compact()
}

// compact runs one compaction pass. Writes continue in a segment past
// the highest existing index, so rewritten records and whatever the
// caller appends next share the same writer path and rotation rule. Old
// segments are removed only after every live record has been rewritten
// and synced; a crash in between leaves duplicates that replay resolves
// by order.
func (s *Store) compact() error {
	old, err := listSegments(s.directory)
	if err != nil {
		return err
	}

	s.logger.Info().Int("segments", len(old)).Int64("logged", s.logged).
		Msg("compaction started")

	if err := s.rotate(); err != nil {
		return err
	}
	s.logged = 0

	var carried int
	for _, id := range old {
		n, err := s.rewriteSegment(id)
		if err != nil {
			return err
		}
		carried += n
	}

	for _, id := range old {
		if file, ok := s.readers[id]; ok {
			file.Close()
			delete(s.readers, id)
		}
		if err := os.Remove(s.segmentPath(id)); err != nil {
			return fmt.Errorf("remove segment %d: %w", id, err)
		}
	}

	s.logger.Info().Int("removed", len(old)).Int("records", carried).
		Int64("live", s.logged).Msg("compaction finished")
	return nil
}

// rewriteSegment re-appends every still-live put record of segment id
// and repoints the keydir at each record's new location. A put is live
// exactly when the keydir's current stamp for its key equals the
// record's stamp; older generations and tombstones are dropped. Unlike
// replay, compaction tolerates no damage: every byte of the segment
// must parse.
func (s *Store) rewriteSegment(id uint64) (int, error) {
	file, ok := s.readers[id]
	if !ok {
		return 0, fmt.Errorf("%w: segment %d", ErrSegmentNotFound, id)
	}
	info, err := file.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat segment %d: %w", id, err)
	}

	r := bufio.NewReader(io.NewSectionReader(file, 0, info.Size()))
	var offset int64
	var carried int
	for {
		line, err := r.ReadBytes('\n')
		if err == io.EOF {
			if len(line) > 0 {
				return carried, fmt.Errorf("%w: segment %d offset %d: torn record",
					ErrCorruptRecord, id, offset)
			}
			return carried, nil
		}
		if err != nil {
			return carried, fmt.Errorf("read segment %d: %w", id, err)
		}

		rec, err := decodeRecord(line)
		if err != nil {
			return carried, fmt.Errorf("%w: segment %d offset %d: %v",
				ErrCorruptRecord, id, offset, err)
		}

		if rec.Type == typePut {
			if pos, ok := s.keydir.get(rec.Key); ok && pos.stamp == rec.Stamp {
				seg, newOffset, err := s.appendRecord(rec)
				if err != nil {
					return carried, err
				}
				s.keydir.put(rec.Key, entry{segment: seg, offset: newOffset, stamp: rec.Stamp})
				carried++
			}
		}
		offset += int64(len(line))
	}
}
