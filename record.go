package minicask

import (
	"encoding/json"
	"fmt"
)

// Record types as stored in the log. A put carries the value written; a
// tombstone marks a removal and carries the value that was current when
// the key was removed.
const (
	typePut = "put"
	typeDel = "del"
)

// record is a single logged event. Exactly one record is stored per line
// of a segment file; the newline is the record boundary.
type record struct {
	Type  string `json:"type"`
	Key   string `json:"key"`
	Value string `json:"value"`
	Stamp uint64 `json:"ts"`
}

// encodeRecord serializes a record as one newline-terminated JSON line.
func encodeRecord(rec *record) ([]byte, error) {
	buf, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return append(buf, '\n'), nil
}

// decodeRecord parses a line previously produced by encodeRecord. The
// caller decides whether a failure means a torn tail or real corruption.
func decodeRecord(line []byte) (*record, error) {
	var rec record
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, err
	}
	if rec.Type != typePut && rec.Type != typeDel {
		return nil, fmt.Errorf("unknown record type %q", rec.Type)
	}
	return &rec, nil
}
