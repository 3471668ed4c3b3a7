// Package minicask implements an embedded, log-structured key-value store
// in the Bitcask style.
//
// Every write appends one record to the active log segment; an in-memory
// keydir maps each live key to the exact location of its newest value, so
// a read costs one seek. Opening a store replays the segments in order to
// rebuild the keydir. The active segment rotates once it reaches a size
// cap, and once enough bytes have been logged a compaction pass rewrites
// the live records into fresh segments and deletes the old ones.
//
// On disk a store is a single directory of numbered segment files
// (0.log, 1.log, ...). Each record is a newline-terminated JSON object,
// so the files are plain UTF-8 text and can be inspected with ordinary
// tools. Appends are synced to stable storage before a write returns.
//
// A store directory must only be opened by one process at a time;
// nothing guards it against a second writer.
package minicask
