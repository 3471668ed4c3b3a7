package minicask

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countRecords counts the records across every segment in dir.
func countRecords(t *testing.T, dir string) int {
	t.Helper()

	ids, err := listSegments(dir)
	require.NoError(t, err)

	var total int
	for _, id := range ids {
		data, err := os.ReadFile(filepath.Join(dir, segmentName(id)))
		require.NoError(t, err)
		total += bytes.Count(data, []byte("\n"))
	}
	return total
}

func TestCompactDropsDeadRecords(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(dir, MaxSegmentSize(256))
	require.NoError(t, err)
	defer store.Close()

	for i := 0; i < 20; i++ {
		require.NoError(t, store.Set("counter", fmt.Sprintf("%d", i)))
	}
	require.NoError(t, store.Set("keep", "v"))

	before, err := listSegments(dir)
	require.NoError(t, err)
	require.Greater(t, len(before), 1)

	require.NoError(t, store.Compact())

	after, err := listSegments(dir)
	require.NoError(t, err)
	assert.Greater(t, after[0], before[len(before)-1], "old segments must be gone")

	// Only the newest generation of each key survives.
	assert.Equal(t, store.Len(), countRecords(t, dir))

	value, ok, err := store.Get("counter")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "19", value)

	value, ok, err = store.Get("keep")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", value)
}

func TestCompactReconcilesKeydir(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(dir, MaxSegmentSize(256))
	require.NoError(t, err)
	defer store.Close()

	for i := 0; i < 30; i++ {
		require.NoError(t, store.Set(fmt.Sprintf("key-%d", i%5), fmt.Sprintf("value-%d", i)))
	}
	require.NoError(t, store.Compact())

	// Every keydir entry must point into a segment that still exists,
	// at a record that parses as a put for that key.
	live, err := listSegments(dir)
	require.NoError(t, err)
	segments := make(map[uint64]bool, len(live))
	for _, id := range live {
		segments[id] = true
	}

	store.keydir.ascend(func(key string, pos entry) bool {
		assert.True(t, segments[pos.segment], "key %s points at deleted segment %d", key, pos.segment)
		value, err := store.readValue(key, pos)
		assert.NoError(t, err)
		assert.NotEmpty(t, value)
		return true
	})
}

func TestCompactRemovesTombstones(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("a", "1"))
	require.NoError(t, store.Set("b", "2"))
	require.NoError(t, store.Remove("a"))
	require.NoError(t, store.Compact())

	assert.Equal(t, 1, countRecords(t, dir))
	require.NoError(t, store.Close())

	store, err = Open(dir)
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.Get("a")
	require.NoError(t, err)
	assert.False(t, ok, "removed key resurrected by compaction")

	value, ok, err := store.Get("b")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2", value)
}

func TestCompactEmptyStore(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(dir)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Compact())

	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 0, countRecords(t, dir))

	// The store stays usable on the fresh segment.
	require.NoError(t, store.Set("a", "1"))
	value, ok, err := store.Get("a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", value)
}

func TestCompactRotatesWhenLiveSetIsLarge(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(dir, MaxSegmentSize(256))
	require.NoError(t, err)
	defer store.Close()

	for i := 0; i < 30; i++ {
		require.NoError(t, store.Set(fmt.Sprintf("key-%d", i), fmt.Sprintf("value-%d", i)))
	}
	require.NoError(t, store.Compact())

	ids, err := listSegments(dir)
	require.NoError(t, err)
	assert.Greater(t, len(ids), 1, "live set exceeding the cap must span segments")

	for i := 0; i < 30; i++ {
		value, ok, err := store.Get(fmt.Sprintf("key-%d", i))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, fmt.Sprintf("value-%d", i), value)
	}
}

func TestAutoCompaction(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(dir, MaxSegmentSize(128), CompactionThreshold(512))
	require.NoError(t, err)
	defer store.Close()

	for i := 0; i < 40; i++ {
		require.NoError(t, store.Set("k", fmt.Sprintf("val-%d", i)))
	}

	_, err = os.Stat(filepath.Join(dir, "0.log"))
	assert.True(t, os.IsNotExist(err), "initial segment should have been compacted away")

	value, ok, err := store.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "val-39", value)
	assert.Equal(t, 1, store.Len())
}

func TestAutoCompactionOnRemove(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(dir, CompactionThreshold(1))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set("a", "1"))
	require.NoError(t, store.Remove("a"))

	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 0, countRecords(t, dir))
}
