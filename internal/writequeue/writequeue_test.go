package writequeue

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kushalsai01/distcache/internal/metrics"
	"github.com/kushalsai01/distcache/internal/wal"
)

func newTestQueue(t *testing.T, batchSize int, flushInterval time.Duration) (*WriteQueue, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.wal")
	w, err := wal.Open(path, zerolog.Nop(), metrics.NewUnregistered())
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	q := New(Config{
		NodeID:        "n1",
		BatchSize:     batchSize,
		FlushInterval: flushInterval,
		WAL:           w,
		Metrics:       metrics.NewUnregistered(),
		Log:           zerolog.Nop(),
	})
	return q, path
}

func readAllEntries(t *testing.T, path string) []wal.LogEntry {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r := bufio.NewReader(f)
	var out []wal.LogEntry
	for {
		count, err := wal.ReadBatchHeader(r)
		if err != nil {
			break
		}
		for i := uint32(0); i < count; i++ {
			raw, err := wal.ReadFramedEntry(r)
			require.NoError(t, err)
			entry, err := wal.DeserializeEntry(raw)
			require.NoError(t, err)
			out = append(out, entry)
		}
	}
	return out
}

func TestStateMachineTransitions(t *testing.T) {
	q, _ := newTestQueue(t, 100, time.Hour)
	require.Equal(t, Idle, q.State())

	q.Start()
	require.Equal(t, Running, q.State())

	q.Start() // no-op while running
	require.Equal(t, Running, q.State())

	q.Stop()
	require.Equal(t, Stopped, q.State())

	q.Stop() // no-op once stopped
	require.Equal(t, Stopped, q.State())
}

func TestFlushOnBatchSize(t *testing.T) {
	q, path := newTestQueue(t, 3, time.Hour)
	q.Start()
	defer q.Stop()

	q.LogPut("a", "1", 60)
	q.LogPut("b", "2", 60)
	q.LogPut("c", "3", 60) // crosses batch size, should trigger a flush

	require.Eventually(t, func() bool {
		return len(readAllEntries(t, path)) == 3
	}, time.Second, 5*time.Millisecond)
}

func TestFlushOnInterval(t *testing.T) {
	q, path := newTestQueue(t, 100, 20*time.Millisecond)
	q.Start()
	defer q.Stop()

	q.LogPut("only", "v", 60)

	require.Eventually(t, func() bool {
		return len(readAllEntries(t, path)) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestStopDrainsPending(t *testing.T) {
	q, path := newTestQueue(t, 100, time.Hour)
	q.Start()

	q.LogPut("x", "1", 60)
	q.LogRemove("x")
	q.Stop()

	entries := readAllEntries(t, path)
	require.Len(t, entries, 2)
}

func TestSequenceNumbersPreserveOrder(t *testing.T) {
	q, path := newTestQueue(t, 100, time.Hour)
	q.Start()

	for i := 0; i < 10; i++ {
		q.LogPut("k", "v", 60)
	}
	q.Stop()

	entries := readAllEntries(t, path)
	require.Len(t, entries, 10)
	for i, e := range entries {
		require.EqualValues(t, i+1, e.SequenceNumber)
	}
}
