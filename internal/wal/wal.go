package wal

import (
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kushalsai01/distcache/internal/metrics"
)

// WAL appends batches of LogEntry records to a single append-only file.
// One mutex guards the file handle, so each batch frame is written and
// synced without interleaving with another batch.
type WAL struct {
	mu   sync.Mutex
	path string
	file *os.File

	log     zerolog.Logger
	metrics *metrics.Registry
}

// Open creates or reopens the WAL file at path for appending.
func Open(path string, log zerolog.Logger, reg *metrics.Registry) (*WAL, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		log.Error().Err(err).Str("wal_path", path).Msg("failed to open WAL file")
		return nil, err
	}

	return &WAL{
		path:    path,
		file:    f,
		log:     log.With().Str("wal_path", path).Logger(),
		metrics: reg,
	}, nil
}

// Path returns the underlying file path, for recovery to reopen read-only.
func (w *WAL) Path() string {
	return w.path
}

// Close closes the underlying file.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// WriteBatch serializes every entry, frames them as one batch, writes the
// frame, and fsyncs before returning. Any write or fsync failure is
// returned. The file is not rolled back: after a failed write part of the
// frame may be on disk, and after a failed fsync all of it may be.
// Recovery stops at a truncated batch at the end of the file.
func (w *WAL) WriteBatch(entries []LogEntry) error {
	serialized := make([][]byte, len(entries))
	for i, e := range entries {
		serialized[i] = SerializeEntry(e)
	}
	frame := FrameBatch(serialized)

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Write(frame); err != nil {
		w.log.Error().Err(err).Int("entries", len(entries)).Msg("WAL batch write failed")
		w.observeFailure()
		return err
	}
	if err := w.file.Sync(); err != nil {
		w.log.Error().Err(err).Msg("WAL fsync failed")
		w.observeFailure()
		return err
	}

	w.observeAppend()
	return nil
}

func (w *WAL) observeAppend() {
	if w.metrics != nil {
		w.metrics.WALAppends.Inc()
	}
}

func (w *WAL) observeFailure() {
	if w.metrics != nil {
		w.metrics.WALFailure.Inc()
	}
}
