package writequeue

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kushalsai01/distcache/internal/metrics"
	"github.com/kushalsai01/distcache/internal/wal"
)

// State is one of the four write-queue lifecycle states.
type State int32

const (
	Idle State = iota
	Running
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Config configures batching behavior and dependencies for a WriteQueue.
type Config struct {
	NodeID        string
	BatchSize     int
	FlushInterval time.Duration
	WAL           *wal.WAL
	Metrics       *metrics.Registry
	Log           zerolog.Logger
}

// WriteQueue buffers LogEntry writes and flushes them to a WAL in
// batches, triggered by either the buffer reaching BatchSize or
// FlushInterval elapsing, whichever comes first.
type WriteQueue struct {
	nodeID        string
	batchSize     int
	flushInterval time.Duration
	wal           *wal.WAL
	metrics       *metrics.Registry
	log           zerolog.Logger

	mu      sync.Mutex
	pending []wal.LogEntry
	state   atomic.Int32
	wake    chan struct{}

	sequence atomic.Uint64

	wg sync.WaitGroup
}

// New constructs a WriteQueue in the Idle state. Call Start to begin
// flushing.
func New(cfg Config) *WriteQueue {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = time.Second
	}

	q := &WriteQueue{
		nodeID:        cfg.NodeID,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		wal:           cfg.WAL,
		metrics:       cfg.Metrics,
		log:           cfg.Log.With().Str("component", "writequeue").Logger(),
	}
	q.wake = make(chan struct{}, 1)
	q.state.Store(int32(Idle))
	return q
}

// signal wakes the flusher without blocking; a pending unconsumed signal
// is sufficient, so the channel never needs more than one slot.
func (q *WriteQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// State reports the queue's current lifecycle state.
func (q *WriteQueue) State() State {
	return State(q.state.Load())
}

// Start transitions Idle->Running and launches the flusher goroutine. It
// is a no-op if already running.
func (q *WriteQueue) Start() {
	if !q.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return
	}
	q.wg.Add(1)
	go q.flushLoop()
}

// Stop transitions Running->Stopping, wakes the flusher for a final
// drain, and blocks until it reaches Stopped. Safe to call more than
// once.
func (q *WriteQueue) Stop() {
	if !q.state.CompareAndSwap(int32(Running), int32(Stopping)) {
		return
	}
	q.signal()
	q.wg.Wait()
}

// LogPut enqueues a Put entry with the next sequence number and the
// current timestamp.
func (q *WriteQueue) LogPut(key, value string, ttlSeconds int64) {
	q.enqueue(wal.LogEntry{
		OpType:         wal.OpPut,
		NodeID:         q.nodeID,
		Key:            key,
		Value:          value,
		TTLSeconds:     ttlSeconds,
		TimestampUnix:  time.Now().UnixMilli(),
		SequenceNumber: q.sequence.Add(1),
	})
}

// LogRemove enqueues a Remove entry with the next sequence number.
func (q *WriteQueue) LogRemove(key string) {
	q.enqueue(wal.LogEntry{
		OpType:         wal.OpRemove,
		NodeID:         q.nodeID,
		Key:            key,
		TimestampUnix:  time.Now().UnixMilli(),
		SequenceNumber: q.sequence.Add(1),
	})
}

func (q *WriteQueue) enqueue(entry wal.LogEntry) {
	q.mu.Lock()
	q.pending = append(q.pending, entry)
	full := len(q.pending) >= q.batchSize
	if q.metrics != nil {
		q.metrics.QueueDepth.Set(float64(len(q.pending)))
	}
	q.mu.Unlock()

	if full {
		q.signal()
	}
}

// Depth returns the number of entries currently buffered, awaiting flush.
func (q *WriteQueue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// flushLoop is the single goroutine that owns draining the buffer into
// the WAL. It wakes on whichever happens first: the buffer crossing
// BatchSize (signaled by enqueue), FlushInterval elapsing, or Stop being
// called. The Stop path drains once more before exiting so no buffered
// entry is lost.
func (q *WriteQueue) flushLoop() {
	defer q.wg.Done()

	ticker := time.NewTicker(q.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			q.drainAndFlush()
		case <-q.wake:
			q.drainAndFlush()
			if q.State() == Stopping {
				q.state.Store(int32(Stopped))
				return
			}
		}
	}
}

func (q *WriteQueue) drainAndFlush() {
	q.mu.Lock()
	if len(q.pending) == 0 {
		q.mu.Unlock()
		return
	}
	batch := q.pending
	q.pending = nil
	if q.metrics != nil {
		q.metrics.QueueDepth.Set(0)
	}
	q.mu.Unlock()

	batchID := uuid.NewString()
	log := q.log.With().Str("batch_id", batchID).Int("entries", len(batch)).Logger()

	if err := q.wal.WriteBatch(batch); err != nil {
		log.Error().Err(err).Msg("batch flush failed, entries dropped")
		if q.metrics != nil {
			q.metrics.QueueFlushFailure.Inc()
		}
		return
	}

	log.Debug().Msg("batch flushed")
	if q.metrics != nil {
		q.metrics.QueueFlushes.Inc()
	}
}
