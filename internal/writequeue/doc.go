// Package writequeue batches LogEntry writes behind a single flusher
// goroutine so the WAL sees large sequential writes instead of one fsync
// per mutation.
//
// The queue moves through four states: Idle, Running, Stopping, Stopped.
// Enqueue does not check the state: entries enqueued while Idle are
// flushed once Start runs, and entries enqueued after Stop stay buffered
// and are never flushed. Stop transitions Running->Stopping, wakes the
// flusher, waits for a final drain, then marks Stopped.
package writequeue
