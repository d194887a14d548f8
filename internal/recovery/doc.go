// Package recovery replays a WAL file into a cache once at node startup.
// Only entries belonging to the target node and not yet expired are
// applied; a corrupt record is skipped and a truncated one ends the
// replay, neither fatal. A missing WAL file recovers nothing; only a WAL
// file that exists but cannot be opened aborts recovery with an error.
package recovery
