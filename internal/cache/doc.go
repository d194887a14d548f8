// Package cache implements the node's in-memory key-value store: a
// TTL'd, capacity-bounded LRU mapping of string to string.
//
// Design goals:
//   - Make the core data structures explicit (map + doubly-linked list)
//   - Provide O(1) Get/Put/Remove via map index + LRU pointers
//   - Be concurrency-safe (one mutex) with correctness as the primary goal
//   - Own and cleanly stop its background expiry goroutine (no leaks)
//
// Unlike a generic cache, Get does not check expiry on the read path —
// only Put-triggered eviction and the background sweep ever remove
// expired entries. Stale reads are possible for up to one sweep interval;
// callers that need strict expiry should shorten the sweep interval
// rather than rely on Get-time checks.
package cache
