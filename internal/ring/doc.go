// Package ring implements the consistent-hash ring used to map cache keys
// to an ordered set of owning node identifiers.
//
// Each physical node contributes a fixed number of virtual entries to the
// ring to smooth load. Lookup walks the ring clockwise from hash(key),
// wrapping at the end, and collects distinct physical nodes until the
// requested replica count is reached.
package ring
