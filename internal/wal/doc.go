// Package wal implements the node's write-ahead log: an append-only,
// length-prefixed, CRC-32-checksummed binary log of LogEntry records,
// written in batches by the write queue and replayed once at startup by
// the recovery package.
//
// File layout (little-endian throughout), repeated once per batch:
//
//	batchCount   uint32
//	  for each entry:
//	    entryLen   uint32   // length of the serialized entry that follows
//	    entry      []byte   // see SerializeEntry
//
// Entry layout:
//
//	opType         uint8    // OpPut or OpRemove
//	sequenceNumber uint64
//	timestampUnix  int64    // milliseconds since epoch
//	ttlSeconds     int64
//	nodeIDLen      uint32
//	nodeID         []byte
//	keyLen         uint32
//	key            []byte
//	valueLen       uint32
//	value          []byte
//	checksum       uint32   // CRC-32 (IEEE) over the bytes above, computed
//	                        // with this field absent from the input
package wal
