package wal

import (
	"bufio"
	"encoding/binary"
	"io"
)

// FrameBatch encodes a batch of already-serialized entries as a single
// on-disk unit: a uint32 count header followed by each entry prefixed
// with its own uint32 length. Both the WAL writer and the recovery
// reader use this framing, so they can never drift apart.
func FrameBatch(entries [][]byte) []byte {
	total := 4
	for _, e := range entries {
		total += 4 + len(e)
	}

	out := make([]byte, 0, total)
	var hdr [4]byte

	binary.LittleEndian.PutUint32(hdr[:], uint32(len(entries)))
	out = append(out, hdr[:]...)

	for _, e := range entries {
		binary.LittleEndian.PutUint32(hdr[:], uint32(len(e)))
		out = append(out, hdr[:]...)
		out = append(out, e...)
	}

	return out
}

// ReadBatchHeader reads the uint32 entry count that starts a batch.
func ReadBatchHeader(r *bufio.Reader) (count uint32, err error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(hdr[:]), nil
}

// ReadFramedEntry reads one length-prefixed entry payload from r.
func ReadFramedEntry(r *bufio.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(hdr[:])

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
