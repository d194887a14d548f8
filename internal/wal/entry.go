package wal

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
)

// OpType identifies the mutation a LogEntry records.
type OpType uint8

const (
	OpPut OpType = iota
	OpRemove
)

// ErrCorrupt is returned by DeserializeEntry when the stored checksum
// does not match the recomputed one.
var ErrCorrupt = errors.New("wal: checksum mismatch")

// LogEntry is one write-ahead log record: a single Put or Remove destined
// for one node's cache.
type LogEntry struct {
	OpType         OpType
	NodeID         string
	Key            string
	Value          string // unused for OpRemove
	TTLSeconds     int64  // unused for OpRemove
	TimestampUnix  int64  // milliseconds since epoch
	SequenceNumber uint64
}

// SerializeEntry encodes entry into the on-disk record format, including
// the trailing CRC-32 checksum, per the layout documented in doc.go.
func SerializeEntry(entry LogEntry) []byte {
	var buf bytes.Buffer

	buf.WriteByte(byte(entry.OpType))
	writeUint64(&buf, entry.SequenceNumber)
	writeInt64(&buf, entry.TimestampUnix)
	writeInt64(&buf, entry.TTLSeconds)
	writeString(&buf, entry.NodeID)
	writeString(&buf, entry.Key)
	writeString(&buf, entry.Value)

	checksum := crc32.ChecksumIEEE(buf.Bytes())
	writeUint32(&buf, checksum)

	return buf.Bytes()
}

// DeserializeEntry decodes a record produced by SerializeEntry, verifying
// its checksum. ErrCorrupt is returned if the checksum does not match;
// callers (the recovery package) are expected to skip such records rather
// than treat them as fatal.
func DeserializeEntry(data []byte) (LogEntry, error) {
	if len(data) < 4 {
		return LogEntry{}, ErrCorrupt
	}

	payload := data[:len(data)-4]
	wantChecksum := binary.LittleEndian.Uint32(data[len(data)-4:])
	if crc32.ChecksumIEEE(payload) != wantChecksum {
		return LogEntry{}, ErrCorrupt
	}

	r := bytes.NewReader(payload)

	opByte, err := r.ReadByte()
	if err != nil {
		return LogEntry{}, ErrCorrupt
	}

	entry := LogEntry{OpType: OpType(opByte)}

	if entry.SequenceNumber, err = readUint64(r); err != nil {
		return LogEntry{}, ErrCorrupt
	}
	if entry.TimestampUnix, err = readInt64(r); err != nil {
		return LogEntry{}, ErrCorrupt
	}
	if entry.TTLSeconds, err = readInt64(r); err != nil {
		return LogEntry{}, ErrCorrupt
	}
	if entry.NodeID, err = readString(r); err != nil {
		return LogEntry{}, ErrCorrupt
	}
	if entry.Key, err = readString(r); err != nil {
		return LogEntry{}, ErrCorrupt
	}
	if entry.Value, err = readString(r); err != nil {
		return LogEntry{}, ErrCorrupt
	}

	return entry, nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeInt64(buf *bytes.Buffer, v int64) {
	writeUint64(buf, uint64(v))
}

func writeString(buf *bytes.Buffer, s string) {
	writeUint32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readUint64(r *bytes.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func readInt64(r *bytes.Reader) (int64, error) {
	v, err := readUint64(r)
	return int64(v), err
}

func readString(r *bytes.Reader) (string, error) {
	n, err := readUint32(r)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
