package recovery

import (
	"bufio"
	"errors"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/kushalsai01/distcache/internal/cache"
	"github.com/kushalsai01/distcache/internal/wal"
)

// Result reports what a recovery pass did, for callers that want to log
// or assert on it beyond what FromWAL already logs.
type Result struct {
	EntriesApplied int
	EntriesSkipped int
}

// FromWAL opens path and applies every batch it finds to c, one shot,
// filtering entries to those whose NodeID matches nodeID and, for Puts,
// whose TTL has not yet elapsed as of now (Removes are applied regardless
// of TTL). A record that fails to deserialize (bad checksum) is skipped
// and logged; a truncated batch header or entry is logged and ends the
// replay. A missing file is not an error: nothing is recovered. Any other
// failure to open the file is returned as an error.
func FromWAL(path, nodeID string, c *cache.Cache, log zerolog.Logger) (Result, error) {
	log = log.With().Str("component", "recovery").Str("wal_path", path).Logger()
	log.Info().Msg("starting recovery from WAL")

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Info().Msg("no WAL file found, nothing to recover")
		return Result{}, nil
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to open WAL file")
		return Result{}, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	now := time.Now()
	var result Result

	for {
		count, err := wal.ReadBatchHeader(r)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Warn().Err(err).Msg("truncated batch header, stopping recovery")
			break
		}

		for i := uint32(0); i < count; i++ {
			raw, err := wal.ReadFramedEntry(r)
			if err != nil {
				log.Warn().Err(err).Msg("truncated entry, stopping recovery")
				return finish(log, result), nil
			}

			entry, err := wal.DeserializeEntry(raw)
			if err != nil {
				log.Warn().Err(err).Msg("corrupt entry, skipping")
				result.EntriesSkipped++
				continue
			}

			if !applies(entry, nodeID, now) {
				result.EntriesSkipped++
				continue
			}

			apply(c, entry)
			result.EntriesApplied++
		}
	}

	return finish(log, result), nil
}

func applies(entry wal.LogEntry, nodeID string, now time.Time) bool {
	if entry.NodeID != nodeID {
		return false
	}
	if entry.OpType == wal.OpRemove {
		return true
	}
	expiry := time.UnixMilli(entry.TimestampUnix).Add(time.Duration(entry.TTLSeconds) * time.Second)
	return expiry.After(now)
}

func apply(c *cache.Cache, entry wal.LogEntry) {
	switch entry.OpType {
	case wal.OpPut:
		c.Put(entry.Key, entry.Value, entry.TTLSeconds)
	case wal.OpRemove:
		c.Remove(entry.Key)
	}
}

func finish(log zerolog.Logger, result Result) Result {
	log.Info().
		Int("applied", result.EntriesApplied).
		Int("skipped", result.EntriesSkipped).
		Msg("recovery completed")
	return result
}
