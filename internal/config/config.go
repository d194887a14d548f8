// Package config defines the process-wide defaults for a distcache node
// and loads environment overrides for them.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every tunable this node needs a default for. Flags in
// cmd/node override these after envconfig has applied environment
// variables, so the precedence is: flag > env > built-in default.
type Config struct {
	VirtualNodes     int           `envconfig:"VIRTUAL_NODES" default:"52"`
	CacheCapacity    int           `envconfig:"CACHE_CAPACITY" default:"10000"`
	ReplicationFactor int          `envconfig:"REPLICATION_FACTOR" default:"3"`
	BatchSize        int           `envconfig:"BATCH_SIZE" default:"100"`
	FlushInterval    time.Duration `envconfig:"FLUSH_INTERVAL" default:"10s"`
	ExpirySweep      time.Duration `envconfig:"EXPIRY_SWEEP" default:"1s"`
	WALPath          string        `envconfig:"WAL_PATH" default:"distcache.wal"`
	HTTPAddr         string        `envconfig:"HTTP_ADDR" default:""`
	WorkerPoolSize   int           `envconfig:"WORKER_POOL_SIZE" default:"12"`
	RequestTimeout   time.Duration `envconfig:"REQUEST_TIMEOUT" default:"3s"`
}

// Load returns the reference configuration with any DISTCACHE_-prefixed
// environment variables applied on top.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("distcache", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
