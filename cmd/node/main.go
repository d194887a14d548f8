package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kushalsai01/distcache/internal/cache"
	"github.com/kushalsai01/distcache/internal/config"
	"github.com/kushalsai01/distcache/internal/metrics"
	"github.com/kushalsai01/distcache/internal/node"
	"github.com/kushalsai01/distcache/internal/recovery"
	"github.com/kushalsai01/distcache/internal/ring"
	"github.com/kushalsai01/distcache/internal/transport"
	"github.com/kushalsai01/distcache/internal/wal"
	"github.com/kushalsai01/distcache/internal/writequeue"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		virtualNodes      int
		capacity          int
		replicationFactor int
		batchSize         int
		flushInterval     time.Duration
		expirySweep       time.Duration
		walPath           string
		httpAddr          string
		workerPoolSize    int
		requestTimeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "node <address> [peer...]",
		Short: "Run one distcache cluster node",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			applyFlagOverrides(&cfg, cmd.Flags(), virtualNodes, capacity, replicationFactor,
				batchSize, flushInterval, expirySweep, walPath, httpAddr, workerPoolSize, requestTimeout)

			return runNode(args[0], args[1:], cfg)
		},
	}

	cmd.Flags().IntVar(&virtualNodes, "virtual-nodes", 0, "virtual nodes per ring member (default from config)")
	cmd.Flags().IntVar(&capacity, "capacity", 0, "cache capacity (default from config)")
	cmd.Flags().IntVar(&replicationFactor, "replication", 0, "replication factor (default from config)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "write queue batch size (default from config)")
	cmd.Flags().DurationVar(&flushInterval, "flush-interval", 0, "write queue flush interval (default from config)")
	cmd.Flags().DurationVar(&expirySweep, "expiry-interval", 0, "cache background expiry sweep interval (default from config)")
	cmd.Flags().StringVar(&walPath, "wal-path", "", "write-ahead log file path (default from config)")
	cmd.Flags().StringVar(&httpAddr, "http-addr", "", "address this node listens on (defaults to the positional address)")
	cmd.Flags().IntVar(&workerPoolSize, "worker-pool-size", 0, "bound on concurrently handled requests (default from config)")
	cmd.Flags().DurationVar(&requestTimeout, "request-timeout", 0, "per-peer-call timeout (default from config)")

	return cmd
}

func applyFlagOverrides(
	cfg *config.Config, flags interface{ Changed(string) bool },
	virtualNodes, capacity, replicationFactor, batchSize int,
	flushInterval, expirySweep time.Duration,
	walPath, httpAddr string,
	workerPoolSize int, requestTimeout time.Duration,
) {
	if flags.Changed("virtual-nodes") {
		cfg.VirtualNodes = virtualNodes
	}
	if flags.Changed("capacity") {
		cfg.CacheCapacity = capacity
	}
	if flags.Changed("replication") {
		cfg.ReplicationFactor = replicationFactor
	}
	if flags.Changed("batch-size") {
		cfg.BatchSize = batchSize
	}
	if flags.Changed("flush-interval") {
		cfg.FlushInterval = flushInterval
	}
	if flags.Changed("expiry-interval") {
		cfg.ExpirySweep = expirySweep
	}
	if flags.Changed("wal-path") {
		cfg.WALPath = walPath
	}
	if flags.Changed("http-addr") {
		cfg.HTTPAddr = httpAddr
	}
	if flags.Changed("worker-pool-size") {
		cfg.WorkerPoolSize = workerPoolSize
	}
	if flags.Changed("request-timeout") {
		cfg.RequestTimeout = requestTimeout
	}
}

func runNode(address string, peers []string, cfg config.Config) error {
	log := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Str("node", address).Logger()

	listenAddr := cfg.HTTPAddr
	if listenAddr == "" {
		listenAddr = address
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	c := cache.New(cache.Config{
		Capacity:      cfg.CacheCapacity,
		SweepInterval: cfg.ExpirySweep,
		Metrics:       m,
	})
	defer c.Close()

	w, err := wal.Open(cfg.WALPath, log, m)
	if err != nil {
		return fmt.Errorf("open WAL: %w", err)
	}
	defer w.Close()

	if _, err := recovery.FromWAL(cfg.WALPath, address, c, log); err != nil {
		return fmt.Errorf("recover from WAL: %w", err)
	}

	queue := writequeue.New(writequeue.Config{
		NodeID:        address,
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		WAL:           w,
		Metrics:       m,
		Log:           log,
	})
	queue.Start()
	defer queue.Stop()

	r := ring.New(cfg.VirtualNodes)
	peerClient := transport.NewHTTPPeerClient(cfg.RequestTimeout)

	n := node.New(node.Config{
		Address:           address,
		Peers:             peers,
		ReplicationFactor: cfg.ReplicationFactor,
		Ring:              r,
		Cache:             c,
		Queue:             queue,
		PeerClient:        peerClient,
		Metrics:           m,
		Log:               log,
	})

	server := transport.NewServer(n, cfg.WorkerPoolSize, reg, log)
	httpServer := &http.Server{Addr: listenAddr, Handler: server}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", listenAddr).Msg("node listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	stdinDone := make(chan struct{})
	go func() {
		bufio.NewReader(os.Stdin).ReadString('\n')
		close(stdinDone)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("received shutdown signal")
	case <-stdinDone:
		log.Info().Msg("stdin closed, shutting down")
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
