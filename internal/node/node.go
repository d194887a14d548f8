package node

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kushalsai01/distcache/internal/cache"
	"github.com/kushalsai01/distcache/internal/metrics"
	"github.com/kushalsai01/distcache/internal/ring"
	"github.com/kushalsai01/distcache/internal/transport"
	"github.com/kushalsai01/distcache/internal/writequeue"
)

// ErrNoResponsibleNode is returned when the ring has no node at all for a
// key — an empty cluster.
var ErrNoResponsibleNode = errors.New("node: no responsible node for key")

// Node coordinates the ring, cache, write queue, and peer transport to
// serve Get/Put/Remove for one address in the cluster.
type Node struct {
	address           string
	replicationFactor int

	ring    *ring.Ring
	cache   *cache.Cache
	queue   *writequeue.WriteQueue
	peers   transport.PeerClient
	metrics *metrics.Registry
	log     zerolog.Logger
}

// Config bundles a Node's dependencies. All fields are required except
// Metrics.
type Config struct {
	Address           string
	Peers             []string
	ReplicationFactor int
	Ring              *ring.Ring
	Cache             *cache.Cache
	Queue             *writequeue.WriteQueue
	PeerClient        transport.PeerClient
	Metrics           *metrics.Registry
	Log               zerolog.Logger
}

// New builds a Node and registers address plus every peer on the ring.
func New(cfg Config) *Node {
	cfg.Ring.AddNode(cfg.Address)
	for _, p := range cfg.Peers {
		cfg.Ring.AddNode(p)
	}

	return &Node{
		address:           cfg.Address,
		replicationFactor: cfg.ReplicationFactor,
		ring:              cfg.Ring,
		cache:             cfg.Cache,
		queue:             cfg.Queue,
		peers:             cfg.PeerClient,
		metrics:           cfg.Metrics,
		log:               cfg.Log.With().Str("component", "node").Str("self", cfg.Address).Logger(),
	}
}

func (n *Node) isResponsible(replicas []string) bool {
	for _, r := range replicas {
		if r == n.address {
			return true
		}
	}
	return false
}

// Get returns the value for key, forwarding to the first replica if this
// node is not itself one of the key's replicas.
func (n *Node) Get(ctx context.Context, key string) (string, bool, error) {
	n.observeGet()

	replicas := n.ring.Replicas(key, n.replicationFactor)
	if len(replicas) == 0 {
		return "", false, ErrNoResponsibleNode
	}

	if n.isResponsible(replicas) {
		value, found := n.cache.Get(key)
		n.log.Debug().Str("op", "get").Str("key", key).Bool("responsible", true).Bool("found", found).Msg("handled")
		return value, found, nil
	}

	n.observeForward()
	n.log.Debug().Str("op", "get").Str("key", key).Bool("responsible", false).Str("forward_to", replicas[0]).Msg("forwarding")
	return n.peers.Get(ctx, replicas[0], key)
}

// Put stores key/value with ttlSeconds. A non-replica Put that reaches a
// responsible node fans out to the rest of the replica set and returns an
// error if any replica write failed (the local write stands); a Put that
// reaches a non-responsible node is forwarded once to the first replica
// and not fanned out by this node (the node it lands on does that).
func (n *Node) Put(ctx context.Context, key, value string, ttlSeconds int64, isReplica bool) error {
	n.observePut()

	replicas := n.ring.Replicas(key, n.replicationFactor)
	if len(replicas) == 0 {
		return ErrNoResponsibleNode
	}

	if !n.isResponsible(replicas) {
		n.observeForward()
		n.log.Debug().Str("op", "put").Str("key", key).Bool("responsible", false).Str("forward_to", replicas[0]).Msg("forwarding")
		return n.peers.Put(ctx, replicas[0], key, value, ttlSeconds, isReplica)
	}

	n.queue.LogPut(key, value, ttlSeconds)
	n.cache.Put(key, value, ttlSeconds)

	if isReplica {
		n.log.Debug().Str("op", "put").Str("key", key).Bool("responsible", true).Bool("replica_write", true).Msg("applied")
		return nil
	}

	return n.replicate(ctx, key, value, ttlSeconds, replicas)
}

// replicate fans Put out to every replica other than this node, waiting
// for all of them. Per-peer failures are logged and counted, and any
// failure is returned (joined) so the caller's Put reports it; the local
// write is never rolled back.
func (n *Node) replicate(ctx context.Context, key, value string, ttlSeconds int64, replicas []string) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, peer := range replicas {
		if peer == n.address {
			continue
		}
		wg.Add(1)
		go func(peer string) {
			defer wg.Done()
			if err := n.peers.Put(ctx, peer, key, value, ttlSeconds, true); err != nil {
				n.observeReplicationFailure()
				n.log.Warn().Err(err).Str("key", key).Str("peer", peer).Msg("replication failed")
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return
			}
			n.observeReplicationOK()
		}(peer)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Remove deletes key on this node only. It is never forwarded or
// replicated, a documented asymmetry with Get and Put.
func (n *Node) Remove(ctx context.Context, key string) error {
	n.observeRemove()
	n.queue.LogRemove(key)
	n.cache.Remove(key)
	n.log.Debug().Str("op", "remove").Str("key", key).Msg("applied")
	return nil
}

func (n *Node) observeGet() {
	if n.metrics != nil {
		n.metrics.NodeGets.Inc()
	}
}

func (n *Node) observePut() {
	if n.metrics != nil {
		n.metrics.NodePuts.Inc()
	}
}

func (n *Node) observeRemove() {
	if n.metrics != nil {
		n.metrics.NodeRemoves.Inc()
	}
}

func (n *Node) observeForward() {
	if n.metrics != nil {
		n.metrics.NodeForwards.Inc()
	}
}

func (n *Node) observeReplicationOK() {
	if n.metrics != nil {
		n.metrics.NodeReplicationOK.Inc()
	}
}

func (n *Node) observeReplicationFailure() {
	if n.metrics != nil {
		n.metrics.NodeReplicationFailure.Inc()
	}
}
