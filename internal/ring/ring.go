package ring

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// DefaultVirtualNodes is the reference virtual-node count per physical
// node.
const DefaultVirtualNodes = 52

// Ring is a consistent hash ring mapping 64-bit hash slots to node ids.
//
// A single mutex guards the whole ring; every operation is brief and
// non-blocking, so there is no benefit to splitting read/write locks here.
type Ring struct {
	mu sync.Mutex

	virtualNodes int
	slots        []uint64          // sorted, ascending
	owners       map[uint64]string // slot -> node id
	nodes        map[string]bool   // physical nodes currently present
}

// New creates a ring with the given number of virtual nodes per physical
// node. A non-positive value falls back to DefaultVirtualNodes.
func New(virtualNodes int) *Ring {
	if virtualNodes <= 0 {
		virtualNodes = DefaultVirtualNodes
	}
	return &Ring{
		virtualNodes: virtualNodes,
		owners:       make(map[uint64]string),
		nodes:        make(map[string]bool),
	}
}

func virtualLabel(id string, i int) string {
	return fmt.Sprintf("%s#%d", id, i)
}

func hashString(s string) uint64 {
	return xxhash.Sum64String(s)
}

// AddNode inserts the node's virtual entries into the ring. Adding the
// same id twice is idempotent: the same slots get overwritten with the
// same value, so the ring is byte-identical either way.
func (r *Ring) AddNode(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	alreadyPresent := r.nodes[id]
	r.nodes[id] = true

	for i := 0; i < r.virtualNodes; i++ {
		slot := hashString(virtualLabel(id, i))
		if _, exists := r.owners[slot]; !exists {
			r.slots = append(r.slots, slot)
		}
		r.owners[slot] = id
	}

	if !alreadyPresent {
		sort.Slice(r.slots, func(i, j int) bool { return r.slots[i] < r.slots[j] })
	}
}

// RemoveNode erases the node's virtual entries. Missing slots (e.g. a node
// that was never added, or whose virtual slot was overwritten by another
// node's collision) are tolerated silently.
func (r *Ring) RemoveNode(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.nodes[id] {
		return
	}
	delete(r.nodes, id)

	kept := r.slots[:0:0]
	for _, slot := range r.slots {
		if r.owners[slot] == id {
			delete(r.owners, slot)
			continue
		}
		kept = append(kept, slot)
	}
	r.slots = kept
}

// Replicas returns up to count distinct node ids responsible for key,
// walking the ring clockwise from hash(key) and wrapping around at the
// end. If fewer than count distinct physical nodes exist, the result
// contains exactly that many.
func (r *Ring) Replicas(key string, count int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.slots) == 0 || count <= 0 {
		return nil
	}

	hash := hashString(key)
	start := sort.Search(len(r.slots), func(i int) bool { return r.slots[i] >= hash })

	result := make([]string, 0, count)
	seen := make(map[string]bool, count)

	for i := 0; len(result) < count && len(result) < len(r.nodes); i++ {
		idx := (start + i) % len(r.slots)
		node := r.owners[r.slots[idx]]
		if !seen[node] {
			seen[node] = true
			result = append(result, node)
		}
	}
	return result
}

// Nodes returns the set of physical nodes currently present, in no
// particular order.
func (r *Ring) Nodes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.nodes))
	for id := range r.nodes {
		out = append(out, id)
	}
	return out
}

// Size returns the number of distinct physical nodes in the ring.
func (r *Ring) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.nodes)
}
