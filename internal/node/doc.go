// Package node wires together the ring, cache, write queue, and a peer
// transport into the request-handling coordinator for one cache node.
//
// Get and Put check whether the local node is in the key's replica set;
// if not, they forward to the first replica. A responsible Put also fans
// out to the rest of the replica set unless it is itself a replica write
// (IsReplica true), which stops the fan-out from cascading. Remove is
// applied locally only — it is neither forwarded nor replicated, an
// asymmetry carried forward unchanged from the system this was modeled
// on.
package node
