// Package membership tracks which nodes are known to this one and drives
// Ring Index recomputation whenever that set changes.
//
// Generalized from the teacher's static join/leave list into a registry fed
// by continuous gossip-by-publication: peers are learned from inbound
// publish frames and a join handshake, and forgotten by a last-seen expiry
// sweep — there is no explicit "leave" message on the wire (spec §4.1/§4.2).
package membership

import (
	"sync"
	"time"
)

// Node is a cluster member's descriptor (spec §3).
type Node struct {
	ID             string
	RequestAddress string
	PublishAddress string
	LastSeen       time.Time
}

// RecomputeHook is invoked, outside any lock held by the Registry, whenever
// the membership set actually changes (an add, an address update, or a
// removal) — it is how the Ring Index stays in lockstep with membership
// (spec §4.1: "A removal invokes a recompute hook on the Ring Index").
type RecomputeHook func(peerIDs []string)

// Registry is the Membership Registry. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	selfID   string
	nodes    map[string]Node
	onChange RecomputeHook
	sizeHook func(int) // optional, called alongside onChange with len(nodes)
	now      func() time.Time
}

// New creates a Registry seeded with the local node's own descriptor. The
// self entry's LastSeen is refreshed continuously (spec §3) rather than
// expiring — sweep never removes self.
func New(self Node, onChange RecomputeHook) *Registry {
	if onChange == nil {
		onChange = func([]string) {}
	}
	reg := &Registry{
		selfID:   self.ID,
		nodes:    map[string]Node{self.ID: self},
		onChange: onChange,
		now:      time.Now,
	}
	reg.fireRecompute()
	return reg
}

// Observe upserts a peer descriptor by node id, refreshing its last-seen to
// "now" (not the sender's claimed timestamp, spec §3) and replacing the
// stored addresses if they differ — a node may have restarted on a new
// address under the same id. Observing the local node's own id is a no-op
// refresh of its last-seen only; its addresses never change via Observe.
func (reg *Registry) Observe(peer Node) {
	reg.mu.Lock()
	now := reg.clockNow()
	peer.LastSeen = now

	if peer.ID == reg.selfID {
		self := reg.nodes[reg.selfID]
		self.LastSeen = now
		reg.nodes[reg.selfID] = self
		reg.mu.Unlock()
		return
	}

	existing, known := reg.nodes[peer.ID]
	changed := !known ||
		existing.RequestAddress != peer.RequestAddress ||
		existing.PublishAddress != peer.PublishAddress
	reg.nodes[peer.ID] = peer
	reg.mu.Unlock()

	if changed {
		reg.fireRecompute()
	}
}

// TouchSelf refreshes the local node's own last-seen to now, keeping it
// perpetually non-expired (spec §3: "The local node's own last_seen is
// continuously refreshed").
func (reg *Registry) TouchSelf() {
	reg.mu.Lock()
	self := reg.nodes[reg.selfID]
	self.LastSeen = reg.clockNow()
	reg.nodes[reg.selfID] = self
	reg.mu.Unlock()
}

// Sweep removes every peer (except self) whose last-seen age exceeds
// maxAge. Returns the ids removed, for logging.
func (reg *Registry) Sweep(maxAge time.Duration) []string {
	reg.mu.Lock()
	now := reg.clockNow()
	var removed []string
	for id, n := range reg.nodes {
		if id == reg.selfID {
			continue
		}
		if now.Sub(n.LastSeen) > maxAge {
			delete(reg.nodes, id)
			removed = append(removed, id)
		}
	}
	reg.mu.Unlock()

	if len(removed) > 0 {
		reg.fireRecompute()
	}
	return removed
}

// Snapshot returns the current view, including self, for publication.
func (reg *Registry) Snapshot() []Node {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]Node, 0, len(reg.nodes))
	for _, n := range reg.nodes {
		out = append(out, n)
	}
	return out
}

// IsKnown reports whether nodeID is a current member (including self) —
// used by the Ring Index / Router as a routing sanity check.
func (reg *Registry) IsKnown(nodeID string) bool {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	_, ok := reg.nodes[nodeID]
	return ok
}

// Get returns the descriptor for nodeID, if known.
func (reg *Registry) Get(nodeID string) (Node, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	n, ok := reg.nodes[nodeID]
	return n, ok
}

// Self returns the local node's own descriptor.
func (reg *Registry) Self() Node {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.nodes[reg.selfID]
}

// SelfID returns the local node id without a lock round-trip.
func (reg *Registry) SelfID() string { return reg.selfID }

// OnSizeChange registers fn to be called, with the current member count,
// immediately and again every time membership actually changes — the hook a
// caller uses to keep an external gauge in step with the Registry.
func (reg *Registry) OnSizeChange(fn func(int)) {
	reg.mu.Lock()
	reg.sizeHook = fn
	size := len(reg.nodes)
	reg.mu.Unlock()
	fn(size)
}

// Size returns the number of known members, including self.
func (reg *Registry) Size() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.nodes)
}

func (reg *Registry) clockNow() time.Time {
	if reg.now != nil {
		return reg.now()
	}
	return time.Now()
}

// fireRecompute gathers the current peer id set and invokes the hook
// outside the registry's own lock, so the Ring Index's (independent) build
// step never runs while holding the Registry's mutex.
func (reg *Registry) fireRecompute() {
	reg.mu.RLock()
	ids := make([]string, 0, len(reg.nodes))
	for id := range reg.nodes {
		ids = append(ids, id)
	}
	hook := reg.onChange
	sizeHook := reg.sizeHook
	reg.mu.RUnlock()
	hook(ids)
	if sizeHook != nil {
		sizeHook(len(ids))
	}
}
