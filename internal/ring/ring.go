// Package ring implements the consistent-hashing Ring Index.
//
// Big idea, generalized from a single hash ring to D independent ones:
//
// In a distributed cache we must decide "which node (or nodes) own this
// key?" without remapping almost every key whenever membership changes.
// Consistent hashing solves that: place nodes and keys on a circle via a
// hash function, and a key belongs to the first node clockwise from its
// position. Redundancy (D) runs D such circles side by side, each built
// from a differently-salted hash of the node id, so that a key's D owners
// are usually D distinct physical nodes — that's the replication.
//
// Virtual nodes (R, REPLICAS): a single position per physical node skews
// load unevenly. Each physical node gets R positions per ring instead, so
// its share of the ring is spread across many small arcs rather than one
// big one.
package ring

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"
)

// entry is one virtual-node position on a single ring.
type entry struct {
	position float64 // in [0, 1)
	replica  int     // r, the virtual-position index that produced position
	nodeID   string
}

// Index holds D independent rings built from the same peer set. It is
// immutable once built — membership changes produce a brand new Index that
// atomically replaces the old one (spec §5: "The Ring Index is immutable
// once built; recomputation produces a new instance").
type Index struct {
	d     int
	r     int
	rings [][]entry // len(rings) == d, each sorted by position
}

// Build deterministically constructs a D-ring Index from peerIDs. Given the
// same peerIDs (order does not matter — the positions are keyed by node id,
// not by its index in the slice) and the same (r, d), Build always returns
// byte-identical ring arrays (spec §8 invariant 7).
func Build(peerIDs []string, r, d int) *Index {
	idx := &Index{d: d, r: r, rings: make([][]entry, d)}

	for ringNum := 0; ringNum < d; ringNum++ {
		entries := make([]entry, 0, len(peerIDs)*r)
		for _, nodeID := range peerIDs {
			for rep := 0; rep < r; rep++ {
				entries = append(entries, entry{
					position: hashToUnit(fmt.Sprintf("%s\x00%d\x00%d", nodeID, ringNum, rep)),
					replica:  rep,
					nodeID:   nodeID,
				})
			}
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].position != entries[j].position {
				return entries[i].position < entries[j].position
			}
			// Deterministic collision break: lexicographic (d, r, nodeID).
			// d is constant within a single ring's slice, so this reduces to
			// comparing r, then nodeID.
			if entries[i].replica != entries[j].replica {
				return entries[i].replica < entries[j].replica
			}
			return entries[i].nodeID < entries[j].nodeID
		})
		idx.rings[ringNum] = entries
	}
	return idx
}

// Owners returns the D-tuple of owner node ids for key, deduplicated while
// preserving first-seen (ring d=0..D-1) order, per spec §4.3's contract.
func (idx *Index) Owners(key string) []string {
	if idx == nil || idx.d == 0 {
		return nil
	}
	pos := hashToUnit(key)

	seen := make(map[string]bool, idx.d)
	owners := make([]string, 0, idx.d)
	for ringNum := 0; ringNum < idx.d; ringNum++ {
		ring := idx.rings[ringNum]
		if len(ring) == 0 {
			continue
		}
		id := ring[search(ring, pos)].nodeID
		if !seen[id] {
			seen[id] = true
			owners = append(owners, id)
		}
	}
	return owners
}

// search returns the index of the first entry with position >= pos, or 0
// if every entry's position is smaller (ring wraparound, spec §4.3:
// "wrap to the first entry if the key's position exceeds the largest in
// that ring").
func search(ring []entry, pos float64) int {
	i := sort.Search(len(ring), func(i int) bool {
		return ring[i].position >= pos
	})
	if i == len(ring) {
		return 0
	}
	return i
}

// hashToUnit maps s onto [0, 1) by taking the leading 8 bytes of its SHA-256
// digest as a big-endian uint64 and dividing by 2^64. The exact hash
// function is an implementation choice (spec §4.3) but MUST be identical
// across every node in a cluster — it is not negotiated or transported, so
// changing it is a breaking, cluster-wide change.
func hashToUnit(s string) float64 {
	sum := sha256.Sum256([]byte(s))
	leading := binary.BigEndian.Uint64(sum[:8])
	return float64(leading) / (1 << 64)
}

// Replicas returns R, the number of virtual positions per node per ring.
func (idx *Index) Replicas() int { return idx.r }

// Redundancy returns D, the number of independent rings.
func (idx *Index) Redundancy() int { return idx.d }

// NodeCount returns how many distinct physical nodes this Index was built
// from — useful for capping replication/redundancy to the cluster size at
// startup.
func (idx *Index) NodeCount() int {
	if idx == nil || len(idx.rings) == 0 {
		return 0
	}
	seen := make(map[string]bool)
	for _, e := range idx.rings[0] {
		seen[e.nodeID] = true
	}
	return len(seen)
}
