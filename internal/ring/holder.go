package ring

import "sync/atomic"

// Holder lets the Ring Index be rebuilt and atomically swapped whenever
// membership changes, while routing reads (Owners) proceed lock-free
// against whichever Index was current at call time — spec §5: "recomputation
// produces a new instance that atomically replaces the old one."
type Holder struct {
	r, d    int
	current atomic.Pointer[Index]
}

// NewHolder creates a Holder configured with the cluster-wide R and D, with
// an empty Index until the first Rebuild.
func NewHolder(r, d int) *Holder {
	h := &Holder{r: r, d: d}
	h.current.Store(Build(nil, r, d))
	return h
}

// Rebuild constructs a new Index from peerIDs and swaps it in. Intended to
// be used directly as a membership.RecomputeHook.
func (h *Holder) Rebuild(peerIDs []string) {
	h.current.Store(Build(peerIDs, h.r, h.d))
}

// Owners routes key against the Index current at call time.
func (h *Holder) Owners(key string) []string {
	return h.current.Load().Owners(key)
}

// Load returns the current Index, e.g. for NodeCount() introspection.
func (h *Holder) Load() *Index {
	return h.current.Load()
}
