// Package peer implements the Peer Protocol Handler: the wire verbs other
// nodes use to exchange stored values and negotiate membership (spec §4.5).
package peer

import (
	"strconv"

	"ringcache/internal/cache"
	"ringcache/internal/clock"
	"ringcache/internal/membership"

	"go.uber.org/zap"
)

// Wire version and reply codes (spec §6).
const (
	Version = "1"

	NoError             = "0"
	TooBig              = "1"
	NodeIDTaken         = "997"
	UnknownRequest      = "998"
	VersionNotSupported = "999"
)

// Handler serves inbound set/get/connect requests from other nodes.
type Handler struct {
	store      *cache.Store
	registry   *membership.Registry
	replicas   int // R, echoed in the extended connect reply (SPEC_FULL §6.1)
	redundancy int // D
	log        *zap.SugaredLogger
}

// New creates a peer Handler.
func New(store *cache.Store, registry *membership.Registry, replicas, redundancy int, log *zap.SugaredLogger) *Handler {
	return &Handler{store: store, registry: registry, replicas: replicas, redundancy: redundancy, log: log}
}

// Dispatch handles one payload (version + verb + args, spec §6) and returns
// the reply payload frames. It never returns an error — every outcome,
// including malformed input, is represented as a reply code on the wire.
func (h *Handler) Dispatch(payload []string) []string {
	if len(payload) == 0 {
		return []string{UnknownRequest}
	}
	if payload[0] != Version {
		return []string{VersionNotSupported}
	}
	if len(payload) < 2 {
		return []string{UnknownRequest}
	}

	verb, args := payload[1], payload[2:]
	switch verb {
	case "set":
		return h.handleSet(args)
	case "get":
		return h.handleGet(args)
	case "connect":
		return h.handleConnect(args)
	default:
		return []string{UnknownRequest}
	}
}

func (h *Handler) handleSet(args []string) []string {
	if len(args) != 3 {
		return []string{UnknownRequest}
	}
	key, value, tsRaw := args[0], args[1], args[2]

	ts, err := clock.Parse(tsRaw)
	if err != nil {
		h.log.Warnw("peer set: bad timestamp", "key", key, "timestamp", tsRaw, "error", err)
		return []string{UnknownRequest}
	}

	if err := h.store.Put(key, value, ts); err != nil {
		return []string{TooBig}
	}
	return []string{NoError}
}

func (h *Handler) handleGet(args []string) []string {
	if len(args) != 1 {
		return []string{UnknownRequest}
	}
	value, ts, ok := h.store.Get(args[0])
	if !ok {
		return []string{NoError, "", clock.FormatOrZero(clock.Zero)}
	}
	return []string{NoError, value, clock.FormatOrZero(ts)}
}

func (h *Handler) handleConnect(args []string) []string {
	if len(args) != 3 {
		return []string{UnknownRequest}
	}
	nodeID, reqAddr, pubAddr := args[0], args[1], args[2]

	if h.registry.IsKnown(nodeID) {
		// Covers both "equals self id" and "equals an existing non-self
		// peer's id" (spec §4.5) — either way the id is already taken.
		return []string{NodeIDTaken}
	}

	h.registry.Observe(membership.Node{ID: nodeID, RequestAddress: reqAddr, PublishAddress: pubAddr})

	self := h.registry.Self()
	return []string{
		NoError, self.ID, self.RequestAddress, self.PublishAddress,
		strconv.Itoa(h.replicas), strconv.Itoa(h.redundancy),
	}
}
