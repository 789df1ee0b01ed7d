// Package api implements the API Router: the client-facing set/get surface
// that consults the Ring Index for a key's owners, fans out to each owner
// over the peer protocol (or calls the local store directly when self is an
// owner), and aggregates replies within a deadline (spec §4.6).
//
// The fan-out/fan-in shape is grounded on the teacher's
// cluster.Replicator.ReplicateWrite/CoordinateRead (channel + select +
// time.After quorum collection), generalized from W/R quorum counting to
// fan-out-to-every-deduplicated-owner with a single deadline — this spec has
// no quorum concept: a set needs every dispatched owner to answer no-error,
// and a get returns on the first owner with a non-empty value.
package api

import (
	"context"
	"time"

	"ringcache/internal/cache"
	"ringcache/internal/clock"
	"ringcache/internal/membership"
	"ringcache/internal/metrics"
	"ringcache/internal/peer"
	"ringcache/internal/ring"
	"ringcache/internal/transport"

	"go.uber.org/zap"
)

// Wire version and reply codes for the client-facing API protocol (spec §6).
const (
	Version = "1"

	NoError             = "0"
	TooBig              = "1"
	Timeout             = "2"
	UnknownRequest      = "998"
	VersionNotSupported = "999"
)

// setOutcome is one owner's reply to a dispatched set, collected over
// results in dispatchSet/collectSetOutcome.
type setOutcome struct {
	code string // "" means missing/transport error
}

// Router is the API Router.
type Router struct {
	selfID     string
	store      *cache.Store
	registry   *membership.Registry
	rings      *ring.Holder
	peerClient *transport.Client
	deadline   time.Duration
	metrics    *metrics.Metrics
	log        *zap.SugaredLogger
}

// New creates an API Router.
func New(selfID string, store *cache.Store, registry *membership.Registry, rings *ring.Holder,
	peerClient *transport.Client, deadline time.Duration, m *metrics.Metrics, log *zap.SugaredLogger) *Router {
	return &Router{
		selfID:     selfID,
		store:      store,
		registry:   registry,
		rings:      rings,
		peerClient: peerClient,
		deadline:   deadline,
		metrics:    m,
		log:        log,
	}
}

// Dispatch handles one client payload (version + verb + args) and returns
// the reply payload frames.
func (r *Router) Dispatch(payload []string) []string {
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
	var reply []string
	switch verb {
	case "set":
		reply = r.dispatchSet(args)
	case "get":
		reply = r.dispatchGet(args)
	default:
		reply = []string{UnknownRequest}
	}
	if r.metrics != nil {
		r.metrics.RequestsTotal.WithLabelValues(verb, reply[0]).Inc()
	}
	return reply
}

func (r *Router) dispatchSet(args []string) []string {
	if len(args) != 2 {
		return []string{UnknownRequest}
	}
	key, value := args[0], args[1]

	if len(key)+len(value) > r.store.MaxSize() {
		return []string{TooBig}
	}

	owners := dedupe(r.rings.Owners(key))
	ts := clock.Now()
	tsStr := clock.Format(ts)

	results := make(chan setOutcome, len(owners))
	start := time.Now()

	for _, owner := range owners {
		go func(owner string) {
			if owner == r.selfID {
				if err := r.store.Put(key, value, ts); err != nil {
					results <- setOutcome{code: peer.TooBig}
				} else {
					results <- setOutcome{code: peer.NoError}
				}
				return
			}

			node, known := r.registry.Get(owner)
			if !known {
				r.log.Debugw("set fan-out: owner not in registry", "owner", owner, "key", key)
				results <- setOutcome{}
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), r.deadline)
			defer cancel()
			reply, err := r.peerClient.Send(ctx, node.RequestAddress, "/peer",
				[]string{peer.Version, "set", key, value, tsStr})
			if err != nil || len(reply) == 0 {
				r.log.Debugw("set fan-out: treating as missing reply", "owner", owner, "key", key, "error", err)
				results <- setOutcome{}
				return
			}
			results <- setOutcome{code: reply[0]}
		}(owner)
	}

	outcome := collectSetOutcome(results, len(owners), r.deadline)
	if r.metrics != nil {
		r.metrics.FanoutDuration.Observe(time.Since(start).Seconds())
	}
	return []string{outcome}
}

func collectSetOutcome(results <-chan setOutcome, n int, deadline time.Duration) string {
	timer := time.NewTimer(deadline)
	defer timer.Stop()

	codes := make([]string, 0, n)
	timedOut := false

collect:
	for len(codes) < n {
		select {
		case res := <-results:
			codes = append(codes, res.code)
		case <-timer.C:
			timedOut = true
			break collect
		}
	}

	allNoError := len(codes) == n
	anyTooBig := false
	anyMissing := false
	anyOtherCode := false
	for _, code := range codes {
		switch {
		case code == "":
			anyMissing = true
			allNoError = false
		case code == peer.TooBig:
			anyTooBig = true
			allNoError = false
		case code == peer.NoError:
			// fine
		default:
			anyOtherCode = true
			allNoError = false
		}
	}
	if timedOut {
		allNoError = false
	}

	switch {
	case allNoError:
		return NoError
	case anyTooBig:
		return TooBig
	case timedOut || anyMissing:
		return Timeout
	case anyOtherCode:
		return UnknownRequest
	default:
		return NoError
	}
}

func (r *Router) dispatchGet(args []string) []string {
	if len(args) != 1 {
		return []string{UnknownRequest}
	}
	key := args[0]
	owners := dedupe(r.rings.Owners(key))

	type hit struct {
		value string
		ok    bool // false = this owner missed (or errored); true = non-empty value found
	}
	results := make(chan hit, len(owners))
	start := time.Now()

	for _, owner := range owners {
		go func(owner string) {
			if owner == r.selfID {
				value, _, found := r.store.Get(key)
				results <- hit{value: value, ok: found && value != ""}
				return
			}

			node, known := r.registry.Get(owner)
			if !known {
				r.log.Debugw("get fan-out: owner not in registry", "owner", owner, "key", key)
				results <- hit{}
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), r.deadline)
			defer cancel()
			reply, err := r.peerClient.Send(ctx, node.RequestAddress, "/peer",
				[]string{peer.Version, "get", key})
			if err != nil || len(reply) < 2 || reply[0] != peer.NoError {
				r.log.Debugw("get fan-out: treating as missing reply", "owner", owner, "key", key, "error", err)
				results <- hit{}
				return
			}
			results <- hit{value: reply[1], ok: reply[1] != ""}
		}(owner)
	}

	timer := time.NewTimer(r.deadline)
	defer timer.Stop()

	received := 0
	for received < len(owners) {
		select {
		case res := <-results:
			received++
			if res.ok {
				if r.metrics != nil {
					r.metrics.FanoutDuration.Observe(time.Since(start).Seconds())
				}
				return []string{NoError, res.value}
			}
		case <-timer.C:
			if r.metrics != nil {
				r.metrics.FanoutDuration.Observe(time.Since(start).Seconds())
			}
			return []string{NoError, ""}
		}
	}
	if r.metrics != nil {
		r.metrics.FanoutDuration.Observe(time.Since(start).Seconds())
	}
	return []string{NoError, ""}
}

// dedupe preserves first-seen order — the Ring Index already returns a
// deduplicated tuple (spec §4.3), this is a defensive second pass matching
// the API Router's own contract restatement in spec §4.6 step 2.
func dedupe(owners []string) []string {
	seen := make(map[string]bool, len(owners))
	out := make([]string, 0, len(owners))
	for _, o := range owners {
		if !seen[o] {
			seen[o] = true
			out = append(out, o)
		}
	}
	return out
}
