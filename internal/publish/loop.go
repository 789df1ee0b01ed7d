// Package publish implements the Publish/Subscribe loop (spec §4.2): a
// periodic push of this node's membership snapshot to every known peer, and
// an inbound handler that merges a received snapshot into the local
// Registry.
//
// Every node both publishes to and subscribes from every other node (spec
// §9: "Cyclic peer graphs"), so one push-driven loop per node covers both
// directions — there is no separate subscribe handshake to model; a peer
// starts "receiving" the moment it appears in the Registry, and stops the
// moment the sweeper removes it. See SPEC_FULL.md §4.8 for why this is an
// HTTP push rather than a literal pub/sub socket.
package publish

import (
	"context"
	"sync"
	"time"

	"ringcache/internal/clock"
	"ringcache/internal/membership"
	"ringcache/internal/transport"

	"go.uber.org/zap"
)

// Topic is the publish frame's topic byte (spec §6: `"n"`).
const Topic = "n"

// Loop periodically pushes this node's Registry snapshot to every known
// peer's publish address.
type Loop struct {
	registry *membership.Registry
	client   *transport.Client
	interval time.Duration
	log      *zap.SugaredLogger

	stop chan struct{}
	done chan struct{}
}

// New creates a publish Loop. client's per-call timeout should be well
// under interval so a slow peer cannot make publications pile up.
func New(registry *membership.Registry, client *transport.Client, interval time.Duration, log *zap.SugaredLogger) *Loop {
	return &Loop{
		registry: registry,
		client:   client,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run blocks, pushing a snapshot every interval, until Stop is called.
func (l *Loop) Run() {
	defer close(l.done)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.publishOnce()
		case <-l.stop:
			return
		}
	}
}

// Stop signals Run to exit and waits for it to do so.
func (l *Loop) Stop() {
	close(l.stop)
	<-l.done
}

// publishOnce pushes the current snapshot to every peer except self,
// best-effort and lossy — a failed push to one peer does not block the
// others, and is not retried (spec §4.2: "publications are best-effort and
// lossy").
func (l *Loop) publishOnce() {
	snapshot := l.registry.Snapshot()
	self := l.registry.SelfID()
	frames := EncodeSnapshot(snapshot)

	var wg sync.WaitGroup
	for _, n := range snapshot {
		if n.ID == self {
			continue
		}
		wg.Add(1)
		go func(addr string) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), l.interval)
			defer cancel()
			if _, err := l.client.Send(ctx, addr, "/publish", frames); err != nil {
				l.log.Debugw("publish push failed", "peer_publish_addr", addr, "error", err)
			}
		}(n.PublishAddress)
	}
	wg.Wait()
}

// EncodeSnapshot serializes a membership snapshot as the publish protocol's
// frame sequence: topic "n" followed by (NODE-ID, REQUEST-ADDR,
// PUBLISH-ADDR, LAST-SEEN) tuples (spec §6).
func EncodeSnapshot(nodes []membership.Node) []string {
	frames := make([]string, 0, 1+len(nodes)*4)
	frames = append(frames, Topic)
	for _, n := range nodes {
		frames = append(frames, n.ID, n.RequestAddress, n.PublishAddress, clock.Format(n.LastSeen))
	}
	return frames
}

// DecodeAndMerge parses an inbound publish frame sequence and merges every
// contained descriptor into registry via Observe, ignoring any descriptor
// whose id is the local node (spec §4.2) — the sender's own last_seen claim
// is discarded; Observe stamps last-seen with the merge's own wall clock
// (spec §3).
func DecodeAndMerge(registry *membership.Registry, frames []string) {
	if len(frames) == 0 || frames[0] != Topic {
		return
	}
	self := registry.SelfID()
	body := frames[1:]
	for i := 0; i+4 <= len(body); i += 4 {
		id, reqAddr, pubAddr := body[i], body[i+1], body[i+2]
		if id == self {
			continue
		}
		registry.Observe(membership.Node{ID: id, RequestAddress: reqAddr, PublishAddress: pubAddr})
	}
}
