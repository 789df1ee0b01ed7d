// Package config parses the cluster-wide knobs every node must agree on.
//
// MAX_SIZE, REPLICAS (R), REDUNDANCY (D), the publish interval, the peer
// expiry window, and the API request deadline have to be identical across
// every node in the cluster (spec §6) — a mismatch silently corrupts
// routing, it is not detected on the wire. Flags set the per-process
// addresses and peer list; the shared knobs may also be supplied via
// environment variables so a fleet can be rolled out from one image without
// templating a flags string per host.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything a node needs to start.
type Config struct {
	NodeID          string
	APIAddr         string
	RequestAddr     string
	PublishAddr     string
	JoinPeer        string // request address of an existing node, optional
	MaxSize         int    // character budget, Σ(|key|+|value|)
	Replicas        int    // R
	Redundancy      int    // D
	PublishInterval time.Duration
	ExpiryWindow    time.Duration
	RequestDeadline time.Duration
}

const (
	defaultMaxSize         = 1 << 20 // 1 MiB of characters
	defaultReplicas        = 128
	defaultRedundancy      = 2
	defaultPublishInterval = 2 * time.Second
	defaultRequestDeadline = 500 * time.Millisecond
)

// Parse reads flags (and, for the cluster-wide knobs, environment variable
// overrides) into a Config. Flags take precedence over environment
// variables; environment variables take precedence over the built-in
// defaults.
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("ringcache-server", flag.ContinueOnError)

	nodeID := fs.String("id", "", "unique node identifier (required)")
	apiAddr := fs.String("api-addr", ":9000", "client-facing API listen address")
	requestAddr := fs.String("request-addr", ":9001", "peer request listen address")
	publishAddr := fs.String("publish-addr", ":9002", "membership publish listen address")
	joinPeer := fs.String("node", "", "request address of an existing cluster member to join")
	maxSize := fs.Int("max-size", envInt("MAX_SIZE", defaultMaxSize), "max aggregate character budget for the local store")
	replicas := fs.Int("replicas", envInt("REPLICAS", defaultReplicas), "virtual positions per node per ring (R)")
	redundancy := fs.Int("redundancy", envInt("REDUNDANCY", defaultRedundancy), "number of independent rings (D)")
	publishInterval := fs.Duration("publish-interval", envDuration("PUBLISH_INTERVAL", defaultPublishInterval), "membership publish period")
	requestDeadline := fs.Duration("request-deadline", envDuration("REQUEST_DEADLINE", defaultRequestDeadline), "API fan-out deadline")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *nodeID == "" {
		return nil, fmt.Errorf("config: --id is required")
	}
	if *replicas <= 0 {
		return nil, fmt.Errorf("config: --replicas must be > 0")
	}
	if *redundancy <= 0 {
		return nil, fmt.Errorf("config: --redundancy must be > 0")
	}

	expiry := *publishInterval * 3
	if envExpiry := os.Getenv("EXPIRY_WINDOW"); envExpiry != "" {
		if d, err := time.ParseDuration(envExpiry); err == nil {
			expiry = d
		}
	}
	if expiry < 3*(*publishInterval) {
		return nil, fmt.Errorf("config: expiry window (%s) must be >= 3x publish interval (%s)", expiry, *publishInterval)
	}

	return &Config{
		NodeID:          *nodeID,
		APIAddr:         *apiAddr,
		RequestAddr:     *requestAddr,
		PublishAddr:     *publishAddr,
		JoinPeer:        *joinPeer,
		MaxSize:         *maxSize,
		Replicas:        *replicas,
		Redundancy:      *redundancy,
		PublishInterval: *publishInterval,
		ExpiryWindow:    expiry,
		RequestDeadline: *requestDeadline,
	}, nil
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
