package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Client sends envelopes to peer nodes over HTTP, standing in for the raw
// framed-socket send/recv the spec treats as an external collaborator (see
// SPEC_FULL.md §4.8). Grounded on the teacher's
// Replicator.doHTTPReplicate/fetchFromPeer request construction.
type Client struct {
	http *http.Client
}

// NewClient creates a transport Client with the given per-call timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{http: &http.Client{Timeout: timeout}}
}

// Send posts payload as a peer-protocol envelope to addr and returns the
// reply's payload frames. The context's deadline, if any, bounds the call;
// ctx cancellation surfaces as an error, which callers treat as a silently
// missing reply (spec §7: "transport errors … treated as a silently missing
// reply").
func (c *Client) Send(ctx context.Context, addr, path string, payload []string) ([]string, error) {
	// A fresh correlation id per call is sent as the envelope's one routing
	// id (see envelope.go); the receiving handler echoes it back, and the
	// echoed id is not checked here.
	correlationID := uuid.NewString()
	body, err := json.Marshal(Envelope{IDs: []string{correlationID}, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("transport: marshal envelope: %w", err)
	}

	url := fmt.Sprintf("http://%s%s", addr, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("transport: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport: send to %s: %w", addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transport: %s replied HTTP %d", addr, resp.StatusCode)
	}

	var reply Envelope
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("transport: decode reply from %s: %w", addr, err)
	}
	return reply.Payload, nil
}
