package peer

import (
	"testing"
	"time"

	"ringcache/internal/cache"
	"ringcache/internal/clock"
	"ringcache/internal/membership"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) *Handler {
	t.Helper()
	self := membership.Node{ID: "self", RequestAddress: "h:1", PublishAddress: "h:2"}
	reg := membership.New(self, nil)
	return New(cache.New(1024), reg, 64, 2, zap.NewNop().Sugar())
}

func TestDispatch_EmptyPayload(t *testing.T) {
	h := newHandler(t)
	assert.Equal(t, []string{UnknownRequest}, h.Dispatch(nil))
}

func TestDispatch_VersionMismatch(t *testing.T) {
	h := newHandler(t)
	assert.Equal(t, []string{VersionNotSupported}, h.Dispatch([]string{"2", "get", "k"}))
}

func TestDispatch_UnknownVerb(t *testing.T) {
	h := newHandler(t)
	assert.Equal(t, []string{UnknownRequest}, h.Dispatch([]string{Version, "frobnicate"}))
}

func TestSet_ThenGet(t *testing.T) {
	h := newHandler(t)
	ts := clock.Format(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	reply := h.Dispatch([]string{Version, "set", "k1", "v1", ts})
	require.Equal(t, []string{NoError}, reply)

	reply = h.Dispatch([]string{Version, "get", "k1"})
	require.Equal(t, []string{NoError, "v1", ts}, reply)
}

func TestGet_Miss(t *testing.T) {
	h := newHandler(t)
	reply := h.Dispatch([]string{Version, "get", "absent"})
	assert.Equal(t, []string{NoError, "", "0"}, reply)
}

func TestSet_BadTimestampIsUnknownRequest(t *testing.T) {
	h := newHandler(t)
	reply := h.Dispatch([]string{Version, "set", "k1", "v1", "not-a-timestamp"})
	assert.Equal(t, []string{UnknownRequest}, reply)
}

func TestSet_TooBig(t *testing.T) {
	self := membership.Node{ID: "self", RequestAddress: "h:1", PublishAddress: "h:2"}
	reg := membership.New(self, nil)
	h := New(cache.New(2), reg, 64, 2, zap.NewNop().Sugar())

	ts := clock.Format(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	reply := h.Dispatch([]string{Version, "set", "longkey", "longvalue", ts})
	assert.Equal(t, []string{TooBig}, reply)
}

func TestConnect_NewNode(t *testing.T) {
	h := newHandler(t)
	reply := h.Dispatch([]string{Version, "connect", "peer-1", "p:1", "p:2"})

	require.Len(t, reply, 6)
	assert.Equal(t, NoError, reply[0])
	assert.Equal(t, "self", reply[1])
	assert.Equal(t, "h:1", reply[2])
	assert.Equal(t, "h:2", reply[3])
	assert.Equal(t, "64", reply[4])
	assert.Equal(t, "2", reply[5])
}

func TestConnect_NodeIDTakenForSelf(t *testing.T) {
	h := newHandler(t)
	reply := h.Dispatch([]string{Version, "connect", "self", "p:1", "p:2"})
	assert.Equal(t, []string{NodeIDTaken}, reply)
}

func TestConnect_NodeIDTakenForExistingPeer(t *testing.T) {
	h := newHandler(t)
	require.Equal(t, NoError, h.Dispatch([]string{Version, "connect", "peer-1", "p:1", "p:2"})[0])

	reply := h.Dispatch([]string{Version, "connect", "peer-1", "other:1", "other:2"})
	assert.Equal(t, []string{NodeIDTaken}, reply)
}
