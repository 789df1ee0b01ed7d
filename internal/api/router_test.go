package api

import (
	"testing"
	"time"

	"ringcache/internal/cache"
	"ringcache/internal/membership"
	"ringcache/internal/ring"
	"ringcache/internal/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newSingleNodeRouter builds a Router for a one-node cluster, so every key's
// owner set is exactly {self} and dispatch never needs the network.
func newSingleNodeRouter(t *testing.T, maxSize int) *Router {
	t.Helper()
	self := membership.Node{ID: "self", RequestAddress: "h:1", PublishAddress: "h:2"}
	reg := membership.New(self, nil)
	rings := ring.NewHolder(64, 1)
	rings.Rebuild([]string{"self"})
	store := cache.New(maxSize)
	peerClient := transport.NewClient(100 * time.Millisecond)
	return New("self", store, reg, rings, peerClient, 200*time.Millisecond, nil, zap.NewNop().Sugar())
}

func TestDispatch_VersionAndVerbValidation(t *testing.T) {
	r := newSingleNodeRouter(t, 1024)

	assert.Equal(t, []string{UnknownRequest}, r.Dispatch(nil))
	assert.Equal(t, []string{VersionNotSupported}, r.Dispatch([]string{"7", "get", "k"}))
	assert.Equal(t, []string{UnknownRequest}, r.Dispatch([]string{Version, "bogus"}))
}

func TestDispatchSet_ThenGet_SingleNode(t *testing.T) {
	r := newSingleNodeRouter(t, 1024)

	reply := r.Dispatch([]string{Version, "set", "k1", "v1"})
	require.Equal(t, []string{NoError}, reply)

	reply = r.Dispatch([]string{Version, "get", "k1"})
	require.Equal(t, []string{NoError, "v1"}, reply)
}

func TestDispatchGet_Miss(t *testing.T) {
	r := newSingleNodeRouter(t, 1024)
	reply := r.Dispatch([]string{Version, "get", "nope"})
	assert.Equal(t, []string{NoError, ""}, reply)
}

func TestDispatchSet_TooBig(t *testing.T) {
	r := newSingleNodeRouter(t, 2)
	reply := r.Dispatch([]string{Version, "set", "longkey", "longvalue"})
	assert.Equal(t, []string{TooBig}, reply)
}

func TestDispatchSet_WrongArgCount(t *testing.T) {
	r := newSingleNodeRouter(t, 1024)
	assert.Equal(t, []string{UnknownRequest}, r.Dispatch([]string{Version, "set", "onlykey"}))
}

func TestDispatchGet_WrongArgCount(t *testing.T) {
	r := newSingleNodeRouter(t, 1024)
	assert.Equal(t, []string{UnknownRequest}, r.Dispatch([]string{Version, "get"}))
}

func TestCollectSetOutcome_AllNoError(t *testing.T) {
	results := make(chan setOutcome, 2)
	results <- setOutcome{code: NoError}
	results <- setOutcome{code: NoError}
	assert.Equal(t, NoError, collectSetOutcome(results, 2, time.Second))
}

func TestCollectSetOutcome_AnyTooBigWins(t *testing.T) {
	results := make(chan setOutcome, 2)
	results <- setOutcome{code: NoError}
	results <- setOutcome{code: TooBig}
	assert.Equal(t, TooBig, collectSetOutcome(results, 2, time.Second))
}

func TestCollectSetOutcome_MissingReplyIsTimeout(t *testing.T) {
	results := make(chan setOutcome, 2)
	results <- setOutcome{code: NoError}
	results <- setOutcome{code: ""} // missing/transport error
	assert.Equal(t, Timeout, collectSetOutcome(results, 2, time.Second))
}

func TestCollectSetOutcome_DeadlineElapsedIsTimeout(t *testing.T) {
	results := make(chan setOutcome, 2)
	results <- setOutcome{code: NoError}
	// second reply never arrives
	assert.Equal(t, Timeout, collectSetOutcome(results, 2, 20*time.Millisecond))
}

func TestCollectSetOutcome_OtherCodeIsUnknownRequest(t *testing.T) {
	results := make(chan setOutcome, 2)
	results <- setOutcome{code: NoError}
	results <- setOutcome{code: "123"}
	assert.Equal(t, UnknownRequest, collectSetOutcome(results, 2, time.Second))
}

func TestDedupe_PreservesFirstSeenOrder(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, dedupe([]string{"a", "b", "a", "c", "b"}))
}
