package publish

import (
	"testing"
	"time"

	"ringcache/internal/membership"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSnapshot_Shape(t *testing.T) {
	nodes := []membership.Node{
		{ID: "a", RequestAddress: "ra", PublishAddress: "pa", LastSeen: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "b", RequestAddress: "rb", PublishAddress: "pb", LastSeen: time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC)},
	}
	frames := EncodeSnapshot(nodes)

	require.Len(t, frames, 1+2*4)
	assert.Equal(t, Topic, frames[0])
	assert.Equal(t, "a", frames[1])
	assert.Equal(t, "ra", frames[2])
	assert.Equal(t, "pa", frames[3])
	assert.Equal(t, "2026:01:01:00:00:00", frames[4])
}

func TestDecodeAndMerge_SkipsSelfAndMergesPeers(t *testing.T) {
	self := membership.Node{ID: "self", RequestAddress: "h:1", PublishAddress: "h:2"}
	reg := membership.New(self, nil)

	frames := []string{
		Topic,
		"self", "bogus:1", "bogus:2", "2026:01:01:00:00:00",
		"peer-1", "p1:1", "p1:2", "2026:01:01:00:00:01",
	}
	DecodeAndMerge(reg, frames)

	assert.True(t, reg.IsKnown("peer-1"))
	node, ok := reg.Get("self")
	require.True(t, ok)
	assert.Equal(t, "h:1", node.RequestAddress, "self descriptor must never be overwritten via publish merge")
}

func TestDecodeAndMerge_IgnoresWrongTopic(t *testing.T) {
	self := membership.Node{ID: "self", RequestAddress: "h:1", PublishAddress: "h:2"}
	reg := membership.New(self, nil)

	DecodeAndMerge(reg, []string{"not-the-topic", "peer-1", "p1:1", "p1:2", "0"})
	assert.False(t, reg.IsKnown("peer-1"))
}

func TestDecodeAndMerge_IgnoresTruncatedTuple(t *testing.T) {
	self := membership.Node{ID: "self", RequestAddress: "h:1", PublishAddress: "h:2"}
	reg := membership.New(self, nil)

	// Trailing partial tuple (3 fields instead of 4) must be skipped, not panic.
	DecodeAndMerge(reg, []string{Topic, "peer-1", "p1:1", "p1:2"})
	assert.False(t, reg.IsKnown("peer-1"))
}
