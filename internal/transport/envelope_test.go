package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvelope_Frames(t *testing.T) {
	e := Envelope{IDs: []string{"id1", "id2"}, Payload: []string{"set", "k", "v"}}
	assert.Equal(t, []string{"id1", "id2", "", "set", "k", "v"}, e.Frames())
}

func TestEnvelope_FramesNoIDs(t *testing.T) {
	e := Envelope{Payload: []string{"get", "k"}}
	assert.Equal(t, []string{"", "get", "k"}, e.Frames())
}
