package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelopeIn struct {
	Payload []string `json:"payload"`
}

func newTestServer(t *testing.T, reply []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in envelopeIn
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(envelope{Payload: reply})
	}))
}

func TestPut_Success(t *testing.T) {
	srv := newTestServer(t, []string{"0"})
	defer srv.Close()

	c := New(srv.URL, time.Second)
	err := c.Put(t.Context(), "k1", "v1")
	assert.NoError(t, err)
}

func TestPut_TooBig(t *testing.T) {
	srv := newTestServer(t, []string{"1"})
	defer srv.Close()

	c := New(srv.URL, time.Second)
	err := c.Put(t.Context(), "k1", "v1")
	assert.ErrorIs(t, err, ErrTooBig)
}

func TestGet_Hit(t *testing.T) {
	srv := newTestServer(t, []string{"0", "v1"})
	defer srv.Close()

	c := New(srv.URL, time.Second)
	value, ok, err := c.Get(t.Context(), "k1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v1", value)
}

func TestGet_Miss(t *testing.T) {
	srv := newTestServer(t, []string{"0", ""})
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, ok, err := c.Get(t.Context(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGet_Timeout(t *testing.T) {
	srv := newTestServer(t, []string{"2"})
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, _, err := c.Get(t.Context(), "k1")
	assert.ErrorIs(t, err, ErrTimeout)
}
