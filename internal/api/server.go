package api

import (
	"net/http"

	"ringcache/internal/membership"
	"ringcache/internal/peer"
	"ringcache/internal/publish"

	"github.com/gin-gonic/gin"
)

// envelope mirrors transport.Envelope's wire shape; the server-side handlers
// decode requests into this local copy.
type envelope struct {
	IDs     []string `json:"ids,omitempty"`
	Payload []string `json:"payload"`
}

// Server mounts a node's protocol endpoints: the client-facing API, the
// inbound peer protocol, the inbound publish feed, and a health check
// (/metrics is mounted separately, by cmd/server) —
// grounded on the teacher's api.Handler.Register, generalized from its
// REST-ish /kv and /cluster routes to the spec's envelope-carrying verbs.
type Server struct {
	router   *Router
	peer     *peer.Handler
	registry *membership.Registry
}

// NewServer creates a Server.
func NewServer(router *Router, peerHandler *peer.Handler, registry *membership.Registry) *Server {
	return &Server{router: router, peer: peerHandler, registry: registry}
}

// Register mounts all routes on g.
func (s *Server) Register(g *gin.Engine) {
	g.POST("/api", s.handleAPI)
	g.POST("/peer", s.handlePeer)
	g.POST("/publish", s.handlePublish)

	g.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"node":    s.registry.SelfID(),
			"status":  "ok",
			"members": s.registry.Size(),
		})
	})
}

func (s *Server) handleAPI(c *gin.Context) {
	var req envelope
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reply := s.router.Dispatch(req.Payload)
	c.JSON(http.StatusOK, envelope{IDs: req.IDs, Payload: reply})
}

func (s *Server) handlePeer(c *gin.Context) {
	var req envelope
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reply := s.peer.Dispatch(req.Payload)
	c.JSON(http.StatusOK, envelope{IDs: req.IDs, Payload: reply})
}

// handlePublish accepts an inbound membership snapshot push (spec §4.2) and
// merges it into the Registry; there is no reply payload to speak of, a 200
// carrying an empty payload acknowledges receipt.
func (s *Server) handlePublish(c *gin.Context) {
	var req envelope
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	publish.DecodeAndMerge(s.registry, req.Payload)
	c.JSON(http.StatusOK, envelope{IDs: req.IDs})
}
