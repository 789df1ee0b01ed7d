// cmd/server is the main entrypoint for a ringcache node.
//
// Configuration is entirely via flags/environment so a single binary can
// serve any role in the cluster.
//
// Example — single node:
//
//	./server --id node1 --api-addr :9000 --request-addr :9001 --publish-addr :9002
//
// Example — a second node joining the first:
//
//	./server --id node2 --api-addr :9010 --request-addr :9011 --publish-addr :9012 \
//	         --node localhost:9001
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"ringcache/internal/api"
	"ringcache/internal/cache"
	"ringcache/internal/config"
	"ringcache/internal/logging"
	"ringcache/internal/membership"
	"ringcache/internal/metrics"
	"ringcache/internal/peer"
	"ringcache/internal/publish"
	"ringcache/internal/ring"
	"ringcache/internal/transport"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		panic(err)
	}

	log, err := logging.New(cfg.NodeID)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Replicas/redundancy may be overridden below by the join handshake
	// (spec §9: a joining node adopts the existing cluster's R and D).
	replicas, redundancy := cfg.Replicas, cfg.Redundancy

	peerClient := transport.NewClient(cfg.RequestDeadline)

	self := membership.Node{ID: cfg.NodeID, RequestAddress: cfg.RequestAddr, PublishAddress: cfg.PublishAddr}

	rings := ring.NewHolder(replicas, redundancy)
	registry := membership.New(self, rings.Rebuild)

	if cfg.JoinPeer != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestDeadline)
		reply, err := peerClient.Send(ctx, cfg.JoinPeer, "/peer",
			[]string{peer.Version, "connect", cfg.NodeID, cfg.RequestAddr, cfg.PublishAddr})
		cancel()
		if err != nil {
			log.Fatalw("join: connect failed", "peer", cfg.JoinPeer, "error", err)
		}
		if len(reply) == 0 {
			log.Fatalw("join: empty connect reply", "peer", cfg.JoinPeer)
		}
		switch reply[0] {
		case peer.NodeIDTaken:
			log.Fatalw("join: node id already in use on the target cluster", "id", cfg.NodeID)
		case peer.NoError:
			if len(reply) < 6 {
				log.Fatalw("join: malformed connect reply", "reply", reply)
			}
			peerID, peerReqAddr, peerPubAddr := reply[1], reply[2], reply[3]
			if r, err := strconv.Atoi(reply[4]); err == nil {
				if r != cfg.Replicas {
					log.Warnw("join: cluster REPLICAS differs from local configuration, adopting cluster's value",
						"configured", cfg.Replicas, "cluster", r)
				}
				replicas = r
			}
			if d, err := strconv.Atoi(reply[5]); err == nil {
				if d != cfg.Redundancy {
					log.Warnw("join: cluster REDUNDANCY differs from local configuration, adopting cluster's value",
						"configured", cfg.Redundancy, "cluster", d)
				}
				redundancy = d
			}
			rings = ring.NewHolder(replicas, redundancy)
			registry = membership.New(self, rings.Rebuild)
			registry.Observe(membership.Node{ID: peerID, RequestAddress: peerReqAddr, PublishAddress: peerPubAddr})
		default:
			log.Fatalw("join: rejected by peer", "code", reply[0])
		}
	}

	store := cache.New(cfg.MaxSize)

	m := metrics.New(prometheus.DefaultRegisterer)

	store.OnChange(func(length, size int) {
		m.CacheEntries.Set(float64(length))
		m.CacheBytes.Set(float64(size))
	})
	registry.OnSizeChange(func(size int) {
		m.RegistrySize.Set(float64(size))
	})

	peerHandler := peer.New(store, registry, replicas, redundancy, log)
	router := api.New(cfg.NodeID, store, registry, rings, peerClient, cfg.RequestDeadline, m, log)
	server := api.NewServer(router, peerHandler, registry)

	gin.SetMode(gin.ReleaseMode)
	g := gin.New()
	g.Use(logging.GinMiddleware(log), logging.GinRecovery(log))
	server.Register(g)
	g.GET("/metrics", gin.WrapH(promhttp.Handler()))

	publishLoop := publish.New(registry, peerClient, cfg.PublishInterval, log)
	go publishLoop.Run()

	sweepDone := make(chan struct{})
	go runSweeper(registry, cfg.ExpiryWindow, sweepDone, log)

	// Every route is mounted once, on g, and served from all three listen
	// addresses — the three addresses separate traffic by socket (so a
	// cluster can firewall peer/publish ports off from client-facing API
	// traffic), not by route set.
	apiSrv := &http.Server{Addr: cfg.APIAddr, Handler: g}
	reqSrv := &http.Server{Addr: cfg.RequestAddr, Handler: g}
	pubSrv := &http.Server{Addr: cfg.PublishAddr, Handler: g}

	go func() {
		log.Infow("api listening", "addr", cfg.APIAddr)
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("api server error", "error", err)
		}
	}()
	go func() {
		log.Infow("peer request listening", "addr", cfg.RequestAddr)
		if err := reqSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("request server error", "error", err)
		}
	}()
	go func() {
		log.Infow("publish listening", "addr", cfg.PublishAddr)
		if err := pubSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("publish server error", "error", err)
		}
	}()

	log.Infow("node started", "id", cfg.NodeID, "replicas", replicas, "redundancy", redundancy)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down", "id", cfg.NodeID)
	close(sweepDone)
	publishLoop.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	for _, srv := range []*http.Server{apiSrv, reqSrv, pubSrv} {
		if err := srv.Shutdown(ctx); err != nil {
			log.Warnw("server shutdown error", "error", err)
		}
	}
}

// runSweeper periodically expires peers whose publications have gone quiet
// (spec §4.1: "no explicit leave message; absence is detected by a
// last-seen expiry sweep").
func runSweeper(registry *membership.Registry, window time.Duration, done <-chan struct{}, log *zap.SugaredLogger) {
	ticker := time.NewTicker(window / 3)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			registry.TouchSelf()
			if removed := registry.Sweep(window); len(removed) > 0 {
				log.Infow("swept expired peers", "removed", removed)
			}
		case <-done:
			return
		}
	}
}
