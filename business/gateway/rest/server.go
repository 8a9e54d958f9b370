// Package rest exposes the aggregator over HTTP: quote and build-tx
// operations, registry and pool introspection, and a WebSocket stream of
// chain updates.
package rest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/fd1az/dex-aggregator/internal/asset"
	"github.com/fd1az/dex-aggregator/internal/logger"
	"github.com/fd1az/dex-aggregator/internal/wsconn"
)

// Config holds the HTTP surface settings.
type Config struct {
	Port            int
	BasePath        string
	CORSOrigins     []string
	RequestTimeout  time.Duration
	DefaultSlippage float64
	ChainID         uint64
}

// Server is the HTTP front of the aggregator. Pair and pool readers are
// optional: a nil reader leaves its introspection route unregistered, so
// a disabled venue answers 404 instead of a misleading error.
type Server struct {
	config   Config
	quotes   QuoteService
	pairs    PairReader
	pools    PoolReader
	chain    ChainStatus
	registry *asset.Registry
	hub      *wsconn.Hub
	log      logger.LoggerInterface
	engine   *gin.Engine
	srv      *http.Server
}

// NewServer wires the routes and middleware. It does not start listening;
// call Run for that.
func NewServer(cfg Config, quotes QuoteService, pairs PairReader, pools PoolReader, chain ChainStatus, registry *asset.Registry, log logger.LoggerInterface) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.BasePath == "" {
		cfg.BasePath = "/api/aggregator"
	}
	if cfg.DefaultSlippage <= 0 {
		cfg.DefaultSlippage = 0.5
	}

	s := &Server{
		config:   cfg,
		quotes:   quotes,
		pairs:    pairs,
		pools:    pools,
		chain:    chain,
		registry: registry,
		hub:      wsconn.NewHub(wsconn.DefaultConfig()),
		log:      log,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(
		requestID(),
		requestLogging(log),
		recovery(log),
		cors.New(corsConfig(cfg.CORSOrigins)),
		tracing(),
		deadline(cfg.RequestTimeout),
	)

	api := engine.Group(cfg.BasePath)
	api.POST("/quote", s.handleQuote)
	api.POST("/build-tx", s.handleBuildTx)
	api.GET("/tokens", s.handleTokens)
	api.GET("/gas", s.handleGas)
	api.GET("/stream", s.handleStream)
	if s.pairs != nil {
		api.GET("/pair/:tokenA/:tokenB", s.handlePair)
	}
	if s.pools != nil {
		api.GET("/pool/:tokenA/:tokenB/:fee", s.handlePool)
	}

	s.engine = engine
	return s
}

// Handler exposes the routed engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Hub exposes the stream hub so other modules can publish updates.
func (s *Server) Hub() *wsconn.Hub {
	return s.hub
}

// Run serves until ctx is canceled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.log.Info(ctx, "http server listening", "addr", s.srv.Addr, "base_path", s.config.BasePath)

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", headerRequestID},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
