// Package gateway implements the HTTP bounded context: the REST API and
// the WebSocket stream.
package gateway

import (
	"context"
	"time"

	chainDI "github.com/fd1az/dex-aggregator/business/chain/di"
	gatewayDI "github.com/fd1az/dex-aggregator/business/gateway/di"
	"github.com/fd1az/dex-aggregator/business/gateway/rest"
	quotingDI "github.com/fd1az/dex-aggregator/business/quoting/di"
	"github.com/fd1az/dex-aggregator/internal/asset"
	"github.com/fd1az/dex-aggregator/internal/config"
	"github.com/fd1az/dex-aggregator/internal/di"
	"github.com/fd1az/dex-aggregator/internal/logger"
	"github.com/fd1az/dex-aggregator/internal/monolith"
)

const shutdownGrace = 5 * time.Second

// Module implements the gateway bounded context.
type Module struct{}

// RegisterServices registers the HTTP server with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, gatewayDI.Server, func(sr di.ServiceRegistry) *rest.Server {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		// Introspection readers are only wired for enabled venues; the
		// server leaves the corresponding routes off when nil.
		var pairs rest.PairReader
		if cfg.V2.Enabled() {
			pairs = quotingDI.GetV2Adapter(sr)
		}
		var pools rest.PoolReader
		if cfg.V3.Enabled() {
			pools = quotingDI.GetV3Adapter(sr)
		}

		return rest.NewServer(rest.Config{
			Port:            cfg.Server.Port,
			BasePath:        cfg.Server.BasePath,
			CORSOrigins:     cfg.Server.CORSOrigins,
			RequestTimeout:  cfg.Server.RequestTimeout,
			DefaultSlippage: cfg.Aggregator.DefaultSlippage,
			ChainID:         cfg.Ethereum.ChainID,
		},
			quotingDI.GetAggregator(sr),
			pairs,
			pools,
			chainDI.GetChainService(sr),
			registry,
			log,
		)
	})

	return nil
}

// Startup launches the HTTP listener and the stream pump, and arranges a
// graceful drain when the application context ends.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	srv := gatewayDI.GetServer(mono.Services())

	go func() {
		if err := srv.Run(ctx); err != nil {
			log.Error(ctx, "http server stopped", "error", err)
		}
	}()

	go func() {
		if err := srv.StreamUpdates(ctx); err != nil && ctx.Err() == nil {
			log.Warn(ctx, "stream updates stopped", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			log.Error(shCtx, "http server shutdown", "error", err)
		}
	}()

	log.Info(ctx, "gateway module started", "port", mono.Config().Server.Port)
	return nil
}
