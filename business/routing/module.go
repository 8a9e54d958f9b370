// Package routing implements the routing bounded context: slippage math and
// transaction construction for quoted swaps.
package routing

import (
	"context"

	chainDI "github.com/fd1az/dex-aggregator/business/chain/di"
	"github.com/fd1az/dex-aggregator/business/routing/app"
	routingDI "github.com/fd1az/dex-aggregator/business/routing/di"
	"github.com/fd1az/dex-aggregator/business/routing/infra/unirouter"
	"github.com/fd1az/dex-aggregator/internal/asset"
	"github.com/fd1az/dex-aggregator/internal/config"
	"github.com/fd1az/dex-aggregator/internal/di"
	"github.com/fd1az/dex-aggregator/internal/logger"
	"github.com/fd1az/dex-aggregator/internal/monolith"
)

// Module implements the routing bounded context.
type Module struct{}

// RegisterServices registers all routing services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register RouteBuilder (public - quoting attaches artifacts through it)
	di.RegisterToken(c, routingDI.RouteBuilder, func(sr di.ServiceRegistry) *app.Builder {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		codec, err := unirouter.NewCodec()
		if err != nil {
			panic("failed to create router codec: " + err.Error())
		}

		builder, err := app.NewBuilder(codec, chainDI.GetContractReader(sr), registry, app.BuilderConfig{
			V2Router:        cfg.V2.RouterAddressHex(),
			V3SwapRouter:    cfg.V3.SwapRouterAddressHex(),
			ChainID:         cfg.Ethereum.ChainID,
			DeadlineSeconds: cfg.Aggregator.DeadlineSeconds,
		}, log)
		if err != nil {
			panic("failed to create route builder: " + err.Error())
		}
		return builder
	})

	return nil
}

// Startup initializes the routing module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "routing module started")
	return nil
}
