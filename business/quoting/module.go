// Package quoting implements the quoting bounded context: venue adapters and
// the quote aggregator built on top of them.
package quoting

import (
	"context"

	chainDI "github.com/fd1az/dex-aggregator/business/chain/di"
	"github.com/fd1az/dex-aggregator/business/quoting/app"
	quotingDI "github.com/fd1az/dex-aggregator/business/quoting/di"
	"github.com/fd1az/dex-aggregator/business/quoting/infra/uniswapv2"
	"github.com/fd1az/dex-aggregator/business/quoting/infra/uniswapv3"
	routingDI "github.com/fd1az/dex-aggregator/business/routing/di"
	"github.com/fd1az/dex-aggregator/internal/asset"
	"github.com/fd1az/dex-aggregator/internal/config"
	"github.com/fd1az/dex-aggregator/internal/di"
	"github.com/fd1az/dex-aggregator/internal/logger"
	"github.com/fd1az/dex-aggregator/internal/monolith"
)

// Module implements the quoting bounded context.
type Module struct{}

// RegisterServices registers all quoting services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register V2 venue adapter (public - gateway uses it for pair lookups)
	di.RegisterToken(c, quotingDI.V2Adapter, func(sr di.ServiceRegistry) *uniswapv2.Adapter {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		adapter, err := uniswapv2.NewAdapter(chainDI.GetContractReader(sr), uniswapv2.AdapterConfig{
			VenueName:   cfg.V2.Name,
			Factory:     cfg.V2.FactoryAddressHex(),
			Router:      cfg.V2.RouterAddressHex(),
			GasEstimate: cfg.Aggregator.DefaultGasEstimate,
		}, log)
		if err != nil {
			panic("failed to create v2 adapter: " + err.Error())
		}
		return adapter
	})

	// Register V3 venue adapter (public - gateway uses it for pool lookups)
	di.RegisterToken(c, quotingDI.V3Adapter, func(sr di.ServiceRegistry) *uniswapv3.Adapter {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		adapter, err := uniswapv3.NewAdapter(chainDI.GetContractReader(sr), uniswapv3.AdapterConfig{
			VenueName:   cfg.V3.Name,
			Factory:     cfg.V3.FactoryAddressHex(),
			Quoter:      cfg.V3.QuoterAddressHex(),
			SwapRouter:  cfg.V3.SwapRouterAddressHex(),
			GasEstimate: cfg.Aggregator.DefaultGasEstimate,
		}, log)
		if err != nil {
			panic("failed to create v3 adapter: " + err.Error())
		}
		return adapter
	})

	// Register Aggregator (public - exposed to gateway and monitor).
	// Only enabled venues join the fan-out.
	di.RegisterToken(c, quotingDI.Aggregator, func(sr di.ServiceRegistry) *app.Aggregator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		var adapters []app.VenueAdapter
		if cfg.V2.Enabled() {
			adapters = append(adapters, quotingDI.GetV2Adapter(sr))
		}
		if cfg.V3.Enabled() {
			adapters = append(adapters, quotingDI.GetV3Adapter(sr))
		}

		agg, err := app.NewAggregator(
			adapters,
			chainDI.GetContractReader(sr),
			registry,
			routingDI.GetRouteBuilder(sr),
			cfg.Ethereum.ChainID,
			log,
		)
		if err != nil {
			panic("failed to create aggregator: " + err.Error())
		}
		return agg
	})

	return nil
}

// Startup initializes the quoting module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	agg := quotingDI.GetAggregator(mono.Services())
	for _, v := range agg.Venues() {
		log.Info(ctx, "venue enabled", "venue", v.Name, "protocol", v.Protocol)
	}

	log.Info(ctx, "quoting module started", "venues", len(agg.Venues()))
	return nil
}
