// Package monitor implements the watch bounded context: a client of the
// quoting engine that periodically re-quotes configured pairs and reports
// them to the console or the TUI dashboard. Quote refresh lives here, never
// in the engine.
package monitor

import (
	"context"

	chainDI "github.com/fd1az/dex-aggregator/business/chain/di"
	"github.com/fd1az/dex-aggregator/business/monitor/app"
	monitorDI "github.com/fd1az/dex-aggregator/business/monitor/di"
	quotingDI "github.com/fd1az/dex-aggregator/business/quoting/di"
	"github.com/fd1az/dex-aggregator/internal/config"
	"github.com/fd1az/dex-aggregator/internal/di"
	"github.com/fd1az/dex-aggregator/internal/logger"
	"github.com/fd1az/dex-aggregator/internal/monolith"
)

// Module implements the monitor bounded context.
type Module struct{}

// RegisterServices registers the watcher with the DI container. Reporters
// are attached by main: which ones to use is a run-mode decision.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, monitorDI.Watcher, func(sr di.ServiceRegistry) *app.Watcher {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		watcher, err := app.NewWatcher(
			quotingDI.GetAggregator(sr),
			chainDI.GetChainService(sr),
			app.Config{
				Pairs:     cfg.Watch.Pairs,
				TradeSize: cfg.Watch.TradeSize,
				Interval:  cfg.Watch.Interval,
			},
			log,
		)
		if err != nil {
			panic("failed to create watcher: " + err.Error())
		}
		return watcher
	})

	return nil
}

// Startup validates the watch configuration by resolving the watcher. The
// watch loop itself is started by main once reporters are attached.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	watcher := monitorDI.GetWatcher(mono.Services())
	for _, pair := range watcher.Pairs() {
		log.Info(ctx, "watching pair", "pair", pair.String())
	}

	log.Info(ctx, "monitor module started", "pairs", len(watcher.Pairs()))
	return nil
}
