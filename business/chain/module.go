// Package chain implements the chain bounded context for Ethereum integration.
package chain

import (
	"context"

	ethcli "github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/dex-aggregator/business/chain/app"
	chainDI "github.com/fd1az/dex-aggregator/business/chain/di"
	"github.com/fd1az/dex-aggregator/business/chain/infra/ethereum"
	"github.com/fd1az/dex-aggregator/internal/config"
	"github.com/fd1az/dex-aggregator/internal/di"
	"github.com/fd1az/dex-aggregator/internal/logger"
	"github.com/fd1az/dex-aggregator/internal/monolith"
)

// Module implements the chain bounded context.
type Module struct{}

// RegisterServices registers all chain services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register ContractReader (public - the typed read surface)
	di.RegisterToken(c, chainDI.ContractReader, func(sr di.ServiceRegistry) app.ContractReader {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		client := sr.Get("ethClient").(*ethcli.Client)

		readerCfg := ethereum.DefaultReaderConfig()
		readerCfg.ReadTimeout = cfg.Ethereum.ReadTimeout
		readerCfg.MaxRetries = cfg.Ethereum.MaxRetries
		readerCfg.InitialBackoff = cfg.Ethereum.InitialBackoff
		readerCfg.MaxBackoff = cfg.Ethereum.MaxBackoff
		readerCfg.RateLimitRPS = cfg.Ethereum.RateLimitRPS

		reader, err := ethereum.NewReader(client, readerCfg, log)
		if err != nil {
			panic("failed to create contract reader: " + err.Error())
		}
		return reader
	})

	// Register BlockSubscriber (private - internal dependency)
	di.RegisterToken(c, chainDI.BlockSubscriber, func(sr di.ServiceRegistry) app.BlockSubscriber {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		subCfg := ethereum.DefaultSubscriberConfig(cfg.Ethereum.WebSocketURL, cfg.Ethereum.HTTPURL)
		sub, err := ethereum.NewSubscriber(subCfg, log)
		if err != nil {
			panic("failed to create subscriber: " + err.Error())
		}
		return sub
	})

	// Register GasOracle (private - internal dependency)
	di.RegisterToken(c, chainDI.GasOracle, func(sr di.ServiceRegistry) app.GasOracle {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		oracleCfg := ethereum.DefaultGasOracleConfig(cfg.Ethereum.HTTPURL)
		oracleCfg.DefaultGas = cfg.Aggregator.DefaultGasEstimate
		oracle, err := ethereum.NewGasOracle(oracleCfg, log)
		if err != nil {
			panic("failed to create gas oracle: " + err.Error())
		}
		return oracle
	})

	// Register ChainService (public - exposed to other modules)
	di.RegisterToken(c, chainDI.ChainService, func(sr di.ServiceRegistry) *app.ChainService {
		reader := chainDI.GetContractReader(sr)
		sub := chainDI.GetBlockSubscriber(sr)
		oracle := chainDI.GetGasOracle(sr)
		return app.NewChainService(reader, sub, oracle)
	})

	return nil
}

// Startup initializes the chain module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	// Connect services
	sub := chainDI.GetBlockSubscriber(mono.Services())
	oracle := chainDI.GetGasOracle(mono.Services())

	// Connect subscriber (type assertion to access Connect method)
	if connector, ok := sub.(interface{ Connect(context.Context) error }); ok {
		if err := connector.Connect(ctx); err != nil {
			log.Error(ctx, "failed to connect block subscriber", "error", err)
			// Don't fail - will retry on Subscribe
		}
	}

	// Connect gas oracle
	if connector, ok := oracle.(interface{ Connect(context.Context) error }); ok {
		if err := connector.Connect(ctx); err != nil {
			log.Error(ctx, "failed to connect gas oracle", "error", err)
		}
	}

	// Fail fast when the configured chain does not match the node.
	reader := chainDI.GetContractReader(mono.Services())
	if id, err := reader.ChainID(ctx); err == nil {
		if id.Uint64() != mono.Config().Ethereum.ChainID {
			log.Warn(ctx, "configured chain id does not match node",
				"configured", mono.Config().Ethereum.ChainID,
				"node", id.Uint64())
		}
	}

	log.Info(ctx, "chain module started")
	return nil
}
