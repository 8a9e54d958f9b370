// Package di contains dependency injection tokens for the chain context.
package di

import (
	"github.com/fd1az/dex-aggregator/business/chain/app"
	"github.com/fd1az/dex-aggregator/internal/di"
)

// Public service tokens - exposed to other modules
var (
	ChainService   = di.NewToken[*app.ChainService]("chain.ChainService")
	ContractReader = di.NewToken[app.ContractReader]("chain.ContractReader")
)

// Private dependency tokens - internal to chain module
var (
	BlockSubscriber = di.NewToken[app.BlockSubscriber]("chain:blockSubscriber")
	GasOracle       = di.NewToken[app.GasOracle]("chain:gasOracle")
)

// Helper functions for type-safe access
func GetChainService(c di.ServiceRegistry) *app.ChainService {
	return di.GetToken(c, ChainService)
}

func GetContractReader(c di.ServiceRegistry) app.ContractReader {
	return di.GetToken(c, ContractReader)
}

func GetBlockSubscriber(c di.ServiceRegistry) app.BlockSubscriber {
	return di.GetToken(c, BlockSubscriber)
}

func GetGasOracle(c di.ServiceRegistry) app.GasOracle {
	return di.GetToken(c, GasOracle)
}
