// Package app contains application services and port definitions for the chain context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/dex-aggregator/business/chain/domain"
)

// ContractReader defines the typed read surface the aggregator needs from
// the chain. Implementations classify failures: transport problems, contract
// reverts and absent pools each surface as distinct error codes.
type ContractReader interface {
	// ERC-20
	TokenInfo(ctx context.Context, token common.Address) (*domain.TokenInfo, error)
	TokenName(ctx context.Context, token common.Address) (string, error)
	TokenSymbol(ctx context.Context, token common.Address) (string, error)
	TokenDecimals(ctx context.Context, token common.Address) (uint8, error)
	BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error)
	Allowance(ctx context.Context, token, owner, spender common.Address) (*domain.Allowance, error)

	// Constant-product pools
	V2GetPair(ctx context.Context, factory, tokenA, tokenB common.Address) (common.Address, error)
	V2AllPairsLength(ctx context.Context, factory common.Address) (*big.Int, error)
	V2AllPairs(ctx context.Context, factory common.Address, index *big.Int) (common.Address, error)
	V2Reserves(ctx context.Context, pair common.Address) (reserve0, reserve1 *big.Int, blockTimestampLast uint32, err error)
	V2Token0(ctx context.Context, pair common.Address) (common.Address, error)
	V2Token1(ctx context.Context, pair common.Address) (common.Address, error)
	V2TotalSupply(ctx context.Context, pair common.Address) (*big.Int, error)
	V2Pool(ctx context.Context, pair common.Address) (*domain.V2Pool, error)
	V2AmountOut(ctx context.Context, router common.Address, amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error)
	V2AmountsOut(ctx context.Context, router common.Address, amountIn *big.Int, path []common.Address) ([]*big.Int, error)
	V2AmountsIn(ctx context.Context, router common.Address, amountOut *big.Int, path []common.Address) ([]*big.Int, error)

	// Concentrated-liquidity pools
	V3GetPool(ctx context.Context, factory, tokenA, tokenB common.Address, fee uint32) (common.Address, error)
	V3Slot0(ctx context.Context, pool common.Address) (*domain.Slot0, error)
	V3Liquidity(ctx context.Context, pool common.Address) (*big.Int, error)
	V3Fee(ctx context.Context, pool common.Address) (uint32, error)
	V3TickSpacing(ctx context.Context, pool common.Address) (int64, error)
	V3Token0(ctx context.Context, pool common.Address) (common.Address, error)
	V3Token1(ctx context.Context, pool common.Address) (common.Address, error)
	V3Pool(ctx context.Context, pool common.Address) (*domain.V3Pool, error)
	V3QuoteExactInputSingle(ctx context.Context, quoter, tokenIn, tokenOut common.Address, fee uint32, amountIn *big.Int) (*domain.V3Quote, error)

	// Node
	IsContract(ctx context.Context, addr common.Address) (bool, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// BlockSubscriber defines the interface for subscribing to new blocks.
type BlockSubscriber interface {
	// Subscribe starts listening for new blocks and returns a channel of blocks.
	Subscribe(ctx context.Context) (<-chan *domain.Block, error)

	// LatestBlock retrieves the most recent block.
	LatestBlock(ctx context.Context) (*domain.Block, error)

	// State returns the current connection state.
	State() domain.ConnectionState
}

// GasOracle defines the interface for gas price information.
type GasOracle interface {
	// GetGasPrice retrieves the current gas price.
	GetGasPrice(ctx context.Context) (*domain.GasPrice, error)

	// EstimateGas estimates the gas needed for a transaction.
	EstimateGas(ctx context.Context, data []byte, to string) (uint64, error)
}
