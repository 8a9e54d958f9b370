package rest

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	chainDomain "github.com/fd1az/dex-aggregator/business/chain/domain"
	quotingDomain "github.com/fd1az/dex-aggregator/business/quoting/domain"
	routingDomain "github.com/fd1az/dex-aggregator/business/routing/domain"
	"github.com/fd1az/dex-aggregator/internal/asset"
)

// QuoteService is the aggregation surface the gateway fronts. The quoting
// context's Aggregator satisfies it.
type QuoteService interface {
	ResolveToken(ctx context.Context, ref string) (*asset.Asset, error)
	Aggregate(ctx context.Context, tokenIn, tokenOut *asset.Asset, amountIn *big.Int) (*quotingDomain.AggregatedQuote, error)
	BuildRoute(ctx context.Context, quote *quotingDomain.VenueQuote, tokenIn, tokenOut *asset.Asset, amountIn *big.Int, slippagePercent float64, user *common.Address) (*routingDomain.RouteArtifact, error)
	BuildRoutes(ctx context.Context, agg *quotingDomain.AggregatedQuote, slippagePercent float64, user *common.Address) ([]*routingDomain.RouteArtifact, error)
}

// PairReader introspects constant-product pairs for the support endpoint.
type PairReader interface {
	Pair(ctx context.Context, tokenA, tokenB common.Address) (*chainDomain.V2Pool, error)
}

// PoolReader introspects concentrated-liquidity pools per fee tier.
type PoolReader interface {
	Pool(ctx context.Context, tokenA, tokenB common.Address, feeTier uint32) (*chainDomain.V3Pool, error)
}

// ChainStatus supplies the gas and head snapshots served and streamed by
// the gateway. The chain context's ChainService satisfies it.
type ChainStatus interface {
	GetGasPrice(ctx context.Context) (*chainDomain.GasPrice, error)
	SubscribeBlocks(ctx context.Context) (<-chan *chainDomain.Block, error)
}
