// Package app contains application services and port definitions for the quoting context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	chainDomain "github.com/fd1az/dex-aggregator/business/chain/domain"
	"github.com/fd1az/dex-aggregator/business/quoting/domain"
	routingDomain "github.com/fd1az/dex-aggregator/business/routing/domain"
	"github.com/fd1az/dex-aggregator/internal/asset"
)

// VenueAdapter is the capability every liquidity venue exposes to the
// aggregator. A missing pool, a reverted quoter call or empty reserves all
// reduce to an empty contribution; only transport-level failures surface
// as errors.
type VenueAdapter interface {
	// QuoteAll returns every quote the venue can produce for swapping
	// amountIn of tokenIn into tokenOut. The assets are pool-facing: the
	// caller substitutes the wrapped native token before fan-out.
	QuoteAll(ctx context.Context, tokenIn, tokenOut *asset.Asset, amountIn *big.Int) ([]*domain.VenueQuote, error)

	// PoolExists reports whether the venue has a deployed pool for the
	// pair. feeTier selects a concentrated-liquidity tier; constant-product
	// venues ignore it.
	PoolExists(ctx context.Context, tokenA, tokenB common.Address, feeTier uint32) (bool, error)

	// TokenInfo reads ERC-20 metadata through the venue's chain reader.
	TokenInfo(ctx context.Context, token common.Address) (*chainDomain.TokenInfo, error)

	// Name is the configured venue name, e.g. "Uniswap".
	Name() string

	// Version is the protocol flavor the adapter speaks.
	Version() domain.Protocol
}

// TokenReader is the slice of the chain reader the aggregator needs for
// resolving tokens absent from the registry.
type TokenReader interface {
	TokenInfo(ctx context.Context, token common.Address) (*chainDomain.TokenInfo, error)
}

// RouteBuilder produces a ready-to-send transaction artifact for one quote.
// The quoting context consumes it so every surviving quote ships with
// calldata and an approval descriptor.
type RouteBuilder interface {
	Build(ctx context.Context, quote *domain.VenueQuote, tokenIn, tokenOut *asset.Asset, amountIn *big.Int, slippagePercent float64, user *common.Address) (*routingDomain.RouteArtifact, error)
}
