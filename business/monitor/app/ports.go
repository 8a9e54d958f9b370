// Package app contains the watch service and port definitions for the
// monitor context.
package app

import (
	"context"
	"math/big"

	chainDomain "github.com/fd1az/dex-aggregator/business/chain/domain"
	"github.com/fd1az/dex-aggregator/business/monitor/domain"
	quotingDomain "github.com/fd1az/dex-aggregator/business/quoting/domain"
	"github.com/fd1az/dex-aggregator/internal/asset"
)

// QuoteSource produces aggregated quotes for the watched pairs. The quoting
// aggregator satisfies this.
type QuoteSource interface {
	// ResolveToken resolves a symbol or hex address to a registered token.
	ResolveToken(ctx context.Context, ref string) (*asset.Asset, error)

	// Aggregate quotes all enabled venues and returns the ranked result.
	Aggregate(ctx context.Context, tokenIn, tokenOut *asset.Asset, amountIn *big.Int) (*quotingDomain.AggregatedQuote, error)
}

// ChainSource supplies the chain state snapshots are annotated with. The
// chain service satisfies this.
type ChainSource interface {
	// SubscribeBlocks streams new heads until ctx is cancelled.
	SubscribeBlocks(ctx context.Context) (<-chan *chainDomain.Block, error)

	// GetGasPrice returns the current gas price.
	GetGasPrice(ctx context.Context) (*chainDomain.GasPrice, error)

	// ConnectionState reports the current node connection state.
	ConnectionState() chainDomain.ConnectionState
}

// Reporter consumes what the watcher observes.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// Report delivers a pair observation to be displayed/logged.
	Report(snapshot *domain.Snapshot)

	// UpdateHead delivers a new chain head. gas may be nil when the gas
	// price could not be fetched.
	UpdateHead(block *chainDomain.Block, gas *chainDomain.GasPrice)

	// UpdateConnection delivers node connection state changes.
	UpdateConnection(state chainDomain.ConnectionState)

	// Stop gracefully shuts down the reporter.
	Stop() error
}
