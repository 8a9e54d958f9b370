// Package uniswapv2 adapts Uniswap V2 style constant-product pools to the
// aggregator's venue port.
package uniswapv2

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	chainApp "github.com/fd1az/dex-aggregator/business/chain/app"
	chainDomain "github.com/fd1az/dex-aggregator/business/chain/domain"
	"github.com/fd1az/dex-aggregator/business/quoting/domain"
	"github.com/fd1az/dex-aggregator/internal/apperror"
	"github.com/fd1az/dex-aggregator/internal/asset"
	"github.com/fd1az/dex-aggregator/internal/cache"
	"github.com/fd1az/dex-aggregator/internal/logger"
)

const (
	tracerName = "github.com/fd1az/dex-aggregator/business/quoting/infra/uniswapv2"
	meterName  = "github.com/fd1az/dex-aggregator/business/quoting/infra/uniswapv2"
)

// AdapterConfig holds the venue deployment addresses and quote defaults.
type AdapterConfig struct {
	VenueName    string
	Factory      common.Address
	Router       common.Address
	GasEstimate  uint64 // reported with each quote
	PairCacheTTL time.Duration
}

// adapterMetrics holds OTEL metric instruments.
type adapterMetrics struct {
	quotesTotal  metric.Int64Counter
	quoteErrors  metric.Int64Counter
	quoteLatency metric.Float64Histogram
}

// Adapter quotes swaps against a single constant-product deployment. Reads
// go through the shared contract reader; a missing pair or unusable
// reserves reduce to an empty contribution, only transport failures error.
type Adapter struct {
	reader chainApp.ContractReader
	config AdapterConfig
	logger logger.LoggerInterface
	pairs  *cache.Cache[string, common.Address]

	tracer  trace.Tracer
	metrics *adapterMetrics
}

// NewAdapter creates a V2 venue adapter on top of the shared reader.
func NewAdapter(reader chainApp.ContractReader, cfg AdapterConfig, log logger.LoggerInterface) (*Adapter, error) {
	if cfg.VenueName == "" {
		cfg.VenueName = "Uniswap"
	}
	if cfg.GasEstimate == 0 {
		cfg.GasEstimate = 150_000
	}
	if cfg.PairCacheTTL <= 0 {
		cfg.PairCacheTTL = time.Hour
	}

	a := &Adapter{
		reader: reader,
		config: cfg,
		logger: log,
		pairs:  cache.New[string, common.Address](cfg.PairCacheTTL),
		tracer: otel.Tracer(tracerName),
	}

	if err := a.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init uniswapv2 metrics: %w", err)
	}

	return a, nil
}

func (a *Adapter) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	a.metrics = &adapterMetrics{}

	a.metrics.quotesTotal, err = meter.Int64Counter(
		"uniswap_v2_quotes_total",
		metric.WithDescription("Total V2 quote attempts"),
		metric.WithUnit("{quote}"),
	)
	if err != nil {
		return err
	}

	a.metrics.quoteErrors, err = meter.Int64Counter(
		"uniswap_v2_quote_errors_total",
		metric.WithDescription("V2 quote attempts that failed on transport"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	a.metrics.quoteLatency, err = meter.Float64Histogram(
		"uniswap_v2_quote_latency_ms",
		metric.WithDescription("V2 quote latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Name returns the configured venue name.
func (a *Adapter) Name() string { return a.config.VenueName }

// Version returns the protocol flavor.
func (a *Adapter) Version() domain.Protocol { return domain.ProtocolV2 }

// Router returns the swap router routes through this venue must target.
func (a *Adapter) Router() common.Address { return a.config.Router }

// QuoteAll returns at most one quote: a constant-product venue has a single
// pool per pair.
func (a *Adapter) QuoteAll(ctx context.Context, tokenIn, tokenOut *asset.Asset, amountIn *big.Int) ([]*domain.VenueQuote, error) {
	start := time.Now()
	ctx, span := a.tracer.Start(ctx, "UniswapV2.QuoteAll", trace.WithAttributes(
		attribute.String("token_in", tokenIn.Symbol()),
		attribute.String("token_out", tokenOut.Symbol()),
	))
	defer span.End()

	a.metrics.quotesTotal.Add(ctx, 1)

	pair, err := a.pairFor(ctx, tokenIn.Address(), tokenOut.Address())
	if err != nil {
		if isNoPool(err) {
			a.logger.Debug(ctx, "no pair deployed",
				"venue", a.config.VenueName,
				"pair", tokenIn.Symbol()+"/"+tokenOut.Symbol())
			return nil, nil
		}
		a.metrics.quoteErrors.Add(ctx, 1)
		return nil, err
	}

	reserve0, reserve1, _, err := a.reader.V2Reserves(ctx, pair)
	if err != nil {
		if isNoPool(err) {
			return nil, nil
		}
		a.metrics.quoteErrors.Add(ctx, 1)
		return nil, err
	}

	token0, err := a.reader.V2Token0(ctx, pair)
	if err != nil {
		if isNoPool(err) {
			return nil, nil
		}
		a.metrics.quoteErrors.Add(ctx, 1)
		return nil, err
	}

	reserveIn, reserveOut := reserve0, reserve1
	if token0 != tokenIn.Address() {
		reserveIn, reserveOut = reserve1, reserve0
	}

	amountOut, err := domain.V2AmountOut(amountIn, reserveIn, reserveOut)
	if err != nil || amountOut.Sign() == 0 {
		// Empty or dust reserves are an answer, not a failure.
		a.logger.Debug(ctx, "pair has no usable liquidity",
			"pair", pair.Hex(), "error", err)
		return nil, nil
	}

	impact, err := domain.V2PriceImpact(amountIn, amountOut, reserveIn, reserveOut)
	if err != nil {
		return nil, nil
	}

	quote := domain.NewVenueQuote(a.config.VenueName, domain.ProtocolV2, amountOut, impact, a.config.GasEstimate, 0, pair)

	a.metrics.quoteLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	span.SetAttributes(attribute.String("amount_out", amountOut.String()))

	return []*domain.VenueQuote{quote}, nil
}

// PoolExists reports whether the factory has a pair for the two tokens. The
// fee tier argument is ignored; the venue has a single pool per pair.
func (a *Adapter) PoolExists(ctx context.Context, tokenA, tokenB common.Address, _ uint32) (bool, error) {
	if _, err := a.pairFor(ctx, tokenA, tokenB); err != nil {
		if isNoPool(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// TokenInfo reads ERC-20 metadata through the shared reader.
func (a *Adapter) TokenInfo(ctx context.Context, token common.Address) (*chainDomain.TokenInfo, error) {
	return a.reader.TokenInfo(ctx, token)
}

// Pair resolves and loads the full pair state. Supporting endpoints use it
// for introspection; the quote path reads only what it needs.
func (a *Adapter) Pair(ctx context.Context, tokenA, tokenB common.Address) (*chainDomain.V2Pool, error) {
	pair, err := a.pairFor(ctx, tokenA, tokenB)
	if err != nil {
		return nil, err
	}
	return a.reader.V2Pool(ctx, pair)
}

// pairFor resolves the pair address for two tokens. Deployed addresses are
// immutable, so hits are cached; misses are never cached and a pair created
// after the first lookup is picked up on the next one.
func (a *Adapter) pairFor(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	key := pairKey(tokenA, tokenB)
	if addr, ok := a.pairs.Get(ctx, key); ok {
		return addr, nil
	}

	addr, err := a.reader.V2GetPair(ctx, a.config.Factory, tokenA, tokenB)
	if err != nil {
		return common.Address{}, err
	}

	a.pairs.Set(ctx, key, addr, 0)
	return addr, nil
}

// pairKey builds an order-insensitive cache key for a token pair.
func pairKey(tokenA, tokenB common.Address) string {
	a, b := strings.ToLower(tokenA.Hex()), strings.ToLower(tokenB.Hex())
	if b < a {
		a, b = b, a
	}
	return a + "/" + b
}

// isNoPool reports whether the error means the venue has nothing for the
// pair, as opposed to a transport failure.
func isNoPool(err error) bool {
	switch apperror.GetCode(err) {
	case apperror.CodePoolNotFound, apperror.CodeExecutionReverted:
		return true
	default:
		return false
	}
}
