// Package uniswapv3 adapts Uniswap V3 style concentrated-liquidity pools to
// the aggregator's venue port. One pair maps to up to four pools, one per
// fee tier, and all tiers are quoted concurrently.
package uniswapv3

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	chainApp "github.com/fd1az/dex-aggregator/business/chain/app"
	chainDomain "github.com/fd1az/dex-aggregator/business/chain/domain"
	"github.com/fd1az/dex-aggregator/business/quoting/domain"
	"github.com/fd1az/dex-aggregator/internal/apperror"
	"github.com/fd1az/dex-aggregator/internal/asset"
	"github.com/fd1az/dex-aggregator/internal/cache"
	"github.com/fd1az/dex-aggregator/internal/logger"
)

const (
	tracerName = "github.com/fd1az/dex-aggregator/business/quoting/infra/uniswapv3"
	meterName  = "github.com/fd1az/dex-aggregator/business/quoting/infra/uniswapv3"
)

// AdapterConfig holds the venue deployment addresses and quote defaults.
type AdapterConfig struct {
	VenueName    string
	Factory      common.Address
	Quoter       common.Address
	SwapRouter   common.Address
	GasEstimate  uint64 // fallback when the quoter reports none
	PoolCacheTTL time.Duration
}

// adapterMetrics holds OTEL metric instruments.
type adapterMetrics struct {
	quotesTotal  metric.Int64Counter
	tierFailures metric.Int64Counter
	quoteLatency metric.Float64Histogram
}

// Adapter quotes swaps against a concentrated-liquidity deployment. Each
// fee tier is probed independently; a tier with no pool, no liquidity or a
// reverting quoter contributes nothing. Tier failures never propagate, so
// QuoteAll degrades to an empty contribution rather than an error.
type Adapter struct {
	reader chainApp.ContractReader
	config AdapterConfig
	logger logger.LoggerInterface
	pools  *cache.Cache[string, common.Address]

	tracer  trace.Tracer
	metrics *adapterMetrics
}

// NewAdapter creates a V3 venue adapter on top of the shared reader.
func NewAdapter(reader chainApp.ContractReader, cfg AdapterConfig, log logger.LoggerInterface) (*Adapter, error) {
	if cfg.VenueName == "" {
		cfg.VenueName = "Uniswap"
	}
	if cfg.GasEstimate == 0 {
		cfg.GasEstimate = 150_000
	}
	if cfg.PoolCacheTTL <= 0 {
		cfg.PoolCacheTTL = time.Hour
	}

	a := &Adapter{
		reader: reader,
		config: cfg,
		logger: log,
		pools:  cache.New[string, common.Address](cfg.PoolCacheTTL),
		tracer: otel.Tracer(tracerName),
	}

	if err := a.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init uniswapv3 metrics: %w", err)
	}

	return a, nil
}

func (a *Adapter) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	a.metrics = &adapterMetrics{}

	a.metrics.quotesTotal, err = meter.Int64Counter(
		"uniswap_v3_quotes_total",
		metric.WithDescription("Total V3 quote attempts"),
		metric.WithUnit("{quote}"),
	)
	if err != nil {
		return err
	}

	a.metrics.tierFailures, err = meter.Int64Counter(
		"uniswap_v3_tier_failures_total",
		metric.WithDescription("Fee tiers dropped from a quote due to failures"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return err
	}

	a.metrics.quoteLatency, err = meter.Float64Histogram(
		"uniswap_v3_quote_latency_ms",
		metric.WithDescription("V3 quote latency across all tiers in milliseconds"),
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
func (a *Adapter) Version() domain.Protocol { return domain.ProtocolV3 }

// SwapRouter returns the router routes through this venue must target.
func (a *Adapter) SwapRouter() common.Address { return a.config.SwapRouter }

// QuoteAll probes all fee tiers concurrently and returns one quote per live
// tier.
func (a *Adapter) QuoteAll(ctx context.Context, tokenIn, tokenOut *asset.Asset, amountIn *big.Int) ([]*domain.VenueQuote, error) {
	start := time.Now()
	ctx, span := a.tracer.Start(ctx, "UniswapV3.QuoteAll", trace.WithAttributes(
		attribute.String("token_in", tokenIn.Symbol()),
		attribute.String("token_out", tokenOut.Symbol()),
	))
	defer span.End()

	a.metrics.quotesTotal.Add(ctx, 1)

	results := make([]*domain.VenueQuote, len(domain.FeeTiers))
	g, gctx := errgroup.WithContext(ctx)
	for i, fee := range domain.FeeTiers {
		g.Go(func() error {
			quote, err := a.quoteTier(gctx, tokenIn, tokenOut, amountIn, fee)
			if err != nil {
				a.logger.Warn(gctx, "fee tier yielded no quote",
					"venue", a.config.VenueName,
					"fee_tier", fee,
					"error", err)
				a.metrics.tierFailures.Add(gctx, 1, metric.WithAttributes(
					attribute.Int("fee_tier", int(fee)),
				))
				return nil
			}
			results[i] = quote
			return nil
		})
	}
	_ = g.Wait() // tier failures are absorbed above

	quotes := make([]*domain.VenueQuote, 0, len(results))
	for _, q := range results {
		if q != nil {
			quotes = append(quotes, q)
		}
	}

	a.metrics.quoteLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	span.SetAttributes(attribute.Int("live_tiers", len(quotes)))

	return quotes, nil
}

// quoteTier produces the quote for one fee tier, or (nil, nil) when the
// tier has no pool or no usable liquidity.
func (a *Adapter) quoteTier(ctx context.Context, tokenIn, tokenOut *asset.Asset, amountIn *big.Int, fee uint32) (*domain.VenueQuote, error) {
	pool, err := a.poolFor(ctx, tokenIn.Address(), tokenOut.Address(), fee)
	if err != nil {
		if isNoPool(err) {
			return nil, nil
		}
		return nil, err
	}

	slot0, err := a.reader.V3Slot0(ctx, pool)
	if err != nil {
		if isNoPool(err) {
			return nil, nil
		}
		return nil, err
	}
	if slot0.SqrtPriceX96 == nil || slot0.SqrtPriceX96.Sign() == 0 {
		// Deployed but never initialized.
		return nil, nil
	}

	liquidity, err := a.reader.V3Liquidity(ctx, pool)
	if err != nil {
		if isNoPool(err) {
			return nil, nil
		}
		return nil, err
	}
	if liquidity.Sign() == 0 {
		a.logger.Debug(ctx, "tier pool has no liquidity",
			"pool", pool.Hex(), "fee_tier", fee)
		return nil, nil
	}

	result, err := a.reader.V3QuoteExactInputSingle(ctx, a.config.Quoter, tokenIn.Address(), tokenOut.Address(), fee, amountIn)
	if err != nil {
		// A reverting quoter means the tier cannot fill the trade.
		if isNoPool(err) {
			return nil, nil
		}
		return nil, err
	}
	if result.AmountOut == nil || result.AmountOut.Sign() == 0 {
		return nil, nil
	}

	impact, err := a.priceImpact(tokenIn, tokenOut, amountIn, result, slot0.SqrtPriceX96)
	if err != nil {
		return nil, err
	}

	gas := a.config.GasEstimate
	if result.GasEstimate != nil && result.GasEstimate.IsUint64() && result.GasEstimate.Uint64() > 0 {
		gas = result.GasEstimate.Uint64()
	}

	return domain.NewVenueQuote(a.config.VenueName, domain.ProtocolV3, result.AmountOut, impact, gas, fee, pool), nil
}

// priceImpact prefers the quoter-reported post-swap price. Quoters that
// answer with amountOut alone fall back to the execution/mid ratio, with
// the post-swap sqrt price reconstructed from it.
func (a *Adapter) priceImpact(tokenIn, tokenOut *asset.Asset, amountIn *big.Int, result *chainDomain.V3Quote, before *big.Int) (float64, error) {
	if result.HasPoolStateAfter() {
		return domain.V3PriceImpact(before, result.SqrtPriceX96After)
	}

	mid := midPrice(before, tokenIn, tokenOut)
	if mid <= 0 {
		return 0, fmt.Errorf("mid price unavailable for pool state")
	}

	exec, err := domain.ExecutionImpact(amountIn, result.AmountOut, tokenIn.Decimals(), tokenOut.Decimals(), mid)
	if err != nil {
		return 0, err
	}

	after := domain.HeuristicSqrtPriceAfter(before, exec)
	return domain.V3PriceImpact(before, after)
}

// PoolExists reports whether a pool exists for the pair. feeTier zero means
// any tier; a non-canonical tier is rejected.
func (a *Adapter) PoolExists(ctx context.Context, tokenA, tokenB common.Address, feeTier uint32) (bool, error) {
	if feeTier != 0 {
		if !domain.IsCanonicalFeeTier(feeTier) {
			return false, apperror.New(apperror.CodeInvalidInput,
				apperror.WithContext(fmt.Sprintf("fee tier %d", feeTier)))
		}
		return a.tierExists(ctx, tokenA, tokenB, feeTier)
	}

	for _, fee := range domain.FeeTiers {
		ok, err := a.tierExists(ctx, tokenA, tokenB, fee)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (a *Adapter) tierExists(ctx context.Context, tokenA, tokenB common.Address, fee uint32) (bool, error) {
	if _, err := a.poolFor(ctx, tokenA, tokenB, fee); err != nil {
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

// Pool resolves and loads the full pool state for one tier. Supporting
// endpoints use it for introspection.
func (a *Adapter) Pool(ctx context.Context, tokenA, tokenB common.Address, feeTier uint32) (*chainDomain.V3Pool, error) {
	if !domain.IsCanonicalFeeTier(feeTier) {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext(fmt.Sprintf("fee tier %d", feeTier)))
	}

	pool, err := a.poolFor(ctx, tokenA, tokenB, feeTier)
	if err != nil {
		return nil, err
	}
	return a.reader.V3Pool(ctx, pool)
}

// poolFor resolves the pool address for a pair and tier. Deployed addresses
// are immutable, so hits are cached; misses are never cached and a pool
// created after the first lookup is picked up on the next one.
func (a *Adapter) poolFor(ctx context.Context, tokenA, tokenB common.Address, fee uint32) (common.Address, error) {
	key := poolKey(tokenA, tokenB, fee)
	if addr, ok := a.pools.Get(ctx, key); ok {
		return addr, nil
	}

	addr, err := a.reader.V3GetPool(ctx, a.config.Factory, tokenA, tokenB, fee)
	if err != nil {
		return common.Address{}, err
	}

	a.pools.Set(ctx, key, addr, 0)
	return addr, nil
}

// midPrice is the pre-trade price of tokenIn denominated in tokenOut. Pool
// token ordering follows the factory rule: token0 is the numerically lower
// address.
func midPrice(sqrtPriceX96 *big.Int, tokenIn, tokenOut *asset.Asset) float64 {
	if tokenIn.Address().Cmp(tokenOut.Address()) < 0 {
		return domain.Price0In1(sqrtPriceX96, tokenIn.Decimals(), tokenOut.Decimals())
	}
	return domain.Price1In0(sqrtPriceX96, tokenOut.Decimals(), tokenIn.Decimals())
}

// poolKey builds an order-insensitive cache key for a pair and tier.
func poolKey(tokenA, tokenB common.Address, fee uint32) string {
	a, b := strings.ToLower(tokenA.Hex()), strings.ToLower(tokenB.Hex())
	if b < a {
		a, b = b, a
	}
	return a + "/" + b + "/" + strconv.FormatUint(uint64(fee), 10)
}

// isNoPool reports whether the error means the tier has nothing to offer,
// as opposed to a transport failure.
func isNoPool(err error) bool {
	switch apperror.GetCode(err) {
	case apperror.CodePoolNotFound, apperror.CodeExecutionReverted:
		return true
	default:
		return false
	}
}
