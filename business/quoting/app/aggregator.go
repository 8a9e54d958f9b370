package app

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/dex-aggregator/business/quoting/domain"
	routingDomain "github.com/fd1az/dex-aggregator/business/routing/domain"
	"github.com/fd1az/dex-aggregator/internal/apperror"
	"github.com/fd1az/dex-aggregator/internal/asset"
	"github.com/fd1az/dex-aggregator/internal/logger"
)

const (
	tracerName = "github.com/fd1az/dex-aggregator/business/quoting/app"
	meterName  = "github.com/fd1az/dex-aggregator/business/quoting/app"
)

// aggregatorMetrics holds OTEL metric instruments.
type aggregatorMetrics struct {
	requestsTotal    metric.Int64Counter
	requestErrors    metric.Int64Counter
	venueFailures    metric.Int64Counter
	quotesPerRequest metric.Int64Histogram
	requestLatency   metric.Float64Histogram
}

// Aggregator fans a quote request out to every configured venue, merges
// the contributions and ranks them. It is safe for concurrent use; all
// mutable state lives in the per-request call frames.
type Aggregator struct {
	adapters []VenueAdapter
	reader   TokenReader
	registry *asset.Registry
	routes   RouteBuilder
	chainID  uint64
	logger   logger.LoggerInterface

	tracer  trace.Tracer
	metrics *aggregatorMetrics
}

// NewAggregator wires the fixed adapter list to the shared reader and
// registry. Adapter order is preserved for reporting only; ranking does
// not depend on it.
func NewAggregator(adapters []VenueAdapter, reader TokenReader, registry *asset.Registry, routes RouteBuilder, chainID uint64, log logger.LoggerInterface) (*Aggregator, error) {
	a := &Aggregator{
		adapters: adapters,
		reader:   reader,
		registry: registry,
		routes:   routes,
		chainID:  chainID,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
	}

	if err := a.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init aggregator metrics: %w", err)
	}

	return a, nil
}

func (a *Aggregator) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	a.metrics = &aggregatorMetrics{}

	a.metrics.requestsTotal, err = meter.Int64Counter(
		"aggregator_requests_total",
		metric.WithDescription("Total quote aggregation requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	a.metrics.requestErrors, err = meter.Int64Counter(
		"aggregator_request_errors_total",
		metric.WithDescription("Total failed quote aggregation requests"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	a.metrics.venueFailures, err = meter.Int64Counter(
		"aggregator_venue_failures_total",
		metric.WithDescription("Venue contributions dropped due to adapter failures"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return err
	}

	a.metrics.quotesPerRequest, err = meter.Int64Histogram(
		"aggregator_quotes_per_request",
		metric.WithDescription("Surviving quotes per aggregation request"),
		metric.WithUnit("{quote}"),
	)
	if err != nil {
		return err
	}

	a.metrics.requestLatency, err = meter.Float64Histogram(
		"aggregator_request_latency_ms",
		metric.WithDescription("Quote aggregation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// ResolveToken turns a user-supplied token reference into an asset. A hex
// address resolves through the registry with an on-chain metadata fallback;
// anything else is treated as a registry symbol. The native sentinel
// address resolves to the chain's native coin.
func (a *Aggregator) ResolveToken(ctx context.Context, ref string) (*asset.Asset, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, apperror.New(apperror.CodeRequiredField, apperror.WithContext("token"))
	}

	if common.IsHexAddress(ref) {
		addr := common.HexToAddress(ref)
		if tok, ok := a.registry.GetToken(a.chainID, addr); ok {
			return tok, nil
		}
		if asset.IsNativeAddress(addr) {
			return nil, apperror.New(apperror.CodeUnknownToken, apperror.WithContext(ref))
		}

		info, err := a.reader.TokenInfo(ctx, addr)
		if err != nil {
			return nil, apperror.New(apperror.CodeUnknownToken,
				apperror.WithContext(ref),
				apperror.WithCause(err))
		}

		symbol := info.Symbol
		if symbol == "" {
			symbol = "UNKNOWN"
		}
		return asset.NewAssetWithName(asset.NewTokenAssetID(a.chainID, addr), symbol, info.Name, info.Decimals), nil
	}

	if tok, ok := a.registry.GetBySymbolAndChain(ref, a.chainID); ok {
		return tok, nil
	}
	return nil, apperror.New(apperror.CodeUnknownToken, apperror.WithContext(ref))
}

// Aggregate queries every configured venue for the pair and returns the
// ranked result. Venue failures are absorbed; the call fails only when the
// input is invalid, the request deadline fires, or no venue has liquidity.
func (a *Aggregator) Aggregate(ctx context.Context, tokenIn, tokenOut *asset.Asset, amountIn *big.Int) (*domain.AggregatedQuote, error) {
	if tokenIn == nil || tokenOut == nil {
		return nil, apperror.New(apperror.CodeInvalidInput, apperror.WithContext("token resolution"))
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInvalidAmount, apperror.WithContext("amountIn must be positive"))
	}

	start := time.Now()
	ctx, span := a.tracer.Start(ctx, "Aggregator.Aggregate", trace.WithAttributes(
		attribute.String("token_in", tokenIn.Symbol()),
		attribute.String("token_out", tokenOut.Symbol()),
		attribute.String("amount_in", amountIn.String()),
	))
	defer span.End()

	a.metrics.requestsTotal.Add(ctx, 1)

	poolIn, err := a.poolAsset(tokenIn)
	if err != nil {
		return nil, a.fail(ctx, span, err)
	}
	poolOut, err := a.poolAsset(tokenOut)
	if err != nil {
		return nil, a.fail(ctx, span, err)
	}
	if poolIn.Address() == poolOut.Address() {
		return nil, a.fail(ctx, span, apperror.New(apperror.CodeInvalidInput,
			apperror.WithMessage("tokenIn and tokenOut must be different tokens")))
	}

	results := make([][]*domain.VenueQuote, len(a.adapters))
	g, gctx := errgroup.WithContext(ctx)
	for i, adapter := range a.adapters {
		g.Go(func() error {
			quotes, err := adapter.QuoteAll(gctx, poolIn, poolOut, amountIn)
			if err != nil {
				// One venue failing must not sink the aggregate.
				a.logger.Warn(gctx, "venue quote failed",
					"venue", adapter.Name(),
					"protocol", string(adapter.Version()),
					"error", err)
				a.metrics.venueFailures.Add(gctx, 1, metric.WithAttributes(
					attribute.String("venue", adapter.Name()),
					attribute.String("protocol", string(adapter.Version())),
				))
				return nil
			}
			results[i] = quotes
			return nil
		})
	}
	_ = g.Wait() // adapters absorb their own failures

	merged := make([]*domain.VenueQuote, 0, len(a.adapters)*len(domain.FeeTiers))
	for _, quotes := range results {
		merged = append(merged, quotes...)
	}

	if len(merged) == 0 {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, a.fail(ctx, span, apperror.Timeout("quote aggregation", ctxErr))
		}
		return nil, a.fail(ctx, span, apperror.New(apperror.CodeNoLiquidity,
			apperror.WithContext(tokenIn.Symbol()+"/"+tokenOut.Symbol())))
	}

	agg := domain.NewAggregatedQuote(tokenIn, tokenOut, amountIn, merged)

	a.metrics.quotesPerRequest.Record(ctx, int64(len(merged)))
	a.metrics.requestLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	span.SetAttributes(attribute.Int("quotes", len(merged)))

	a.logger.Debug(ctx, "aggregated quotes",
		"pair", tokenIn.Symbol()+"/"+tokenOut.Symbol(),
		"quotes", len(merged),
		"best", agg.Best.Label(),
		"savings_pct", agg.Savings.Percentage)

	return agg, nil
}

// fail records the error on the active span and metrics before returning it.
func (a *Aggregator) fail(ctx context.Context, span trace.Span, err error) error {
	a.metrics.requestErrors.Add(ctx, 1)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// BuildRoute produces the transaction artifact for a single quote.
func (a *Aggregator) BuildRoute(ctx context.Context, quote *domain.VenueQuote, tokenIn, tokenOut *asset.Asset, amountIn *big.Int, slippagePercent float64, user *common.Address) (*routingDomain.RouteArtifact, error) {
	if a.routes == nil {
		return nil, apperror.New(apperror.CodeInternalError, apperror.WithContext("route builder not configured"))
	}
	return a.routes.Build(ctx, quote, tokenIn, tokenOut, amountIn, slippagePercent, user)
}

// BuildRoutes produces one artifact per ranked quote, index-aligned with
// agg.Quotes. Different routes may target different routers, so each one
// carries its own approval descriptor.
func (a *Aggregator) BuildRoutes(ctx context.Context, agg *domain.AggregatedQuote, slippagePercent float64, user *common.Address) ([]*routingDomain.RouteArtifact, error) {
	if a.routes == nil {
		return nil, apperror.New(apperror.CodeInternalError, apperror.WithContext("route builder not configured"))
	}

	artifacts := make([]*routingDomain.RouteArtifact, len(agg.Quotes))
	for i, q := range agg.Quotes {
		artifact, err := a.routes.Build(ctx, q, agg.TokenIn, agg.TokenOut, agg.AmountIn, slippagePercent, user)
		if err != nil {
			return nil, err
		}
		artifacts[i] = artifact
	}
	return artifacts, nil
}

// VenueInfo identifies one configured adapter.
type VenueInfo struct {
	Name     string
	Protocol domain.Protocol
}

// Venues lists the configured adapters in registration order.
func (a *Aggregator) Venues() []VenueInfo {
	out := make([]VenueInfo, len(a.adapters))
	for i, adapter := range a.adapters {
		out[i] = VenueInfo{Name: adapter.Name(), Protocol: adapter.Version()}
	}
	return out
}

// poolAsset maps the native coin to its wrapped ERC-20 so pool lookups and
// quoter calls always see token addresses.
func (a *Aggregator) poolAsset(tok *asset.Asset) (*asset.Asset, error) {
	if !tok.IsNative() {
		return tok, nil
	}
	wrapped, ok := a.registry.GetWrappedNative(a.chainID)
	if !ok {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("wrapped native asset not registered"))
	}
	return wrapped, nil
}
