package app

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	quotingDomain "github.com/fd1az/dex-aggregator/business/quoting/domain"
	"github.com/fd1az/dex-aggregator/business/routing/domain"
	"github.com/fd1az/dex-aggregator/internal/apperror"
	"github.com/fd1az/dex-aggregator/internal/asset"
	"github.com/fd1az/dex-aggregator/internal/logger"
)

const (
	tracerName = "github.com/fd1az/dex-aggregator/business/routing/app"
	meterName  = "github.com/fd1az/dex-aggregator/business/routing/app"
)

const (
	msgApprovalRequired = "Token approval required before swapping"
	msgNoApproval       = "No approval required"
	msgNativeNoApproval = "Native ETH requires no approval"
)

// BuilderConfig holds the router deployment addresses routes target.
type BuilderConfig struct {
	V2Router        common.Address
	V3SwapRouter    common.Address
	ChainID         uint64
	DeadlineSeconds int64
}

// builderMetrics holds OTEL metric instruments.
type builderMetrics struct {
	routesBuilt       metric.Int64Counter
	buildErrors       metric.Int64Counter
	approvalsRequired metric.Int64Counter
}

// Builder turns a venue quote into a sendable transaction skeleton: router
// calldata, native value, minimum-out under slippage, deadline and the
// route's approval descriptor.
type Builder struct {
	config     BuilderConfig
	encoder    SwapEncoder
	allowances AllowanceReader
	registry   *asset.Registry
	logger     logger.LoggerInterface

	tracer  trace.Tracer
	metrics *builderMetrics
}

// NewBuilder creates a route builder for the configured routers.
func NewBuilder(encoder SwapEncoder, allowances AllowanceReader, registry *asset.Registry, cfg BuilderConfig, log logger.LoggerInterface) (*Builder, error) {
	if cfg.DeadlineSeconds <= 0 {
		cfg.DeadlineSeconds = 1800
	}

	b := &Builder{
		config:     cfg,
		encoder:    encoder,
		allowances: allowances,
		registry:   registry,
		logger:     log,
		tracer:     otel.Tracer(tracerName),
	}

	if err := b.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init routing metrics: %w", err)
	}

	return b, nil
}

func (b *Builder) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	b.metrics = &builderMetrics{}

	b.metrics.routesBuilt, err = meter.Int64Counter(
		"routes_built_total",
		metric.WithDescription("Route artifacts built"),
		metric.WithUnit("{route}"),
	)
	if err != nil {
		return err
	}

	b.metrics.buildErrors, err = meter.Int64Counter(
		"route_build_errors_total",
		metric.WithDescription("Route builds that failed"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	b.metrics.approvalsRequired, err = meter.Int64Counter(
		"route_approvals_required_total",
		metric.WithDescription("Routes that need an ERC-20 approval first"),
		metric.WithUnit("{route}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Build produces the transaction skeleton for one quote. The native side of
// a pair is substituted with the wrapped token inside paths and params; the
// V2 router selector follows which side is native. user is optional: without
// it the recipient stays the zero placeholder and the approval check is
// conservative.
func (b *Builder) Build(ctx context.Context, quote *quotingDomain.VenueQuote, tokenIn, tokenOut *asset.Asset, amountIn *big.Int, slippagePercent float64, user *common.Address) (*domain.RouteArtifact, error) {
	ctx, span := b.tracer.Start(ctx, "RouteBuilder.Build")
	defer span.End()

	if quote == nil || quote.AmountOut == nil {
		return nil, b.fail(ctx, span, apperror.New(apperror.CodeInvalidQuote))
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, b.fail(ctx, span, apperror.New(apperror.CodeInvalidAmount))
	}
	span.SetAttributes(
		attribute.String("protocol", string(quote.Protocol)),
		attribute.String("venue", quote.VenueName),
	)

	minOut, err := domain.ApplySlippage(quote.AmountOut, slippagePercent)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidSlippage):
			return nil, b.fail(ctx, span, apperror.New(apperror.CodeInvalidSlippage, apperror.WithCause(err)))
		default:
			return nil, b.fail(ctx, span, apperror.New(apperror.CodeInvalidAmount, apperror.WithCause(err)))
		}
	}

	wrappedIn, err := b.wrappedAddr(tokenIn)
	if err != nil {
		return nil, b.fail(ctx, span, err)
	}
	wrappedOut, err := b.wrappedAddr(tokenOut)
	if err != nil {
		return nil, b.fail(ctx, span, err)
	}

	recipient := common.Address{}
	if user != nil {
		recipient = *user
	}

	deadline := time.Now().Unix() + b.config.DeadlineSeconds
	deadlineArg := big.NewInt(deadline)

	var (
		target common.Address
		data   []byte
		value  = big.NewInt(0)
	)

	switch quote.Protocol {
	case quotingDomain.ProtocolV2:
		target = b.config.V2Router
		path := []common.Address{wrappedIn, wrappedOut}
		switch {
		case tokenIn.IsNative():
			data, err = b.encoder.SwapExactETHForTokens(minOut, path, recipient, deadlineArg)
			value = amountIn
		case tokenOut.IsNative():
			data, err = b.encoder.SwapExactTokensForETH(amountIn, minOut, path, recipient, deadlineArg)
		default:
			data, err = b.encoder.SwapExactTokensForTokens(amountIn, minOut, path, recipient, deadlineArg)
		}
	case quotingDomain.ProtocolV3:
		target = b.config.V3SwapRouter
		data, err = b.encoder.ExactInputSingle(wrappedIn, wrappedOut, quote.FeeTier, recipient, deadlineArg, amountIn, minOut)
		if tokenIn.IsNative() {
			value = amountIn
		}
	default:
		return nil, b.fail(ctx, span, apperror.New(apperror.CodeUnsupportedVenue,
			apperror.WithContext(string(quote.Protocol))))
	}
	if err != nil {
		return nil, b.fail(ctx, span, err)
	}

	approval := b.approvalFor(ctx, tokenIn, wrappedIn, target, amountIn, user)
	if approval.Needed {
		b.metrics.approvalsRequired.Add(ctx, 1)
		calldata, encErr := b.encoder.Approve(target, amountIn)
		if encErr != nil {
			return nil, b.fail(ctx, span, encErr)
		}
		approval = approval.WithCalldata(calldata)
	}

	b.metrics.routesBuilt.Add(ctx, 1, metric.WithAttributes(
		attribute.String("protocol", string(quote.Protocol)),
	))

	return &domain.RouteArtifact{
		To:           target,
		Data:         data,
		Value:        value,
		From:         recipient,
		GasEstimate:  quote.GasEstimate,
		Deadline:     deadline,
		MinAmountOut: minOut,
		Approval:     approval,
	}, nil
}

// approvalFor computes the route's approval descriptor. A read failure is
// answered conservatively: requiring an unnecessary approval is harmless,
// skipping a necessary one bricks the swap.
func (b *Builder) approvalFor(ctx context.Context, tokenIn *asset.Asset, token, spender common.Address, amountIn *big.Int, user *common.Address) domain.Approval {
	if tokenIn.IsNative() {
		return domain.NoApproval(msgNativeNoApproval)
	}
	if user == nil {
		return domain.ApprovalNeeded(token, spender, amountIn, msgApprovalRequired)
	}

	allowance, err := b.allowances.Allowance(ctx, token, *user, spender)
	if err != nil {
		b.logger.Warn(ctx, "allowance check failed, requiring approval",
			"token", token.Hex(),
			"owner", user.Hex(),
			"error", err)
		return domain.ApprovalNeeded(token, spender, amountIn, msgApprovalRequired)
	}
	if allowance.Covers(amountIn) {
		return domain.NoApproval(msgNoApproval)
	}
	return domain.ApprovalNeeded(token, spender, amountIn, msgApprovalRequired)
}

// wrappedAddr maps the native coin to its wrapped ERC-20 address; token
// assets pass through.
func (b *Builder) wrappedAddr(tok *asset.Asset) (common.Address, error) {
	if !tok.IsNative() {
		return tok.Address(), nil
	}
	wrapped, ok := b.registry.GetWrappedNative(b.config.ChainID)
	if !ok {
		return common.Address{}, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("wrapped native asset not registered"))
	}
	return wrapped.Address(), nil
}

func (b *Builder) fail(ctx context.Context, span trace.Span, err error) error {
	b.metrics.buildErrors.Add(ctx, 1)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
