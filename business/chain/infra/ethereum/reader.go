// Package ethereum provides Ethereum infrastructure adapters for the chain context.
package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/dex-aggregator/business/chain/domain"
	"github.com/fd1az/dex-aggregator/internal/apperror"
	"github.com/fd1az/dex-aggregator/internal/cache"
	"github.com/fd1az/dex-aggregator/internal/circuitbreaker"
	"github.com/fd1az/dex-aggregator/internal/logger"
	"github.com/fd1az/dex-aggregator/internal/ratelimit"
)

const (
	tracerName = "github.com/fd1az/dex-aggregator/business/chain/infra/ethereum"
	meterName  = "github.com/fd1az/dex-aggregator/business/chain/infra/ethereum"
)

// ReaderConfig holds configuration for the contract reader.
type ReaderConfig struct {
	ReadTimeout    time.Duration // Per-read deadline
	MaxRetries     int           // Transport retry attempts
	InitialBackoff time.Duration // First retry delay
	MaxBackoff     time.Duration // Retry delay ceiling
	RateLimitRPS   float64       // Upstream RPC request budget
	TokenInfoTTL   time.Duration // ERC-20 metadata cache TTL
}

// DefaultReaderConfig returns sensible defaults.
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{
		ReadTimeout:    30 * time.Second,
		MaxRetries:     3,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		RateLimitRPS:   50,
		TokenInfoTTL:   10 * time.Minute,
	}
}

// readerMetrics holds OTEL metric instruments.
type readerMetrics struct {
	callsTotal  metric.Int64Counter
	callErrors  metric.Int64Counter
	callLatency metric.Float64Histogram
	retries     metric.Int64Counter
}

// Reader implements typed contract reads over a single eth_call plumbing
// path: rate limit, per-read deadline, circuit breaker and transport retry.
// Reverts are surfaced immediately, they are answers, not failures.
type Reader struct {
	client *ethclient.Client
	config ReaderConfig
	logger logger.LoggerInterface

	erc20ABI     abi.ABI
	v2FactoryABI abi.ABI
	v2PairABI    abi.ABI
	v2RouterABI  abi.ABI
	v3FactoryABI abi.ABI
	v3PoolABI    abi.ABI
	quoterV2ABI  abi.ABI
	quoterV1ABI  abi.ABI

	limiter   *ratelimit.Limiter
	cb        *circuitbreaker.CircuitBreaker[[]byte]
	infoCache *cache.Cache[string, *domain.TokenInfo]

	tracer  trace.Tracer
	metrics *readerMetrics
}

// NewReader creates a contract reader on top of an established client.
func NewReader(client *ethclient.Client, cfg ReaderConfig, log logger.LoggerInterface) (*Reader, error) {
	r := &Reader{
		client:    client,
		config:    cfg,
		logger:    log,
		infoCache: cache.New[string, *domain.TokenInfo](cfg.TokenInfoTTL),
		tracer:    otel.Tracer(tracerName),
	}

	var err error
	for src, dst := range map[string]*abi.ABI{
		ERC20ABI:     &r.erc20ABI,
		V2FactoryABI: &r.v2FactoryABI,
		V2PairABI:    &r.v2PairABI,
		V2RouterABI:  &r.v2RouterABI,
		V3FactoryABI: &r.v3FactoryABI,
		V3PoolABI:    &r.v3PoolABI,
		QuoterV2ABI:  &r.quoterV2ABI,
		QuoterV1ABI:  &r.quoterV1ABI,
	} {
		if *dst, err = abi.JSON(strings.NewReader(src)); err != nil {
			return nil, fmt.Errorf("failed to parse ABI: %w", err)
		}
	}

	burst := int(cfg.RateLimitRPS / 5)
	if burst < 1 {
		burst = 1
	}
	r.limiter = ratelimit.NewWithBurst(cfg.RateLimitRPS, burst)

	cbCfg := circuitbreaker.DefaultConfig("eth-reader")
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Info(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	r.cb = circuitbreaker.New[[]byte](cbCfg)

	if err := r.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return r, nil
}

// initMetrics initializes OTEL metric instruments.
func (r *Reader) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	r.metrics = &readerMetrics{}

	r.metrics.callsTotal, err = meter.Int64Counter(
		"eth_reader_calls_total",
		metric.WithDescription("Total contract read calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return err
	}

	r.metrics.callErrors, err = meter.Int64Counter(
		"eth_reader_call_errors_total",
		metric.WithDescription("Total contract read failures"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	r.metrics.callLatency, err = meter.Float64Histogram(
		"eth_reader_call_latency_ms",
		metric.WithDescription("Contract read latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	r.metrics.retries, err = meter.Int64Counter(
		"eth_reader_retries_total",
		metric.WithDescription("Transport-level read retries"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// isRevert reports whether an eth_call failure is a contract revert rather
// than a transport problem.
func isRevert(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "execution reverted") ||
		strings.Contains(msg, "revert") ||
		strings.Contains(msg, "invalid opcode") ||
		strings.Contains(msg, "out of gas")
}

// call runs a single eth_call through the read plumbing and returns the raw
// return data.
func (r *Reader) call(ctx context.Context, method string, to common.Address, data []byte) ([]byte, error) {
	ctx, span := r.tracer.Start(ctx, "eth.read."+method,
		trace.WithAttributes(attribute.String("contract", to.Hex())),
	)
	defer span.End()

	start := time.Now()
	r.metrics.callsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))

	if err := r.limiter.Wait(ctx); err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeRequestTimeout,
			apperror.WithCause(err),
			apperror.WithContext("rate limiter wait interrupted"))
	}

	callCtx, cancel := context.WithTimeout(ctx, r.config.ReadTimeout)
	defer cancel()

	attempt := 0
	operation := func() ([]byte, error) {
		if attempt > 0 {
			r.metrics.retries.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))
		}
		attempt++

		out, err := r.cb.Execute(func() ([]byte, error) {
			return r.client.CallContract(callCtx, ethereum.CallMsg{
				To:   &to,
				Data: data,
			}, nil)
		})
		if err != nil {
			// Reverts and an open breaker are not worth retrying.
			if isRevert(err) || errors.Is(err, gobreaker.ErrOpenState) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return out, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.config.InitialBackoff
	bo.MaxInterval = r.config.MaxBackoff

	out, err := backoff.Retry(callCtx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(r.config.MaxRetries)),
	)

	r.metrics.callLatency.Record(ctx, float64(time.Since(start).Milliseconds()),
		metric.WithAttributes(attribute.String("method", method)))

	if err != nil {
		r.metrics.callErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))
		span.RecordError(err)
		span.SetStatus(codes.Error, "call failed")
		return nil, r.classify(method, err)
	}

	span.SetStatus(codes.Ok, "called")
	return out, nil
}

// classify turns a raw call failure into a typed application error.
func (r *Reader) classify(method string, err error) error {
	switch {
	case isRevert(err):
		return apperror.New(apperror.CodeExecutionReverted,
			apperror.WithCause(err),
			apperror.WithContext(method))
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return apperror.New(apperror.CodeCircuitOpen,
			apperror.WithCause(err),
			apperror.WithContext(method))
	case errors.Is(err, context.DeadlineExceeded):
		return apperror.New(apperror.CodeRequestTimeout,
			apperror.WithCause(err),
			apperror.WithContext(method))
	default:
		return apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext(method))
	}
}

// IsContract reports whether the address has deployed code.
func (r *Reader) IsContract(ctx context.Context, addr common.Address) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "eth.read.code_at")
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, r.config.ReadTimeout)
	defer cancel()

	code, err := r.client.CodeAt(callCtx, addr, nil)
	if err != nil {
		span.RecordError(err)
		return false, r.classify("codeAt", err)
	}
	return len(code) > 0, nil
}

// ChainID returns the chain ID reported by the connected node.
func (r *Reader) ChainID(ctx context.Context) (*big.Int, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.config.ReadTimeout)
	defer cancel()

	id, err := r.client.ChainID(callCtx)
	if err != nil {
		return nil, r.classify("chainId", err)
	}
	return id, nil
}

// Close releases reader-held resources.
func (r *Reader) Close() error {
	r.infoCache.Close()
	return nil
}

// ---------------------------------------------------------------------------
// Constant-product (V2) reads

// V2GetPair resolves the pair address for two tokens. A factory that knows
// no such pair answers with the zero address, surfaced as a typed error.
func (r *Reader) V2GetPair(ctx context.Context, factory, tokenA, tokenB common.Address) (common.Address, error) {
	data, err := r.v2FactoryABI.Pack("getPair", tokenA, tokenB)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to encode call: %w", err)
	}

	out, err := r.call(ctx, "v2.getPair", factory, data)
	if err != nil {
		return common.Address{}, err
	}

	addr, err := r.unpackAddress(r.v2FactoryABI, "getPair", out)
	if err != nil {
		return common.Address{}, err
	}
	if addr == (common.Address{}) {
		return common.Address{}, apperror.New(apperror.CodePoolNotFound,
			apperror.WithContext(fmt.Sprintf("no pair for %s/%s", tokenA.Hex(), tokenB.Hex())))
	}
	return addr, nil
}

// V2AllPairsLength returns the number of pairs the factory has created.
func (r *Reader) V2AllPairsLength(ctx context.Context, factory common.Address) (*big.Int, error) {
	data, err := r.v2FactoryABI.Pack("allPairsLength")
	if err != nil {
		return nil, fmt.Errorf("failed to encode call: %w", err)
	}

	out, err := r.call(ctx, "v2.allPairsLength", factory, data)
	if err != nil {
		return nil, err
	}
	return r.unpackBig(r.v2FactoryABI, "allPairsLength", out)
}

// V2AllPairs returns the pair address at the given factory index.
func (r *Reader) V2AllPairs(ctx context.Context, factory common.Address, index *big.Int) (common.Address, error) {
	data, err := r.v2FactoryABI.Pack("allPairs", index)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to encode call: %w", err)
	}

	out, err := r.call(ctx, "v2.allPairs", factory, data)
	if err != nil {
		return common.Address{}, err
	}
	return r.unpackAddress(r.v2FactoryABI, "allPairs", out)
}

// V2Reserves returns the current reserves of a pair.
func (r *Reader) V2Reserves(ctx context.Context, pair common.Address) (reserve0, reserve1 *big.Int, blockTimestampLast uint32, err error) {
	data, err := r.v2PairABI.Pack("getReserves")
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to encode call: %w", err)
	}

	out, err := r.call(ctx, "v2.getReserves", pair, data)
	if err != nil {
		return nil, nil, 0, err
	}

	values, err := r.v2PairABI.Unpack("getReserves", out)
	if err != nil || len(values) < 3 {
		return nil, nil, 0, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("malformed getReserves result from %s", pair.Hex())))
	}

	return values[0].(*big.Int), values[1].(*big.Int), values[2].(uint32), nil
}

// V2Token0 returns the pair's first token.
func (r *Reader) V2Token0(ctx context.Context, pair common.Address) (common.Address, error) {
	return r.readAddress(ctx, r.v2PairABI, "token0", "v2.token0", pair)
}

// V2Token1 returns the pair's second token.
func (r *Reader) V2Token1(ctx context.Context, pair common.Address) (common.Address, error) {
	return r.readAddress(ctx, r.v2PairABI, "token1", "v2.token1", pair)
}

// V2TotalSupply returns the pair's LP token supply.
func (r *Reader) V2TotalSupply(ctx context.Context, pair common.Address) (*big.Int, error) {
	data, err := r.v2PairABI.Pack("totalSupply")
	if err != nil {
		return nil, fmt.Errorf("failed to encode call: %w", err)
	}

	out, err := r.call(ctx, "v2.totalSupply", pair, data)
	if err != nil {
		return nil, err
	}
	return r.unpackBig(r.v2PairABI, "totalSupply", out)
}

// V2Pool reads the full pair state in one pass.
func (r *Reader) V2Pool(ctx context.Context, pair common.Address) (*domain.V2Pool, error) {
	token0, err := r.V2Token0(ctx, pair)
	if err != nil {
		return nil, err
	}
	token1, err := r.V2Token1(ctx, pair)
	if err != nil {
		return nil, err
	}
	reserve0, reserve1, ts, err := r.V2Reserves(ctx, pair)
	if err != nil {
		return nil, err
	}
	supply, err := r.V2TotalSupply(ctx, pair)
	if err != nil {
		return nil, err
	}

	return &domain.V2Pool{
		Address:            pair,
		Token0:             token0,
		Token1:             token1,
		Reserve0:           reserve0,
		Reserve1:           reserve1,
		BlockTimestampLast: ts,
		TotalSupply:        supply,
	}, nil
}

// V2AmountOut asks the router for the output of a single-hop swap.
func (r *Reader) V2AmountOut(ctx context.Context, router common.Address, amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	data, err := r.v2RouterABI.Pack("getAmountOut", amountIn, reserveIn, reserveOut)
	if err != nil {
		return nil, fmt.Errorf("failed to encode call: %w", err)
	}

	out, err := r.call(ctx, "v2.getAmountOut", router, data)
	if err != nil {
		return nil, err
	}
	return r.unpackBig(r.v2RouterABI, "getAmountOut", out)
}

// V2AmountsOut asks the router for the outputs along a path.
func (r *Reader) V2AmountsOut(ctx context.Context, router common.Address, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	data, err := r.v2RouterABI.Pack("getAmountsOut", amountIn, path)
	if err != nil {
		return nil, fmt.Errorf("failed to encode call: %w", err)
	}

	out, err := r.call(ctx, "v2.getAmountsOut", router, data)
	if err != nil {
		return nil, err
	}
	return r.unpackBigSlice(r.v2RouterABI, "getAmountsOut", out)
}

// V2AmountsIn asks the router for the inputs required along a path.
func (r *Reader) V2AmountsIn(ctx context.Context, router common.Address, amountOut *big.Int, path []common.Address) ([]*big.Int, error) {
	data, err := r.v2RouterABI.Pack("getAmountsIn", amountOut, path)
	if err != nil {
		return nil, fmt.Errorf("failed to encode call: %w", err)
	}

	out, err := r.call(ctx, "v2.getAmountsIn", router, data)
	if err != nil {
		return nil, err
	}
	return r.unpackBigSlice(r.v2RouterABI, "getAmountsIn", out)
}

// ---------------------------------------------------------------------------
// Concentrated-liquidity (V3) reads

// V3GetPool resolves the pool address for a token pair and fee tier. Absent
// pools answer with the zero address, surfaced as a typed error.
func (r *Reader) V3GetPool(ctx context.Context, factory, tokenA, tokenB common.Address, fee uint32) (common.Address, error) {
	data, err := r.v3FactoryABI.Pack("getPool", tokenA, tokenB, big.NewInt(int64(fee)))
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to encode call: %w", err)
	}

	out, err := r.call(ctx, "v3.getPool", factory, data)
	if err != nil {
		return common.Address{}, err
	}

	addr, err := r.unpackAddress(r.v3FactoryABI, "getPool", out)
	if err != nil {
		return common.Address{}, err
	}
	if addr == (common.Address{}) {
		return common.Address{}, apperror.New(apperror.CodePoolNotFound,
			apperror.WithContext(fmt.Sprintf("no pool for %s/%s fee %d", tokenA.Hex(), tokenB.Hex(), fee)))
	}
	return addr, nil
}

// V3Slot0 returns the pool's packed price slot.
func (r *Reader) V3Slot0(ctx context.Context, pool common.Address) (*domain.Slot0, error) {
	data, err := r.v3PoolABI.Pack("slot0")
	if err != nil {
		return nil, fmt.Errorf("failed to encode call: %w", err)
	}

	out, err := r.call(ctx, "v3.slot0", pool, data)
	if err != nil {
		return nil, err
	}

	values, err := r.v3PoolABI.Unpack("slot0", out)
	if err != nil || len(values) < 7 {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("malformed slot0 result from %s", pool.Hex())))
	}

	return &domain.Slot0{
		SqrtPriceX96: values[0].(*big.Int),
		Tick:         values[1].(*big.Int),
		Unlocked:     values[6].(bool),
	}, nil
}

// V3Liquidity returns the pool's in-range liquidity.
func (r *Reader) V3Liquidity(ctx context.Context, pool common.Address) (*big.Int, error) {
	data, err := r.v3PoolABI.Pack("liquidity")
	if err != nil {
		return nil, fmt.Errorf("failed to encode call: %w", err)
	}

	out, err := r.call(ctx, "v3.liquidity", pool, data)
	if err != nil {
		return nil, err
	}
	return r.unpackBig(r.v3PoolABI, "liquidity", out)
}

// V3Fee returns the pool's fee tier.
func (r *Reader) V3Fee(ctx context.Context, pool common.Address) (uint32, error) {
	data, err := r.v3PoolABI.Pack("fee")
	if err != nil {
		return 0, fmt.Errorf("failed to encode call: %w", err)
	}

	out, err := r.call(ctx, "v3.fee", pool, data)
	if err != nil {
		return 0, err
	}

	fee, err := r.unpackBig(r.v3PoolABI, "fee", out)
	if err != nil {
		return 0, err
	}
	return uint32(fee.Uint64()), nil
}

// V3TickSpacing returns the pool's tick spacing.
func (r *Reader) V3TickSpacing(ctx context.Context, pool common.Address) (int64, error) {
	data, err := r.v3PoolABI.Pack("tickSpacing")
	if err != nil {
		return 0, fmt.Errorf("failed to encode call: %w", err)
	}

	out, err := r.call(ctx, "v3.tickSpacing", pool, data)
	if err != nil {
		return 0, err
	}

	spacing, err := r.unpackBig(r.v3PoolABI, "tickSpacing", out)
	if err != nil {
		return 0, err
	}
	return spacing.Int64(), nil
}

// V3Token0 returns the pool's first token.
func (r *Reader) V3Token0(ctx context.Context, pool common.Address) (common.Address, error) {
	return r.readAddress(ctx, r.v3PoolABI, "token0", "v3.token0", pool)
}

// V3Token1 returns the pool's second token.
func (r *Reader) V3Token1(ctx context.Context, pool common.Address) (common.Address, error) {
	return r.readAddress(ctx, r.v3PoolABI, "token1", "v3.token1", pool)
}

// V3Pool reads the full pool state in one pass.
func (r *Reader) V3Pool(ctx context.Context, pool common.Address) (*domain.V3Pool, error) {
	token0, err := r.V3Token0(ctx, pool)
	if err != nil {
		return nil, err
	}
	token1, err := r.V3Token1(ctx, pool)
	if err != nil {
		return nil, err
	}
	fee, err := r.V3Fee(ctx, pool)
	if err != nil {
		return nil, err
	}
	spacing, err := r.V3TickSpacing(ctx, pool)
	if err != nil {
		return nil, err
	}
	slot0, err := r.V3Slot0(ctx, pool)
	if err != nil {
		return nil, err
	}
	liquidity, err := r.V3Liquidity(ctx, pool)
	if err != nil {
		return nil, err
	}

	return &domain.V3Pool{
		Address:      pool,
		Token0:       token0,
		Token1:       token1,
		Fee:          fee,
		TickSpacing:  spacing,
		SqrtPriceX96: slot0.SqrtPriceX96,
		Tick:         slot0.Tick,
		Liquidity:    liquidity,
	}, nil
}

// V3QuoteExactInputSingle simulates a single-hop swap through the quoter.
// It speaks QuoterV2 first and falls back to the legacy V1 signature when
// the deployment rejects the tuple call.
func (r *Reader) V3QuoteExactInputSingle(ctx context.Context, quoter, tokenIn, tokenOut common.Address, fee uint32, amountIn *big.Int) (*domain.V3Quote, error) {
	data, err := r.quoterV2ABI.Pack("quoteExactInputSingle", QuoteExactInputSingleParams{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		AmountIn:          amountIn,
		Fee:               big.NewInt(int64(fee)),
		SqrtPriceLimitX96: big.NewInt(0), // No price limit
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode call: %w", err)
	}

	out, err := r.call(ctx, "v3.quoteExactInputSingle", quoter, data)
	if err == nil {
		if quote, uerr := r.unpackQuoterV2(out); uerr == nil {
			return quote, nil
		}
		// Fall through: a V1 deployment answers the tuple selector with
		// data we cannot decode.
	} else if apperror.GetCode(err) != apperror.CodeExecutionReverted {
		return nil, err
	}

	return r.quoteV1(ctx, quoter, tokenIn, tokenOut, fee, amountIn)
}

// quoteV1 retries the quote through the legacy flat-argument interface.
func (r *Reader) quoteV1(ctx context.Context, quoter, tokenIn, tokenOut common.Address, fee uint32, amountIn *big.Int) (*domain.V3Quote, error) {
	data, err := r.quoterV1ABI.Pack("quoteExactInputSingle",
		tokenIn, tokenOut, big.NewInt(int64(fee)), amountIn, big.NewInt(0))
	if err != nil {
		return nil, fmt.Errorf("failed to encode call: %w", err)
	}

	out, err := r.call(ctx, "v3.quoteExactInputSingle.v1", quoter, data)
	if err != nil {
		return nil, err
	}

	amountOut, err := r.unpackBig(r.quoterV1ABI, "quoteExactInputSingle", out)
	if err != nil {
		return nil, err
	}

	return &domain.V3Quote{AmountOut: amountOut}, nil
}

// unpackQuoterV2 decodes the four-word QuoterV2 result.
func (r *Reader) unpackQuoterV2(out []byte) (*domain.V3Quote, error) {
	values, err := r.quoterV2ABI.Unpack("quoteExactInputSingle", out)
	if err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	if len(values) < 4 {
		return nil, fmt.Errorf("unexpected output length: %d", len(values))
	}

	return &domain.V3Quote{
		AmountOut:         values[0].(*big.Int),
		SqrtPriceX96After: values[1].(*big.Int),
		TicksCrossed:      values[2].(uint32),
		GasEstimate:       values[3].(*big.Int),
	}, nil
}

// ---------------------------------------------------------------------------
// Unpack helpers

func (r *Reader) readAddress(ctx context.Context, contractABI abi.ABI, method, spanName string, to common.Address) (common.Address, error) {
	data, err := contractABI.Pack(method)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to encode call: %w", err)
	}

	out, err := r.call(ctx, spanName, to, data)
	if err != nil {
		return common.Address{}, err
	}
	return r.unpackAddress(contractABI, method, out)
}

func (r *Reader) unpackAddress(contractABI abi.ABI, method string, out []byte) (common.Address, error) {
	values, err := contractABI.Unpack(method, out)
	if err != nil || len(values) < 1 {
		return common.Address{}, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("malformed %s result", method)))
	}
	return values[0].(common.Address), nil
}

func (r *Reader) unpackBig(contractABI abi.ABI, method string, out []byte) (*big.Int, error) {
	values, err := contractABI.Unpack(method, out)
	if err != nil || len(values) < 1 {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("malformed %s result", method)))
	}
	switch v := values[0].(type) {
	case *big.Int:
		return v, nil
	case uint8:
		return big.NewInt(int64(v)), nil
	case uint32:
		return big.NewInt(int64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext(fmt.Sprintf("unexpected %s result type %T", method, values[0])))
	}
}

func (r *Reader) unpackBigSlice(contractABI abi.ABI, method string, out []byte) ([]*big.Int, error) {
	values, err := contractABI.Unpack(method, out)
	if err != nil || len(values) < 1 {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("malformed %s result", method)))
	}
	amounts, ok := values[0].([]*big.Int)
	if !ok {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext(fmt.Sprintf("unexpected %s result type %T", method, values[0])))
	}
	return amounts, nil
}
