package app

import (
	"context"
	"errors"
	"io"
	"math/big"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	chainDomain "github.com/fd1az/dex-aggregator/business/chain/domain"
	"github.com/fd1az/dex-aggregator/business/quoting/domain"
	routingDomain "github.com/fd1az/dex-aggregator/business/routing/domain"
	"github.com/fd1az/dex-aggregator/internal/apperror"
	"github.com/fd1az/dex-aggregator/internal/asset"
	"github.com/fd1az/dex-aggregator/internal/logger"
)

type fakeAdapter struct {
	name     string
	protocol domain.Protocol
	quotes   []*domain.VenueQuote
	err      error

	gotTokenIn  common.Address
	gotTokenOut common.Address
	calls       atomic.Int32
}

func (f *fakeAdapter) QuoteAll(ctx context.Context, tokenIn, tokenOut *asset.Asset, amountIn *big.Int) ([]*domain.VenueQuote, error) {
	f.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.gotTokenIn = tokenIn.Address()
	f.gotTokenOut = tokenOut.Address()
	if f.err != nil {
		return nil, f.err
	}
	return f.quotes, nil
}

func (f *fakeAdapter) PoolExists(ctx context.Context, tokenA, tokenB common.Address, feeTier uint32) (bool, error) {
	return len(f.quotes) > 0, nil
}

func (f *fakeAdapter) TokenInfo(ctx context.Context, token common.Address) (*chainDomain.TokenInfo, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Version() domain.Protocol { return f.protocol }

type fakeTokenReader struct {
	infos map[common.Address]*chainDomain.TokenInfo
}

func (f *fakeTokenReader) TokenInfo(ctx context.Context, token common.Address) (*chainDomain.TokenInfo, error) {
	info, ok := f.infos[token]
	if !ok {
		return nil, apperror.New(apperror.CodeExecutionReverted, apperror.WithContext(token.Hex()))
	}
	return info, nil
}

type fakeRouteBuilder struct {
	built int
}

func (f *fakeRouteBuilder) Build(ctx context.Context, quote *domain.VenueQuote, tokenIn, tokenOut *asset.Asset, amountIn *big.Int, slippagePercent float64, user *common.Address) (*routingDomain.RouteArtifact, error) {
	f.built++
	minOut, err := routingDomain.ApplySlippage(quote.AmountOut, slippagePercent)
	if err != nil {
		return nil, err
	}
	return &routingDomain.RouteArtifact{
		To:           quote.PoolAddress,
		Value:        big.NewInt(0),
		MinAmountOut: minOut,
	}, nil
}

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func newTestAggregator(t *testing.T, adapters []VenueAdapter, reader TokenReader, routes RouteBuilder) *Aggregator {
	t.Helper()
	if reader == nil {
		reader = &fakeTokenReader{}
	}
	agg, err := NewAggregator(adapters, reader, asset.DefaultRegistry(), routes, asset.ChainIDEthereum, testLogger())
	if err != nil {
		t.Fatalf("NewAggregator() error = %v", err)
	}
	return agg
}

func v3Quote(amountOut int64, impact float64, feeTier uint32) *domain.VenueQuote {
	pool := common.BigToAddress(big.NewInt(int64(feeTier)))
	return domain.NewVenueQuote("Uniswap", domain.ProtocolV3, big.NewInt(amountOut), impact, 150_000, feeTier, pool)
}

func v2Quote(amountOut int64, impact float64) *domain.VenueQuote {
	pool := common.BigToAddress(big.NewInt(2))
	return domain.NewVenueQuote("Uniswap", domain.ProtocolV2, big.NewInt(amountOut), impact, 150_000, 0, pool)
}

func TestAggregateRanksTiers(t *testing.T) {
	// Two live tiers out of four: the bigger output wins regardless of
	// adapter-internal ordering.
	v3 := &fakeAdapter{name: "Uniswap", protocol: domain.ProtocolV3, quotes: []*domain.VenueQuote{
		v3Quote(1_000_000_000, 0.10, 500),
		v3Quote(1_002_000_000, 0.12, 3000),
	}}
	agg := newTestAggregator(t, []VenueAdapter{v3}, nil, nil)

	got, err := agg.Aggregate(context.Background(), asset.WETH, asset.USDC, big.NewInt(1_000_000_000_000_000_000))
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	if got.Best.FeeTier != 3000 {
		t.Errorf("Best.FeeTier = %d, want 3000", got.Best.FeeTier)
	}
	if len(got.Quotes) != 2 {
		t.Fatalf("len(Quotes) = %d, want 2", len(got.Quotes))
	}
	if got.Quotes[0].AmountOut.Cmp(got.Quotes[1].AmountOut) < 0 {
		t.Error("quotes are not ranked by amountOut descending")
	}
	if want := 0.20; !closeTo(got.Savings.Percentage, want, 0.0001) {
		t.Errorf("Savings.Percentage = %v, want %v", got.Savings.Percentage, want)
	}
	if want := big.NewInt(2_000_000); got.Savings.Amount.Cmp(want) != 0 {
		t.Errorf("Savings.Amount = %s, want %s", got.Savings.Amount, want)
	}
	if want := "Use Uniswap V3 (0.3% fee tier) for 0.20% better price"; got.Recommendation != want {
		t.Errorf("Recommendation = %q, want %q", got.Recommendation, want)
	}
}

func TestAggregateMergesVenues(t *testing.T) {
	v2 := &fakeAdapter{name: "Uniswap", protocol: domain.ProtocolV2, quotes: []*domain.VenueQuote{
		v2Quote(990_000_000, 0.50),
	}}
	v3 := &fakeAdapter{name: "Uniswap", protocol: domain.ProtocolV3, quotes: []*domain.VenueQuote{
		v3Quote(1_002_000_000, 0.12, 3000),
		v3Quote(1_000_000_000, 0.10, 500),
	}}
	agg := newTestAggregator(t, []VenueAdapter{v2, v3}, nil, nil)

	got, err := agg.Aggregate(context.Background(), asset.WETH, asset.USDC, big.NewInt(1_000_000_000_000_000_000))
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	if len(got.Quotes) != 3 {
		t.Fatalf("len(Quotes) = %d, want 3", len(got.Quotes))
	}
	if got.Best != got.Quotes[0] {
		t.Error("Best is not the first ranked quote")
	}
	if got.Quotes[2].Protocol != domain.ProtocolV2 {
		t.Errorf("worst quote protocol = %s, want V2", got.Quotes[2].Protocol)
	}
}

func TestAggregateAbsorbsVenueFailure(t *testing.T) {
	failing := &fakeAdapter{name: "Uniswap", protocol: domain.ProtocolV2,
		err: apperror.New(apperror.CodeEthereumRPCError)}
	healthy := &fakeAdapter{name: "Uniswap", protocol: domain.ProtocolV3, quotes: []*domain.VenueQuote{
		v3Quote(1_000_000_000, 0.10, 500),
	}}
	agg := newTestAggregator(t, []VenueAdapter{failing, healthy}, nil, nil)

	got, err := agg.Aggregate(context.Background(), asset.WETH, asset.USDC, big.NewInt(1_000_000))
	if err != nil {
		t.Fatalf("Aggregate() error = %v, want absorbed venue failure", err)
	}
	if failing.calls.Load() != 1 || healthy.calls.Load() != 1 {
		t.Error("expected both adapters to be queried")
	}
	if len(got.Quotes) != 1 {
		t.Fatalf("len(Quotes) = %d, want 1", len(got.Quotes))
	}
	if got.Savings.Percentage != 0 {
		t.Errorf("Savings.Percentage = %v, want 0 for a single survivor", got.Savings.Percentage)
	}
}

func TestAggregateNoLiquidity(t *testing.T) {
	tests := []struct {
		name     string
		adapters []VenueAdapter
	}{
		{
			name: "all_venues_error",
			adapters: []VenueAdapter{
				&fakeAdapter{name: "Uniswap", protocol: domain.ProtocolV2, err: errors.New("dial tcp: connection refused")},
				&fakeAdapter{name: "Uniswap", protocol: domain.ProtocolV3, err: apperror.New(apperror.CodeExecutionReverted)},
			},
		},
		{
			name: "all_venues_empty",
			adapters: []VenueAdapter{
				&fakeAdapter{name: "Uniswap", protocol: domain.ProtocolV2},
				&fakeAdapter{name: "Uniswap", protocol: domain.ProtocolV3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := newTestAggregator(t, tt.adapters, nil, nil)

			_, err := agg.Aggregate(context.Background(), asset.WETH, asset.USDC, big.NewInt(1_000_000))
			if err == nil {
				t.Fatal("Aggregate() error = nil, want no liquidity")
			}
			if code := apperror.GetCode(err); code != apperror.CodeNoLiquidity {
				t.Errorf("error code = %s, want %s", code, apperror.CodeNoLiquidity)
			}
		})
	}
}

func TestAggregateNativeInputUsesWrapped(t *testing.T) {
	adapter := &fakeAdapter{name: "Uniswap", protocol: domain.ProtocolV2, quotes: []*domain.VenueQuote{
		v2Quote(1_000_000_000, 0.10),
	}}
	agg := newTestAggregator(t, []VenueAdapter{adapter}, nil, nil)

	got, err := agg.Aggregate(context.Background(), asset.ETH, asset.USDC, big.NewInt(1_000_000_000_000_000_000))
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	if adapter.gotTokenIn != asset.AddrWETHEthereum {
		t.Errorf("adapter saw tokenIn = %s, want wrapped native %s", adapter.gotTokenIn, asset.AddrWETHEthereum)
	}
	if !got.TokenIn.IsNative() {
		t.Error("aggregated TokenIn lost its native flag")
	}
}

func TestAggregateRejectsBadInput(t *testing.T) {
	adapter := &fakeAdapter{name: "Uniswap", protocol: domain.ProtocolV2, quotes: []*domain.VenueQuote{
		v2Quote(1_000_000_000, 0.10),
	}}
	agg := newTestAggregator(t, []VenueAdapter{adapter}, nil, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		tokenIn  *asset.Asset
		tokenOut *asset.Asset
		amountIn *big.Int
		wantCode apperror.Code
	}{
		{name: "nil_amount", tokenIn: asset.WETH, tokenOut: asset.USDC, amountIn: nil, wantCode: apperror.CodeInvalidAmount},
		{name: "zero_amount", tokenIn: asset.WETH, tokenOut: asset.USDC, amountIn: big.NewInt(0), wantCode: apperror.CodeInvalidAmount},
		{name: "negative_amount", tokenIn: asset.WETH, tokenOut: asset.USDC, amountIn: big.NewInt(-5), wantCode: apperror.CodeInvalidAmount},
		{name: "identical_tokens", tokenIn: asset.USDC, tokenOut: asset.USDC, amountIn: big.NewInt(1), wantCode: apperror.CodeInvalidInput},
		{name: "native_versus_wrapped", tokenIn: asset.ETH, tokenOut: asset.WETH, amountIn: big.NewInt(1), wantCode: apperror.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := agg.Aggregate(ctx, tt.tokenIn, tt.tokenOut, tt.amountIn)
			if err == nil {
				t.Fatal("Aggregate() error = nil, want rejection")
			}
			if code := apperror.GetCode(err); code != tt.wantCode {
				t.Errorf("error code = %s, want %s", code, tt.wantCode)
			}
		})
	}
}

func TestAggregateDeadline(t *testing.T) {
	adapter := &fakeAdapter{name: "Uniswap", protocol: domain.ProtocolV3, quotes: []*domain.VenueQuote{
		v3Quote(1_000_000_000, 0.10, 500),
	}}
	agg := newTestAggregator(t, []VenueAdapter{adapter}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := agg.Aggregate(ctx, asset.WETH, asset.USDC, big.NewInt(1_000_000))
	if err == nil {
		t.Fatal("Aggregate() error = nil, want timeout")
	}
	if code := apperror.GetCode(err); code != apperror.CodeRequestTimeout {
		t.Errorf("error code = %s, want %s", code, apperror.CodeRequestTimeout)
	}
}

func TestResolveToken(t *testing.T) {
	unknownAddr := common.HexToAddress("0x1111111111111111111111111111111111111111")
	reader := &fakeTokenReader{infos: map[common.Address]*chainDomain.TokenInfo{
		unknownAddr: {Address: unknownAddr, Symbol: "LINK", Name: "ChainLink Token", Decimals: 18},
	}}
	agg := newTestAggregator(t, nil, reader, nil)
	ctx := context.Background()

	tests := []struct {
		name       string
		ref        string
		wantSymbol string
		wantNative bool
		wantCode   apperror.Code
	}{
		{name: "registered_address", ref: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", wantSymbol: "USDC"},
		{name: "registered_address_lowercase", ref: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", wantSymbol: "USDC"},
		{name: "symbol", ref: "WETH", wantSymbol: "WETH"},
		{name: "symbol_lowercase", ref: "usdc", wantSymbol: "USDC"},
		{name: "native_sentinel", ref: "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE", wantSymbol: "ETH", wantNative: true},
		{name: "native_sentinel_lowercase", ref: "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee", wantSymbol: "ETH", wantNative: true},
		{name: "chain_fallback", ref: unknownAddr.Hex(), wantSymbol: "LINK"},
		{name: "unknown_address", ref: "0x2222222222222222222222222222222222222222", wantCode: apperror.CodeUnknownToken},
		{name: "unknown_symbol", ref: "NOPE", wantCode: apperror.CodeUnknownToken},
		{name: "empty", ref: "", wantCode: apperror.CodeRequiredField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := agg.ResolveToken(ctx, tt.ref)
			if tt.wantCode != "" {
				if err == nil {
					t.Fatalf("ResolveToken(%q) error = nil, want %s", tt.ref, tt.wantCode)
				}
				if code := apperror.GetCode(err); code != tt.wantCode {
					t.Errorf("error code = %s, want %s", code, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveToken(%q) error = %v", tt.ref, err)
			}
			if got.Symbol() != tt.wantSymbol {
				t.Errorf("Symbol() = %s, want %s", got.Symbol(), tt.wantSymbol)
			}
			if got.IsNative() != tt.wantNative {
				t.Errorf("IsNative() = %v, want %v", got.IsNative(), tt.wantNative)
			}
		})
	}
}

func TestBuildRoutes(t *testing.T) {
	v3 := &fakeAdapter{name: "Uniswap", protocol: domain.ProtocolV3, quotes: []*domain.VenueQuote{
		v3Quote(1_002_000_000, 0.12, 3000),
		v3Quote(1_000_000_000, 0.10, 500),
	}}
	builder := &fakeRouteBuilder{}
	agg := newTestAggregator(t, []VenueAdapter{v3}, nil, builder)

	result, err := agg.Aggregate(context.Background(), asset.WETH, asset.USDC, big.NewInt(1_000_000))
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	routes, err := agg.BuildRoutes(context.Background(), result, 0.5, nil)
	if err != nil {
		t.Fatalf("BuildRoutes() error = %v", err)
	}

	if len(routes) != len(result.Quotes) {
		t.Fatalf("len(routes) = %d, want %d", len(routes), len(result.Quotes))
	}
	if builder.built != len(result.Quotes) {
		t.Errorf("builder invoked %d times, want %d", builder.built, len(result.Quotes))
	}
	for i, route := range routes {
		wantMin := routingDomain.MinAmountOut(result.Quotes[i].AmountOut, 50)
		if route.MinAmountOut.Cmp(wantMin) != 0 {
			t.Errorf("routes[%d].MinAmountOut = %s, want %s", i, route.MinAmountOut, wantMin)
		}
	}
}

func TestVenues(t *testing.T) {
	agg := newTestAggregator(t, []VenueAdapter{
		&fakeAdapter{name: "Uniswap", protocol: domain.ProtocolV2},
		&fakeAdapter{name: "Uniswap", protocol: domain.ProtocolV3},
	}, nil, nil)

	venues := agg.Venues()
	if len(venues) != 2 {
		t.Fatalf("len(Venues()) = %d, want 2", len(venues))
	}
	if venues[0].Protocol != domain.ProtocolV2 || venues[1].Protocol != domain.ProtocolV3 {
		t.Errorf("Venues() = %+v, want registration order preserved", venues)
	}
}

func closeTo(got, want, eps float64) bool {
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	return diff < eps
}
