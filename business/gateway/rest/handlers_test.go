package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	chainDomain "github.com/fd1az/dex-aggregator/business/chain/domain"
	quotingDomain "github.com/fd1az/dex-aggregator/business/quoting/domain"
	routingDomain "github.com/fd1az/dex-aggregator/business/routing/domain"
	"github.com/fd1az/dex-aggregator/internal/apperror"
	"github.com/fd1az/dex-aggregator/internal/asset"
	"github.com/fd1az/dex-aggregator/internal/logger"
)

var (
	routerAddr   = common.HexToAddress("0xE592427A0AEce92De3Edee1F18E0157C05861564")
	pool500Addr  = common.HexToAddress("0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640")
	pool3000Addr = common.HexToAddress("0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8")

	weiOne = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

	swapCalldata = append([]byte{0x41, 0x4b, 0xf3, 0x89}, make([]byte, 32)...)
)

type fakeQuotes struct {
	registry *asset.Registry
	chainID  uint64

	agg      *quotingDomain.AggregatedQuote
	aggErr   error
	aggPanic bool

	buildErr error
	approval routingDomain.Approval

	gotAmountIn *big.Int
	gotSlippage float64
	gotUser     *common.Address
}

func (f *fakeQuotes) ResolveToken(ctx context.Context, ref string) (*asset.Asset, error) {
	if common.IsHexAddress(ref) {
		if tok, ok := f.registry.GetToken(f.chainID, common.HexToAddress(ref)); ok {
			return tok, nil
		}
		return nil, apperror.New(apperror.CodeUnknownToken, apperror.WithContext(ref))
	}
	if tok, ok := f.registry.GetBySymbolAndChain(ref, f.chainID); ok {
		return tok, nil
	}
	return nil, apperror.New(apperror.CodeUnknownToken, apperror.WithContext(ref))
}

func (f *fakeQuotes) Aggregate(ctx context.Context, tokenIn, tokenOut *asset.Asset, amountIn *big.Int) (*quotingDomain.AggregatedQuote, error) {
	if f.aggPanic {
		panic("aggregate exploded")
	}
	f.gotAmountIn = amountIn
	if f.aggErr != nil {
		return nil, f.aggErr
	}
	return f.agg, nil
}

func (f *fakeQuotes) artifactFor(quote *quotingDomain.VenueQuote, slippagePercent float64, user *common.Address) (*routingDomain.RouteArtifact, error) {
	minOut, err := routingDomain.ApplySlippage(quote.AmountOut, slippagePercent)
	if err != nil {
		return nil, err
	}
	var from common.Address
	if user != nil {
		from = *user
	}
	return &routingDomain.RouteArtifact{
		To:           routerAddr,
		Data:         swapCalldata,
		Value:        big.NewInt(0),
		From:         from,
		GasEstimate:  quote.GasEstimate,
		Deadline:     1_900_000_000,
		MinAmountOut: minOut,
		Approval:     f.approval,
	}, nil
}

func (f *fakeQuotes) BuildRoute(ctx context.Context, quote *quotingDomain.VenueQuote, tokenIn, tokenOut *asset.Asset, amountIn *big.Int, slippagePercent float64, user *common.Address) (*routingDomain.RouteArtifact, error) {
	f.gotSlippage = slippagePercent
	f.gotUser = user
	if f.buildErr != nil {
		return nil, f.buildErr
	}
	return f.artifactFor(quote, slippagePercent, user)
}

func (f *fakeQuotes) BuildRoutes(ctx context.Context, agg *quotingDomain.AggregatedQuote, slippagePercent float64, user *common.Address) ([]*routingDomain.RouteArtifact, error) {
	f.gotSlippage = slippagePercent
	f.gotUser = user
	if f.buildErr != nil {
		return nil, f.buildErr
	}
	artifacts := make([]*routingDomain.RouteArtifact, len(agg.Quotes))
	for i, q := range agg.Quotes {
		artifact, err := f.artifactFor(q, slippagePercent, user)
		if err != nil {
			return nil, err
		}
		artifacts[i] = artifact
	}
	return artifacts, nil
}

type fakePairs struct {
	pair *chainDomain.V2Pool
	err  error
	gotA common.Address
	gotB common.Address
}

func (f *fakePairs) Pair(ctx context.Context, tokenA, tokenB common.Address) (*chainDomain.V2Pool, error) {
	f.gotA, f.gotB = tokenA, tokenB
	if f.err != nil {
		return nil, f.err
	}
	return f.pair, nil
}

type fakePools struct {
	pool   *chainDomain.V3Pool
	err    error
	gotFee uint32
}

func (f *fakePools) Pool(ctx context.Context, tokenA, tokenB common.Address, feeTier uint32) (*chainDomain.V3Pool, error) {
	f.gotFee = feeTier
	if f.err != nil {
		return nil, f.err
	}
	return f.pool, nil
}

type fakeChain struct {
	gas    *chainDomain.GasPrice
	gasErr error
	heads  chan *chainDomain.Block
	subErr error
}

func (f *fakeChain) GetGasPrice(ctx context.Context) (*chainDomain.GasPrice, error) {
	if f.gasErr != nil {
		return nil, f.gasErr
	}
	return f.gas, nil
}

func (f *fakeChain) SubscribeBlocks(ctx context.Context) (<-chan *chainDomain.Block, error) {
	if f.subErr != nil {
		return nil, f.subErr
	}
	return f.heads, nil
}

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

// scenarioQuotes builds a two-tier V3 aggregation: the 0.3% tier beats the
// 0.05% tier by 0.20%.
func scenarioQuotes() (*fakeQuotes, *quotingDomain.AggregatedQuote) {
	tier500 := quotingDomain.NewVenueQuote("Uniswap", quotingDomain.ProtocolV3,
		big.NewInt(1_000_000_000), 0.10, 150_000, 500, pool500Addr)
	tier3000 := quotingDomain.NewVenueQuote("Uniswap", quotingDomain.ProtocolV3,
		big.NewInt(1_002_000_000), 0.12, 150_000, 3000, pool3000Addr)

	agg := quotingDomain.NewAggregatedQuote(asset.WETH, asset.USDC, weiOne,
		[]*quotingDomain.VenueQuote{tier500, tier3000})

	return &fakeQuotes{
		registry: asset.DefaultRegistry(),
		chainID:  asset.ChainIDEthereum,
		agg:      agg,
		approval: routingDomain.NoApproval("Sufficient allowance"),
	}, agg
}

func newTestServer(t *testing.T, quotes QuoteService, pairs PairReader, pools PoolReader, chain ChainStatus) *Server {
	t.Helper()
	return NewServer(Config{
		BasePath:        "/api/aggregator",
		RequestTimeout:  5 * time.Second,
		DefaultSlippage: 0.5,
		ChainID:         asset.ChainIDEthereum,
	}, quotes, pairs, pools, chain, asset.DefaultRegistry(), testLogger())
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type quoteResponse struct {
	Success bool      `json:"success"`
	Error   string    `json:"error"`
	Data    quoteData `json:"data"`
}

func decodeQuote(t *testing.T, rec *httptest.ResponseRecorder) quoteResponse {
	t.Helper()
	var resp quoteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, rec.Body.String())
	}
	return resp
}

func TestQuoteResponseShape(t *testing.T) {
	quotes, _ := scenarioQuotes()
	srv := newTestServer(t, quotes, nil, nil, &fakeChain{})

	body := `{"tokenIn": "` + asset.AddrWETHEthereum.Hex() + `",
		"tokenOut": "` + asset.AddrUSDCEthereum.Hex() + `",
		"amountIn": "1", "slippage": 0.5}`
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/aggregator/quote", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(headerRequestID) == "" {
		t.Error("response is missing the request id header")
	}

	resp := decodeQuote(t, rec)
	if !resp.Success {
		t.Fatalf("success = false, error = %q", resp.Error)
	}
	data := resp.Data

	wethLower := strings.ToLower(asset.AddrWETHEthereum.Hex())
	usdcLower := strings.ToLower(asset.AddrUSDCEthereum.Hex())

	if data.TokenIn.Address != wethLower {
		t.Errorf("tokenIn.address = %q, want %q", data.TokenIn.Address, wethLower)
	}
	if data.TokenIn.Symbol != "WETH" || data.TokenIn.Amount != "1" || data.TokenIn.AmountWei != "1000000000000000000" {
		t.Errorf("tokenIn = %+v, want WETH/1/1000000000000000000", data.TokenIn)
	}
	if data.TokenOut.Address != usdcLower {
		t.Errorf("tokenOut.address = %q, want %q", data.TokenOut.Address, usdcLower)
	}
	if data.TokenOut.Amount != "1002" || data.TokenOut.AmountWei != "1002000000" {
		t.Errorf("tokenOut amounts = %s/%s, want 1002/1002000000", data.TokenOut.Amount, data.TokenOut.AmountWei)
	}

	best := data.BestRoute
	if best == nil {
		t.Fatal("bestRoute is nil")
	}
	if best.Dex != "V3" || best.DexName != "Uniswap" || best.FeeTier != 3000 {
		t.Errorf("bestRoute = %s/%s/%d, want V3/Uniswap/3000", best.Dex, best.DexName, best.FeeTier)
	}
	if best.AmountOut != "1002" || best.AmountOutWei != "1002000000" {
		t.Errorf("bestRoute amounts = %s/%s, want 1002/1002000000", best.AmountOut, best.AmountOutWei)
	}
	if best.PriceImpact != 0.12 {
		t.Errorf("bestRoute.priceImpact = %v, want 0.12", best.PriceImpact)
	}
	if best.Warning == nil || best.Warning.Level != "low" || best.Warning.ShouldBlock {
		t.Errorf("bestRoute.warning = %+v, want low and not blocking", best.Warning)
	}
	if best.Transaction == nil {
		t.Fatal("bestRoute.transaction is nil")
	}
	if got, want := best.Transaction.To, strings.ToLower(routerAddr.Hex()); got != want {
		t.Errorf("transaction.to = %q, want %q", got, want)
	}
	if !strings.HasPrefix(best.Transaction.Data, "0x414bf389") {
		t.Errorf("transaction.data = %q, want exactInputSingle selector prefix", best.Transaction.Data)
	}
	if best.Transaction.Value != "0" {
		t.Errorf("transaction.value = %q, want 0", best.Transaction.Value)
	}
	if best.Approval == nil || best.Approval.Needed {
		t.Errorf("bestRoute.approval = %+v, want not needed", best.Approval)
	}

	if len(data.AllQuotes) != 2 {
		t.Fatalf("len(allQuotes) = %d, want 2", len(data.AllQuotes))
	}
	if data.AllQuotes[0].FeeTier != 3000 || data.AllQuotes[1].FeeTier != 500 {
		t.Errorf("allQuotes tiers = %d,%d, want 3000,500",
			data.AllQuotes[0].FeeTier, data.AllQuotes[1].FeeTier)
	}

	if data.Savings.Percentage != 0.2 {
		t.Errorf("savings.percentage = %v, want 0.2", data.Savings.Percentage)
	}
	if data.Savings.Amount != "2" || data.Savings.AmountWei != "2000000" {
		t.Errorf("savings amounts = %s/%s, want 2/2000000", data.Savings.Amount, data.Savings.AmountWei)
	}

	if data.Slippage != "0.5%" {
		t.Errorf("slippage = %q, want 0.5%%", data.Slippage)
	}
	if data.MinimumAmountOut != "996.99" || data.MinimumAmountOutWei != "996990000" {
		t.Errorf("minimumAmountOut = %s/%s, want 996.99/996990000",
			data.MinimumAmountOut, data.MinimumAmountOutWei)
	}
	if want := "Use Uniswap V3 (0.3% fee tier) for 0.20% better price"; data.Recommendation != want {
		t.Errorf("recommendation = %q, want %q", data.Recommendation, want)
	}

	if quotes.gotAmountIn == nil || quotes.gotAmountIn.Cmp(weiOne) != 0 {
		t.Errorf("aggregate amountIn = %v, want %v", quotes.gotAmountIn, weiOne)
	}
}

func TestQuoteSlippage(t *testing.T) {
	tests := []struct {
		name          string
		slippage      string
		wantEcho      string
		wantCaptured  float64
		wantMinOutWei string
	}{
		{"default", ``, "0.5%", 0.5, "996990000"},
		{"explicit", `, "slippage": 1.25`, "1.25%", 1.25, "989475000"},
		{"zero", `, "slippage": 0`, "0%", 0, "1002000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quotes, _ := scenarioQuotes()
			srv := newTestServer(t, quotes, nil, nil, &fakeChain{})

			body := `{"tokenIn": "WETH", "tokenOut": "USDC", "amountIn": "1"` + tt.slippage + `}`
			rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/aggregator/quote", body)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
			}
			resp := decodeQuote(t, rec)
			if resp.Data.Slippage != tt.wantEcho {
				t.Errorf("slippage echo = %q, want %q", resp.Data.Slippage, tt.wantEcho)
			}
			if quotes.gotSlippage != tt.wantCaptured {
				t.Errorf("captured slippage = %v, want %v", quotes.gotSlippage, tt.wantCaptured)
			}
			if resp.Data.MinimumAmountOutWei != tt.wantMinOutWei {
				t.Errorf("minimumAmountOutWei = %q, want %q", resp.Data.MinimumAmountOutWei, tt.wantMinOutWei)
			}
		})
	}
}

func TestQuoteValidation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{
			"missing tokenIn",
			`{"tokenOut": "USDC", "amountIn": "1"}`,
			http.StatusBadRequest, "tokenIn is required",
		},
		{
			"missing tokenOut",
			`{"tokenIn": "WETH", "amountIn": "1"}`,
			http.StatusBadRequest, "tokenOut is required",
		},
		{
			"missing amountIn",
			`{"tokenIn": "WETH", "tokenOut": "USDC"}`,
			http.StatusBadRequest, "amountIn is required",
		},
		{
			"malformed json",
			`{`,
			http.StatusBadRequest, "Invalid input provided",
		},
		{
			"non-decimal amount",
			`{"tokenIn": "WETH", "tokenOut": "USDC", "amountIn": "abc"}`,
			http.StatusBadRequest, "Invalid amount",
		},
		{
			"negative amount",
			`{"tokenIn": "WETH", "tokenOut": "USDC", "amountIn": "-1"}`,
			http.StatusBadRequest, "Invalid amount",
		},
		{
			"amount finer than token decimals",
			`{"tokenIn": "USDC", "tokenOut": "WETH", "amountIn": "0.0000001"}`,
			http.StatusBadRequest, "Invalid amount",
		},
		{
			"slippage above range",
			`{"tokenIn": "WETH", "tokenOut": "USDC", "amountIn": "1", "slippage": 150}`,
			http.StatusBadRequest, "Slippage must be between 0 and 100",
		},
		{
			"slippage negative",
			`{"tokenIn": "WETH", "tokenOut": "USDC", "amountIn": "1", "slippage": -1}`,
			http.StatusBadRequest, "Slippage must be between 0 and 100",
		},
		{
			"unknown token address",
			`{"tokenIn": "0xDeaDbeefdEAdbeefdEadbEEFdeadbeEFdEaDbeeF", "tokenOut": "USDC", "amountIn": "1"}`,
			http.StatusBadRequest, "Unknown token",
		},
		{
			"unknown token symbol",
			`{"tokenIn": "FOO", "tokenOut": "USDC", "amountIn": "1"}`,
			http.StatusBadRequest, "Unknown token",
		},
		{
			"bad user address",
			`{"tokenIn": "WETH", "tokenOut": "USDC", "amountIn": "1", "userAddress": "not-an-address"}`,
			http.StatusBadRequest, "userAddress must be a valid hex address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quotes, _ := scenarioQuotes()
			srv := newTestServer(t, quotes, nil, nil, &fakeChain{})

			rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/aggregator/quote", tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d\nbody: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			resp := decodeQuote(t, rec)
			if resp.Success {
				t.Error("success = true on a validation failure")
			}
			if !strings.Contains(resp.Error, tt.wantError) {
				t.Errorf("error = %q, want it to contain %q", resp.Error, tt.wantError)
			}
		})
	}
}

func TestQuoteMixedCaseAddressEquivalence(t *testing.T) {
	quotes, _ := scenarioQuotes()
	srv := newTestServer(t, quotes, nil, nil, &fakeChain{})

	checksummed := `{"tokenIn": "` + asset.AddrWETHEthereum.Hex() + `",
		"tokenOut": "` + asset.AddrUSDCEthereum.Hex() + `", "amountIn": "1"}`
	lowercased := `{"tokenIn": "` + strings.ToLower(asset.AddrWETHEthereum.Hex()) + `",
		"tokenOut": "` + strings.ToLower(asset.AddrUSDCEthereum.Hex()) + `", "amountIn": "1"}`

	rec1 := doJSON(t, srv.Handler(), http.MethodPost, "/api/aggregator/quote", checksummed)
	rec2 := doJSON(t, srv.Handler(), http.MethodPost, "/api/aggregator/quote", lowercased)

	if rec1.Code != http.StatusOK || rec2.Code != http.StatusOK {
		t.Fatalf("status = %d/%d, want 200/200", rec1.Code, rec2.Code)
	}
	if !bytes.Equal(rec1.Body.Bytes(), rec2.Body.Bytes()) {
		t.Errorf("responses differ across address casing:\n%s\n%s", rec1.Body.String(), rec2.Body.String())
	}
}

func TestQuoteErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		aggErr     error
		buildErr   error
		wantStatus int
		wantError  string
	}{
		{
			"no liquidity",
			apperror.New(apperror.CodeNoLiquidity, apperror.WithContext("WETH/USDC")),
			nil,
			http.StatusBadRequest, "No liquidity",
		},
		{
			"request timeout",
			apperror.Timeout("aggregate", context.DeadlineExceeded),
			nil,
			http.StatusGatewayTimeout, "Request deadline exceeded",
		},
		{
			"encoding failure",
			nil,
			apperror.Internal(apperror.CodeEncodingFailed, "calldata", errors.New("abi pack")),
			http.StatusInternalServerError, "Failed to encode transaction calldata",
		},
		{
			"opaque internal error",
			errors.New("rpc connection reset"),
			nil,
			http.StatusInternalServerError, "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quotes, _ := scenarioQuotes()
			quotes.aggErr = tt.aggErr
			quotes.buildErr = tt.buildErr
			srv := newTestServer(t, quotes, nil, nil, &fakeChain{})

			body := `{"tokenIn": "WETH", "tokenOut": "USDC", "amountIn": "1"}`
			rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/aggregator/quote", body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d\nbody: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			resp := decodeQuote(t, rec)
			if !strings.Contains(resp.Error, tt.wantError) {
				t.Errorf("error = %q, want it to contain %q", resp.Error, tt.wantError)
			}
			if tt.name == "opaque internal error" && strings.Contains(resp.Error, "rpc") {
				t.Errorf("error %q leaks internal detail", resp.Error)
			}
		})
	}
}

func TestQuoteRecoversPanic(t *testing.T) {
	quotes, _ := scenarioQuotes()
	quotes.aggPanic = true
	srv := newTestServer(t, quotes, nil, nil, &fakeChain{})

	body := `{"tokenIn": "WETH", "tokenOut": "USDC", "amountIn": "1"}`
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/aggregator/quote", body)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	resp := decodeQuote(t, rec)
	if resp.Success || resp.Error != "internal error" {
		t.Errorf("response = %+v, want generic internal error", resp)
	}
}

func TestBuildTx(t *testing.T) {
	quotes, _ := scenarioQuotes()
	quotes.approval = routingDomain.ApprovalNeeded(
		asset.AddrWETHEthereum, routerAddr, weiOne, "Approve WETH for the router")
	srv := newTestServer(t, quotes, nil, nil, &fakeChain{})

	user := "0x1111111111111111111111111111111111111111"
	body := `{"tokenIn": "WETH", "tokenOut": "USDC", "amountIn": "1", "userAddress": "` + user + `"}`
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/aggregator/build-tx", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success bool        `json:"success"`
		Data    buildTxData `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Fatal("success = false")
	}

	if got, want := resp.Data.To, strings.ToLower(routerAddr.Hex()); got != want {
		t.Errorf("to = %q, want %q", got, want)
	}
	if !strings.HasPrefix(resp.Data.Data, "0x414bf389") {
		t.Errorf("data = %q, want selector prefix", resp.Data.Data)
	}
	if resp.Data.Value != "0" {
		t.Errorf("value = %q, want 0", resp.Data.Value)
	}
	if !resp.Data.ApprovalNeeded {
		t.Error("approvalNeeded = false, want true")
	}
	if resp.Data.Route == nil || resp.Data.Route.FeeTier != 3000 {
		t.Errorf("route summary = %+v, want the 3000 tier", resp.Data.Route)
	}

	// The summary must not repeat the transaction or approval payloads.
	var raw struct {
		Data struct {
			Route map[string]json.RawMessage `json:"route"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode raw response: %v", err)
	}
	if _, ok := raw.Data.Route["transaction"]; ok {
		t.Error("route summary carries a nested transaction")
	}
	if _, ok := raw.Data.Route["approval"]; ok {
		t.Error("route summary carries a nested approval")
	}

	if quotes.gotUser == nil || *quotes.gotUser != common.HexToAddress(user) {
		t.Errorf("captured user = %v, want %s", quotes.gotUser, user)
	}
}

func TestTokensEndpoint(t *testing.T) {
	quotes, _ := scenarioQuotes()
	srv := newTestServer(t, quotes, nil, nil, &fakeChain{})

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/aggregator/tokens", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Success bool       `json:"success"`
		Data    tokensData `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Data.Count != len(resp.Data.Tokens) || resp.Data.Count == 0 {
		t.Fatalf("count = %d with %d tokens", resp.Data.Count, len(resp.Data.Tokens))
	}
	for i := 1; i < len(resp.Data.Tokens); i++ {
		if resp.Data.Tokens[i-1].Symbol > resp.Data.Tokens[i].Symbol {
			t.Errorf("tokens not sorted: %s before %s",
				resp.Data.Tokens[i-1].Symbol, resp.Data.Tokens[i].Symbol)
		}
	}
	for _, tok := range resp.Data.Tokens {
		if tok.Address != strings.ToLower(tok.Address) {
			t.Errorf("token address %q is not lowercased", tok.Address)
		}
	}

	if len(resp.Data.CommonBases) == 0 {
		t.Fatal("commonBases is empty")
	}
	if !resp.Data.CommonBases[0].Native {
		t.Errorf("commonBases[0] = %+v, want the native coin first", resp.Data.CommonBases[0])
	}
}

func TestPairEndpoint(t *testing.T) {
	pairs := &fakePairs{pair: &chainDomain.V2Pool{
		Address:            common.HexToAddress("0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc"),
		Token0:             asset.AddrUSDCEthereum,
		Token1:             asset.AddrWETHEthereum,
		Reserve0:           big.NewInt(2_620_000_000_000_000),
		Reserve1:           big.NewInt(4_168_985_000_000_000),
		BlockTimestampLast: 1700000000,
		TotalSupply:        big.NewInt(1_000_000),
	}}
	quotes, _ := scenarioQuotes()
	srv := newTestServer(t, quotes, pairs, nil, &fakeChain{})

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/aggregator/pair/WETH/USDC", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success bool     `json:"success"`
		Data    pairData `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Reserve0 != "2620000000000000" || resp.Data.Reserve1 != "4168985000000000" {
		t.Errorf("reserves = %s/%s", resp.Data.Reserve0, resp.Data.Reserve1)
	}
	if resp.Data.Token0 != strings.ToLower(asset.AddrUSDCEthereum.Hex()) {
		t.Errorf("token0 = %q, want lowercased USDC", resp.Data.Token0)
	}
	if pairs.gotA != asset.AddrWETHEthereum || pairs.gotB != asset.AddrUSDCEthereum {
		t.Errorf("pair lookup = %s/%s, want WETH/USDC", pairs.gotA, pairs.gotB)
	}
}

func TestPairSubstitutesWrappedNative(t *testing.T) {
	refs := []string{"ETH", "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"}
	for _, ref := range refs {
		t.Run(ref, func(t *testing.T) {
			pairs := &fakePairs{pair: &chainDomain.V2Pool{
				Reserve0:    big.NewInt(1),
				Reserve1:    big.NewInt(1),
				TotalSupply: big.NewInt(1),
			}}
			quotes, _ := scenarioQuotes()
			srv := newTestServer(t, quotes, pairs, nil, &fakeChain{})

			rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/aggregator/pair/"+ref+"/USDC", "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
			}
			if pairs.gotA != asset.AddrWETHEthereum {
				t.Errorf("tokenA = %s, want the wrapped native address", pairs.gotA)
			}
		})
	}
}

func TestPairRouteAbsentWhenVenueDisabled(t *testing.T) {
	quotes, _ := scenarioQuotes()
	srv := newTestServer(t, quotes, nil, nil, &fakeChain{})

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/aggregator/pair/WETH/USDC", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when the venue is disabled", rec.Code)
	}
}

func TestPoolEndpoint(t *testing.T) {
	pools := &fakePools{pool: &chainDomain.V3Pool{
		Address:      pool3000Addr,
		Token0:       asset.AddrUSDCEthereum,
		Token1:       asset.AddrWETHEthereum,
		Fee:          3000,
		TickSpacing:  60,
		SqrtPriceX96: big.NewInt(1_234_567_890),
		Tick:         big.NewInt(201_450),
		Liquidity:    big.NewInt(987_654_321),
	}}
	quotes, _ := scenarioQuotes()
	srv := newTestServer(t, quotes, nil, pools, &fakeChain{})

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/aggregator/pool/WETH/USDC/3000", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success bool     `json:"success"`
		Data    poolData `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if pools.gotFee != 3000 {
		t.Errorf("fee = %d, want 3000", pools.gotFee)
	}
	if resp.Data.SqrtPriceX96 != "1234567890" || resp.Data.Tick != "201450" || resp.Data.Liquidity != "987654321" {
		t.Errorf("pool state = %s/%s/%s", resp.Data.SqrtPriceX96, resp.Data.Tick, resp.Data.Liquidity)
	}
	if resp.Data.TickSpacing != 60 {
		t.Errorf("tickSpacing = %d, want 60", resp.Data.TickSpacing)
	}
}

func TestPoolEndpointErrors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		poolErr    error
		wantStatus int
	}{
		{"non-numeric fee", "/api/aggregator/pool/WETH/USDC/abc", nil, http.StatusBadRequest},
		{"fee overflows uint32", "/api/aggregator/pool/WETH/USDC/4294967296", nil, http.StatusBadRequest},
		{
			"pool not found", "/api/aggregator/pool/WETH/USDC/500",
			apperror.New(apperror.CodePoolNotFound, apperror.WithContext("WETH/USDC 500")),
			http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pools := &fakePools{err: tt.poolErr}
			quotes, _ := scenarioQuotes()
			srv := newTestServer(t, quotes, nil, pools, &fakeChain{})

			rec := doJSON(t, srv.Handler(), http.MethodGet, tt.path, "")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d\nbody: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestGasEndpoint(t *testing.T) {
	chain := &fakeChain{gas: &chainDomain.GasPrice{
		Wei:       big.NewInt(23_500_000_000),
		Timestamp: time.Date(2025, 8, 26, 12, 0, 0, 0, time.UTC),
	}}
	quotes, _ := scenarioQuotes()
	srv := newTestServer(t, quotes, nil, nil, chain)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/aggregator/gas", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Success bool    `json:"success"`
		Data    gasData `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Wei != "23500000000" || resp.Data.Gwei != 23.5 {
		t.Errorf("gas = %s wei / %v gwei, want 23500000000 / 23.5", resp.Data.Wei, resp.Data.Gwei)
	}
	if resp.Data.Timestamp != "2025-08-26T12:00:00Z" {
		t.Errorf("timestamp = %q, want RFC3339 UTC", resp.Data.Timestamp)
	}
}

func TestGasEndpointUpstreamFailure(t *testing.T) {
	chain := &fakeChain{gasErr: apperror.External(apperror.CodeEthereumRPCError, "eth_gasPrice", errors.New("connection refused"))}
	quotes, _ := scenarioQuotes()
	srv := newTestServer(t, quotes, nil, nil, chain)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/aggregator/gas", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	quotes, _ := scenarioQuotes()
	srv := newTestServer(t, quotes, nil, nil, &fakeChain{})

	req := httptest.NewRequest(http.MethodGet, "/api/aggregator/tokens", nil)
	req.Header.Set(headerRequestID, "trace-me-123")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get(headerRequestID); got != "trace-me-123" {
		t.Errorf("request id echo = %q, want trace-me-123", got)
	}
}
