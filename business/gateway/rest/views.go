package rest

import (
	"math"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	chainDomain "github.com/fd1az/dex-aggregator/business/chain/domain"
	quotingDomain "github.com/fd1az/dex-aggregator/business/quoting/domain"
	routingDomain "github.com/fd1az/dex-aggregator/business/routing/domain"
	"github.com/fd1az/dex-aggregator/internal/asset"
)

// envelope is the uniform response wrapper. Every endpoint returns either
// {success: true, data} or {success: false, error}.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// tokenView renders one side of the pair with its amount in both display
// and integer units.
type tokenView struct {
	Address   string `json:"address"`
	Symbol    string `json:"symbol"`
	Amount    string `json:"amount"`
	AmountWei string `json:"amountWei"`
}

// warningView classifies a route's price impact for the client.
type warningView struct {
	Level       string `json:"level"`
	ShouldBlock bool   `json:"shouldBlock"`
	Message     string `json:"message"`
}

// txView is the ready-to-sign transaction skeleton for one route.
type txView struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`
	From  string `json:"from"`
}

// approvalView describes the allowance requirement for one route. Token,
// spender, amount and calldata are present only when an approval is needed.
type approvalView struct {
	Needed  bool   `json:"needed"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
	Spender string `json:"spender,omitempty"`
	Amount  string `json:"amount,omitempty"`
	Data    string `json:"data,omitempty"`
}

// routeView is one venue quote with its execution artifacts. FeeTier is
// set only for V3 routes; V2 omits it.
type routeView struct {
	Dex          string        `json:"dex"`
	DexName      string        `json:"dexName"`
	FeeTier      uint32        `json:"feeTier,omitempty"`
	AmountOut    string        `json:"amountOut"`
	AmountOutWei string        `json:"amountOutWei"`
	PriceImpact  float64       `json:"priceImpact"`
	GasEstimate  uint64        `json:"gasEstimate"`
	PoolAddress  string        `json:"poolAddress"`
	Warning      *warningView  `json:"warning,omitempty"`
	Transaction  *txView       `json:"transaction,omitempty"`
	Approval     *approvalView `json:"approval,omitempty"`
}

// savingsView quantifies the best quote's advantage over the worst in
// output units.
type savingsView struct {
	Percentage float64 `json:"percentage"`
	Amount     string  `json:"amount"`
	AmountWei  string  `json:"amountWei"`
}

// quoteData is the /quote response payload.
type quoteData struct {
	TokenIn             tokenView    `json:"tokenIn"`
	TokenOut            tokenView    `json:"tokenOut"`
	BestRoute           *routeView   `json:"bestRoute"`
	AllQuotes           []*routeView `json:"allQuotes"`
	Savings             savingsView  `json:"savings"`
	Slippage            string       `json:"slippage"`
	MinimumAmountOut    string       `json:"minimumAmountOut"`
	MinimumAmountOutWei string       `json:"minimumAmountOutWei"`
	Recommendation      string       `json:"recommendation"`
}

// buildTxData is the /build-tx payload: the best route's transaction plus
// a summary of the chosen quote.
type buildTxData struct {
	To             string     `json:"to"`
	Data           string     `json:"data"`
	Value          string     `json:"value"`
	ApprovalNeeded bool       `json:"approvalNeeded"`
	Route          *routeView `json:"route"`
}

// assetView is one registry entry.
type assetView struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
	Native   bool   `json:"native,omitempty"`
}

// tokensData is the /tokens payload.
type tokensData struct {
	Tokens      []assetView `json:"tokens"`
	CommonBases []assetView `json:"commonBases"`
	Count       int         `json:"count"`
}

// pairData is the /pair introspection payload.
type pairData struct {
	Address            string `json:"address"`
	Token0             string `json:"token0"`
	Token1             string `json:"token1"`
	Reserve0           string `json:"reserve0"`
	Reserve1           string `json:"reserve1"`
	TotalSupply        string `json:"totalSupply"`
	BlockTimestampLast uint32 `json:"blockTimestampLast"`
}

// poolData is the /pool introspection payload.
type poolData struct {
	Address      string `json:"address"`
	Token0       string `json:"token0"`
	Token1       string `json:"token1"`
	Fee          uint32 `json:"fee"`
	TickSpacing  int64  `json:"tickSpacing"`
	SqrtPriceX96 string `json:"sqrtPriceX96"`
	Tick         string `json:"tick"`
	Liquidity    string `json:"liquidity"`
}

// gasData is the /gas payload and part of each stream frame.
type gasData struct {
	Wei       string  `json:"wei"`
	Gwei      float64 `json:"gwei"`
	Timestamp string  `json:"timestamp"`
}

// blockView is the head summary pushed on the stream.
type blockView struct {
	Number    uint64 `json:"number"`
	Hash      string `json:"hash"`
	Timestamp string `json:"timestamp"`
	BaseFee   string `json:"baseFee,omitempty"`
}

// streamUpdate is one push frame: a new head plus the gas snapshot taken
// at that head.
type streamUpdate struct {
	Type  string     `json:"type"`
	Block *blockView `json:"block,omitempty"`
	Gas   *gasData   `json:"gas,omitempty"`
}

// newQuoteData shapes an aggregated quote and its per-route artifacts into
// the public response. artifacts is index-aligned with agg.Quotes, so the
// best route is always entry zero of both.
func newQuoteData(agg *quotingDomain.AggregatedQuote, artifacts []*routingDomain.RouteArtifact, slippagePercent float64) quoteData {
	outDecimals := agg.TokenOut.Decimals()

	quotes := make([]*routeView, len(agg.Quotes))
	for i, q := range agg.Quotes {
		quotes[i] = newRouteView(q, outDecimals, artifacts[i])
	}

	minOut := artifacts[0].MinAmountOut

	return quoteData{
		TokenIn:   newTokenView(agg.TokenIn, agg.AmountIn.String(), asset.FormatUnits(agg.AmountIn, agg.TokenIn.Decimals())),
		TokenOut:  newTokenView(agg.TokenOut, agg.Best.AmountOut.String(), asset.FormatUnits(agg.Best.AmountOut, outDecimals)),
		BestRoute: quotes[0],
		AllQuotes: quotes,
		Savings: savingsView{
			Percentage: round2(agg.Savings.Percentage),
			Amount:     asset.FormatUnits(agg.Savings.Amount, outDecimals),
			AmountWei:  agg.Savings.Amount.String(),
		},
		Slippage:            formatPercent(slippagePercent),
		MinimumAmountOut:    asset.FormatUnits(minOut, outDecimals),
		MinimumAmountOutWei: minOut.String(),
		Recommendation:      agg.Recommendation,
	}
}

// newBuildTxData shapes the best route for clients that only want the
// transaction. The route summary carries no nested transaction block.
func newBuildTxData(agg *quotingDomain.AggregatedQuote, artifact *routingDomain.RouteArtifact) buildTxData {
	value := "0"
	if artifact.Value != nil {
		value = artifact.Value.String()
	}
	return buildTxData{
		To:             asset.HexLower(artifact.To),
		Data:           hexutil.Encode(artifact.Data),
		Value:          value,
		ApprovalNeeded: artifact.Approval.Needed,
		Route:          newRouteView(agg.Best, agg.TokenOut.Decimals(), nil),
	}
}

func newTokenView(tok *asset.Asset, amountWei, amount string) tokenView {
	return tokenView{
		Address:   asset.HexLower(tok.Address()),
		Symbol:    tok.Symbol(),
		Amount:    amount,
		AmountWei: amountWei,
	}
}

func newRouteView(q *quotingDomain.VenueQuote, outDecimals uint8, artifact *routingDomain.RouteArtifact) *routeView {
	v := &routeView{
		Dex:          string(q.Protocol),
		DexName:      q.VenueName,
		FeeTier:      q.FeeTier,
		AmountOut:    asset.FormatUnits(q.AmountOut, outDecimals),
		AmountOutWei: q.AmountOut.String(),
		PriceImpact:  round2(q.PriceImpact),
		GasEstimate:  q.GasEstimate,
		PoolAddress:  asset.HexLower(q.PoolAddress),
		Warning: &warningView{
			Level:       string(q.Warning.Level),
			ShouldBlock: q.Warning.ShouldBlock,
			Message:     q.Warning.Message,
		},
	}

	if artifact != nil {
		value := "0"
		if artifact.Value != nil {
			value = artifact.Value.String()
		}
		v.Transaction = &txView{
			To:    asset.HexLower(artifact.To),
			Data:  hexutil.Encode(artifact.Data),
			Value: value,
			From:  asset.HexLower(artifact.From),
		}
		v.Approval = newApprovalView(artifact.Approval)
	}

	return v
}

func newApprovalView(a routingDomain.Approval) *approvalView {
	v := &approvalView{Needed: a.Needed, Message: a.Message}
	if a.Needed {
		v.Token = asset.HexLower(a.Token)
		v.Spender = asset.HexLower(a.Spender)
		if a.Amount != nil {
			v.Amount = a.Amount.String()
		}
		if len(a.Data) > 0 {
			v.Data = hexutil.Encode(a.Data)
		}
	}
	return v
}

func newAssetView(a *asset.Asset) assetView {
	return assetView{
		Address:  asset.HexLower(a.Address()),
		Symbol:   a.Symbol(),
		Name:     a.Name(),
		Decimals: a.Decimals(),
		Native:   a.IsNative(),
	}
}

func newPairData(p *chainDomain.V2Pool) pairData {
	return pairData{
		Address:            asset.HexLower(p.Address),
		Token0:             asset.HexLower(p.Token0),
		Token1:             asset.HexLower(p.Token1),
		Reserve0:           bigString(p.Reserve0),
		Reserve1:           bigString(p.Reserve1),
		TotalSupply:        bigString(p.TotalSupply),
		BlockTimestampLast: p.BlockTimestampLast,
	}
}

func newPoolData(p *chainDomain.V3Pool) poolData {
	return poolData{
		Address:      asset.HexLower(p.Address),
		Token0:       asset.HexLower(p.Token0),
		Token1:       asset.HexLower(p.Token1),
		Fee:          p.Fee,
		TickSpacing:  p.TickSpacing,
		SqrtPriceX96: bigString(p.SqrtPriceX96),
		Tick:         bigString(p.Tick),
		Liquidity:    bigString(p.Liquidity),
	}
}

func newGasData(p *chainDomain.GasPrice) *gasData {
	return &gasData{
		Wei:       bigString(p.Wei),
		Gwei:      p.Gwei(),
		Timestamp: p.Timestamp.UTC().Format(time.RFC3339),
	}
}

func newBlockView(b *chainDomain.Block) *blockView {
	v := &blockView{
		Number:    b.Number,
		Hash:      b.Hash.Hex(),
		Timestamp: b.Timestamp.UTC().Format(time.RFC3339),
	}
	if b.BaseFee != nil {
		v.BaseFee = b.BaseFee.String()
	}
	return v
}

// round2 keeps display percentages at two decimals. The rounded value is
// never fed back into amount arithmetic.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// formatPercent renders a slippage percentage in its shortest decimal
// form, e.g. "0.5%".
func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
