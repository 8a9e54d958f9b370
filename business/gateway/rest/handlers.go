package rest

import (
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sort"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/fd1az/dex-aggregator/internal/apperror"
	"github.com/fd1az/dex-aggregator/internal/asset"
)

// quoteRequest is the body shared by /quote and /build-tx.
type quoteRequest struct {
	TokenIn     string   `json:"tokenIn"`
	TokenOut    string   `json:"tokenOut"`
	AmountIn    string   `json:"amountIn"`
	Slippage    *float64 `json:"slippage"`
	UserAddress string   `json:"userAddress"`
}

// quoteParams is a fully resolved request: tokens looked up, amount in
// integer units, slippage defaulted.
type quoteParams struct {
	TokenIn  *asset.Asset
	TokenOut *asset.Asset
	AmountIn *big.Int
	Slippage float64
	User     *common.Address
}

func (s *Server) parseQuoteRequest(c *gin.Context) (*quoteParams, error) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("body"),
			apperror.WithCause(err))
	}

	for _, field := range []struct {
		name  string
		value string
	}{
		{"tokenIn", req.TokenIn},
		{"tokenOut", req.TokenOut},
		{"amountIn", req.AmountIn},
	} {
		if field.value == "" {
			return nil, apperror.New(apperror.CodeRequiredField,
				apperror.WithContext(field.name),
				apperror.WithMessage(field.name+" is required"))
		}
	}

	slippage := s.config.DefaultSlippage
	if req.Slippage != nil {
		if *req.Slippage < 0 || *req.Slippage > 100 {
			return nil, apperror.New(apperror.CodeInvalidSlippage,
				apperror.WithContext(fmt.Sprintf("%v", *req.Slippage)))
		}
		slippage = *req.Slippage
	}

	var user *common.Address
	if req.UserAddress != "" {
		if !common.IsHexAddress(req.UserAddress) {
			return nil, apperror.New(apperror.CodeInvalidAddress,
				apperror.WithContext("userAddress"),
				apperror.WithMessage("userAddress must be a valid hex address"))
		}
		addr := common.HexToAddress(req.UserAddress)
		user = &addr
	}

	ctx := c.Request.Context()

	tokenIn, err := s.quotes.ResolveToken(ctx, req.TokenIn)
	if err != nil {
		return nil, err
	}
	tokenOut, err := s.quotes.ResolveToken(ctx, req.TokenOut)
	if err != nil {
		return nil, err
	}

	amountIn, err := asset.ParseUnits(req.AmountIn, tokenIn.Decimals())
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidAmount,
			apperror.WithContext(req.AmountIn),
			apperror.WithCause(err))
	}

	return &quoteParams{
		TokenIn:  tokenIn,
		TokenOut: tokenOut,
		AmountIn: amountIn,
		Slippage: slippage,
		User:     user,
	}, nil
}

// handleQuote aggregates quotes across venues and returns the ranked
// result with per-route execution artifacts.
func (s *Server) handleQuote(c *gin.Context) {
	params, err := s.parseQuoteRequest(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	ctx := c.Request.Context()

	agg, err := s.quotes.Aggregate(ctx, params.TokenIn, params.TokenOut, params.AmountIn)
	if err != nil {
		s.respondError(c, err)
		return
	}

	artifacts, err := s.quotes.BuildRoutes(ctx, agg, params.Slippage, params.User)
	if err != nil {
		s.respondError(c, err)
		return
	}

	respondOK(c, newQuoteData(agg, artifacts, params.Slippage))
}

// handleBuildTx aggregates, takes the best route and returns only what a
// wallet needs to submit it.
func (s *Server) handleBuildTx(c *gin.Context) {
	params, err := s.parseQuoteRequest(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	ctx := c.Request.Context()

	agg, err := s.quotes.Aggregate(ctx, params.TokenIn, params.TokenOut, params.AmountIn)
	if err != nil {
		s.respondError(c, err)
		return
	}

	artifact, err := s.quotes.BuildRoute(ctx, agg.Best, params.TokenIn, params.TokenOut, params.AmountIn, params.Slippage, params.User)
	if err != nil {
		s.respondError(c, err)
		return
	}

	respondOK(c, newBuildTxData(agg, artifact))
}

// handleTokens lists the registry for this chain, sorted by symbol.
func (s *Server) handleTokens(c *gin.Context) {
	tokens := make([]assetView, 0)
	for _, a := range s.registry.All() {
		if a.ChainID() != s.config.ChainID {
			continue
		}
		tokens = append(tokens, newAssetView(a))
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Symbol < tokens[j].Symbol })

	bases := make([]assetView, 0)
	for _, a := range s.registry.CommonBases(s.config.ChainID) {
		bases = append(bases, newAssetView(a))
	}

	respondOK(c, tokensData{
		Tokens:      tokens,
		CommonBases: bases,
		Count:       len(tokens),
	})
}

// handlePair returns the raw constant-product pair state for two tokens.
func (s *Server) handlePair(c *gin.Context) {
	ctx := c.Request.Context()

	tokenA, err := s.poolToken(c, c.Param("tokenA"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	tokenB, err := s.poolToken(c, c.Param("tokenB"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	pair, err := s.pairs.Pair(ctx, tokenA, tokenB)
	if err != nil {
		s.respondError(c, err)
		return
	}

	respondOK(c, newPairData(pair))
}

// handlePool returns the raw concentrated-liquidity pool state for two
// tokens at one fee tier.
func (s *Server) handlePool(c *gin.Context) {
	ctx := c.Request.Context()

	tokenA, err := s.poolToken(c, c.Param("tokenA"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	tokenB, err := s.poolToken(c, c.Param("tokenB"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	fee, err := strconv.ParseUint(c.Param("fee"), 10, 32)
	if err != nil {
		s.respondError(c, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("fee: "+c.Param("fee")),
			apperror.WithCause(err)))
		return
	}

	pool, err := s.pools.Pool(ctx, tokenA, tokenB, uint32(fee))
	if err != nil {
		s.respondError(c, err)
		return
	}

	respondOK(c, newPoolData(pool))
}

// handleGas returns the current gas price snapshot.
func (s *Server) handleGas(c *gin.Context) {
	price, err := s.chain.GetGasPrice(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, newGasData(price))
}

// poolToken resolves a path token reference to its on-chain address,
// substituting the wrapped asset when the reference is the native coin.
// Pools only ever hold the wrapped form.
func (s *Server) poolToken(c *gin.Context, ref string) (common.Address, error) {
	tok, err := s.quotes.ResolveToken(c.Request.Context(), ref)
	if err != nil {
		return common.Address{}, err
	}
	if !tok.IsNative() {
		return tok.Address(), nil
	}

	wrapped, ok := s.registry.GetWrappedNative(s.config.ChainID)
	if !ok {
		return common.Address{}, apperror.New(apperror.CodeConfigurationError,
			apperror.WithMessage("no wrapped native token registered for this chain"))
	}
	return wrapped.Address(), nil
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

// respondError is the single mapping point from domain errors to HTTP.
// Unknown errors leak nothing beyond a generic message.
func (s *Server) respondError(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		s.log.Error(c.Request.Context(), "unhandled error",
			"error", err,
			"path", c.Request.URL.Path,
			"request_id", c.GetString(ctxKeyRequestID),
		)
		c.JSON(http.StatusInternalServerError, envelope{Success: false, Error: "internal error"})
		return
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		s.log.Error(c.Request.Context(), "request failed",
			"code", appErr.Code,
			"error", appErr,
			"path", c.Request.URL.Path,
			"request_id", c.GetString(ctxKeyRequestID),
		)
	}

	c.JSON(appErr.StatusCode, envelope{Success: false, Error: appErr.Message})
}
