package asset

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/dex-aggregator/internal/cache"
	"github.com/fd1az/dex-aggregator/internal/httpclient"
	"github.com/fd1az/dex-aggregator/internal/logger"
)

// TokenList is the standard token-list document shape (Uniswap list schema,
// reduced to the fields the registry needs).
type TokenList struct {
	Name   string       `json:"name"`
	Tokens []TokenEntry `json:"tokens"`
}

// TokenEntry is one token row in a token list.
type TokenEntry struct {
	ChainID  uint64 `json:"chainId"`
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
}

// Loader seeds a Registry from an external token list. Fetches are
// memoized for a few minutes and the last good list is served stale when a
// refresh fails.
type Loader struct {
	client httpclient.Client
	log    logger.LoggerInterface
	lists  *cache.Cache[string, *TokenList]
}

// NewLoader creates a token-list loader.
func NewLoader(client httpclient.Client, log logger.LoggerInterface) *Loader {
	return &Loader{
		client: client,
		log:    log,
		lists:  cache.New[string, *TokenList](5 * time.Minute),
	}
}

// FetchURL retrieves and parses a token list document from url.
func (l *Loader) FetchURL(ctx context.Context, url string) (*TokenList, error) {
	if list, ok := l.lists.Get(ctx, url); ok {
		return list, nil
	}

	var list TokenList
	resp, err := l.client.NewRequest().SetResult(&list).Get(ctx, url)
	if err != nil || resp.IsError() {
		if stale, ok := l.lists.GetStale(ctx, url); ok {
			l.log.Warn(ctx, "token list fetch failed, serving stale copy", "url", url, "error", err)
			return stale, nil
		}
		if err == nil {
			err = fmt.Errorf("token list fetch returned status %d", resp.StatusCode)
		}
		return nil, err
	}

	l.lists.Set(ctx, url, &list, 0)
	return &list, nil
}

// LoadFile parses a token list document from a local JSON file.
func (l *Loader) LoadFile(path string) (*TokenList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var list TokenList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("token list %s: %w", path, err)
	}
	return &list, nil
}

// Merge registers every list entry for chainID that the registry does not
// already know. Entries with unusable fields are skipped and logged, never
// fatal: a bad third-party list must not take the service down.
func (l *Loader) Merge(ctx context.Context, r *Registry, list *TokenList, chainID uint64) int {
	added := 0
	for _, t := range list.Tokens {
		if t.ChainID != chainID {
			continue
		}
		if !common.IsHexAddress(t.Address) || t.Symbol == "" || t.Decimals > 30 {
			l.log.Warn(ctx, "skipping malformed token list entry", "address", t.Address, "symbol", t.Symbol)
			continue
		}

		addr := common.HexToAddress(t.Address)
		if IsNativeAddress(addr) || addr == (common.Address{}) {
			continue
		}

		id := NewTokenAssetID(chainID, addr)
		if r.Has(id) {
			continue
		}

		r.Register(NewAssetWithName(id, t.Symbol, t.Name, t.Decimals))
		added++
	}
	return added
}

// Close releases the loader's cache resources.
func (l *Loader) Close() {
	l.lists.Close()
}
