package asset

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Registry is a thread-safe registry of known assets. Lookups are
// constant-time by ID (chain + address) and by uppercased symbol; callers
// may pass symbols and addresses in any casing.
type Registry struct {
	byID          map[AssetID]*Asset
	bySymbol      map[string][]*Asset // SYMBOL -> assets (can have multiple on different chains)
	wrappedNative map[uint64]AssetID  // chainID -> wrapped native token
	mu            sync.RWMutex
}

// NewRegistry creates a new empty asset registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:          make(map[AssetID]*Asset),
		bySymbol:      make(map[string][]*Asset),
		wrappedNative: make(map[uint64]AssetID),
	}
}

// Register adds an asset to the registry.
// Panics if an asset with the same ID is already registered.
func (r *Registry) Register(a *Asset) {
	if a == nil {
		panic("asset: cannot register nil asset")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := a.ID()
	if _, exists := r.byID[id]; exists {
		panic(fmt.Sprintf("asset: %s already registered", id))
	}

	key := strings.ToUpper(a.Symbol())
	r.byID[id] = a
	r.bySymbol[key] = append(r.bySymbol[key], a)
}

// SetWrappedNative marks the wrapped form of the chain's native coin
// (WETH on mainnet). The asset must already be registered.
func (r *Registry) SetWrappedNative(chainID uint64, addr common.Address) error {
	id := NewTokenAssetID(chainID, addr)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return fmt.Errorf("asset: wrapped native %s not registered", id)
	}
	r.wrappedNative[chainID] = id
	return nil
}

// Get retrieves an asset by its ID.
func (r *Registry) Get(id AssetID) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	return a, ok
}

// MustGet retrieves an asset by its ID, panics if not found.
func (r *Registry) MustGet(id AssetID) *Asset {
	a, ok := r.Get(id)
	if !ok {
		panic(fmt.Sprintf("asset: %s not found in registry", id))
	}
	return a
}

// GetBySymbol retrieves all assets with the given symbol, any casing.
// Returns nil if no assets found.
func (r *Registry) GetBySymbol(symbol string) []*Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	assets := r.bySymbol[strings.ToUpper(symbol)]
	if len(assets) == 0 {
		return nil
	}

	// Return a copy to prevent mutation
	result := make([]*Asset, len(assets))
	copy(result, assets)
	return result
}

// GetBySymbolAndChain retrieves an asset by symbol and chain ID.
func (r *Registry) GetBySymbolAndChain(symbol string, chainID uint64) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.bySymbol[strings.ToUpper(symbol)] {
		if a.ChainID() == chainID {
			return a, true
		}
	}
	return nil, false
}

// GetNative retrieves the native coin for a chain.
func (r *Registry) GetNative(chainID uint64) (*Asset, bool) {
	id := NewNativeAssetID(chainID)
	return r.Get(id)
}

// GetWrappedNative retrieves the wrapped native token for a chain.
func (r *Registry) GetWrappedNative(chainID uint64) (*Asset, bool) {
	r.mu.RLock()
	id, ok := r.wrappedNative[chainID]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return r.Get(id)
}

// GetToken retrieves a token by chain and address. The sentinel native
// address resolves to the chain's native coin.
func (r *Registry) GetToken(chainID uint64, address common.Address) (*Asset, bool) {
	if IsNativeAddress(address) {
		return r.GetNative(chainID)
	}
	id := NewTokenAssetID(chainID, address)
	return r.Get(id)
}

// CommonBases returns the fixed intermediary set for a chain: native,
// wrapped native and the major stables, in that order, skipping any that
// are not registered.
func (r *Registry) CommonBases(chainID uint64) []*Asset {
	bases := make([]*Asset, 0, 5)

	if a, ok := r.GetNative(chainID); ok {
		bases = append(bases, a)
	}
	if a, ok := r.GetWrappedNative(chainID); ok {
		bases = append(bases, a)
	}
	for _, sym := range []string{"USDC", "USDT", "DAI"} {
		if a, ok := r.GetBySymbolAndChain(sym, chainID); ok {
			bases = append(bases, a)
		}
	}

	return bases
}

// All returns all registered assets.
func (r *Registry) All() []*Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Asset, 0, len(r.byID))
	for _, a := range r.byID {
		result = append(result, a)
	}
	return result
}

// Count returns the number of registered assets.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Has returns true if an asset with the given ID is registered.
func (r *Registry) Has(id AssetID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok
}
