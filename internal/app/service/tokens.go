package service

import (
	"strings"
	"sync"
	"time"

	"wallet_engine/internal/domain/entity"
	"wallet_engine/internal/pkg/utils"

	gocache "github.com/patrickmn/go-cache"
)

const maxTokenMultiplier = "100000000000000000000000000000000" // 1e32

// TokenRegistry holds the built-in and custom token descriptors and resolves
// asset codes to contract descriptors. Lookups go through a TTL cache since
// the poller resolves the same handful of codes every cycle.
type TokenRegistry struct {
	mu      sync.Mutex
	builtin []entity.TokenInfo
	custom  map[string]entity.TokenInfo
	cache   *gocache.Cache
}

// NewTokenRegistry builds a registry over the configured token set.
func NewTokenRegistry(builtin []entity.TokenInfo, cacheTTL time.Duration) *TokenRegistry {
	return &TokenRegistry{
		builtin: builtin,
		custom:  make(map[string]entity.TokenInfo),
		cache:   gocache.New(cacheTTL, 2*cacheTTL),
	}
}

// Resolve returns the descriptor for an asset code, built-in entries first.
func (r *TokenRegistry) Resolve(assetCode string) (entity.TokenInfo, bool) {
	if cached, ok := r.cache.Get(assetCode); ok {
		return cached.(entity.TokenInfo), true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tok := range r.builtin {
		if tok.AssetCode == assetCode {
			r.cache.SetDefault(assetCode, tok)
			return tok, true
		}
	}
	if tok, ok := r.custom[assetCode]; ok {
		r.cache.SetDefault(assetCode, tok)
		return tok, true
	}
	return entity.TokenInfo{}, false
}

// All returns built-in descriptors followed by custom ones.
func (r *TokenRegistry) All() []entity.TokenInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.TokenInfo, 0, len(r.builtin)+len(r.custom))
	out = append(out, r.builtin...)
	for _, tok := range r.custom {
		out = append(out, tok)
	}
	return out
}

// AddCustom validates and stores a custom token descriptor, returning the
// normalized form. Re-adding an existing custom code replaces it; built-in
// tokens cannot be modified.
func (r *TokenRegistry) AddCustom(tok entity.TokenInfo) (entity.TokenInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, builtin := range r.builtin {
		if strings.EqualFold(builtin.AssetCode, tok.AssetCode) ||
			strings.EqualFold(builtin.Name, tok.Name) {
			return entity.TokenInfo{}, entity.ErrCannotModifyToken
		}
	}

	if tok.AssetCode != strings.ToUpper(tok.AssetCode) {
		return entity.TokenInfo{}, entity.ErrInvalidTokenCode
	}
	if len(tok.AssetCode) < 2 || len(tok.AssetCode) > 7 {
		return entity.TokenInfo{}, entity.ErrInvalidTokenCodeLength
	}
	if len(tok.Name) < 3 || len(tok.Name) > 20 {
		return entity.TokenInfo{}, entity.ErrInvalidTokenName
	}
	if _, err := utils.ParseBig(tok.Multiplier); err != nil {
		return entity.TokenInfo{}, entity.ErrInvalidTokenMultiplier
	}
	if utils.CmpDecimal(tok.Multiplier, "1") < 0 || utils.CmpDecimal(tok.Multiplier, maxTokenMultiplier) > 0 {
		return entity.TokenInfo{}, entity.ErrInvalidTokenMultiplier
	}
	contract := strings.ToLower(strings.TrimPrefix(tok.ContractAddress, "0x"))
	if !utils.IsHex(contract) || len(contract) != 40 {
		return entity.TokenInfo{}, entity.ErrInvalidContractAddress
	}

	normalized := entity.TokenInfo{
		AssetCode:       tok.AssetCode,
		Name:            tok.Name,
		Multiplier:      tok.Multiplier,
		ContractAddress: "0x" + contract,
	}
	r.custom[normalized.AssetCode] = normalized
	r.cache.Delete(normalized.AssetCode)
	return normalized, nil
}
