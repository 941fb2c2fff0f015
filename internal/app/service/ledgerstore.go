package service

import (
	"sort"
	"strconv"
	"sync"

	"wallet_engine/internal/domain/entity"
	"wallet_engine/internal/pkg/utils"
)

// LedgerStore owns the in-memory WalletLedger for one wallet. It is the only
// shared mutable state in the engine; every access goes through the mutex so
// the poller tasks, the spend builder and the broadcaster never race on it.
//
// Mutations set the dirty flag, and transaction upserts additionally enqueue
// the transaction onto a changed buffer that the poller drains after each
// reconciliation batch.
type LedgerStore struct {
	mu      sync.Mutex
	ledger  *entity.WalletLedger
	primary string
	dirty   bool
	changed []*entity.Transaction
}

// NewLedgerStore wraps an already-restored ledger.
func NewLedgerStore(ledger *entity.WalletLedger, primaryAsset string) *LedgerStore {
	return &LedgerStore{ledger: ledger, primary: primaryAsset}
}

// PrimaryAsset returns the primary asset code.
func (s *LedgerStore) PrimaryAsset() string {
	return s.primary
}

// Address returns the wallet's public address.
func (s *LedgerStore) Address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Address
}

// BlockHeight returns the last observed chain height.
func (s *LedgerStore) BlockHeight() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.BlockHeight
}

// SetBlockHeight stores a new chain height, reporting whether it changed.
func (s *LedgerStore) SetBlockHeight(height int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ledger.BlockHeight == height {
		return false
	}
	s.ledger.BlockHeight = height
	s.dirty = true
	return true
}

// LastAddressQueryHeight returns the re-scan watermark.
func (s *LedgerStore) LastAddressQueryHeight() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.LastAddressQueryHeight
}

// SetLastAddressQueryHeight advances the re-scan watermark.
func (s *LedgerStore) SetLastAddressQueryHeight(height int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ledger.LastAddressQueryHeight != height {
		s.ledger.LastAddressQueryHeight = height
		s.dirty = true
	}
}

// NextNonce returns the next outgoing nonce as a decimal string.
func (s *LedgerStore) NextNonce() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.NextNonce
}

// AdvanceNonce shifts the next nonce by delta and returns the new value.
func (s *LedgerStore) AdvanceNonce(delta int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.NextNonce = utils.AddDecimal(s.ledger.NextNonce, strconv.FormatInt(delta, 10))
	s.dirty = true
	return s.ledger.NextNonce
}

// Balance returns the balance for an asset, "0" when never observed.
func (s *LedgerStore) Balance(assetCode string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance, ok := s.ledger.TotalBalances[assetCode]
	if !ok {
		return "0"
	}
	return balance
}

// SetBalance stores a balance, reporting whether the value changed.
func (s *LedgerStore) SetBalance(assetCode, balance string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.ledger.TotalBalances[assetCode]
	if ok && utils.CmpDecimal(prev, balance) == 0 {
		return false
	}
	s.ledger.TotalBalances[assetCode] = balance
	s.dirty = true
	return true
}

// EnabledTokens returns a copy of the ordered enabled asset set.
func (s *LedgerStore) EnabledTokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.ledger.EnabledTokens))
	copy(out, s.ledger.EnabledTokens)
	return out
}

// EnableToken adds an asset to the enabled set, reporting whether it was new.
func (s *LedgerStore) EnableToken(assetCode string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, code := range s.ledger.EnabledTokens {
		if code == assetCode {
			return false
		}
	}
	s.ledger.EnabledTokens = append(s.ledger.EnabledTokens, assetCode)
	s.dirty = true
	return true
}

// DisableToken removes an asset from the enabled set. The primary asset is
// never removed.
func (s *LedgerStore) DisableToken(assetCode string) bool {
	if assetCode == s.primary {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, code := range s.ledger.EnabledTokens {
		if code == assetCode {
			s.ledger.EnabledTokens = append(s.ledger.EnabledTokens[:i], s.ledger.EnabledTokens[i+1:]...)
			s.dirty = true
			return true
		}
	}
	return false
}

// NetworkFees returns the current fee table.
func (s *LedgerStore) NetworkFees() entity.FeeTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.NetworkFees
}

// SetNetworkFees replaces the fee table.
func (s *LedgerStore) SetNetworkFees(fees entity.FeeTable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.NetworkFees = fees
	s.dirty = true
}

// TransactionCount returns the history length for an asset.
func (s *LedgerStore) TransactionCount(assetCode string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ledger.TransactionsByAsset[assetCode])
}

// Transactions returns a slice of the asset's history clamped to the valid
// range: an out-of-range startIndex clamps to the last element, a
// non-positive or oversized limit clamps to the remaining length.
func (s *LedgerStore) Transactions(assetCode string, startIndex, limit int) []*entity.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.ledger.TransactionsByAsset[assetCode]
	if len(list) == 0 {
		return []*entity.Transaction{}
	}
	if startIndex < 0 {
		startIndex = 0
	}
	if startIndex >= len(list) {
		startIndex = len(list) - 1
	}
	remaining := len(list) - startIndex
	if limit <= 0 || limit > remaining {
		limit = remaining
	}
	out := make([]*entity.Transaction, limit)
	copy(out, list[startIndex:startIndex+limit])
	return out
}

// RecordOrUpdateTransaction upserts a transaction into the asset's history by
// normalized id. A new id is appended and the list re-sorted by descending
// date; an existing id is replaced only when block height, fee, amount or
// error code differ. Reports whether the ledger changed; every change is also
// queued on the changed buffer.
func (s *LedgerStore) RecordOrUpdateTransaction(assetCode string, tx *entity.Transaction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.ledger.TransactionsByAsset[assetCode]
	idx := findTransaction(list, tx.ID)
	if idx == -1 {
		list = append(list, tx)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Date > list[j].Date
		})
		s.ledger.TransactionsByAsset[assetCode] = list
		s.dirty = true
		s.changed = append(s.changed, tx)
		return true
	}

	prev := list[idx]
	if prev.BlockHeight == tx.BlockHeight &&
		prev.NetworkFee == tx.NetworkFee &&
		prev.NativeAmount == tx.NativeAmount &&
		prev.Aux.ErrorVal == tx.Aux.ErrorVal {
		return false
	}
	list[idx] = tx
	s.dirty = true
	s.changed = append(s.changed, tx)
	return true
}

// HasTransaction reports whether the asset's history already contains the
// normalized id.
func (s *LedgerStore) HasTransaction(assetCode, txid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return findTransaction(s.ledger.TransactionsByAsset[assetCode], txid) != -1
}

func findTransaction(list []*entity.Transaction, txid string) int {
	norm := utils.NormalizeAddress(txid)
	for i, tx := range list {
		if utils.NormalizeAddress(tx.ID) == norm {
			return i
		}
	}
	return -1
}

// DrainChanged atomically takes and clears the changed-transaction buffer,
// so no change is reported twice or dropped.
func (s *LedgerStore) DrainChanged() []*entity.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.changed
	s.changed = nil
	return out
}

// Dirty reports whether in-memory state has diverged from durable storage.
func (s *LedgerStore) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// MarkDirty forces a flush on the next persistence cycle.
func (s *LedgerStore) MarkDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = true
}

// Encode serializes the ledger and, on success, clears the dirty flag. The
// caller persists the returned document; a failed write re-marks dirty.
func (s *LedgerStore) Encode() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, err := s.ledger.Encode()
	if err != nil {
		return "", err
	}
	s.dirty = false
	return text, nil
}

// Dump serializes the ledger without touching the dirty flag. Debug use.
func (s *LedgerStore) Dump() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Encode()
}

// ResetForResync replaces the aggregate with a fresh ledger, preserving only
// the enabled token set, the fee table and the address.
func (s *LedgerStore) ResetForResync() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fresh := entity.NewWalletLedger(s.primary, s.ledger.Address)
	fresh.EnabledTokens = s.ledger.EnabledTokens
	fresh.NetworkFees = s.ledger.NetworkFees
	s.ledger = fresh
	s.changed = nil
	s.dirty = true
}
