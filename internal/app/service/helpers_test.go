package service

import (
	"context"
	"fmt"
	"sync"

	"wallet_engine/internal/domain/entity"

	jsoniter "github.com/json-iterator/go"
)

const (
	testPrimary  = "KUSD"
	testAddress  = "0x523b4a1f0612e6ef12a4cbf2cd0d4bbd05a34e53"
	testContract = "0x1c6972661e9e2d0a6471488dbd31a43425c0f4e4"
)

func newTestStore() *LedgerStore {
	return NewLedgerStore(entity.NewWalletLedger(testPrimary, testAddress), testPrimary)
}

// recordingCallbacks captures every engine notification for assertions.
type recordingCallbacks struct {
	balances     map[string]string
	txBatches    [][]*entity.Transaction
	blockHeights []int64
	progress     []float64
}

func newRecordingCallbacks() *recordingCallbacks {
	return &recordingCallbacks{balances: make(map[string]string)}
}

func (c *recordingCallbacks) OnBalanceChanged(assetCode string, balance string) {
	c.balances[assetCode] = balance
}

func (c *recordingCallbacks) OnTransactionsChanged(txs []*entity.Transaction) {
	c.txBatches = append(c.txBatches, txs)
}

func (c *recordingCallbacks) OnBlockHeightChanged(height int64) {
	c.blockHeights = append(c.blockHeights, height)
}

func (c *recordingCallbacks) OnAddressesChecked(progress float64) {
	c.progress = append(c.progress, progress)
}

// scriptedFetcher serves canned JSON documents in call order. Calls past the
// end of the script return an error.
type scriptedFetcher struct {
	mu        sync.Mutex
	responses []string
	calls     []string
	idx       int
}

func (f *scriptedFetcher) FetchJSON(_ context.Context, url string, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	if f.idx >= len(f.responses) {
		return fmt.Errorf("no scripted response for %s", url)
	}
	doc := f.responses[f.idx]
	f.idx++
	return jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(doc, out)
}

// stubSigner produces deterministic payloads so tests can assert re-signing.
type stubSigner struct {
	signCalls []string
	err       error
}

func (s *stubSigner) Sign(_ *entity.Transaction, nonce string) (string, string, error) {
	s.signCalls = append(s.signCalls, nonce)
	if s.err != nil {
		return "", "", s.err
	}
	return "0xpayload" + nonce, "0xtxid" + nonce, nil
}

// memBlob is an in-memory BlobStore.
type memBlob struct {
	mu    sync.Mutex
	files map[string]string
}

func newMemBlob() *memBlob {
	return &memBlob{files: make(map[string]string)}
}

func (b *memBlob) ReadText(path string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	text, ok := b.files[path]
	if !ok {
		return "", fmt.Errorf("no file at %s", path)
	}
	return text, nil
}

func (b *memBlob) WriteText(path, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.files[path] = text
	return nil
}

func (b *memBlob) get(path string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	text, ok := b.files[path]
	return text, ok
}
