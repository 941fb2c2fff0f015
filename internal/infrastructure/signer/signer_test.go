package signer

import (
	"strings"
	"testing"

	"wallet_engine/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey      = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testDest     = "0x9fc3da866e7df3a1c57fff1ce295ffbb9009ce32"
	testContract = "0x1c6972661e9e2d0a6471488dbd31a43425c0f4e4"
	testChainID  = int64(77)
)

func decodePayload(t *testing.T, payload string) *types.Transaction {
	t.Helper()
	raw, err := hexutil.Decode(payload)
	require.NoError(t, err)
	var tx types.Transaction
	require.NoError(t, tx.UnmarshalBinary(raw))
	return &tx
}

func TestNewEIP155Signer(t *testing.T) {
	s, err := NewEIP155Signer(testKey, testChainID)
	require.NoError(t, err)
	assert.Len(t, s.Address(), 42)

	// 0x prefix is accepted too.
	s2, err := NewEIP155Signer("0x"+testKey, testChainID)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), s2.Address())

	_, err = NewEIP155Signer("not-a-key", testChainID)
	assert.Error(t, err)
}

func TestSignPrimaryTransfer(t *testing.T) {
	s, err := NewEIP155Signer(testKey, testChainID)
	require.NoError(t, err)

	draft := &entity.Transaction{
		AssetCode:    "KUSD",
		NativeAmount: "-21000000000500",
		NetworkFee:   "21000000000000",
		Aux: entity.AuxParams{
			To:       []string{testDest},
			Gas:      "21000",
			GasPrice: "1000000000",
		},
	}

	payload, txid, err := s.Sign(draft, "7")
	require.NoError(t, err)
	assert.NotEmpty(t, txid)

	signed := decodePayload(t, payload)
	assert.Equal(t, uint64(7), signed.Nonce())
	assert.Equal(t, testDest, strings.ToLower(signed.To().Hex()))
	// The wire value is the draft amount with the fee stripped back out.
	assert.Equal(t, "500", signed.Value().String())
	assert.Equal(t, uint64(21000), signed.Gas())
	assert.Equal(t, "1000000000", signed.GasPrice().String())
	assert.Empty(t, signed.Data())
	assert.Equal(t, int64(77), signed.ChainId().Int64())
	assert.Equal(t, txid, signed.Hash().Hex())
}

func TestSignTokenTransfer(t *testing.T) {
	s, err := NewEIP155Signer(testKey, testChainID)
	require.NoError(t, err)

	draft := &entity.Transaction{
		AssetCode:        "TOK",
		NativeAmount:     "-500",
		NetworkFee:       "0",
		ParentNetworkFee: "37123000000000",
		Aux: entity.AuxParams{
			To:                    []string{testContract},
			TokenRecipientAddress: testDest,
			Gas:                   "37123",
			GasPrice:              "1000000000",
		},
	}

	payload, _, err := s.Sign(draft, "0")
	require.NoError(t, err)

	signed := decodePayload(t, payload)
	assert.Equal(t, "0", signed.Value().String())
	assert.Equal(t, testContract, strings.ToLower(signed.To().Hex()))

	// transfer(address,uint256) selector plus two packed words.
	data := signed.Data()
	require.Len(t, data, 4+32+32)
	assert.Equal(t, []byte{0xa9, 0x05, 0x9c, 0xbb}, data[:4])
}

func TestSignRejectsBadDraft(t *testing.T) {
	s, err := NewEIP155Signer(testKey, testChainID)
	require.NoError(t, err)

	_, _, err = s.Sign(&entity.Transaction{}, "0")
	assert.Error(t, err)

	draft := &entity.Transaction{
		NativeAmount: "-1",
		Aux:          entity.AuxParams{To: []string{testDest}, Gas: "21000", GasPrice: "1"},
	}
	_, _, err = s.Sign(draft, "not-a-nonce")
	assert.Error(t, err)
}
