package filestore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	store := New()
	path := filepath.Join(t.TempDir(), "txenginefolder", "wallet_ledger.json")

	_, err := store.ReadText(path)
	assert.Error(t, err)

	require.NoError(t, store.WriteText(path, `{"nextNonce":"4"}`))

	text, err := store.ReadText(path)
	require.NoError(t, err)
	assert.Equal(t, `{"nextNonce":"4"}`, text)

	// Overwrite in place.
	require.NoError(t, store.WriteText(path, `{"nextNonce":"5"}`))
	text, err = store.ReadText(path)
	require.NoError(t, err)
	assert.Equal(t, `{"nextNonce":"5"}`, text)
}
