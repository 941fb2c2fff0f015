package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestProgressTracker(t *testing.T) {
	t.Run("ReportsWeightedFraction", func(t *testing.T) {
		store := newTestStore()
		callbacks := newRecordingCallbacks()
		tracker := NewProgressTracker(store, callbacks, zap.NewNop())
		active := []string{testPrimary, "TOK"}

		tracker.SetRatio(testPrimary, 1)
		tracker.SetRatio("TOK", 0.5)
		tracker.Update(active)

		require.Len(t, callbacks.progress, 1)
		assert.InDelta(t, 0.75, callbacks.progress[0], 1e-9)
	})

	t.Run("CompletionFiresOnceAndSetsWatermark", func(t *testing.T) {
		store := newTestStore()
		store.SetBlockHeight(12345)
		callbacks := newRecordingCallbacks()
		tracker := NewProgressTracker(store, callbacks, zap.NewNop())
		active := []string{testPrimary, "TOK"}

		tracker.SetRatio(testPrimary, 1)
		tracker.SetRatio("TOK", 1)
		tracker.Update(active)
		tracker.Update(active)
		tracker.Update(active)

		require.Len(t, callbacks.progress, 1)
		assert.Equal(t, 1.0, callbacks.progress[0])
		assert.Equal(t, int64(12345), store.LastAddressQueryHeight())
	})

	t.Run("RatiosAreClamped", func(t *testing.T) {
		store := newTestStore()
		callbacks := newRecordingCallbacks()
		tracker := NewProgressTracker(store, callbacks, zap.NewNop())

		tracker.SetRatio(testPrimary, -0.5)
		tracker.Update([]string{testPrimary})
		require.Len(t, callbacks.progress, 1)
		assert.Equal(t, 0.0, callbacks.progress[0])

		tracker.SetRatio(testPrimary, 7)
		tracker.Update([]string{testPrimary})
		require.Len(t, callbacks.progress, 2)
		assert.Equal(t, 1.0, callbacks.progress[1])
	})

	t.Run("NoActiveAssetsIsComplete", func(t *testing.T) {
		store := newTestStore()
		callbacks := newRecordingCallbacks()
		tracker := NewProgressTracker(store, callbacks, zap.NewNop())

		tracker.Update(nil)
		require.Len(t, callbacks.progress, 1)
		assert.Equal(t, 1.0, callbacks.progress[0])
	})

	t.Run("ResetAllowsNewCycle", func(t *testing.T) {
		store := newTestStore()
		callbacks := newRecordingCallbacks()
		tracker := NewProgressTracker(store, callbacks, zap.NewNop())
		active := []string{testPrimary}

		tracker.SetRatio(testPrimary, 1)
		tracker.Update(active)
		require.Len(t, callbacks.progress, 1)

		tracker.Reset()
		tracker.Update(active)
		require.Len(t, callbacks.progress, 2)
		assert.Equal(t, 0.0, callbacks.progress[1])
	})
}
