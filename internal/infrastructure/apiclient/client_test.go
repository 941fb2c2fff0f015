package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFetchJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/blockheight":
			w.Write([]byte(`{"block_height": 1234}`))
		case "/garbage":
			w.Write([]byte(`{not json`))
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(time.Second, 100, 10, zap.NewNop())

	t.Run("DecodesBody", func(t *testing.T) {
		var res struct {
			BlockHeight int64 `json:"block_height"`
		}
		require.NoError(t, client.FetchJSON(context.Background(), srv.URL+"/blockheight", &res))
		assert.Equal(t, int64(1234), res.BlockHeight)
	})

	t.Run("NonOKStatusIsError", func(t *testing.T) {
		var res struct{}
		err := client.FetchJSON(context.Background(), srv.URL+"/missing", &res)
		assert.ErrorContains(t, err, "404")
	})

	t.Run("BadBodyIsError", func(t *testing.T) {
		var res struct{}
		err := client.FetchJSON(context.Background(), srv.URL+"/garbage", &res)
		assert.ErrorContains(t, err, "decode")
	})

	t.Run("CancelledContextAborts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		var res struct{}
		err := client.FetchJSON(ctx, srv.URL+"/blockheight", &res)
		assert.Error(t, err)
	})
}
