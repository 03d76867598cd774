package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SimplePrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "bitcoin,ethereum", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		assert.Equal(t, "true", r.URL.Query().Get("include_market_cap"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":60000.5,"usd_market_cap":1.2e12},"ethereum":{"usd":3000}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", zerolog.Nop())
	quotes, err := client.SimplePrice(context.Background(), []string{"ethereum", "bitcoin"})
	require.NoError(t, err)

	require.Contains(t, quotes, "bitcoin")
	assert.Equal(t, 60000.5, *quotes["bitcoin"].USD)
	assert.Equal(t, 1.2e12, *quotes["bitcoin"].USDMarketCap)
	assert.Nil(t, quotes["ethereum"].USDMarketCap)
}

func TestClient_SimplePrice_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, zerolog.Nop()).SimplePrice(context.Background(), []string{"bitcoin"})
	assert.ErrorContains(t, err, "429")
}

func TestClient_SimplePrice_NoIDs(t *testing.T) {
	quotes, err := NewClient("http://unused.invalid", zerolog.Nop()).SimplePrice(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, quotes)
}
