package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aristath/pricecast/internal/clients/coingecko"
	"github.com/aristath/pricecast/internal/domain"
	"github.com/aristath/pricecast/internal/modules/prices"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockQuoteFetcher is a mock quote fetcher for testing
type MockQuoteFetcher struct {
	mock.Mock
}

func (m *MockQuoteFetcher) SimplePrice(ctx context.Context, coinIDs []string) (map[string]coingecko.Quote, error) {
	args := m.Called(coinIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]coingecko.Quote), args.Error(1)
}

func TestCollector_Run(t *testing.T) {
	fetcher := new(MockQuoteFetcher)
	fetcher.On("SimplePrice", []string{"bitcoin", "cardano", "ethereum"}).Return(map[string]coingecko.Quote{
		"bitcoin":  {USD: domain.Float(60000), USDMarketCap: domain.Float(1.2e12)},
		"ethereum": {USD: domain.Float(3000)},
		"cardano":  {},
	}, nil)

	store := prices.NewMemoryStore()
	c := New(fetcher, store, map[string]string{"bitcoin": "btc", "ethereum": "eth", "cardano": "ada"}, zerolog.Nop())
	fixed := time.Date(2024, 3, 1, 12, 0, 30, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	n, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	points, err := store.Find(context.Background(), prices.Query{})
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "btc", points[0].AssetID)
	assert.Equal(t, "bitcoin", points[0].Name)
	assert.Equal(t, 1.2e12, *points[0].MarketCap)
	assert.True(t, points[0].ObservedAt.Equal(fixed))
	assert.Equal(t, "eth", points[1].AssetID)
	assert.Nil(t, points[1].MarketCap)
	fetcher.AssertExpectations(t)
}

func TestCollector_Run_FetchFailureWritesNothing(t *testing.T) {
	fetcher := new(MockQuoteFetcher)
	fetcher.On("SimplePrice", mock.Anything).Return(nil, errors.New("timeout"))

	store := prices.NewMemoryStore()
	_, err := New(fetcher, store, map[string]string{"bitcoin": "btc"}, zerolog.Nop()).Run(context.Background())
	assert.ErrorContains(t, err, "timeout")

	assets, err := store.Assets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, assets)
}
