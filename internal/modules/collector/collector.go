// Package collector polls the upstream quote API and appends samples to the price store.
package collector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aristath/pricecast/internal/clients/coingecko"
	"github.com/aristath/pricecast/internal/domain"
	"github.com/aristath/pricecast/internal/modules/prices"
	"github.com/aristath/pricecast/internal/utils"
	"github.com/rs/zerolog"
)

// QuoteFetcher fetches current quotes keyed by coin id
type QuoteFetcher interface {
	SimplePrice(ctx context.Context, coinIDs []string) (map[string]coingecko.Quote, error)
}

// Collector writes one sample per configured coin per run
type Collector struct {
	fetcher QuoteFetcher
	writer  prices.Writer
	assets  map[string]string // coin id -> asset id
	log     zerolog.Logger
	now     func() time.Time
}

// New creates a new collector
func New(fetcher QuoteFetcher, writer prices.Writer, assets map[string]string, log zerolog.Logger) *Collector {
	return &Collector{
		fetcher: fetcher,
		writer:  writer,
		assets:  assets,
		log:     log.With().Str("component", "collector").Logger(),
		now:     time.Now,
	}
}

// Run fetches quotes and stores them stamped with the current time.
// Coins missing from the response or without a USD price are skipped.
func (c *Collector) Run(ctx context.Context) (int, error) {
	defer utils.OperationTimer("collect", c.log)()

	coinIDs := make([]string, 0, len(c.assets))
	for coin := range c.assets {
		coinIDs = append(coinIDs, coin)
	}
	sort.Strings(coinIDs)

	quotes, err := c.fetcher.SimplePrice(ctx, coinIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch quotes: %w", err)
	}

	observedAt := c.now().UTC()
	points := make([]domain.PricePoint, 0, len(coinIDs))
	for _, coin := range coinIDs {
		q, ok := quotes[coin]
		if !ok || q.USD == nil || !domain.IsFinite(*q.USD) {
			c.log.Warn().Str("coin", coin).Msg("No USD quote in response, skipping")
			continue
		}
		points = append(points, domain.PricePoint{
			AssetID:    c.assets[coin],
			Name:       coin,
			Price:      *q.USD,
			MarketCap:  q.USDMarketCap,
			ObservedAt: observedAt,
		})
	}

	if err := c.writer.Insert(ctx, points); err != nil {
		return 0, fmt.Errorf("failed to store quotes: %w", err)
	}

	c.log.Info().Int("count", len(points)).Msg("Prices collected")
	return len(points), nil
}
