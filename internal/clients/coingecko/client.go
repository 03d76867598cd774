// Package coingecko provides a minimal client for the CoinGecko simple price API.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the public CoinGecko API root
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// Quote is the USD price and market cap of one coin
type Quote struct {
	USD          *float64 `json:"usd"`
	USDMarketCap *float64 `json:"usd_market_cap"`
}

// Client for api.coingecko.com
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new CoinGecko client
func NewClient(baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log.With().Str("client", "coingecko").Logger(),
	}
}

// SimplePrice fetches USD quotes (with market cap) for the given coin ids
func (c *Client) SimplePrice(ctx context.Context, coinIDs []string) (map[string]Quote, error) {
	if len(coinIDs) == 0 {
		return map[string]Quote{}, nil
	}

	ids := append([]string(nil), coinIDs...)
	sort.Strings(ids)

	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", "usd")
	params.Set("include_market_cap", "true")
	endpoint := c.baseURL + "/simple/price?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debug().Str("url", endpoint).Msg("Fetching prices")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var quotes map[string]Quote
	if err := json.NewDecoder(resp.Body).Decode(&quotes); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return quotes, nil
}
