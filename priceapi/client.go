// Package priceapi implements control.PriceSource against Nordpool's day-ahead market data feed,
// in the request/decode/wrap idiom the teacher uses for its own market-data client.
package priceapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"log/slog"

	"github.com/cepro/homebess/priceview"
)

const dayAheadPricesURL = "https://dataportal-api.nordpoolgroup.com/api/DayAheadPrices"

// Client fetches day-ahead prices from Nordpool and caches the last response per (date, area), so
// that repeated GetPrices calls for the same day (e.g. several optimizations or schedule lookups)
// don't repeat the HTTP round trip.
type Client struct {
	client http.Client
	logger *slog.Logger

	mu          sync.RWMutex
	cachedKey   cacheKey
	cachedRows  []priceview.HourlyPrice
	cachedValid bool

	// requestOverride replaces dayAheadPricesURL when set, for tests to point at a local fake.
	requestOverride string
}

type cacheKey struct {
	date string
	area string
}

// New returns a Client using httpClient for outbound requests.
func New(httpClient http.Client) *Client {
	return &Client{
		client: httpClient,
		logger: slog.Default().With("component", "priceapi"),
	}
}

type multiAreaEntry struct {
	DeliveryStart time.Time          `json:"deliveryStart"`
	DeliveryEnd   time.Time          `json:"deliveryEnd"`
	EntryPerArea  map[string]float64 `json:"entryPerArea"`
}

type dayAheadResponse struct {
	MultiAreaEntries []multiAreaEntry `json:"multiAreaEntries"`
}

// GetPrices implements control.PriceSource. It returns one row per hour of date in area's bidding
// zone, or a wrapped HTTP/decode error if the feed can't be reached or parsed;
// callers treat a short/empty result as NoPrices.
func (c *Client) GetPrices(ctx context.Context, date time.Time, area string) ([]priceview.HourlyPrice, error) {
	key := cacheKey{date: date.Format("2006-01-02"), area: area}

	c.mu.RLock()
	if c.cachedValid && c.cachedKey == key {
		rows := c.cachedRows
		c.mu.RUnlock()
		return rows, nil
	}
	c.mu.RUnlock()

	resp, err := c.requestDayAhead(ctx, key.date, area)
	if err != nil {
		return nil, err
	}

	rows := make([]priceview.HourlyPrice, 0, len(resp.MultiAreaEntries))
	for _, entry := range resp.MultiAreaEntries {
		price, ok := entry.EntryPerArea[area]
		if !ok {
			continue
		}
		rows = append(rows, priceview.HourlyPrice{
			Timestamp:     entry.DeliveryStart,
			NordpoolPrice: price / 1000, // EUR/MWh -> EUR/kWh
		})
	}

	c.mu.Lock()
	c.cachedKey = key
	c.cachedRows = rows
	c.cachedValid = true
	c.mu.Unlock()

	c.logger.Info("fetched day-ahead prices", "date", key.date, "area", area, "rows", len(rows))

	return rows, nil
}

func (c *Client) requestDayAhead(ctx context.Context, dateStr, area string) (dayAheadResponse, error) {
	url := dayAheadPricesURL
	if c.requestOverride != "" {
		url = c.requestOverride
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return dayAheadResponse{}, fmt.Errorf("build request: %w", err)
	}
	q := req.URL.Query()
	q.Set("date", dateStr)
	q.Set("market", "DayAhead")
	q.Set("deliveryArea", area)
	q.Set("currency", "EUR")
	req.URL.RawQuery = q.Encode()

	resp, err := c.client.Do(req)
	if err != nil {
		return dayAheadResponse{}, fmt.Errorf("get day-ahead prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return dayAheadResponse{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var parsed dayAheadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return dayAheadResponse{}, fmt.Errorf("parse body: %w", err)
	}

	return parsed, nil
}

// InvalidateCache clears the cached response, forcing the next GetPrices call to hit the network.
func (c *Client) InvalidateCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cachedValid = false
}
