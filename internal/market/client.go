// Package market is the gateway to a CoinGecko-compatible market-data API.
// It performs no retries; every failure is returned as an *Error.
package market

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"

	"github.com/matrixise/coinfolio/internal/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	PublicBaseURL = "https://api.coingecko.com/api/v3"
	ProBaseURL    = "https://pro-api.coingecko.com/api/v3"

	// MaxPerPage is the largest page size accepted by /coins/markets
	MaxPerPage = 250
	// MinQueryLength is the shortest query that triggers a search
	MinQueryLength = 3

	defaultSearchLimit = 50
	defaultTimeout     = 10 * time.Second
	maxErrorBody       = 2048
)

// Options configures a Client
type Options struct {
	BaseURL     string
	APIKey      string
	VsCurrency  string
	Timeout     time.Duration
	RateLimit   float64 // requests per second, 0 disables pacing
	SearchLimit int
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// Client issues read requests against the market-data API
type Client struct {
	baseURL      string
	apiKey       string
	apiKeyHeader string
	vsCurrency   string
	searchLimit  int
	client       *http.Client
	limiter      *rate.Limiter
	logger       *slog.Logger
}

// NewClient creates a gateway client
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = PublicBaseURL
	}

	header := "x-cg-demo-api-key"
	if strings.Contains(baseURL, "pro-api.coingecko.com") {
		header = "x-cg-pro-api-key"
	}

	currency := strings.ToLower(strings.TrimSpace(opts.VsCurrency))
	if currency == "" {
		currency = "usd"
	}

	searchLimit := opts.SearchLimit
	if searchLimit <= 0 {
		searchLimit = defaultSearchLimit
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &Client{
		baseURL:      baseURL,
		apiKey:       opts.APIKey,
		apiKeyHeader: header,
		vsCurrency:   currency,
		searchLimit:  searchLimit,
		client:       httpClient,
		limiter:      limiter,
		logger:       logger.OrDefault(opts.Logger).With("component", "market"),
	}
}

// FetchByIDs returns market records for ids. An empty id set returns an
// empty result without a request.
func (c *Client) FetchByIDs(ctx context.Context, ids []string) ([]Coin, error) {
	ids = normalizeIDs(ids)
	if len(ids) == 0 {
		return []Coin{}, nil
	}

	coins := make([]Coin, 0, len(ids))
	for start := 0; start < len(ids); start += MaxPerPage {
		end := min(start+MaxPerPage, len(ids))
		batch, err := c.markets(ctx, "fetch_by_ids", ids[start:end])
		if err != nil {
			return nil, err
		}
		coins = append(coins, batch...)
	}
	return coins, nil
}

// FetchCatalogPage returns one page of the full listing ordered by market cap
func (c *Client) FetchCatalogPage(ctx context.Context, page, perPage int) ([]Coin, error) {
	if page < 1 {
		return nil, &Error{Op: "catalog_page", Kind: ErrInvalid, Err: fmt.Errorf("page must be >= 1, got %d", page)}
	}
	if perPage < 1 || perPage > MaxPerPage {
		return nil, &Error{Op: "catalog_page", Kind: ErrInvalid, Err: fmt.Errorf("per_page must be within 1..%d, got %d", MaxPerPage, perPage)}
	}

	query := url.Values{}
	query.Set("vs_currency", c.vsCurrency)
	query.Set("order", "market_cap_desc")
	query.Set("per_page", strconv.Itoa(perPage))
	query.Set("page", strconv.Itoa(page))
	query.Set("sparkline", "true")
	query.Set("price_change_percentage", "24h")

	var coins []Coin
	if err := c.getJSON(ctx, "catalog_page", "/coins/markets", query, &coins); err != nil {
		return nil, err
	}
	if coins == nil {
		coins = []Coin{}
	}
	return coins, nil
}

// Search resolves a free-text query to coin ids, then fetches their market
// records. Queries shorter than MinQueryLength runes return an empty result
// without a request.
func (c *Client) Search(ctx context.Context, query string) ([]Coin, error) {
	if !IsSearchable(query) {
		return []Coin{}, nil
	}

	params := url.Values{}
	params.Set("query", strings.TrimSpace(query))

	var resp searchResponse
	if err := c.getJSON(ctx, "search", "/search", params, &resp); err != nil {
		return nil, err
	}

	ids := make([]string, 0, min(len(resp.Coins), c.searchLimit))
	for _, coin := range resp.Coins {
		if len(ids) == c.searchLimit {
			break
		}
		ids = append(ids, coin.ID)
	}
	ids = normalizeIDs(ids)
	if len(ids) == 0 {
		return []Coin{}, nil
	}

	return c.markets(ctx, "search", ids)
}

// IsSearchable reports whether query is long enough to be searched
func IsSearchable(query string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(query)) >= MinQueryLength
}

func (c *Client) markets(ctx context.Context, op string, ids []string) ([]Coin, error) {
	query := url.Values{}
	query.Set("vs_currency", c.vsCurrency)
	query.Set("ids", strings.Join(ids, ","))
	query.Set("order", "market_cap_desc")
	query.Set("per_page", strconv.Itoa(MaxPerPage))
	query.Set("page", "1")
	query.Set("sparkline", "true")
	query.Set("price_change_percentage", "24h")

	var coins []Coin
	if err := c.getJSON(ctx, op, "/coins/markets", query, &coins); err != nil {
		return nil, err
	}
	if coins == nil {
		coins = []Coin{}
	}
	return coins, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &Error{Op: op, Kind: ErrTransport, Err: err}
	}

	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return &Error{Op: op, Kind: ErrInvalid, Err: err}
	}
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return &Error{Op: op, Kind: ErrInvalid, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(c.apiKeyHeader, c.apiKey)
	}

	c.logger.Debug("Requesting market data", "op", op, "path", path)
	start := time.Now()

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("Market request failed", "op", op, "error", err)
		return &Error{Op: op, Kind: ErrTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("Market API returned error status", "op", op, "status", resp.StatusCode)
		return &Error{Op: op, Kind: ErrStatus, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Warn("Failed to decode market response", "op", op, "error", err)
		return &Error{Op: op, Kind: ErrDecode, Err: err}
	}

	c.logger.Debug("Market data received", "op", op, "duration", time.Since(start))
	return nil
}

func normalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
