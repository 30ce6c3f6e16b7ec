package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"QuoteLedger/internal/model"

	"github.com/shopspring/decimal"
)

// DefaultFinnhubBaseURL is the public Finnhub REST endpoint.
const DefaultFinnhubBaseURL = "https://finnhub.io/api/v1"

// FinnhubFetcher implements Fetcher using the Finnhub quote API.
type FinnhubFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewFinnhubFetcher creates a new fetcher with optional proxy support.
func NewFinnhubFetcher(baseURL, apiKey, proxyURL string, timeout time.Duration) *FinnhubFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = DefaultFinnhubBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FinnhubFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (f *FinnhubFetcher) Name() string { return "finnhub" }

// finnhubQuote is the JSON shape of /quote. Prices decode straight into
// decimals so no binary floating point is involved.
type finnhubQuote struct {
	Current       decimal.Decimal `json:"c"`
	Change        decimal.Decimal `json:"d"`
	PercentChange decimal.Decimal `json:"dp"`
	High          decimal.Decimal `json:"h"`
	Low           decimal.Decimal `json:"l"`
	Open          decimal.Decimal `json:"o"`
	PreviousClose decimal.Decimal `json:"pc"`
	Timestamp     int64           `json:"t"`
}

func (f *FinnhubFetcher) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	endpoint := fmt.Sprintf("%s/quote?symbol=%s", f.BaseURL, url.QueryEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("X-Finnhub-Token", f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("finnhub fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("finnhub: status %d, body: %s", resp.StatusCode, string(body))
	}

	var q finnhubQuote
	if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
		return nil, fmt.Errorf("finnhub decode: %w", err)
	}
	// Unknown symbols come back as 200 with every field zeroed.
	if !q.Current.IsPositive() {
		return nil, fmt.Errorf("finnhub: no price for %q", symbol)
	}

	quote := &model.Quote{
		Symbol:        symbol,
		Current:       q.Current,
		High:          q.High,
		Low:           q.Low,
		Open:          q.Open,
		PreviousClose: q.PreviousClose,
	}
	if q.Timestamp > 0 {
		quote.Timestamp = time.Unix(q.Timestamp, 0).UTC()
	}
	return quote, nil
}
