package collector

import (
	"context"
	"sync/atomic"
	"time"

	"QuoteLedger/internal/model"

	"github.com/shopspring/decimal"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price decimal.Decimal
	Err   error
	calls atomic.Int32
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls reports how many times FetchQuote was invoked.
func (m *MockFetcher) Calls() int { return int(m.calls.Load()) }

func (m *MockFetcher) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	m.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &model.Quote{
		Symbol:    symbol,
		Current:   m.Price,
		Timestamp: time.Now().UTC(),
	}, nil
}
