package collector

import (
	"context"

	"QuoteLedger/internal/model"
)

// Fetcher defines the interface for fetching the current quote of a symbol.
type Fetcher interface {
	FetchQuote(ctx context.Context, symbol string) (*model.Quote, error)
	Name() string
}
