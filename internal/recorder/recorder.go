package recorder

import (
	"context"
	"errors"

	"QuoteLedger/internal/model"
)

// ErrDuplicateRow is returned when a row with the same partition and row key
// already exists. Records are append-only.
var ErrDuplicateRow = errors.New("duplicate row")

// Recorder appends quote records to a table store.
type Recorder interface {
	Append(ctx context.Context, rec *model.QuoteRecord) error
	Close() error
}
