package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultPartitionKey groups every captured quote into a single partition.
const DefaultPartitionKey = "TestPartitionKey"

// Quote is a snapshot of an instrument's price as reported by the provider.
type Quote struct {
	Symbol        string
	Current       decimal.Decimal
	High          decimal.Decimal
	Low           decimal.Decimal
	Open          decimal.Decimal
	PreviousClose decimal.Decimal
	Timestamp     time.Time // provider time, zero if not reported
}

// QuoteRecord is one appended row in the quote table.
type QuoteRecord struct {
	PartitionKey string
	RowKey       string
	Value        decimal.Decimal
	CapturedAt   time.Time
}

// NewQuoteRecord builds a record for a price captured at the given instant.
// The instant is normalized to UTC and used for both RowKey and CapturedAt.
func NewQuoteRecord(partitionKey string, price decimal.Decimal, capturedAt time.Time) *QuoteRecord {
	at := capturedAt.UTC()
	return &QuoteRecord{
		PartitionKey: partitionKey,
		RowKey:       RowKey(at),
		Value:        price,
		CapturedAt:   at,
	}
}

// RowKey formats t as yyyyMMddHHmmss followed by six digits of microseconds.
// The result is fixed width, so lexical order matches chronological order.
func RowKey(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s%06d", t.Format("20060102150405"), t.Nanosecond()/int(time.Microsecond))
}
