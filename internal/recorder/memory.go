package recorder

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"QuoteLedger/internal/model"
)

// MemoryRecorder keeps records in process. Used for dry runs and tests.
type MemoryRecorder struct {
	mu   sync.Mutex
	rows map[string]model.QuoteRecord
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{rows: make(map[string]model.QuoteRecord)}
}

func (m *MemoryRecorder) Append(ctx context.Context, rec *model.QuoteRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	k := rec.PartitionKey + "\x00" + rec.RowKey
	if _, ok := m.rows[k]; ok {
		return fmt.Errorf("append %s/%s: %w", rec.PartitionKey, rec.RowKey, ErrDuplicateRow)
	}
	m.rows[k] = *rec
	return nil
}

// Records returns a copy of all rows ordered by partition and row key.
func (m *MemoryRecorder) Records() []model.QuoteRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.QuoteRecord, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PartitionKey != out[j].PartitionKey {
			return out[i].PartitionKey < out[j].PartitionKey
		}
		return out[i].RowKey < out[j].RowKey
	})
	return out
}

func (m *MemoryRecorder) Close() error { return nil }
