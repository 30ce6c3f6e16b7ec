package recorder

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"QuoteLedger/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "quotes.db"), "values")
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestSQLiteRecorder_Append(t *testing.T) {
	r := openTestSQLite(t)
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := model.NewQuoteRecord(model.DefaultPartitionKey, decimal.RequireFromString("314.1500"), at)

	require.NoError(t, r.Append(context.Background(), rec))

	var (
		count      int
		rowKey     string
		value      string
		capturedAt string
	)
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM "values"`).Scan(&count))
	require.Equal(t, 1, count)
	require.NoError(t, r.db.QueryRow(
		`SELECT row_key, value, captured_at FROM "values" WHERE partition_key = ?`, "TestPartitionKey",
	).Scan(&rowKey, &value, &capturedAt))
	require.Equal(t, "20240101000000000000", rowKey)
	require.True(t, decimal.RequireFromString(value).Equal(decimal.RequireFromString("314.15")))
	require.Equal(t, "2024-01-01T00:00:00Z", capturedAt)
}

func TestSQLiteRecorder_PreservesPrecision(t *testing.T) {
	r := openTestSQLite(t)
	price := decimal.RequireFromString("0.1000000000000000055511151231257827")
	rec := model.NewQuoteRecord("p", price, time.Now())
	require.NoError(t, r.Append(context.Background(), rec))

	var value string
	require.NoError(t, r.db.QueryRow(`SELECT value FROM "values"`).Scan(&value))
	require.True(t, decimal.RequireFromString(value).Equal(price), "stored %s", value)
}

func TestSQLiteRecorder_DuplicateRow(t *testing.T) {
	r := openTestSQLite(t)
	rec := model.NewQuoteRecord("p", decimal.NewFromInt(1), time.Now())
	require.NoError(t, r.Append(context.Background(), rec))

	dup := *rec
	dup.Value = decimal.NewFromInt(2)
	err := r.Append(context.Background(), &dup)
	require.True(t, errors.Is(err, ErrDuplicateRow), "got %v", err)

	var value string
	require.NoError(t, r.db.QueryRow(`SELECT value FROM "values"`).Scan(&value))
	require.Equal(t, "1", value)
}

func TestSQLiteRecorder_CanceledContext(t *testing.T) {
	r := openTestSQLite(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Append(ctx, model.NewQuoteRecord("p", decimal.NewFromInt(1), time.Now()))
	require.Error(t, err)

	var count int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM "values"`).Scan(&count))
	require.Zero(t, count)
}

func TestNewSQLiteRecorder_InvalidTable(t *testing.T) {
	_, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "q.db"), `values"; DROP TABLE x; --`)
	require.Error(t, err)
}

func TestSQLiteRecorder_ReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quotes.db")
	r, err := NewSQLiteRecorder(path, "values")
	require.NoError(t, err)
	require.NoError(t, r.Append(context.Background(), model.NewQuoteRecord("p", decimal.NewFromInt(1), time.Now())))
	require.NoError(t, r.Close())

	r2, err := NewSQLiteRecorder(path, "values")
	require.NoError(t, err)
	defer r2.Close()
	var count int
	require.NoError(t, r2.db.QueryRow(`SELECT COUNT(*) FROM "values"`).Scan(&count))
	require.Equal(t, 1, count)
}
