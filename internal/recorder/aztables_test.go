package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"QuoteLedger/internal/model"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeEntityAdder struct {
	payloads [][]byte
	err      error
}

func (f *fakeEntityAdder) AddEntity(_ context.Context, entity []byte, _ *aztables.AddEntityOptions) (aztables.AddEntityResponse, error) {
	if f.err != nil {
		return aztables.AddEntityResponse{}, f.err
	}
	f.payloads = append(f.payloads, entity)
	return aztables.AddEntityResponse{}, nil
}

func TestTableRecorder_AppendPayload(t *testing.T) {
	fake := &fakeEntityAdder{}
	r := &TableRecorder{client: fake, table: "values"}

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := model.NewQuoteRecord(model.DefaultPartitionKey, decimal.RequireFromString("314.1500"), at)
	require.NoError(t, r.Append(context.Background(), rec))
	require.Len(t, fake.payloads, 1)

	var got map[string]any
	require.NoError(t, json.Unmarshal(fake.payloads[0], &got))
	require.Equal(t, "TestPartitionKey", got["PartitionKey"])
	require.Equal(t, "20240101000000000000", got["RowKey"])
	require.Equal(t, "314.15", got["value"])
	require.Equal(t, "Edm.DateTime", got["dateTime@odata.type"])
	require.Contains(t, got["dateTime"], "2024-01-01T00:00:00")
}

func TestTableRecorder_AppendError(t *testing.T) {
	boom := errors.New("connection reset")
	r := &TableRecorder{client: &fakeEntityAdder{err: boom}, table: "values"}

	err := r.Append(context.Background(), model.NewQuoteRecord("p", decimal.NewFromInt(1), time.Now()))
	require.ErrorIs(t, err, boom)
	require.False(t, errors.Is(err, ErrDuplicateRow))
}

func TestHasErrorCode(t *testing.T) {
	exists := &azcore.ResponseError{ErrorCode: "EntityAlreadyExists", StatusCode: http.StatusConflict}
	require.True(t, hasErrorCode(errors.Join(exists), "EntityAlreadyExists"))
	require.False(t, hasErrorCode(exists, "TableAlreadyExists"))

	bare := &azcore.ResponseError{StatusCode: http.StatusConflict}
	require.True(t, hasErrorCode(bare, "EntityAlreadyExists"))

	require.False(t, hasErrorCode(errors.New("plain"), "EntityAlreadyExists"))
}
