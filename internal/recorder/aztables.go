package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"QuoteLedger/internal/model"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
)

// entityAdder is the subset of *aztables.Client the recorder uses.
type entityAdder interface {
	AddEntity(ctx context.Context, entity []byte, options *aztables.AddEntityOptions) (aztables.AddEntityResponse, error)
}

// TableRecorder appends quote records to an Azure Storage table.
type TableRecorder struct {
	client entityAdder
	table  string
}

// NewTableRecorder connects with a storage connection string and creates the
// table when it does not exist yet.
func NewTableRecorder(ctx context.Context, connectionString, table string) (*TableRecorder, error) {
	svc, err := aztables.NewServiceClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("table service client: %w", err)
	}
	client := svc.NewClient(table)
	if _, err := client.CreateTable(ctx, nil); err != nil && !hasErrorCode(err, "TableAlreadyExists") {
		return nil, fmt.Errorf("create table %s: %w", table, err)
	}
	log.Printf("[INFO] table recorder ready: table=%s", table)
	return &TableRecorder{client: client, table: table}, nil
}

func (r *TableRecorder) Append(ctx context.Context, rec *model.QuoteRecord) error {
	entity := aztables.EDMEntity{
		Entity: aztables.Entity{
			PartitionKey: rec.PartitionKey,
			RowKey:       rec.RowKey,
		},
		Properties: map[string]any{
			// Tables has no decimal type; a string keeps every digit.
			"value":    rec.Value.String(),
			"dateTime": aztables.EDMDateTime(rec.CapturedAt.UTC()),
		},
	}
	payload, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("marshal entity: %w", err)
	}
	if _, err := r.client.AddEntity(ctx, payload, nil); err != nil {
		if hasErrorCode(err, "EntityAlreadyExists") {
			return fmt.Errorf("add entity %s/%s: %w", rec.PartitionKey, rec.RowKey, ErrDuplicateRow)
		}
		return fmt.Errorf("add entity %s/%s: %w", rec.PartitionKey, rec.RowKey, err)
	}
	return nil
}

func (r *TableRecorder) Close() error { return nil }

func hasErrorCode(err error, code string) bool {
	var respErr *azcore.ResponseError
	if !errors.As(err, &respErr) {
		return false
	}
	return respErr.ErrorCode == code || (respErr.ErrorCode == "" && respErr.StatusCode == http.StatusConflict)
}
