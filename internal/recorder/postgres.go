package recorder

import (
	"context"
	"fmt"
	"log"

	"QuoteLedger/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRecorder persists quote records to PostgreSQL.
type PostgresRecorder struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresRecorder connects with the given DSN and creates the table if needed.
func NewPostgresRecorder(ctx context.Context, dsn, table string) (*PostgresRecorder, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	r := &PostgresRecorder{pool: pool, table: table}
	if err := r.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Printf("[INFO] postgres recorder connected: table=%s", table)
	return r, nil
}

func (r *PostgresRecorder) migrate(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		partition_key TEXT        NOT NULL,
		row_key       TEXT        NOT NULL,
		value         NUMERIC     NOT NULL,
		captured_at   TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (partition_key, row_key)
	)`, r.ident())
	_, err := r.pool.Exec(ctx, stmt)
	return err
}

func (r *PostgresRecorder) ident() string {
	return pgx.Identifier{r.table}.Sanitize()
}

func (r *PostgresRecorder) Append(ctx context.Context, rec *model.QuoteRecord) error {
	// value is bound as text and cast server-side to keep every digit.
	tag, err := r.pool.Exec(ctx, fmt.Sprintf(`INSERT INTO %s
		(partition_key, row_key, value, captured_at)
		VALUES ($1, $2, $3::numeric, $4)
		ON CONFLICT (partition_key, row_key) DO NOTHING`, r.ident()),
		rec.PartitionKey, rec.RowKey, rec.Value.String(), rec.CapturedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert %s/%s: %w", rec.PartitionKey, rec.RowKey, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("insert %s/%s: %w", rec.PartitionKey, rec.RowKey, ErrDuplicateRow)
	}
	return nil
}

func (r *PostgresRecorder) Close() error {
	log.Println("[INFO] closing postgres recorder")
	r.pool.Close()
	return nil
}
