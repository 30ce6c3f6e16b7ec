package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"QuoteLedger/internal/model"

	_ "modernc.org/sqlite"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,62}$`)

// SQLiteRecorder persists quote records to a SQLite database.
type SQLiteRecorder struct {
	db    *sql.DB
	table string
	mu    sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath, table string) (*SQLiteRecorder, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, table: table}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: path=%s table=%s", dbPath, table)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	// Table names cannot be bound as parameters; the name is validated above.
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%s" (
		partition_key TEXT NOT NULL,
		row_key       TEXT NOT NULL,
		value         TEXT NOT NULL,
		captured_at   TEXT NOT NULL,
		PRIMARY KEY (partition_key, row_key)
	)`, r.table)
	if _, err := r.db.Exec(stmt); err != nil {
		return fmt.Errorf("create table %s: %w", r.table, err)
	}
	return nil
}

func (r *SQLiteRecorder) Append(ctx context.Context, rec *model.QuoteRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`INSERT INTO "%s"
		(partition_key, row_key, value, captured_at)
		VALUES (?,?,?,?)
		ON CONFLICT (partition_key, row_key) DO NOTHING`, r.table),
		rec.PartitionKey, rec.RowKey, rec.Value.String(),
		rec.CapturedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert %s/%s: %w", rec.PartitionKey, rec.RowKey, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert %s/%s: rows affected: %w", rec.PartitionKey, rec.RowKey, err)
	}
	if n == 0 {
		return fmt.Errorf("insert %s/%s: %w", rec.PartitionKey, rec.RowKey, ErrDuplicateRow)
	}
	return nil
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
