package review

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/insuregraph/insuregraph/internal/types"
)

// SqliteQueue is a persistent review queue backed by SQLite. Thread-safe.
type SqliteQueue struct {
	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// NewSqliteQueue opens (and if needed initializes) a review queue at the
// given database path.
func NewSqliteQueue(dbPath string) (*SqliteQueue, error) {
	if dbPath == "" {
		return nil, types.NewError(ErrCodeInvalidConfig, "database path cannot be empty")
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, types.WrapError(ErrCodeQueueUnavailable, "failed to open database", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, types.WrapError(ErrCodeQueueUnavailable, "failed to ping database", err)
	}

	queue := &SqliteQueue{db: db}
	if err := queue.initSchema(); err != nil {
		db.Close()
		return nil, types.WrapError(ErrCodeQueueUnavailable, "failed to initialize schema", err)
	}

	return queue, nil
}

func (q *SqliteQueue) initSchema() error {
	createSQL := `
		CREATE TABLE IF NOT EXISTS review_items (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			summary TEXT NOT NULL,
			confidence REAL NOT NULL,
			reason TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP NOT NULL,
			resolved_at TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_review_items_status
			ON review_items (status, created_at);
	`

	if _, err := q.db.Exec(createSQL); err != nil {
		return fmt.Errorf("failed to create review_items table: %w", err)
	}
	return nil
}

// Enqueue adds an item with status pending, assigning ID and CreatedAt.
func (q *SqliteQueue) Enqueue(ctx context.Context, item *Item) error {
	if err := item.Validate(); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return types.NewError(ErrCodeQueueUnavailable, "review queue is closed")
	}

	item.ID = types.NewID()
	item.Status = StatusPending
	item.CreatedAt = time.Now().UTC()

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO review_items (id, query, summary, confidence, reason, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, item.ID.String(), item.Query, item.Summary, item.Confidence, item.Reason,
		string(item.Status), item.CreatedAt)
	if err != nil {
		return types.WrapError(ErrCodeEnqueueFailed, "failed to insert review item", err)
	}

	return nil
}

// Pending returns pending items, oldest first.
func (q *SqliteQueue) Pending(ctx context.Context, limit int) ([]Item, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, types.NewError(ErrCodeQueueUnavailable, "review queue is closed")
	}

	query := `
		SELECT id, query, summary, confidence, reason, status, created_at, resolved_at
		FROM review_items WHERE status = 'pending' ORDER BY created_at ASC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.WrapError(ErrCodeListFailed, "failed to query review items", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var item Item
		var id, status string
		var resolvedAt sql.NullTime
		if err := rows.Scan(&id, &item.Query, &item.Summary, &item.Confidence,
			&item.Reason, &status, &item.CreatedAt, &resolvedAt); err != nil {
			return nil, types.WrapError(ErrCodeListFailed, "failed to scan review item", err)
		}
		item.ID = types.ID(id)
		item.Status = ItemStatus(status)
		if resolvedAt.Valid {
			item.ResolvedAt = &resolvedAt.Time
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, types.WrapError(ErrCodeListFailed, "error iterating review items", err)
	}

	return items, nil
}

// Resolve marks an item as resolved.
func (q *SqliteQueue) Resolve(ctx context.Context, id types.ID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return types.NewError(ErrCodeQueueUnavailable, "review queue is closed")
	}

	result, err := q.db.ExecContext(ctx, `
		UPDATE review_items SET status = 'resolved', resolved_at = ?
		WHERE id = ? AND status = 'pending'
	`, time.Now().UTC(), id.String())
	if err != nil {
		return types.WrapError(ErrCodeListFailed, "failed to resolve review item", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return types.WrapError(ErrCodeListFailed, "failed to read update result", err)
	}
	if affected == 0 {
		return types.NewError(ErrCodeItemNotFound,
			fmt.Sprintf("no pending review item with ID %s", id))
	}

	return nil
}

// Health returns the current health status of the queue.
func (q *SqliteQueue) Health(ctx context.Context) types.HealthStatus {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return types.Unhealthy("review queue is closed")
	}

	if err := q.db.PingContext(ctx); err != nil {
		return types.Unhealthy(fmt.Sprintf("database ping failed: %v", err))
	}

	var pending int
	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM review_items WHERE status = 'pending'").Scan(&pending)
	if err != nil {
		return types.Degraded(fmt.Sprintf("failed to count pending items: %v", err))
	}

	return types.Healthy(fmt.Sprintf("review queue operational with %d pending items", pending))
}

// Close releases all resources held by the queue.
func (q *SqliteQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true

	if q.db != nil {
		return q.db.Close()
	}
	return nil
}
