package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/queue"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/snapshot"
)

const queueColumns = `
	id, user_id, device_id, entity_type, entity_id, operation_type,
	data_snapshot, base_version, source_change_id, status, priority,
	retry_count, max_retries, error_message, conflict_id, created_at, synced_at`

type QueueRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewQueueRepository(pool *pgxpool.Pool, log *slog.Logger) *QueueRepository {
	return &QueueRepository{
		pool: pool,
		log:  log.With("component", "queue_repository"),
	}
}

func (r *QueueRepository) Create(ctx context.Context, item *queue.Item) (*queue.Item, error) {
	const query = `
		INSERT INTO sync_queue_items (
			user_id, device_id, entity_type, entity_id, operation_type,
			data_snapshot, base_version, source_change_id, status, priority,
			max_retries
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, retry_count, created_at`

	data, err := snapshotArg(item.DataSnapshot)
	if err != nil {
		return nil, fmt.Errorf("encode data snapshot: %w", err)
	}

	err = r.pool.QueryRow(ctx, query,
		item.UserID, item.DeviceID, item.EntityType, item.EntityID, item.Operation,
		data, item.BaseVersion, item.SourceChangeID, item.Status, item.Priority,
		item.MaxRetries,
	).Scan(&item.ID, &item.RetryCount, &item.CreatedAt)

	if err != nil {
		r.log.Error("failed to create queue item",
			"user_id", item.UserID, "device_id", item.DeviceID, "error", err)
		return nil, fmt.Errorf("create queue item: %w", err)
	}

	return item, nil
}

func (r *QueueRepository) GetByID(ctx context.Context, id int64) (*queue.Item, error) {
	query := `SELECT ` + queueColumns + ` FROM sync_queue_items WHERE id = $1`

	item, err := r.scanItem(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, queue.ErrNotFound
		}
		r.log.Error("failed to get queue item", "item_id", id, "error", err)
		return nil, fmt.Errorf("get queue item: %w", err)
	}

	return item, nil
}

func (r *QueueRepository) GetBySourceChange(ctx context.Context, deviceID, sourceChangeID string) (*queue.Item, error) {
	query := `SELECT ` + queueColumns + `
		FROM sync_queue_items
		WHERE device_id = $1 AND source_change_id = $2`

	item, err := r.scanItem(r.pool.QueryRow(ctx, query, deviceID, sourceChangeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, queue.ErrNotFound
		}
		r.log.Error("failed to get queue item by source change",
			"device_id", deviceID, "source_change_id", sourceChangeID, "error", err)
		return nil, fmt.Errorf("get queue item by source change: %w", err)
	}

	return item, nil
}

func (r *QueueRepository) List(ctx context.Context, filter queue.ListFilter) ([]*queue.Item, error) {
	query := `SELECT ` + queueColumns + ` FROM sync_queue_items WHERE 1=1`

	args := []interface{}{}
	argIndex := 1

	if filter.UserID != nil {
		query += fmt.Sprintf(" AND user_id = $%d", argIndex)
		args = append(args, *filter.UserID)
		argIndex++
	}

	if filter.DeviceID != "" {
		query += fmt.Sprintf(" AND device_id = $%d", argIndex)
		args = append(args, filter.DeviceID)
		argIndex++
	}

	if filter.EntityType != "" {
		query += fmt.Sprintf(" AND entity_type = $%d", argIndex)
		args = append(args, filter.EntityType)
		argIndex++
	}

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}

	query += " ORDER BY priority ASC, created_at ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
		argIndex++

		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET $%d", argIndex)
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("failed to list queue items", "error", err)
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	defer rows.Close()

	return r.scanItems(rows)
}

// DequeueDue захватывает партию элементов устройства и переводит в IN_PROGRESS.
// FOR UPDATE SKIP LOCKED защищает от двойного захвата параллельной сессией.
func (r *QueueRepository) DequeueDue(ctx context.Context, userID int, deviceID string, limit int) ([]*queue.Item, error) {
	query := `
		WITH due AS (
			SELECT id FROM sync_queue_items
			WHERE user_id = $1 AND device_id = $2
			  AND (status = 'PENDING'
			       OR (status = 'FAILED' AND retry_count < max_retries))
			ORDER BY priority ASC, created_at ASC
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		),
		claimed AS (
			UPDATE sync_queue_items q
			SET status = 'IN_PROGRESS', updated_at = NOW()
			FROM due
			WHERE q.id = due.id
			RETURNING q.*
		)
		SELECT ` + queueColumns + ` FROM claimed
		ORDER BY priority ASC, created_at ASC`

	rows, err := r.pool.Query(ctx, query, userID, deviceID, limit)
	if err != nil {
		r.log.Error("failed to dequeue items",
			"user_id", userID, "device_id", deviceID, "error", err)
		return nil, fmt.Errorf("dequeue items: %w", err)
	}
	defer rows.Close()

	return r.scanItems(rows)
}

func (r *QueueRepository) MarkSynced(ctx context.Context, id int64, at time.Time) (bool, error) {
	const query = `
		UPDATE sync_queue_items
		SET status = 'SYNCED', synced_at = $2, error_message = '', updated_at = NOW()
		WHERE id = $1 AND status = 'IN_PROGRESS'`

	result, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		r.log.Error("failed to mark item synced", "item_id", id, "error", err)
		return false, fmt.Errorf("mark item synced: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *QueueRepository) MarkFailed(ctx context.Context, id int64, message string) (int, bool, error) {
	const query = `
		UPDATE sync_queue_items
		SET status = 'FAILED', retry_count = retry_count + 1,
			error_message = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'IN_PROGRESS'
		RETURNING retry_count`

	var retryCount int
	err := r.pool.QueryRow(ctx, query, id, message).Scan(&retryCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		r.log.Error("failed to mark item failed", "item_id", id, "error", err)
		return 0, false, fmt.Errorf("mark item failed: %w", err)
	}

	return retryCount, true, nil
}

func (r *QueueRepository) MarkConflict(ctx context.Context, id int64, conflictID int64) (bool, error) {
	const query = `
		UPDATE sync_queue_items
		SET status = 'CONFLICT', conflict_id = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'IN_PROGRESS'`

	result, err := r.pool.Exec(ctx, query, id, conflictID)
	if err != nil {
		r.log.Error("failed to mark item conflicted", "item_id", id, "error", err)
		return false, fmt.Errorf("mark item conflicted: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *QueueRepository) Retry(ctx context.Context, id int64) (bool, error) {
	const query = `
		UPDATE sync_queue_items
		SET status = 'PENDING', updated_at = NOW()
		WHERE id = $1 AND status = 'FAILED'`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("failed to retry item", "item_id", id, "error", err)
		return false, fmt.Errorf("retry item: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// Requeue возвращает элемент из CONFLICT в очередь; conflict_id сохраняется,
// по нему следующий проход применит разрешенные данные
func (r *QueueRepository) Requeue(ctx context.Context, id int64) (bool, error) {
	const query = `
		UPDATE sync_queue_items
		SET status = 'PENDING', updated_at = NOW()
		WHERE id = $1 AND status = 'CONFLICT'`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("failed to requeue item", "item_id", id, "error", err)
		return false, fmt.Errorf("requeue item: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *QueueRepository) Release(ctx context.Context, id int64) (bool, error) {
	const query = `
		UPDATE sync_queue_items
		SET status = 'PENDING', updated_at = NOW()
		WHERE id = $1 AND status = 'IN_PROGRESS'`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("failed to release item", "item_id", id, "error", err)
		return false, fmt.Errorf("release item: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *QueueRepository) Delete(ctx context.Context, id int64, allowed []queue.Status) (bool, error) {
	const query = `DELETE FROM sync_queue_items WHERE id = $1 AND status = ANY($2)`

	statuses := make([]string, len(allowed))
	for i, s := range allowed {
		statuses[i] = string(s)
	}

	result, err := r.pool.Exec(ctx, query, id, statuses)
	if err != nil {
		r.log.Error("failed to delete queue item", "item_id", id, "error", err)
		return false, fmt.Errorf("delete queue item: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *QueueRepository) RecoverStale(ctx context.Context, olderThan time.Time) (int64, error) {
	const query = `
		UPDATE sync_queue_items
		SET status = 'PENDING', updated_at = NOW()
		WHERE status = 'IN_PROGRESS' AND updated_at < $1`

	result, err := r.pool.Exec(ctx, query, olderThan)
	if err != nil {
		r.log.Error("failed to recover stale items", "error", err)
		return 0, fmt.Errorf("recover stale items: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *QueueRepository) NeedsAttention(ctx context.Context, userID int, deviceID string) ([]*queue.Item, error) {
	query := `SELECT ` + queueColumns + `
		FROM sync_queue_items
		WHERE user_id = $1 AND device_id = $2
		  AND ((status = 'FAILED' AND retry_count >= max_retries)
		       OR status = 'CONFLICT')
		ORDER BY priority ASC, created_at ASC`

	rows, err := r.pool.Query(ctx, query, userID, deviceID)
	if err != nil {
		r.log.Error("failed to list attention items",
			"user_id", userID, "device_id", deviceID, "error", err)
		return nil, fmt.Errorf("list attention items: %w", err)
	}
	defer rows.Close()

	return r.scanItems(rows)
}

// Вспомогательные методы
func (r *QueueRepository) scanItems(rows pgx.Rows) ([]*queue.Item, error) {
	var items []*queue.Item

	for rows.Next() {
		item, err := r.scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *QueueRepository) scanItem(row interface {
	Scan(dest ...interface{}) error
}) (*queue.Item, error) {
	var item queue.Item
	var data []byte

	err := row.Scan(
		&item.ID, &item.UserID, &item.DeviceID, &item.EntityType, &item.EntityID,
		&item.Operation, &data, &item.BaseVersion, &item.SourceChangeID,
		&item.Status, &item.Priority, &item.RetryCount, &item.MaxRetries,
		&item.ErrorMessage, &item.ConflictID, &item.CreatedAt, &item.SyncedAt,
	)

	if err != nil {
		return nil, err
	}

	item.DataSnapshot, err = scanSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("decode data snapshot: %w", err)
	}

	return &item, nil
}

// snapshotArg сериализует слепок для jsonb-колонки; nil пишется как NULL
func snapshotArg(s *snapshot.Snapshot) (interface{}, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func scanSnapshot(data []byte) (*snapshot.Snapshot, error) {
	if len(data) == 0 {
		return nil, nil
	}
	s := snapshot.New()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}
