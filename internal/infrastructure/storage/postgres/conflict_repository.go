package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/conflict"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/snapshot"
)

const conflictColumns = `
	id, queue_item_id, user_id, device_id, entity_type, entity_id,
	server_data, client_data, server_version, base_version, conflict_type,
	resolution_strategy, status, resolved_data, resolved_by, resolved_at,
	detected_at`

type ConflictRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewConflictRepository(pool *pgxpool.Pool, log *slog.Logger) *ConflictRepository {
	return &ConflictRepository{
		pool: pool,
		log:  log.With("component", "conflict_repository"),
	}
}

func (r *ConflictRepository) Create(ctx context.Context, c *conflict.Conflict) (*conflict.Conflict, error) {
	const query = `
		INSERT INTO sync_conflicts (
			queue_item_id, user_id, device_id, entity_type, entity_id,
			server_data, client_data, server_version, base_version,
			conflict_type, status, detected_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`

	serverData, err := snapshotArg(c.ServerData)
	if err != nil {
		return nil, fmt.Errorf("encode server data: %w", err)
	}
	clientData, err := snapshotArg(c.ClientData)
	if err != nil {
		return nil, fmt.Errorf("encode client data: %w", err)
	}

	err = r.pool.QueryRow(ctx, query,
		c.QueueItemID, c.UserID, c.DeviceID, c.EntityType, c.EntityID,
		serverData, clientData, c.ServerVersion, c.BaseVersion,
		c.Type, c.Status, c.DetectedAt,
	).Scan(&c.ID)

	if err != nil {
		r.log.Error("failed to create conflict",
			"queue_item_id", c.QueueItemID, "conflict_type", c.Type, "error", err)
		return nil, fmt.Errorf("create conflict: %w", err)
	}

	return c, nil
}

func (r *ConflictRepository) GetByID(ctx context.Context, id int64) (*conflict.Conflict, error) {
	query := `SELECT ` + conflictColumns + ` FROM sync_conflicts WHERE id = $1`

	c, err := r.scanConflict(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, conflict.ErrNotFound
		}
		r.log.Error("failed to get conflict", "conflict_id", id, "error", err)
		return nil, fmt.Errorf("get conflict: %w", err)
	}

	return c, nil
}

func (r *ConflictRepository) List(ctx context.Context, filter conflict.ListFilter) ([]*conflict.Conflict, error) {
	query := `SELECT ` + conflictColumns + ` FROM sync_conflicts WHERE 1=1`

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

	query += " ORDER BY detected_at DESC"

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
		r.log.Error("failed to list conflicts", "error", err)
		return nil, fmt.Errorf("list conflicts: %w", err)
	}
	defer rows.Close()

	var conflicts []*conflict.Conflict
	for rows.Next() {
		c, err := r.scanConflict(rows)
		if err != nil {
			return nil, err
		}
		conflicts = append(conflicts, c)
	}

	return conflicts, rows.Err()
}

func (r *ConflictRepository) Resolve(ctx context.Context, id int64, strategy conflict.Strategy, data *snapshot.Snapshot, resolvedBy string, at time.Time) (bool, error) {
	const query = `
		UPDATE sync_conflicts
		SET status = 'RESOLVED', resolution_strategy = $2, resolved_data = $3,
			resolved_by = $4, resolved_at = $5
		WHERE id = $1 AND status = 'DETECTED'`

	resolvedData, err := snapshotArg(data)
	if err != nil {
		return false, fmt.Errorf("encode resolved data: %w", err)
	}

	result, err := r.pool.Exec(ctx, query, id, strategy, resolvedData, resolvedBy, at)
	if err != nil {
		r.log.Error("failed to resolve conflict", "conflict_id", id, "error", err)
		return false, fmt.Errorf("resolve conflict: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *ConflictRepository) Ignore(ctx context.Context, id int64, resolvedBy string, at time.Time) (bool, error) {
	const query = `
		UPDATE sync_conflicts
		SET status = 'IGNORED', resolved_by = $2, resolved_at = $3
		WHERE id = $1 AND status = 'DETECTED'`

	result, err := r.pool.Exec(ctx, query, id, resolvedBy, at)
	if err != nil {
		r.log.Error("failed to ignore conflict", "conflict_id", id, "error", err)
		return false, fmt.Errorf("ignore conflict: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *ConflictRepository) scanConflict(row interface {
	Scan(dest ...interface{}) error
}) (*conflict.Conflict, error) {
	var c conflict.Conflict
	var serverData, clientData, resolvedData []byte

	err := row.Scan(
		&c.ID, &c.QueueItemID, &c.UserID, &c.DeviceID, &c.EntityType, &c.EntityID,
		&serverData, &clientData, &c.ServerVersion, &c.BaseVersion, &c.Type,
		&c.ResolutionStrategy, &c.Status, &resolvedData, &c.ResolvedBy,
		&c.ResolvedAt, &c.DetectedAt,
	)

	if err != nil {
		return nil, err
	}

	if c.ServerData, err = scanSnapshot(serverData); err != nil {
		return nil, fmt.Errorf("decode server data: %w", err)
	}
	if c.ClientData, err = scanSnapshot(clientData); err != nil {
		return nil, fmt.Errorf("decode client data: %w", err)
	}
	if c.ResolvedData, err = scanSnapshot(resolvedData); err != nil {
		return nil, fmt.Errorf("decode resolved data: %w", err)
	}

	return &c, nil
}
