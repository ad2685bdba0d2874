package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/synclog"
)

const synclogColumns = `
	id, user_id, device_id, device_type, app_version, sync_type,
	sync_direction, sync_status, records_uploaded, records_downloaded,
	conflicts_detected, conflicts_resolved, error_message, started_at,
	completed_at, duration_seconds`

type SyncLogRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewSyncLogRepository(pool *pgxpool.Pool, log *slog.Logger) *SyncLogRepository {
	return &SyncLogRepository{
		pool: pool,
		log:  log.With("component", "synclog_repository"),
	}
}

// Create вставляет сессию. Частичный уникальный индекс по (user_id, device_id)
// для активных статусов превращает вторую активную сессию устройства в
// ошибку 23505, которая отдается как ErrConcurrentSync.
func (r *SyncLogRepository) Create(ctx context.Context, l *synclog.Log) (*synclog.Log, error) {
	const query = `
		INSERT INTO sync_logs (
			id, user_id, device_id, device_type, app_version,
			sync_type, sync_direction, sync_status, started_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		l.ID, l.UserID, l.DeviceID, l.DeviceType, l.AppVersion,
		l.SyncType, l.Direction, l.Status, l.StartedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("%w: device %s", synclog.ErrConcurrentSync, l.DeviceID)
		}
		r.log.Error("failed to create sync log",
			"user_id", l.UserID, "device_id", l.DeviceID, "error", err)
		return nil, fmt.Errorf("create sync log: %w", err)
	}

	return l, nil
}

func (r *SyncLogRepository) GetByID(ctx context.Context, id string) (*synclog.Log, error) {
	query := `SELECT ` + synclogColumns + ` FROM sync_logs WHERE id = $1`

	l, err := r.scanLog(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, synclog.ErrNotFound
		}
		r.log.Error("failed to get sync log", "session_id", id, "error", err)
		return nil, fmt.Errorf("get sync log: %w", err)
	}

	return l, nil
}

func (r *SyncLogRepository) List(ctx context.Context, filter synclog.ListFilter) ([]*synclog.Log, error) {
	query := `SELECT ` + synclogColumns + ` FROM sync_logs WHERE 1=1`

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

	if filter.Status != "" {
		query += fmt.Sprintf(" AND sync_status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}

	query += " ORDER BY started_at DESC"

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
		r.log.Error("failed to list sync logs", "error", err)
		return nil, fmt.Errorf("list sync logs: %w", err)
	}
	defer rows.Close()

	var logs []*synclog.Log
	for rows.Next() {
		l, err := r.scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}

	return logs, rows.Err()
}

func (r *SyncLogRepository) MarkInProgress(ctx context.Context, id string) (bool, error) {
	const query = `
		UPDATE sync_logs
		SET sync_status = 'IN_PROGRESS'
		WHERE id = $1 AND sync_status = 'INITIATED'`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("failed to mark sync log in progress", "session_id", id, "error", err)
		return false, fmt.Errorf("mark sync log in progress: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *SyncLogRepository) UpdateCounters(ctx context.Context, id string, c synclog.Counters) error {
	const query = `
		UPDATE sync_logs
		SET records_uploaded = $2, records_downloaded = $3,
			conflicts_detected = $4, conflicts_resolved = $5
		WHERE id = $1 AND sync_status IN ('INITIATED', 'IN_PROGRESS')`

	_, err := r.pool.Exec(ctx, query, id,
		c.RecordsUploaded, c.RecordsDownloaded, c.ConflictsDetected, c.ConflictsResolved)

	if err != nil {
		r.log.Error("failed to update sync log counters", "session_id", id, "error", err)
		return fmt.Errorf("update sync log counters: %w", err)
	}

	return nil
}

func (r *SyncLogRepository) Finish(ctx context.Context, id string, to synclog.Status, c synclog.Counters, message string, at time.Time, durationSeconds int64) (bool, error) {
	const query = `
		UPDATE sync_logs
		SET sync_status = $2, records_uploaded = $3, records_downloaded = $4,
			conflicts_detected = $5, conflicts_resolved = $6,
			error_message = $7, completed_at = $8, duration_seconds = $9
		WHERE id = $1 AND sync_status IN ('INITIATED', 'IN_PROGRESS')`

	result, err := r.pool.Exec(ctx, query, id, to,
		c.RecordsUploaded, c.RecordsDownloaded, c.ConflictsDetected,
		c.ConflictsResolved, message, at, durationSeconds)

	if err != nil {
		r.log.Error("failed to finish sync log",
			"session_id", id, "to", to, "error", err)
		return false, fmt.Errorf("finish sync log: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *SyncLogRepository) FailStale(ctx context.Context, olderThan time.Time, message string) (int64, error) {
	const query = `
		UPDATE sync_logs
		SET sync_status = 'FAILED', error_message = $2,
			completed_at = NOW(),
			duration_seconds = EXTRACT(EPOCH FROM (NOW() - started_at))::BIGINT
		WHERE sync_status IN ('INITIATED', 'IN_PROGRESS') AND started_at < $1`

	result, err := r.pool.Exec(ctx, query, olderThan, message)
	if err != nil {
		r.log.Error("failed to fail stale sync logs", "error", err)
		return 0, fmt.Errorf("fail stale sync logs: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *SyncLogRepository) scanLog(row interface {
	Scan(dest ...interface{}) error
}) (*synclog.Log, error) {
	var l synclog.Log

	err := row.Scan(
		&l.ID, &l.UserID, &l.DeviceID, &l.DeviceType, &l.AppVersion,
		&l.SyncType, &l.Direction, &l.Status,
		&l.Counters.RecordsUploaded, &l.Counters.RecordsDownloaded,
		&l.Counters.ConflictsDetected, &l.Counters.ConflictsResolved,
		&l.ErrorMessage, &l.StartedAt, &l.CompletedAt, &l.DurationSeconds,
	)

	if err != nil {
		return nil, err
	}

	return &l, nil
}
