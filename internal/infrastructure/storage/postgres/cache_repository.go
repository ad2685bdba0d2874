package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/cache"
)

const cacheColumns = `
	id, user_id, cache_key, cache_type, data_snapshot, last_synced_at, expires_at`

type CacheRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewCacheRepository(pool *pgxpool.Pool, log *slog.Logger) *CacheRepository {
	return &CacheRepository{
		pool: pool,
		log:  log.With("component", "cache_repository"),
	}
}

func (r *CacheRepository) Get(ctx context.Context, userID int, cacheKey string) (*cache.Entry, error) {
	query := `SELECT ` + cacheColumns + `
		FROM mobile_data_cache
		WHERE user_id = $1 AND cache_key = $2`

	e, err := r.scanEntry(r.pool.QueryRow(ctx, query, userID, cacheKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", cache.ErrMiss, cacheKey)
		}
		r.log.Error("failed to get cache entry",
			"user_id", userID, "cache_key", cacheKey, "error", err)
		return nil, fmt.Errorf("get cache entry: %w", err)
	}

	return e, nil
}

func (r *CacheRepository) Upsert(ctx context.Context, e *cache.Entry) (*cache.Entry, error) {
	const query = `
		INSERT INTO mobile_data_cache (
			user_id, cache_key, cache_type, data_snapshot, last_synced_at, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, cache_key) DO UPDATE
		SET cache_type = EXCLUDED.cache_type,
			data_snapshot = EXCLUDED.data_snapshot,
			last_synced_at = EXCLUDED.last_synced_at,
			expires_at = EXCLUDED.expires_at
		RETURNING id`

	data, err := snapshotArg(e.DataSnapshot)
	if err != nil {
		return nil, fmt.Errorf("encode data snapshot: %w", err)
	}

	err = r.pool.QueryRow(ctx, query,
		e.UserID, e.CacheKey, e.CacheType, data, e.LastSyncedAt, e.ExpiresAt,
	).Scan(&e.ID)

	if err != nil {
		r.log.Error("failed to upsert cache entry",
			"user_id", e.UserID, "cache_key", e.CacheKey, "error", err)
		return nil, fmt.Errorf("upsert cache entry: %w", err)
	}

	return e, nil
}

func (r *CacheRepository) List(ctx context.Context, userID int) ([]*cache.Entry, error) {
	query := `SELECT ` + cacheColumns + `
		FROM mobile_data_cache
		WHERE user_id = $1
		ORDER BY cache_key ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("failed to list cache entries", "user_id", userID, "error", err)
		return nil, fmt.Errorf("list cache entries: %w", err)
	}
	defer rows.Close()

	var entries []*cache.Entry
	for rows.Next() {
		e, err := r.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (r *CacheRepository) Delete(ctx context.Context, userID int, cacheKey string) error {
	const query = `DELETE FROM mobile_data_cache WHERE user_id = $1 AND cache_key = $2`

	_, err := r.pool.Exec(ctx, query, userID, cacheKey)
	if err != nil {
		r.log.Error("failed to delete cache entry",
			"user_id", userID, "cache_key", cacheKey, "error", err)
		return fmt.Errorf("delete cache entry: %w", err)
	}

	return nil
}

func (r *CacheRepository) DeleteKeys(ctx context.Context, userID int, cacheKeys []string) (int64, error) {
	const query = `DELETE FROM mobile_data_cache WHERE user_id = $1 AND cache_key = ANY($2)`

	result, err := r.pool.Exec(ctx, query, userID, cacheKeys)
	if err != nil {
		r.log.Error("failed to delete cache keys", "user_id", userID, "error", err)
		return 0, fmt.Errorf("delete cache keys: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *CacheRepository) DeleteAll(ctx context.Context, userID int) (int64, error) {
	const query = `DELETE FROM mobile_data_cache WHERE user_id = $1`

	result, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		r.log.Error("failed to delete cache entries", "user_id", userID, "error", err)
		return 0, fmt.Errorf("delete cache entries: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *CacheRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM mobile_data_cache WHERE expires_at <= $1`

	result, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		r.log.Error("failed to delete expired cache entries", "error", err)
		return 0, fmt.Errorf("delete expired cache entries: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *CacheRepository) scanEntry(row interface {
	Scan(dest ...interface{}) error
}) (*cache.Entry, error) {
	var e cache.Entry
	var data []byte

	err := row.Scan(
		&e.ID, &e.UserID, &e.CacheKey, &e.CacheType, &data,
		&e.LastSyncedAt, &e.ExpiresAt,
	)

	if err != nil {
		return nil, err
	}

	e.DataSnapshot, err = scanSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("decode data snapshot: %w", err)
	}

	return &e, nil
}
