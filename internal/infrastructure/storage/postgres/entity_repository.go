package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/apply"
)

// EntityStateRepository — обобщенное авторитетное хранилище состояний
// сущностей ERP. Версия монотонно растет при каждом применении; удаление —
// мягкое, чтобы детектор конфликтов видел исчезнувшие записи.
type EntityStateRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewEntityStateRepository(pool *pgxpool.Pool, log *slog.Logger) *EntityStateRepository {
	return &EntityStateRepository{
		pool: pool,
		log:  log.With("component", "entity_state_repository"),
	}
}

func (r *EntityStateRepository) State(ctx context.Context, entityType, entityID string) (*apply.EntityState, error) {
	const query = `
		SELECT entity_type, entity_id, data, version, deleted, modified_at
		FROM erp_entity_states
		WHERE entity_type = $1 AND entity_id = $2`

	var state apply.EntityState
	var data []byte

	err := r.pool.QueryRow(ctx, query, entityType, entityID).Scan(
		&state.EntityType, &state.EntityID, &data,
		&state.Version, &state.Deleted, &state.ModifiedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// запись никогда не существовала
			return nil, nil
		}
		r.log.Error("failed to load entity state",
			"entity_type", entityType, "entity_id", entityID, "error", err)
		return nil, fmt.Errorf("load entity state: %w", err)
	}

	state.Data, err = scanSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("decode entity data: %w", err)
	}

	return &state, nil
}

func (r *EntityStateRepository) Apply(ctx context.Context, m apply.Mutation) (*apply.EntityState, error) {
	if !m.Operation.Valid() {
		return nil, fmt.Errorf("unknown operation %q", m.Operation)
	}

	// DELETE не трогает последний слепок данных, только помечает запись
	const query = `
		INSERT INTO erp_entity_states (entity_type, entity_id, data, version, deleted, modified_at)
		VALUES ($1, $2, $3, 1, $4, NOW())
		ON CONFLICT (entity_type, entity_id) DO UPDATE
		SET data = COALESCE(EXCLUDED.data, erp_entity_states.data),
			version = erp_entity_states.version + 1,
			deleted = EXCLUDED.deleted,
			modified_at = NOW()
		RETURNING entity_type, entity_id, data, version, deleted, modified_at`

	var arg interface{}
	if m.Operation != apply.OpDelete {
		var err error
		arg, err = snapshotArg(m.Data)
		if err != nil {
			return nil, fmt.Errorf("encode entity data: %w", err)
		}
	}

	var state apply.EntityState
	var data []byte

	err := r.pool.QueryRow(ctx, query,
		m.EntityType, m.EntityID, arg, m.Operation == apply.OpDelete,
	).Scan(
		&state.EntityType, &state.EntityID, &data,
		&state.Version, &state.Deleted, &state.ModifiedAt,
	)
	if err != nil {
		r.log.Error("failed to apply mutation",
			"entity_type", m.EntityType, "entity_id", m.EntityID,
			"operation", m.Operation, "error", err)
		return nil, fmt.Errorf("apply mutation: %w", err)
	}

	state.Data, err = scanSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("decode entity data: %w", err)
	}

	return &state, nil
}
