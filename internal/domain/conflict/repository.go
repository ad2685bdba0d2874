package conflict

import (
	"context"
	"time"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/snapshot"
)

// ListFilter — фильтр выборки конфликтов
type ListFilter struct {
	UserID     *int
	DeviceID   string
	EntityType string
	Status     Status
	Limit      int
	Offset     int
}

// Repository — интерфейс хранилища конфликтов. Терминальные переходы
// DETECTED -> RESOLVED/IGNORED выполняются условным UPDATE, чтобы повторное
// разрешение было невозможно при гонке.
type Repository interface {
	Create(ctx context.Context, c *Conflict) (*Conflict, error)
	GetByID(ctx context.Context, id int64) (*Conflict, error)
	List(ctx context.Context, filter ListFilter) ([]*Conflict, error)

	// Resolve: DETECTED -> RESOLVED. false — конфликт не был в DETECTED.
	Resolve(ctx context.Context, id int64, strategy Strategy, data *snapshot.Snapshot, resolvedBy string, at time.Time) (bool, error)

	// Ignore: DETECTED -> IGNORED
	Ignore(ctx context.Context, id int64, resolvedBy string, at time.Time) (bool, error)
}
