package synclog

import (
	"context"
	"time"
)

// ListFilter — фильтр выборки сессий
type ListFilter struct {
	UserID   *int
	DeviceID string
	Status   Status
	Limit    int
	Offset   int
}

// Repository — интерфейс хранилища сессий. Гарантию "не более одной активной
// сессии на устройство" обеспечивает частичный уникальный индекс по
// (user_id, device_id) для нетерминальных статусов: Create обязан вернуть
// ErrConcurrentSync при его нарушении.
type Repository interface {
	Create(ctx context.Context, l *Log) (*Log, error)
	GetByID(ctx context.Context, id string) (*Log, error)
	List(ctx context.Context, filter ListFilter) ([]*Log, error)

	// MarkInProgress: INITIATED -> IN_PROGRESS
	MarkInProgress(ctx context.Context, id string) (bool, error)

	// UpdateCounters перезаписывает агрегаты активной сессии
	UpdateCounters(ctx context.Context, id string, c Counters) error

	// Finish переводит активную сессию в терминальный статус.
	// false — сессия уже терминальна.
	Finish(ctx context.Context, id string, to Status, c Counters, message string, at time.Time, durationSeconds int64) (bool, error)

	// FailStale проваливает активные сессии, начатые раньше olderThan.
	// Без этого сессия, осиротевшая после падения процесса, навсегда
	// блокирует устройство через уникальный индекс активной сессии.
	FailStale(ctx context.Context, olderThan time.Time, message string) (int64, error)
}
