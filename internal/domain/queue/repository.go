package queue

import (
	"context"
	"time"
)

// ListFilter — фильтр выборки элементов очереди
type ListFilter struct {
	UserID     *int
	DeviceID   string
	EntityType string
	Status     Status
	Limit      int
	Offset     int
}

// Repository — интерфейс хранилища очереди синхронизации.
// Переходы статусов реализуются как условные UPDATE (compare-and-set),
// чтобы два воркера не обработали один элемент одновременно.
type Repository interface {
	Create(ctx context.Context, item *Item) (*Item, error)
	GetByID(ctx context.Context, id int64) (*Item, error)
	GetBySourceChange(ctx context.Context, deviceID, sourceChangeID string) (*Item, error)
	List(ctx context.Context, filter ListFilter) ([]*Item, error)

	// DequeueDue атомарно выбирает элементы в PENDING/FAILED с неисчерпанным
	// лимитом повторов и переводит их в IN_PROGRESS. Порядок: priority ASC,
	// created_at ASC.
	DequeueDue(ctx context.Context, userID int, deviceID string, limit int) ([]*Item, error)

	// MarkSynced: IN_PROGRESS -> SYNCED. false — элемент не был IN_PROGRESS.
	MarkSynced(ctx context.Context, id int64, at time.Time) (bool, error)

	// MarkFailed: IN_PROGRESS -> FAILED с инкрементом retry_count.
	// Возвращает retry_count после инкремента.
	MarkFailed(ctx context.Context, id int64, message string) (int, bool, error)

	// MarkConflict: IN_PROGRESS -> CONFLICT со ссылкой на конфликт
	MarkConflict(ctx context.Context, id int64, conflictID int64) (bool, error)

	// Retry: FAILED -> PENDING
	Retry(ctx context.Context, id int64) (bool, error)

	// Requeue: CONFLICT -> PENDING, используется после разрешения конфликта
	Requeue(ctx context.Context, id int64) (bool, error)

	// Release: IN_PROGRESS -> PENDING без инкремента retry_count; возврат
	// элемента, который сессия забрала, но обрабатывать не стала
	Release(ctx context.Context, id int64) (bool, error)

	// Delete удаляет элемент, если он в одном из перечисленных статусов
	Delete(ctx context.Context, id int64, allowed []Status) (bool, error)

	// RecoverStale возвращает в PENDING элементы, зависшие в IN_PROGRESS
	// дольше порога (восстановление после падения сессии)
	RecoverStale(ctx context.Context, olderThan time.Time) (int64, error)

	// NeedsAttention — элементы, требующие вмешательства: FAILED с
	// исчерпанными повторами и CONFLICT с неразрешенным конфликтом
	NeedsAttention(ctx context.Context, userID int, deviceID string) ([]*Item, error)
}
