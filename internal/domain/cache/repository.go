package cache

import (
	"context"
	"time"
)

// Repository — интерфейс хранилища мобильного кэша. Хранилище отдает записи
// как есть; политику "истекшее = промах" применяет сервис, чтобы она
// действовала и до физической очистки.
type Repository interface {
	Get(ctx context.Context, userID int, cacheKey string) (*Entry, error)
	Upsert(ctx context.Context, e *Entry) (*Entry, error)
	List(ctx context.Context, userID int) ([]*Entry, error)
	Delete(ctx context.Context, userID int, cacheKey string) error
	DeleteKeys(ctx context.Context, userID int, cacheKeys []string) (int64, error)
	DeleteAll(ctx context.Context, userID int) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
