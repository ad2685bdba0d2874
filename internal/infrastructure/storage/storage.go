package storage

import (
	"context"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/cache"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/conflict"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/queue"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/synclog"
)

// Repositories — набор репозиториев движка синхронизации поверх одного
// подключения, чтобы поднимать и закрывать их одной ручкой
type Repositories struct {
	Queue     queue.Repository
	Conflicts conflict.Repository
	SyncLogs  synclog.Repository
	Cache     cache.Repository
}

// HealthChecker — проверка доступности хранилища для /ping
type HealthChecker interface {
	Ping(ctx context.Context) error
}
