//постановка отложенных мобильных мутаций в очередь устройства;
//сессии синхронизации с применением мутаций к авторитетным данным ERP;
//обнаружение и разрешение конфликтов параллельного редактирования;
//серверный кэш чтения для мобильных клиентов.

//POST   /api/v1/sync/queue                  # Поставить мутацию в очередь (auth)
//GET    /api/v1/sync/queue                  # Список элементов очереди (auth)
//GET    /api/v1/sync/queue/{id}             # Элемент очереди (auth)
//POST   /api/v1/sync/queue/{id}/retry       # Вернуть FAILED в очередь (auth)
//DELETE /api/v1/sync/queue/{id}             # Удалить PENDING/FAILED (auth)
//POST   /api/v1/sync/queue/recover          # Вернуть зависшие IN_PROGRESS (auth)
//GET    /api/v1/sync/queue/attention        # Элементы, требующие вмешательства (auth)
//POST   /api/v1/sync/sessions               # Выполнить сессию синхронизации (auth)
//GET    /api/v1/sync/logs                   # История сессий (auth)
//POST   /api/v1/sync/conflicts/{id}/resolve # Разрешить конфликт (auth)
//GET    /api/v1/mobile/cache                # Кэш мобильного клиента (auth)

package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/exp/slog"

	cacheAPI "github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/server/api/http/cache"
	conflictAPI "github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/server/api/http/conflict"
	healthAPI "github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/server/api/http/health"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/server/api/http/middleware"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/server/api/http/middleware/auth"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/server/api/http/middleware/logger"
	queueAPI "github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/server/api/http/queue"
	synclogAPI "github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/server/api/http/synclog"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/server/config"
	servercrypto "github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/server/crypto"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/apply"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/cache"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/conflict"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/queue"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/synclog"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/infrastructure/storage"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/infrastructure/storage/postgres"
)

type Handlers struct {
	Health   *healthAPI.Handler
	Queue    *queueAPI.Handler
	Conflict *conflictAPI.Handler
	SyncLog  *synclogAPI.Handler
	Cache    *cacheAPI.Handler
}

// Services — доменные сервисы движка; фоновые задачи используют их же
type Services struct {
	Queue    queue.Servicer
	Conflict conflict.Servicer
	SyncLog  synclog.Servicer
	Cache    cache.Servicer
}

// New создает *chi.Mux с ВСЕМИ операциями через huma.Register
func New(db *postgres.Storage, cfg *config.Config, registry *apply.Registry, log *slog.Logger) (*chi.Mux, *Services) {
	mux := chi.NewMux()

	humaConfig := huma.DefaultConfig("Mobile Sync Engine API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	API := humachi.New(mux, humaConfig)

	h, services := handlers(db, cfg, registry, log)
	h.Health.SetupRoutes(API)
	h.Queue.SetupRoutes(API)
	h.Conflict.SetupRoutes(API)
	h.SyncLog.SetupRoutes(API)
	h.Cache.SetupRoutes(API)

	mux.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return mux, services
}

func handlers(db *postgres.Storage, cfg *config.Config, registry *apply.Registry, log *slog.Logger) (*Handlers, *Services) {
	tokens := servercrypto.NewTokenSigner(cfg.Server.Secret)
	authMW := auth.New(tokens, log)
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	repos := storage.Repositories{
		Queue:     postgres.NewQueueRepository(db.Pool(), log),
		Conflicts: postgres.NewConflictRepository(db.Pool(), log),
		SyncLogs:  postgres.NewSyncLogRepository(db.Pool(), log),
		Cache:     postgres.NewCacheRepository(db.Pool(), log),
	}

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(db, log, middlewares.GetAllAndClear())

	queueService := queue.NewService(repos.Queue, log)
	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	queueHandler := queueAPI.NewHandler(queueService, cfg.Sync.StaleAfter, log, middlewares.GetAllAndClear())

	resolver := conflict.NewResolver(conflict.NewMergeRegistry())
	conflictService := conflict.NewService(repos.Conflicts, resolver, queueService, log)
	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	conflictHandler := conflictAPI.NewHandler(conflictService, log, middlewares.GetAllAndClear())

	cacheService := cache.NewService(repos.Cache, log)
	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	cacheHandler := cacheAPI.NewHandler(cacheService, cfg.Sync.CacheTTL, log, middlewares.GetAllAndClear())

	synclogService := synclog.NewService(
		repos.SyncLogs, queueService, conflictService, cacheService, registry, log,
		synclog.ServiceConfig{
			BatchSize:   cfg.Sync.BatchSize,
			AutoResolve: autoResolve(cfg.Sync.AutoResolve),
		},
	)
	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	synclogHandler := synclogAPI.NewHandler(synclogService, log, middlewares.GetAllAndClear())

	return &Handlers{
			Health:   healthHandler,
			Queue:    queueHandler,
			Conflict: conflictHandler,
			SyncLog:  synclogHandler,
			Cache:    cacheHandler,
		}, &Services{
			Queue:    queueService,
			Conflict: conflictService,
			SyncLog:  synclogService,
			Cache:    cacheService,
		}
}

// autoResolve превращает значение конфигурации в стратегию; пустая строка и
// MANUAL означают "оставить конфликт оператору"
func autoResolve(value string) *conflict.Strategy {
	s := conflict.Strategy(value)
	if s == "" || s == conflict.StrategyManual || !s.Valid() {
		return nil
	}
	return &s
}
