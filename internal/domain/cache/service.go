package cache

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/snapshot"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/metrics"
)

// DefaultTTL используется, когда клиент не задал время жизни записи
const DefaultTTL = 30 * time.Minute

// Servicer — интерфейс сервиса мобильного кэша
type Servicer interface {
	// Get возвращает живую запись; отсутствующая или истекшая — ErrMiss
	Get(ctx context.Context, userID int, cacheKey string) (*Entry, error)

	// Put создает или обновляет запись с expires_at = now + ttl
	Put(ctx context.Context, req PutRequest) (*Entry, error)

	// List возвращает живые записи пользователя
	List(ctx context.Context, userID int) ([]*Entry, error)

	// Invalidate удаляет запись по ключу
	Invalidate(ctx context.Context, userID int, cacheKey string) error

	// InvalidateAll удаляет все записи пользователя
	InvalidateAll(ctx context.Context, userID int) error

	// InvalidateEntity удаляет записи, ключи которых соответствуют
	// затронутой сущности
	InvalidateEntity(ctx context.Context, userID int, entityType, entityID string) error

	// SweepExpired физически удаляет истекшие записи
	SweepExpired(ctx context.Context) (int64, error)
}

// PutRequest — запрос на обновление кэша
type PutRequest struct {
	UserID       int                `json:"user_id"`
	CacheKey     string             `json:"cache_key"`
	CacheType    Type               `json:"cache_type"`
	DataSnapshot *snapshot.Snapshot `json:"data_snapshot"`
	TTL          time.Duration      `json:"-"`
}

// Service реализация сервиса мобильного кэша
type Service struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

// NewService создает новый сервис кэша
func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With(slog.String("component", "mobile_cache")),
		now:  time.Now,
	}
}

// Get возвращает живую запись
func (s *Service) Get(ctx context.Context, userID int, cacheKey string) (*Entry, error) {
	entry, err := s.repo.Get(ctx, userID, cacheKey)
	if err != nil {
		return nil, err
	}
	if entry.Expired(s.now()) {
		// истекшая запись логически отсутствует, даже если sweep еще не прошел
		return nil, fmt.Errorf("%w: %s expired at %s", ErrMiss, cacheKey, entry.ExpiresAt.Format(time.RFC3339))
	}
	return entry, nil
}

// Put создает или обновляет запись
func (s *Service) Put(ctx context.Context, req PutRequest) (*Entry, error) {
	if req.CacheKey == "" {
		return nil, fmt.Errorf("%w: cache_key is required", ErrValidation)
	}
	if !req.CacheType.Valid() {
		return nil, fmt.Errorf("%w: unknown cache_type %q", ErrValidation, req.CacheType)
	}
	if req.DataSnapshot.IsEmpty() {
		return nil, fmt.Errorf("%w: data_snapshot is required", ErrValidation)
	}
	ttl := req.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := s.now()
	entry, err := s.repo.Upsert(ctx, &Entry{
		UserID:       req.UserID,
		CacheKey:     req.CacheKey,
		CacheType:    req.CacheType,
		DataSnapshot: req.DataSnapshot,
		LastSyncedAt: now,
		ExpiresAt:    now.Add(ttl),
	})
	if err != nil {
		return nil, fmt.Errorf("put cache entry: %w", err)
	}
	return entry, nil
}

// List возвращает живые записи пользователя
func (s *Service) List(ctx context.Context, userID int) ([]*Entry, error) {
	entries, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cache entries: %w", err)
	}

	now := s.now()
	live := entries[:0]
	for _, e := range entries {
		if !e.Expired(now) {
			live = append(live, e)
		}
	}
	return live, nil
}

// Invalidate удаляет запись по ключу
func (s *Service) Invalidate(ctx context.Context, userID int, cacheKey string) error {
	if err := s.repo.Delete(ctx, userID, cacheKey); err != nil {
		return fmt.Errorf("invalidate %s: %w", cacheKey, err)
	}
	return nil
}

// InvalidateAll удаляет все записи пользователя
func (s *Service) InvalidateAll(ctx context.Context, userID int) error {
	n, err := s.repo.DeleteAll(ctx, userID)
	if err != nil {
		return fmt.Errorf("invalidate all for user %d: %w", userID, err)
	}
	s.log.Debug("cache invalidated", "user_id", userID, "entries", n)
	return nil
}

// InvalidateEntity удаляет запись сущности и коллекцию ее типа
func (s *Service) InvalidateEntity(ctx context.Context, userID int, entityType, entityID string) error {
	keys := []string{EntityKey(entityType, entityID), entityType}
	if _, err := s.repo.DeleteKeys(ctx, userID, keys); err != nil {
		return fmt.Errorf("invalidate entity %s/%s: %w", entityType, entityID, err)
	}
	return nil
}

// SweepExpired физически удаляет истекшие записи.
// Безопасен параллельно с чтениями: Get и так считает истекшее промахом.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("sweep expired cache: %w", err)
	}
	if n > 0 {
		metrics.CacheSweepRemoved.Add(float64(n))
		s.log.Info("expired cache entries removed", "count", n)
	}
	return n, nil
}
