package conflict

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/exp/slog"
)

// ItemRequeuer возвращает элемент очереди с разрешенным конфликтом в
// обработку (CONFLICT -> PENDING)
type ItemRequeuer interface {
	Requeue(ctx context.Context, id int64) error
}

// Servicer — интерфейс сервиса конфликтов
type Servicer interface {
	// Create фиксирует обнаруженный конфликт
	Create(ctx context.Context, req CreateRequest) (*Conflict, error)

	// Get возвращает конфликт по id
	Get(ctx context.Context, id int64) (*Conflict, error)

	// List возвращает конфликты по фильтру
	List(ctx context.Context, filter ListFilter) ([]*Conflict, error)

	// Resolve разрешает конфликт по стратегии и возвращает владеющий элемент
	// очереди в обработку
	Resolve(ctx context.Context, id int64, req ResolveRequest) (*Conflict, error)

	// Ignore переводит конфликт в IGNORED; владеющий элемент остается в
	// CONFLICT навсегда
	Ignore(ctx context.Context, id int64, ignoredBy string) error
}

// Service реализация сервиса конфликтов
type Service struct {
	repo     Repository
	resolver *Resolver
	requeuer ItemRequeuer
	log      *slog.Logger
	now      func() time.Time
}

// NewService создает новый сервис конфликтов
func NewService(repo Repository, resolver *Resolver, requeuer ItemRequeuer, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		requeuer: requeuer,
		log:      log.With(slog.String("component", "sync_conflicts")),
		now:      time.Now,
	}
}

// Create фиксирует обнаруженный конфликт
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Conflict, error) {
	c := &Conflict{
		QueueItemID:   req.QueueItemID,
		UserID:        req.UserID,
		DeviceID:      req.DeviceID,
		EntityType:    req.EntityType,
		EntityID:      req.EntityID,
		ServerData:    req.ServerData,
		ClientData:    req.ClientData,
		ServerVersion: req.ServerVersion,
		BaseVersion:   req.BaseVersion,
		Type:          req.Type,
		Status:        StatusDetected,
		DetectedAt:    s.now(),
	}

	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create conflict: %w", err)
	}

	s.log.Info("conflict detected",
		"conflict_id", created.ID,
		"queue_item_id", created.QueueItemID,
		"entity_type", created.EntityType,
		"entity_id", created.EntityID,
		"conflict_type", created.Type,
	)

	return created, nil
}

// Get возвращает конфликт по id
func (s *Service) Get(ctx context.Context, id int64) (*Conflict, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get conflict %d: %w", id, err)
	}
	return c, nil
}

// List возвращает конфликты по фильтру
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Conflict, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	conflicts, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list conflicts: %w", err)
	}
	return conflicts, nil
}

// Resolve разрешает конфликт по стратегии
func (s *Service) Resolve(ctx context.Context, id int64, req ResolveRequest) (*Conflict, error) {
	if !req.Strategy.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, req.Strategy)
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolve conflict %d: %w", id, err)
	}
	if c.Status != StatusDetected {
		return nil, fmt.Errorf("%w: conflict %d is %s", ErrInvalidState, id, c.Status)
	}

	res, err := s.resolver.Resolve(c, req.Strategy)
	if err != nil {
		return nil, err
	}

	data := res.Data
	resolvedBy := req.ResolvedBy
	if res.NeedsManual {
		// MANUAL: данные и идентичность предоставляет оператор
		if req.ResolvedData == nil {
			return nil, fmt.Errorf("%w: resolved_data is required for MANUAL", ErrValidation)
		}
		if resolvedBy == "" {
			return nil, fmt.Errorf("%w: resolved_by is required for MANUAL", ErrValidation)
		}
		data = req.ResolvedData
	} else if resolvedBy == "" {
		resolvedBy = SystemResolver
	}

	at := s.now()
	ok, err := s.repo.Resolve(ctx, id, req.Strategy, data, resolvedBy, at)
	if err != nil {
		return nil, fmt.Errorf("resolve conflict %d: %w", id, err)
	}
	if !ok {
		// конфликт ушел из DETECTED между чтением и CAS
		return nil, fmt.Errorf("%w: conflict %d resolved concurrently", ErrInvalidState, id)
	}

	// владеющий элемент возвращается в очередь, разрешенные данные будут
	// применены на следующем проходе сессии
	if err := s.requeuer.Requeue(ctx, c.QueueItemID); err != nil {
		s.log.Error("failed to requeue item after resolution",
			"conflict_id", id,
			"queue_item_id", c.QueueItemID,
			"error", err,
		)
		return nil, fmt.Errorf("requeue item %d: %w", c.QueueItemID, err)
	}

	s.log.Info("conflict resolved",
		"conflict_id", id,
		"strategy", req.Strategy,
		"resolved_by", resolvedBy,
	)

	c.Status = StatusResolved
	c.ResolutionStrategy = &req.Strategy
	c.ResolvedData = data
	c.ResolvedBy = resolvedBy
	c.ResolvedAt = &at
	return c, nil
}

// Ignore переводит конфликт в IGNORED
func (s *Service) Ignore(ctx context.Context, id int64, ignoredBy string) error {
	if ignoredBy == "" {
		ignoredBy = SystemResolver
	}

	ok, err := s.repo.Ignore(ctx, id, ignoredBy, s.now())
	if err != nil {
		return fmt.Errorf("ignore conflict %d: %w", id, err)
	}
	if !ok {
		c, gerr := s.repo.GetByID(ctx, id)
		if gerr != nil {
			return fmt.Errorf("ignore conflict %d: %w", id, gerr)
		}
		return fmt.Errorf("%w: conflict %d is %s", ErrInvalidState, id, c.Status)
	}

	s.log.Info("conflict ignored", "conflict_id", id, "ignored_by", ignoredBy)
	return nil
}
