package queue

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/apply"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/metrics"
)

// Servicer — интерфейс сервиса очереди синхронизации
type Servicer interface {
	// Enqueue ставит клиентскую мутацию в очередь. Повторная отправка с тем же
	// (device_id, source_change_id) возвращает уже созданный элемент.
	Enqueue(ctx context.Context, req EnqueueRequest) (*Item, error)

	// Get возвращает элемент по id
	Get(ctx context.Context, id int64) (*Item, error)

	// List возвращает элементы по фильтру
	List(ctx context.Context, filter ListFilter) ([]*Item, error)

	// DequeueDue атомарно забирает очередную партию элементов устройства,
	// переводя их в IN_PROGRESS
	DequeueDue(ctx context.Context, userID int, deviceID string, limit int) ([]*Item, error)

	// MarkSynced завершает обработку элемента: IN_PROGRESS -> SYNCED
	MarkSynced(ctx context.Context, id int64) error

	// MarkFailed фиксирует ошибку применения: IN_PROGRESS -> FAILED
	MarkFailed(ctx context.Context, id int64, message string) error

	// MarkConflict связывает элемент с конфликтом: IN_PROGRESS -> CONFLICT
	MarkConflict(ctx context.Context, id int64, conflictID int64) error

	// Retry возвращает проваленный элемент в очередь: FAILED -> PENDING
	Retry(ctx context.Context, id int64) error

	// Requeue возвращает элемент с разрешенным конфликтом в очередь:
	// CONFLICT -> PENDING
	Requeue(ctx context.Context, id int64) error

	// Release возвращает взятый в обработку элемент в PENDING без штрафа
	Release(ctx context.Context, id int64) error

	// Delete удаляет элемент по запросу клиента; допустимо только для
	// PENDING и FAILED
	Delete(ctx context.Context, id int64) error

	// RecoverStale возвращает зависшие IN_PROGRESS элементы в PENDING
	RecoverStale(ctx context.Context, staleAfter time.Duration) (int64, error)

	// NeedsAttention возвращает элементы устройства, требующие ручного
	// вмешательства
	NeedsAttention(ctx context.Context, userID int, deviceID string) ([]*Item, error)
}

// Service реализация сервиса очереди синхронизации
type Service struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

// NewService создает новый сервис очереди
func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With(slog.String("component", "sync_queue")),
		now:  time.Now,
	}
}

// Enqueue ставит клиентскую мутацию в очередь
func (s *Service) Enqueue(ctx context.Context, req EnqueueRequest) (*Item, error) {
	if err := s.validate(&req); err != nil {
		return nil, err
	}

	// Идемпотентность: потерянный ответ не должен плодить дубликаты
	if req.SourceChangeID != "" {
		existing, err := s.repo.GetBySourceChange(ctx, req.DeviceID, req.SourceChangeID)
		if err == nil && existing != nil {
			return existing, nil
		}
	}

	item := &Item{
		UserID:         req.UserID,
		DeviceID:       req.DeviceID,
		EntityType:     req.EntityType,
		EntityID:       req.EntityID,
		Operation:      req.Operation,
		DataSnapshot:   req.DataSnapshot,
		BaseVersion:    req.BaseVersion,
		SourceChangeID: req.SourceChangeID,
		Status:         StatusPending,
		Priority:       req.Priority,
		MaxRetries:     req.MaxRetries,
		CreatedAt:      s.now(),
	}

	created, err := s.repo.Create(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("enqueue item: %w", err)
	}

	s.log.Debug("item enqueued",
		"id", created.ID,
		"entity_type", created.EntityType,
		"entity_id", created.EntityID,
		"operation", created.Operation,
	)

	return created, nil
}

func (s *Service) validate(req *EnqueueRequest) error {
	if req.EntityType == "" {
		return fmt.Errorf("%w: entity_type is required", ErrValidation)
	}
	if req.EntityID == "" {
		return fmt.Errorf("%w: entity_id is required", ErrValidation)
	}
	if !req.Operation.Valid() {
		return fmt.Errorf("%w: operation_type must be one of INSERT, UPDATE, DELETE", ErrValidation)
	}
	if req.DeviceID == "" {
		return fmt.Errorf("%w: device_id is required", ErrValidation)
	}
	if req.Priority == 0 {
		req.Priority = DefaultPriority
	}
	if req.Priority < PriorityHighest || req.Priority > PriorityLowest {
		return fmt.Errorf("%w: priority must be within %d..%d", ErrValidation, PriorityHighest, PriorityLowest)
	}
	if req.MaxRetries == 0 {
		req.MaxRetries = DefaultMaxRetries
	}
	if req.MaxRetries < 1 || req.MaxRetries > MaxRetriesLimit {
		return fmt.Errorf("%w: max_retries must be within 1..%d", ErrValidation, MaxRetriesLimit)
	}
	if req.Operation != apply.OpDelete && req.DataSnapshot.IsEmpty() {
		return fmt.Errorf("%w: data_snapshot is required for %s", ErrValidation, req.Operation)
	}
	return nil
}

// Get возвращает элемент по id
func (s *Service) Get(ctx context.Context, id int64) (*Item, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get item %d: %w", id, err)
	}
	return item, nil
}

// List возвращает элементы по фильтру
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Item, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// DequeueDue атомарно забирает партию элементов устройства
func (s *Service) DequeueDue(ctx context.Context, userID int, deviceID string, limit int) ([]*Item, error) {
	if limit <= 0 {
		limit = 50
	}
	items, err := s.repo.DequeueDue(ctx, userID, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("dequeue due items: %w", err)
	}
	return items, nil
}

// MarkSynced завершает обработку элемента
func (s *Service) MarkSynced(ctx context.Context, id int64) error {
	ok, err := s.repo.MarkSynced(ctx, id, s.now())
	if err != nil {
		return fmt.Errorf("mark synced %d: %w", id, err)
	}
	if !ok {
		return s.stateError(ctx, id, StatusInProgress)
	}
	return nil
}

// MarkFailed фиксирует ошибку применения элемента
func (s *Service) MarkFailed(ctx context.Context, id int64, message string) error {
	retries, ok, err := s.repo.MarkFailed(ctx, id, message)
	if err != nil {
		return fmt.Errorf("mark failed %d: %w", id, err)
	}
	if !ok {
		return s.stateError(ctx, id, StatusInProgress)
	}

	s.log.Warn("item failed",
		"id", id,
		"retry_count", retries,
		"error_message", message,
	)
	return nil
}

// MarkConflict связывает элемент с обнаруженным конфликтом
func (s *Service) MarkConflict(ctx context.Context, id int64, conflictID int64) error {
	ok, err := s.repo.MarkConflict(ctx, id, conflictID)
	if err != nil {
		return fmt.Errorf("mark conflict %d: %w", id, err)
	}
	if !ok {
		return s.stateError(ctx, id, StatusInProgress)
	}
	return nil
}

// Retry возвращает проваленный элемент в очередь
func (s *Service) Retry(ctx context.Context, id int64) error {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("retry %d: %w", id, err)
	}
	if item.Status != StatusFailed {
		return fmt.Errorf("%w: retry requires FAILED, item %d is %s", ErrInvalidState, id, item.Status)
	}
	if item.RetryExhausted() {
		return fmt.Errorf("%w: item %d used %d of %d retries", ErrRetryExhausted, id, item.RetryCount, item.MaxRetries)
	}

	ok, err := s.repo.Retry(ctx, id)
	if err != nil {
		return fmt.Errorf("retry %d: %w", id, err)
	}
	if !ok {
		// статус изменился между чтением и CAS
		return fmt.Errorf("%w: item %d left FAILED concurrently", ErrInvalidState, id)
	}
	return nil
}

// Requeue возвращает элемент с разрешенным конфликтом в очередь.
// Единственный путь CONFLICT -> PENDING.
func (s *Service) Requeue(ctx context.Context, id int64) error {
	ok, err := s.repo.Requeue(ctx, id)
	if err != nil {
		return fmt.Errorf("requeue %d: %w", id, err)
	}
	if !ok {
		return s.stateError(ctx, id, StatusConflict)
	}
	return nil
}

// Release возвращает взятый в обработку элемент в PENDING без штрафа
func (s *Service) Release(ctx context.Context, id int64) error {
	ok, err := s.repo.Release(ctx, id)
	if err != nil {
		return fmt.Errorf("release %d: %w", id, err)
	}
	if !ok {
		return s.stateError(ctx, id, StatusInProgress)
	}
	return nil
}

// Delete удаляет элемент по запросу клиента
func (s *Service) Delete(ctx context.Context, id int64) error {
	ok, err := s.repo.Delete(ctx, id, []Status{StatusPending, StatusFailed})
	if err != nil {
		return fmt.Errorf("delete %d: %w", id, err)
	}
	if !ok {
		item, gerr := s.repo.GetByID(ctx, id)
		if gerr != nil {
			return fmt.Errorf("delete %d: %w", id, gerr)
		}
		return fmt.Errorf("%w: cannot delete item %d in status %s", ErrInvalidState, id, item.Status)
	}
	return nil
}

// RecoverStale возвращает зависшие IN_PROGRESS элементы в PENDING
func (s *Service) RecoverStale(ctx context.Context, staleAfter time.Duration) (int64, error) {
	cutoff := s.now().Add(-staleAfter)
	n, err := s.repo.RecoverStale(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("recover stale items: %w", err)
	}
	if n > 0 {
		metrics.StaleItemsRecovered.Add(float64(n))
		s.log.Info("stale items recovered", "count", n, "older_than", cutoff)
	}
	return n, nil
}

// NeedsAttention возвращает элементы, требующие ручного вмешательства
func (s *Service) NeedsAttention(ctx context.Context, userID int, deviceID string) ([]*Item, error) {
	items, err := s.repo.NeedsAttention(ctx, userID, deviceID)
	if err != nil {
		return nil, fmt.Errorf("needs attention: %w", err)
	}
	return items, nil
}

// stateError различает отсутствие элемента и недопустимый переход
func (s *Service) stateError(ctx context.Context, id int64, want Status) error {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("item %d: %w", id, err)
	}
	return fmt.Errorf("%w: item %d is %s, want %s", ErrInvalidState, id, item.Status, want)
}
