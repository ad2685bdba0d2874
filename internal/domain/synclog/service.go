package synclog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/apply"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/cache"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/conflict"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/queue"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/metrics"
)

// maxPassesPerItem ограничивает число обработок одного элемента за сессию:
// первый проход плюс повтор после авторазрешения конфликта. Без лимита
// элемент с постоянно падающим apply крутился бы в цикле до конца сессии.
const maxPassesPerItem = 2

// ServiceConfig — настройки оркестратора сессий
type ServiceConfig struct {
	// BatchSize — размер партии dequeueDue
	BatchSize int

	// AutoResolve — стратегия автоматического разрешения обнаруженных
	// конфликтов; nil или MANUAL оставляют конфликт в DETECTED
	AutoResolve *conflict.Strategy
}

// Servicer — интерфейс оркестратора сессий синхронизации
type Servicer interface {
	// Start открывает сессию. ErrConcurrentSync, если для (user_id, device_id)
	// уже есть активная.
	Start(ctx context.Context, req StartRequest) (*Log, error)

	// Process открывает сессию и прогоняет очередь устройства до конца
	Process(ctx context.Context, req StartRequest) (*ProcessResult, error)

	// Complete завершает сессию, открытую через Start (многошаговый режим
	// клиентских roundtrip'ов). Частичный успех — это COMPLETED.
	Complete(ctx context.Context, id string) (*Log, error)

	// Fail помечает сессию проваленной; только для инфраструктурных сбоев
	Fail(ctx context.Context, id string, message string) error

	// Cancel останавливает дальнейшую обработку; уже примененные элементы
	// не откатываются
	Cancel(ctx context.Context, id string) error

	// RecoverStale проваливает активные сессии, начатые раньше staleAfter
	// назад: они пережили падение процесса и иначе навсегда блокируют
	// устройство по ErrConcurrentSync
	RecoverStale(ctx context.Context, staleAfter time.Duration) (int64, error)

	// Get возвращает сессию по id
	Get(ctx context.Context, id string) (*Log, error)

	// List возвращает сессии по фильтру, новые первыми
	List(ctx context.Context, filter ListFilter) ([]*Log, error)
}

// Service — оркестратор сессий синхронизации
type Service struct {
	repo      Repository
	queue     queue.Servicer
	conflicts conflict.Servicer
	cache     cache.Servicer
	registry  *apply.Registry
	log       *slog.Logger
	config    ServiceConfig
	now       func() time.Time
}

// NewService создает оркестратор сессий
func NewService(
	repo Repository,
	q queue.Servicer,
	conflicts conflict.Servicer,
	c cache.Servicer,
	registry *apply.Registry,
	log *slog.Logger,
	config ServiceConfig,
) *Service {
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	return &Service{
		repo:      repo,
		queue:     q,
		conflicts: conflicts,
		cache:     c,
		registry:  registry,
		log:       log.With(slog.String("component", "sync_session")),
		config:    config,
		now:       time.Now,
	}
}

// Start открывает сессию синхронизации
func (s *Service) Start(ctx context.Context, req StartRequest) (*Log, error) {
	if req.DeviceID == "" {
		return nil, fmt.Errorf("%w: device_id is required", ErrValidation)
	}
	if req.SyncType == "" {
		req.SyncType = SyncIncremental
	}
	if !req.SyncType.Valid() {
		return nil, fmt.Errorf("%w: unknown sync_type %q", ErrValidation, req.SyncType)
	}
	if req.Direction == "" {
		req.Direction = DirectionBidirectional
	}
	if !req.Direction.Valid() {
		return nil, fmt.Errorf("%w: unknown sync_direction %q", ErrValidation, req.Direction)
	}

	l := &Log{
		ID:         uuid.NewString(),
		UserID:     req.UserID,
		DeviceID:   req.DeviceID,
		DeviceType: req.DeviceType,
		AppVersion: req.AppVersion,
		SyncType:   req.SyncType,
		Direction:  req.Direction,
		Status:     StatusInitiated,
		StartedAt:  s.now(),
	}

	created, err := s.repo.Create(ctx, l)
	if err != nil {
		return nil, err
	}

	metrics.SessionsTotal.WithLabelValues(string(StatusInitiated)).Inc()
	s.log.Info("sync session started",
		"session_id", created.ID,
		"user_id", created.UserID,
		"device_id", created.DeviceID,
		"sync_type", created.SyncType,
	)
	return created, nil
}

// Process открывает сессию и прогоняет очередь устройства
func (s *Service) Process(ctx context.Context, req StartRequest) (*ProcessResult, error) {
	l, err := s.Start(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, l)
}

func (s *Service) run(ctx context.Context, l *Log) (*ProcessResult, error) {
	ok, err := s.repo.MarkInProgress(ctx, l.ID)
	if err != nil {
		return nil, s.abort(ctx, l, Counters{}, fmt.Errorf("mark in progress: %w", err))
	}
	if !ok {
		return nil, fmt.Errorf("%w: session %s", ErrInvalidState, l.ID)
	}

	var counters Counters
	passes := make(map[int64]int)
	cancelled := false

loop:
	for {
		// остановка по запросу клиента или оператора
		current, err := s.repo.GetByID(ctx, l.ID)
		if err != nil {
			return nil, s.abort(ctx, l, counters, fmt.Errorf("reload session: %w", err))
		}
		if current.Status == StatusCancelled {
			cancelled = true
			break
		}

		items, err := s.queue.DequeueDue(ctx, l.UserID, l.DeviceID, s.config.BatchSize)
		if err != nil {
			// сбой хранилища очереди валит всю сессию
			return nil, s.abort(ctx, l, counters, fmt.Errorf("dequeue: %w", err))
		}
		if len(items) == 0 {
			break
		}

		progressed := false
		for _, item := range items {
			if err := ctx.Err(); err != nil {
				return nil, s.abort(ctx, l, counters, err)
			}
			if passes[item.ID] >= maxPassesPerItem {
				if err := s.queue.Release(ctx, item.ID); err != nil {
					s.log.Warn("failed to release item", "item_id", item.ID, "error", err)
				}
				continue
			}
			passes[item.ID]++
			progressed = true
			s.handleItem(ctx, l, item, &counters)
		}

		if err := s.repo.UpdateCounters(ctx, l.ID, counters); err != nil {
			s.log.Warn("failed to persist session counters", "session_id", l.ID, "error", err)
		}
		if !progressed {
			break loop
		}
	}

	if cancelled {
		finished, err := s.repo.GetByID(ctx, l.ID)
		if err != nil {
			return nil, fmt.Errorf("reload cancelled session: %w", err)
		}
		return s.result(ctx, finished)
	}

	// для PULL/BIDIRECTIONAL объем выгрузки — живые записи кэша устройства
	if l.Direction != DirectionUpload {
		entries, err := s.cache.List(ctx, l.UserID)
		if err != nil {
			s.log.Warn("failed to count downloadable cache entries", "session_id", l.ID, "error", err)
		} else {
			counters.RecordsDownloaded = len(entries)
		}
	}

	at := s.now()
	duration := int64(at.Sub(l.StartedAt).Seconds())
	if _, err := s.repo.Finish(ctx, l.ID, StatusCompleted, counters, "", at, duration); err != nil {
		return nil, fmt.Errorf("complete session %s: %w", l.ID, err)
	}

	metrics.SessionsTotal.WithLabelValues(string(StatusCompleted)).Inc()
	metrics.SessionDuration.Observe(at.Sub(l.StartedAt).Seconds())
	s.log.Info("sync session completed",
		"session_id", l.ID,
		"uploaded", counters.RecordsUploaded,
		"downloaded", counters.RecordsDownloaded,
		"conflicts_detected", counters.ConflictsDetected,
		"conflicts_resolved", counters.ConflictsResolved,
	)

	finished, err := s.repo.GetByID(ctx, l.ID)
	if err != nil {
		return nil, fmt.Errorf("reload session %s: %w", l.ID, err)
	}
	return s.result(ctx, finished)
}

func (s *Service) result(ctx context.Context, l *Log) (*ProcessResult, error) {
	attention, err := s.queue.NeedsAttention(ctx, l.UserID, l.DeviceID)
	if err != nil {
		s.log.Warn("failed to collect attention items", "session_id", l.ID, "error", err)
		attention = nil
	}
	return &ProcessResult{Session: l, NeedsAttention: attention}, nil
}

// handleItem обрабатывает один элемент очереди; любая ошибка здесь —
// пообъектная, сессию не прерывает
func (s *Service) handleItem(ctx context.Context, l *Log, item *queue.Item, c *Counters) {
	// элемент, вернувшийся после разрешения конфликта
	if item.ConflictID != nil {
		s.applyResolved(ctx, item, c)
		return
	}

	authority, err := s.registry.Authority(item.EntityType)
	if err != nil {
		s.failItem(ctx, item, err)
		return
	}

	state, err := authority.State(ctx, item.EntityType, item.EntityID)
	if err != nil {
		s.failItem(ctx, item, fmt.Errorf("load authoritative state: %w", err))
		return
	}

	if typ, found := conflict.Detect(item.Operation, item.BaseVersion, state); found {
		s.recordConflict(ctx, item, state, typ, c)
		return
	}

	if _, err := authority.Apply(ctx, apply.Mutation{
		EntityType: item.EntityType,
		EntityID:   item.EntityID,
		Operation:  item.Operation,
		Data:       item.DataSnapshot,
	}); err != nil {
		s.failItem(ctx, item, fmt.Errorf("apply mutation: %w", err))
		return
	}

	s.finishItem(ctx, item, c)
}

// applyResolved применяет данные разрешенного конфликта
func (s *Service) applyResolved(ctx context.Context, item *queue.Item, c *Counters) {
	cf, err := s.conflicts.Get(ctx, *item.ConflictID)
	if err != nil {
		s.failItem(ctx, item, fmt.Errorf("load conflict %d: %w", *item.ConflictID, err))
		return
	}
	if cf.Status != conflict.StatusResolved {
		s.failItem(ctx, item, fmt.Errorf("%w: conflict %d is %s", conflict.ErrUnresolved, cf.ID, cf.Status))
		return
	}

	authority, err := s.registry.Authority(item.EntityType)
	if err != nil {
		s.failItem(ctx, item, err)
		return
	}

	op := apply.OpUpdate
	if cf.ResolvedData.IsEmpty() {
		// разрешение в пользу удаленного состояния
		op = apply.OpDelete
	} else {
		state, serr := authority.State(ctx, item.EntityType, item.EntityID)
		if serr != nil {
			s.failItem(ctx, item, fmt.Errorf("load authoritative state: %w", serr))
			return
		}
		if state == nil || state.Deleted {
			op = apply.OpInsert
		}
	}

	if _, err := authority.Apply(ctx, apply.Mutation{
		EntityType: item.EntityType,
		EntityID:   item.EntityID,
		Operation:  op,
		Data:       cf.ResolvedData,
	}); err != nil {
		s.failItem(ctx, item, fmt.Errorf("apply resolved data: %w", err))
		return
	}

	s.finishItem(ctx, item, c)
}

func (s *Service) finishItem(ctx context.Context, item *queue.Item, c *Counters) {
	if err := s.queue.MarkSynced(ctx, item.ID); err != nil {
		s.log.Warn("failed to mark item synced", "item_id", item.ID, "error", err)
		return
	}
	c.RecordsUploaded++
	metrics.ItemsProcessed.WithLabelValues("synced", item.EntityType).Inc()

	if err := s.cache.InvalidateEntity(ctx, item.UserID, item.EntityType, item.EntityID); err != nil {
		s.log.Warn("failed to invalidate cache",
			"item_id", item.ID,
			"entity_type", item.EntityType,
			"entity_id", item.EntityID,
			"error", err,
		)
	}
}

func (s *Service) failItem(ctx context.Context, item *queue.Item, cause error) {
	metrics.ItemsProcessed.WithLabelValues("failed", item.EntityType).Inc()
	if err := s.queue.MarkFailed(ctx, item.ID, cause.Error()); err != nil {
		s.log.Error("failed to mark item failed", "item_id", item.ID, "error", err)
	}
}

func (s *Service) recordConflict(ctx context.Context, item *queue.Item, state *apply.EntityState, typ conflict.Type, c *Counters) {
	req := conflict.CreateRequest{
		QueueItemID: item.ID,
		UserID:      item.UserID,
		DeviceID:    item.DeviceID,
		EntityType:  item.EntityType,
		EntityID:    item.EntityID,
		ClientData:  item.DataSnapshot,
		BaseVersion: item.BaseVersion,
		Type:        typ,
	}
	if state != nil {
		req.ServerVersion = state.Version
		// у удаленной записи серверных данных нет: soft delete хранит
		// последний слепок только для аудита, SERVER_WINS должен
		// оставить запись удаленной, а не воскресить ее
		if !state.Deleted {
			req.ServerData = state.Data
		}
	}

	created, err := s.conflicts.Create(ctx, req)
	if err != nil {
		s.failItem(ctx, item, fmt.Errorf("record conflict: %w", err))
		return
	}
	if err := s.queue.MarkConflict(ctx, item.ID, created.ID); err != nil {
		s.log.Error("failed to mark item conflicted", "item_id", item.ID, "error", err)
		return
	}
	c.ConflictsDetected++
	metrics.ItemsProcessed.WithLabelValues("conflict", item.EntityType).Inc()
	metrics.ConflictsDetected.WithLabelValues(string(typ)).Inc()

	if s.config.AutoResolve == nil || *s.config.AutoResolve == conflict.StrategyManual {
		return
	}
	if _, err := s.conflicts.Resolve(ctx, created.ID, conflict.ResolveRequest{Strategy: *s.config.AutoResolve}); err != nil {
		// конфликт остается DETECTED и ждет оператора
		s.log.Warn("auto-resolution failed",
			"conflict_id", created.ID,
			"strategy", *s.config.AutoResolve,
			"error", err,
		)
		return
	}
	c.ConflictsResolved++
	metrics.ConflictsResolved.WithLabelValues(string(*s.config.AutoResolve)).Inc()
}

// abort завершает сессию как FAILED при инфраструктурном сбое
func (s *Service) abort(ctx context.Context, l *Log, c Counters, cause error) error {
	at := s.now()
	duration := int64(at.Sub(l.StartedAt).Seconds())
	if _, err := s.repo.Finish(ctx, l.ID, StatusFailed, c, cause.Error(), at, duration); err != nil {
		s.log.Error("failed to mark session failed", "session_id", l.ID, "error", err)
	}
	metrics.SessionsTotal.WithLabelValues(string(StatusFailed)).Inc()
	s.log.Error("sync session failed", "session_id", l.ID, "error", cause)
	return fmt.Errorf("session %s failed: %w", l.ID, cause)
}

// Complete завершает сессию, открытую через Start
func (s *Service) Complete(ctx context.Context, id string) (*Log, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("complete session %s: %w", id, err)
	}
	// завершать можно только сессию, успевшую перейти в IN_PROGRESS:
	// INITIATED означает, что обработка элементов еще не начиналась
	if current.Status != StatusInProgress {
		return nil, fmt.Errorf("%w: session %s is %s", ErrInvalidState, id, current.Status)
	}

	at := s.now()
	duration := int64(at.Sub(current.StartedAt).Seconds())
	ok, err := s.repo.Finish(ctx, id, StatusCompleted, current.Counters, "", at, duration)
	if err != nil {
		return nil, fmt.Errorf("complete session %s: %w", id, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: session %s finished concurrently", ErrInvalidState, id)
	}

	metrics.SessionsTotal.WithLabelValues(string(StatusCompleted)).Inc()
	return s.repo.GetByID(ctx, id)
}

// Fail помечает сессию проваленной
func (s *Service) Fail(ctx context.Context, id string, message string) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("fail session %s: %w", id, err)
	}
	if current.Status.Terminal() {
		return fmt.Errorf("%w: session %s is %s", ErrInvalidState, id, current.Status)
	}

	at := s.now()
	duration := int64(at.Sub(current.StartedAt).Seconds())
	ok, err := s.repo.Finish(ctx, id, StatusFailed, current.Counters, message, at, duration)
	if err != nil {
		return fmt.Errorf("fail session %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("%w: session %s finished concurrently", ErrInvalidState, id)
	}
	metrics.SessionsTotal.WithLabelValues(string(StatusFailed)).Inc()
	return nil
}

// Cancel останавливает дальнейшую обработку сессии
func (s *Service) Cancel(ctx context.Context, id string) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("cancel session %s: %w", id, err)
	}
	if current.Status.Terminal() {
		return fmt.Errorf("%w: session %s is %s", ErrInvalidState, id, current.Status)
	}

	at := s.now()
	duration := int64(at.Sub(current.StartedAt).Seconds())
	ok, err := s.repo.Finish(ctx, id, StatusCancelled, current.Counters, "", at, duration)
	if err != nil {
		return fmt.Errorf("cancel session %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("%w: session %s finished concurrently", ErrInvalidState, id)
	}

	metrics.SessionsTotal.WithLabelValues(string(StatusCancelled)).Inc()
	s.log.Info("sync session cancelled", "session_id", id)
	return nil
}

// RecoverStale проваливает осиротевшие активные сессии
func (s *Service) RecoverStale(ctx context.Context, staleAfter time.Duration) (int64, error) {
	cutoff := s.now().Add(-staleAfter)
	n, err := s.repo.FailStale(ctx, cutoff, "session recovered: process crashed or lost connection")
	if err != nil {
		return 0, fmt.Errorf("recover stale sessions: %w", err)
	}
	if n > 0 {
		metrics.SessionsTotal.WithLabelValues(string(StatusFailed)).Add(float64(n))
		s.log.Info("stale sessions failed", "count", n, "older_than", cutoff)
	}
	return n, nil
}

// Get возвращает сессию по id
func (s *Service) Get(ctx context.Context, id string) (*Log, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return l, nil
}

// List возвращает сессии по фильтру
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Log, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	logs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return logs, nil
}
