package synclog

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/apply"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/cache"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/conflict"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/queue"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/snapshot"
)

// MockRepository is a mock implementation of the Repository interface for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, l *Log) (*Log, error) {
	args := m.Called(ctx, l)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Log), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*Log, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Log), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, filter ListFilter) ([]*Log, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Log), args.Error(1)
}

func (m *MockRepository) MarkInProgress(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) UpdateCounters(ctx context.Context, id string, c Counters) error {
	args := m.Called(ctx, id, c)
	return args.Error(0)
}

func (m *MockRepository) Finish(ctx context.Context, id string, to Status, c Counters, message string, at time.Time, durationSeconds int64) (bool, error) {
	args := m.Called(ctx, id, to, c, message, at, durationSeconds)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) FailStale(ctx context.Context, olderThan time.Time, message string) (int64, error) {
	args := m.Called(ctx, olderThan, message)
	return args.Get(0).(int64), args.Error(1)
}

// MockQueue mocks queue.Servicer
type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) Enqueue(ctx context.Context, req queue.EnqueueRequest) (*queue.Item, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.Item), args.Error(1)
}

func (m *MockQueue) Get(ctx context.Context, id int64) (*queue.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.Item), args.Error(1)
}

func (m *MockQueue) List(ctx context.Context, filter queue.ListFilter) ([]*queue.Item, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*queue.Item), args.Error(1)
}

func (m *MockQueue) DequeueDue(ctx context.Context, userID int, deviceID string, limit int) ([]*queue.Item, error) {
	args := m.Called(ctx, userID, deviceID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*queue.Item), args.Error(1)
}

func (m *MockQueue) MarkSynced(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQueue) MarkFailed(ctx context.Context, id int64, message string) error {
	args := m.Called(ctx, id, message)
	return args.Error(0)
}

func (m *MockQueue) MarkConflict(ctx context.Context, id int64, conflictID int64) error {
	args := m.Called(ctx, id, conflictID)
	return args.Error(0)
}

func (m *MockQueue) Retry(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQueue) Requeue(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQueue) Release(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQueue) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQueue) RecoverStale(ctx context.Context, staleAfter time.Duration) (int64, error) {
	args := m.Called(ctx, staleAfter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQueue) NeedsAttention(ctx context.Context, userID int, deviceID string) ([]*queue.Item, error) {
	args := m.Called(ctx, userID, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*queue.Item), args.Error(1)
}

// MockConflicts mocks conflict.Servicer
type MockConflicts struct {
	mock.Mock
}

func (m *MockConflicts) Create(ctx context.Context, req conflict.CreateRequest) (*conflict.Conflict, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*conflict.Conflict), args.Error(1)
}

func (m *MockConflicts) Get(ctx context.Context, id int64) (*conflict.Conflict, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*conflict.Conflict), args.Error(1)
}

func (m *MockConflicts) List(ctx context.Context, filter conflict.ListFilter) ([]*conflict.Conflict, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*conflict.Conflict), args.Error(1)
}

func (m *MockConflicts) Resolve(ctx context.Context, id int64, req conflict.ResolveRequest) (*conflict.Conflict, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*conflict.Conflict), args.Error(1)
}

func (m *MockConflicts) Ignore(ctx context.Context, id int64, ignoredBy string) error {
	args := m.Called(ctx, id, ignoredBy)
	return args.Error(0)
}

// MockCache mocks cache.Servicer
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, userID int, cacheKey string) (*cache.Entry, error) {
	args := m.Called(ctx, userID, cacheKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cache.Entry), args.Error(1)
}

func (m *MockCache) Put(ctx context.Context, req cache.PutRequest) (*cache.Entry, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cache.Entry), args.Error(1)
}

func (m *MockCache) List(ctx context.Context, userID int) ([]*cache.Entry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*cache.Entry), args.Error(1)
}

func (m *MockCache) Invalidate(ctx context.Context, userID int, cacheKey string) error {
	args := m.Called(ctx, userID, cacheKey)
	return args.Error(0)
}

func (m *MockCache) InvalidateAll(ctx context.Context, userID int) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockCache) InvalidateEntity(ctx context.Context, userID int, entityType, entityID string) error {
	args := m.Called(ctx, userID, entityType, entityID)
	return args.Error(0)
}

func (m *MockCache) SweepExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// fakeAuthority is an in-memory Authority for orchestration tests
type fakeAuthority struct {
	states   map[string]*apply.EntityState
	applyErr error
	applied  []apply.Mutation
}

func newFakeAuthority() *fakeAuthority {
	return &fakeAuthority{states: make(map[string]*apply.EntityState)}
}

func (f *fakeAuthority) key(entityType, entityID string) string {
	return entityType + "/" + entityID
}

func (f *fakeAuthority) State(_ context.Context, entityType, entityID string) (*apply.EntityState, error) {
	return f.states[f.key(entityType, entityID)], nil
}

func (f *fakeAuthority) Apply(_ context.Context, m apply.Mutation) (*apply.EntityState, error) {
	if f.applyErr != nil {
		return nil, f.applyErr
	}
	f.applied = append(f.applied, m)
	prev := f.states[f.key(m.EntityType, m.EntityID)]
	var version int64 = 1
	if prev != nil {
		version = prev.Version + 1
	}
	next := &apply.EntityState{
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Data:       m.Data,
		Version:    version,
		Deleted:    m.Operation == apply.OpDelete,
		ModifiedAt: time.Now(),
	}
	f.states[f.key(m.EntityType, m.EntityID)] = next
	return next, nil
}

type fixture struct {
	repo      *MockRepository
	queue     *MockQueue
	conflicts *MockConflicts
	cache     *MockCache
	authority *fakeAuthority
	svc       *Service
}

func newFixture(t *testing.T, config ServiceConfig) *fixture {
	t.Helper()

	f := &fixture{
		repo:      new(MockRepository),
		queue:     new(MockQueue),
		conflicts: new(MockConflicts),
		cache:     new(MockCache),
		authority: newFakeAuthority(),
	}

	registry := apply.NewRegistry()
	require.NoError(t, registry.Register("PRODUCT", f.authority))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewService(f.repo, f.queue, f.conflicts, f.cache, registry, log, config)
	return f
}

func startRequest() StartRequest {
	return StartRequest{
		UserID:    7,
		DeviceID:  "device-a",
		SyncType:  SyncPush,
		Direction: DirectionUpload,
	}
}

func itemSnapshot(t *testing.T) *snapshot.Snapshot {
	t.Helper()
	s, err := snapshot.FromMap(map[string]any{"name": "bolt", "qty": 10})
	require.NoError(t, err)
	return s
}

// expectLifecycle wires the happy-path session plumbing around the mocks
func (f *fixture) expectLifecycle(sessionID string) {
	f.repo.On("Create", mock.Anything, mock.MatchedBy(func(l *Log) bool {
		return l.Status == StatusInitiated && l.ID != ""
	})).Return(&Log{ID: sessionID, UserID: 7, DeviceID: "device-a", Status: StatusInitiated, StartedAt: time.Now(), Direction: DirectionUpload}, nil)
	f.repo.On("MarkInProgress", mock.Anything, sessionID).Return(true, nil)
	f.repo.On("GetByID", mock.Anything, sessionID).Return(&Log{ID: sessionID, UserID: 7, DeviceID: "device-a", Status: StatusInProgress, StartedAt: time.Now(), Direction: DirectionUpload}, nil)
	f.repo.On("UpdateCounters", mock.Anything, sessionID, mock.Anything).Return(nil)
	f.repo.On("Finish", mock.Anything, sessionID, StatusCompleted, mock.Anything, "", mock.Anything, mock.Anything).Return(true, nil)
	f.queue.On("NeedsAttention", mock.Anything, 7, "device-a").Return([]*queue.Item{}, nil)
}

func TestStart_ConcurrentSession(t *testing.T) {
	f := newFixture(t, ServiceConfig{})

	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil, ErrConcurrentSync)

	_, err := f.svc.Start(context.Background(), startRequest())

	assert.ErrorIs(t, err, ErrConcurrentSync)
}

func TestStart_Validation(t *testing.T) {
	f := newFixture(t, ServiceConfig{})

	req := startRequest()
	req.DeviceID = ""

	_, err := f.svc.Start(context.Background(), req)

	assert.ErrorIs(t, err, ErrValidation)
	f.repo.AssertNotCalled(t, "Create")
}

func TestProcess_CleanApply(t *testing.T) {
	f := newFixture(t, ServiceConfig{})
	f.expectLifecycle("session-1")

	// базовая версия клиента совпадает с текущей серверной
	f.authority.states["PRODUCT/41"] = &apply.EntityState{Version: 3}
	item := &queue.Item{
		ID: 1, UserID: 7, DeviceID: "device-a",
		EntityType: "PRODUCT", EntityID: "41",
		Operation: apply.OpUpdate, BaseVersion: 3,
		DataSnapshot: itemSnapshot(t),
		Status:       queue.StatusInProgress,
	}

	f.queue.On("DequeueDue", mock.Anything, 7, "device-a", 50).Return([]*queue.Item{item}, nil).Once()
	f.queue.On("DequeueDue", mock.Anything, 7, "device-a", 50).Return([]*queue.Item{}, nil)
	f.queue.On("MarkSynced", mock.Anything, int64(1)).Return(nil)
	f.cache.On("InvalidateEntity", mock.Anything, 7, "PRODUCT", "41").Return(nil)

	result, err := f.svc.Process(context.Background(), startRequest())

	require.NoError(t, err)
	assert.Len(t, f.authority.applied, 1)
	assert.Empty(t, result.NeedsAttention)
	f.queue.AssertCalled(t, "MarkSynced", mock.Anything, int64(1))
	f.cache.AssertCalled(t, "InvalidateEntity", mock.Anything, 7, "PRODUCT", "41")
	f.conflicts.AssertNotCalled(t, "Create")
}

func TestProcess_UpdateDeleteConflict(t *testing.T) {
	f := newFixture(t, ServiceConfig{})
	f.expectLifecycle("session-2")

	// сервер удалил запись после базовой версии клиента
	f.authority.states["PRODUCT/41"] = &apply.EntityState{Version: 5, Deleted: true}
	item := &queue.Item{
		ID: 2, UserID: 7, DeviceID: "device-a",
		EntityType: "PRODUCT", EntityID: "41",
		Operation: apply.OpUpdate, BaseVersion: 3,
		DataSnapshot: itemSnapshot(t),
		Status:       queue.StatusInProgress,
	}

	f.queue.On("DequeueDue", mock.Anything, 7, "device-a", 50).Return([]*queue.Item{item}, nil).Once()
	f.queue.On("DequeueDue", mock.Anything, 7, "device-a", 50).Return([]*queue.Item{}, nil)
	f.conflicts.On("Create", mock.Anything, mock.MatchedBy(func(req conflict.CreateRequest) bool {
		return req.Type == conflict.TypeUpdateDelete && req.QueueItemID == 2
	})).Return(&conflict.Conflict{ID: 100, Status: conflict.StatusDetected}, nil)
	f.queue.On("MarkConflict", mock.Anything, int64(2), int64(100)).Return(nil)

	result, err := f.svc.Process(context.Background(), startRequest())

	require.NoError(t, err)
	assert.Equal(t, 1, countersFromFinish(f.repo).ConflictsDetected)
	assert.Empty(t, f.authority.applied)
	_ = result
}

func TestProcess_AutoResolveServerWins(t *testing.T) {
	auto := conflict.StrategyServerWins
	f := newFixture(t, ServiceConfig{AutoResolve: &auto})
	f.expectLifecycle("session-3")

	serverData := itemSnapshot(t)
	f.authority.states["PRODUCT/41"] = &apply.EntityState{Version: 5, Data: serverData}

	first := &queue.Item{
		ID: 3, UserID: 7, DeviceID: "device-a",
		EntityType: "PRODUCT", EntityID: "41",
		Operation: apply.OpUpdate, BaseVersion: 3,
		DataSnapshot: itemSnapshot(t),
		Status:       queue.StatusInProgress,
	}
	conflictID := int64(101)
	requeued := *first
	requeued.ConflictID = &conflictID

	f.queue.On("DequeueDue", mock.Anything, 7, "device-a", 50).Return([]*queue.Item{first}, nil).Once()
	f.queue.On("DequeueDue", mock.Anything, 7, "device-a", 50).Return([]*queue.Item{&requeued}, nil).Once()
	f.queue.On("DequeueDue", mock.Anything, 7, "device-a", 50).Return([]*queue.Item{}, nil)

	f.conflicts.On("Create", mock.Anything, mock.Anything).Return(&conflict.Conflict{
		ID: conflictID, QueueItemID: 3, Status: conflict.StatusDetected,
	}, nil)
	f.queue.On("MarkConflict", mock.Anything, int64(3), conflictID).Return(nil)
	f.conflicts.On("Resolve", mock.Anything, conflictID, conflict.ResolveRequest{Strategy: conflict.StrategyServerWins}).
		Return(&conflict.Conflict{ID: conflictID, Status: conflict.StatusResolved, ResolvedData: serverData}, nil)
	f.conflicts.On("Get", mock.Anything, conflictID).Return(&conflict.Conflict{
		ID: conflictID, Status: conflict.StatusResolved, ResolvedData: serverData,
	}, nil)
	f.queue.On("MarkSynced", mock.Anything, int64(3)).Return(nil)
	f.cache.On("InvalidateEntity", mock.Anything, 7, "PRODUCT", "41").Return(nil)

	_, err := f.svc.Process(context.Background(), startRequest())

	require.NoError(t, err)
	c := countersFromFinish(f.repo)
	assert.Equal(t, 1, c.ConflictsDetected)
	assert.Equal(t, 1, c.ConflictsResolved)
	assert.Equal(t, 1, c.RecordsUploaded)
	// применены именно разрешенные данные
	require.Len(t, f.authority.applied, 1)
	assert.True(t, f.authority.applied[0].Data.Equal(serverData))
}

func TestProcess_AutoResolveServerWins_DeletedRecordStaysDeleted(t *testing.T) {
	auto := conflict.StrategyServerWins
	f := newFixture(t, ServiceConfig{AutoResolve: &auto})
	f.expectLifecycle("session-3d")

	// soft delete хранит последний слепок данных, но запись удалена:
	// SERVER_WINS должен оставить ее удаленной, а не восстановить
	f.authority.states["PRODUCT/41"] = &apply.EntityState{
		Version: 5, Deleted: true, Data: itemSnapshot(t),
	}

	first := &queue.Item{
		ID: 9, UserID: 7, DeviceID: "device-a",
		EntityType: "PRODUCT", EntityID: "41",
		Operation: apply.OpUpdate, BaseVersion: 3,
		DataSnapshot: itemSnapshot(t),
		Status:       queue.StatusInProgress,
	}
	conflictID := int64(102)
	requeued := *first
	requeued.ConflictID = &conflictID

	f.queue.On("DequeueDue", mock.Anything, 7, "device-a", 50).Return([]*queue.Item{first}, nil).Once()
	f.queue.On("DequeueDue", mock.Anything, 7, "device-a", 50).Return([]*queue.Item{&requeued}, nil).Once()
	f.queue.On("DequeueDue", mock.Anything, 7, "device-a", 50).Return([]*queue.Item{}, nil)

	// у удаленной записи серверные данные в конфликт не попадают
	f.conflicts.On("Create", mock.Anything, mock.MatchedBy(func(req conflict.CreateRequest) bool {
		return req.Type == conflict.TypeUpdateDelete && req.ServerData == nil && req.ServerVersion == 5
	})).Return(&conflict.Conflict{
		ID: conflictID, QueueItemID: 9, Status: conflict.StatusDetected,
	}, nil)
	f.queue.On("MarkConflict", mock.Anything, int64(9), conflictID).Return(nil)
	f.conflicts.On("Resolve", mock.Anything, conflictID, conflict.ResolveRequest{Strategy: conflict.StrategyServerWins}).
		Return(&conflict.Conflict{ID: conflictID, Status: conflict.StatusResolved}, nil)
	f.conflicts.On("Get", mock.Anything, conflictID).Return(&conflict.Conflict{
		ID: conflictID, Status: conflict.StatusResolved,
	}, nil)
	f.queue.On("MarkSynced", mock.Anything, int64(9)).Return(nil)
	f.cache.On("InvalidateEntity", mock.Anything, 7, "PRODUCT", "41").Return(nil)

	_, err := f.svc.Process(context.Background(), startRequest())

	require.NoError(t, err)
	require.Len(t, f.authority.applied, 1)
	assert.Equal(t, apply.OpDelete, f.authority.applied[0].Operation)
	assert.True(t, f.authority.states["PRODUCT/41"].Deleted)
}

func TestProcess_PerItemFailureDoesNotAbortSession(t *testing.T) {
	f := newFixture(t, ServiceConfig{})
	f.expectLifecycle("session-4")

	f.authority.states["PRODUCT/41"] = &apply.EntityState{Version: 1}
	f.authority.applyErr = errors.New("warehouse module unavailable")

	item := &queue.Item{
		ID: 4, UserID: 7, DeviceID: "device-a",
		EntityType: "PRODUCT", EntityID: "41",
		Operation: apply.OpUpdate, BaseVersion: 1,
		DataSnapshot: itemSnapshot(t),
		Status:       queue.StatusInProgress,
	}

	f.queue.On("DequeueDue", mock.Anything, 7, "device-a", 50).Return([]*queue.Item{item}, nil).Once()
	f.queue.On("DequeueDue", mock.Anything, 7, "device-a", 50).Return([]*queue.Item{}, nil)
	f.queue.On("MarkFailed", mock.Anything, int64(4), mock.MatchedBy(func(msg string) bool {
		return msg != ""
	})).Return(nil)

	_, err := f.svc.Process(context.Background(), startRequest())

	// пообъектный сбой не валит сессию
	require.NoError(t, err)
	f.repo.AssertCalled(t, "Finish", mock.Anything, "session-4", StatusCompleted,
		mock.Anything, "", mock.Anything, mock.Anything)
}

func TestProcess_DequeueFailureFailsSession(t *testing.T) {
	f := newFixture(t, ServiceConfig{})

	f.repo.On("Create", mock.Anything, mock.Anything).Return(&Log{
		ID: "session-5", UserID: 7, DeviceID: "device-a",
		Status: StatusInitiated, StartedAt: time.Now(), Direction: DirectionUpload,
	}, nil)
	f.repo.On("MarkInProgress", mock.Anything, "session-5").Return(true, nil)
	f.repo.On("GetByID", mock.Anything, "session-5").Return(&Log{
		ID: "session-5", Status: StatusInProgress, StartedAt: time.Now(),
	}, nil)
	f.queue.On("DequeueDue", mock.Anything, 7, "device-a", 50).Return(nil, errors.New("connection refused"))
	f.repo.On("Finish", mock.Anything, "session-5", StatusFailed,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true, nil)

	_, err := f.svc.Process(context.Background(), startRequest())

	require.Error(t, err)
	f.repo.AssertCalled(t, "Finish", mock.Anything, "session-5", StatusFailed,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_UnknownEntityTypeFailsItem(t *testing.T) {
	f := newFixture(t, ServiceConfig{})
	f.expectLifecycle("session-6")

	item := &queue.Item{
		ID: 6, UserID: 7, DeviceID: "device-a",
		EntityType: "LEDGER", EntityID: "9",
		Operation: apply.OpUpdate, BaseVersion: 1,
		DataSnapshot: itemSnapshot(t),
	}

	f.queue.On("DequeueDue", mock.Anything, 7, "device-a", 50).Return([]*queue.Item{item}, nil).Once()
	f.queue.On("DequeueDue", mock.Anything, 7, "device-a", 50).Return([]*queue.Item{}, nil)
	f.queue.On("MarkFailed", mock.Anything, int64(6), mock.Anything).Return(nil)

	_, err := f.svc.Process(context.Background(), startRequest())

	require.NoError(t, err)
	f.queue.AssertCalled(t, "MarkFailed", mock.Anything, int64(6), mock.Anything)
}

func TestCancel_TerminalSession(t *testing.T) {
	f := newFixture(t, ServiceConfig{})

	f.repo.On("GetByID", mock.Anything, "session-7").Return(&Log{
		ID: "session-7", Status: StatusCompleted, StartedAt: time.Now(),
	}, nil)

	err := f.svc.Cancel(context.Background(), "session-7")

	assert.ErrorIs(t, err, ErrInvalidState)
	f.repo.AssertNotCalled(t, "Finish")
}

func TestComplete_MultiRoundTrip(t *testing.T) {
	f := newFixture(t, ServiceConfig{})

	started := time.Now().Add(-3 * time.Second)
	f.repo.On("GetByID", mock.Anything, "session-8").Return(&Log{
		ID: "session-8", Status: StatusInProgress, StartedAt: started,
		Counters: Counters{RecordsUploaded: 12},
	}, nil)
	f.repo.On("Finish", mock.Anything, "session-8", StatusCompleted,
		Counters{RecordsUploaded: 12}, "", mock.Anything, mock.MatchedBy(func(d int64) bool {
			return d >= 3
		})).Return(true, nil)

	_, err := f.svc.Complete(context.Background(), "session-8")

	require.NoError(t, err)
	f.repo.AssertExpectations(t)
}

func TestComplete_InitiatedSessionRejected(t *testing.T) {
	f := newFixture(t, ServiceConfig{})

	// сессия не переходила в IN_PROGRESS, завершать нечего
	f.repo.On("GetByID", mock.Anything, "session-9").Return(&Log{
		ID: "session-9", Status: StatusInitiated, StartedAt: time.Now(),
	}, nil)

	_, err := f.svc.Complete(context.Background(), "session-9")

	assert.ErrorIs(t, err, ErrInvalidState)
	f.repo.AssertNotCalled(t, "Finish")
}

func TestRecoverStale_FailsOrphanedSessions(t *testing.T) {
	f := newFixture(t, ServiceConfig{})

	staleAfter := 30 * time.Minute
	f.repo.On("FailStale", mock.Anything, mock.MatchedBy(func(cutoff time.Time) bool {
		// порог отсчитывается назад от текущего момента
		return time.Since(cutoff) >= staleAfter
	}), mock.MatchedBy(func(msg string) bool {
		return msg != ""
	})).Return(int64(2), nil)

	n, err := f.svc.RecoverStale(context.Background(), staleAfter)

	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	f.repo.AssertExpectations(t)
}

func TestRecoverStale_RepositoryError(t *testing.T) {
	f := newFixture(t, ServiceConfig{})

	f.repo.On("FailStale", mock.Anything, mock.Anything, mock.Anything).
		Return(int64(0), errors.New("connection refused"))

	_, err := f.svc.RecoverStale(context.Background(), 30*time.Minute)

	require.Error(t, err)
}

// countersFromFinish вытаскивает агрегаты из зафиксированного вызова Finish
func countersFromFinish(repo *MockRepository) Counters {
	for _, call := range repo.Calls {
		if call.Method == "Finish" {
			return call.Arguments.Get(3).(Counters)
		}
	}
	return Counters{}
}
