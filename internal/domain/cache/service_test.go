package cache

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/snapshot"
)

// MockRepository is a mock implementation of the Repository interface for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Get(ctx context.Context, userID int, cacheKey string) (*Entry, error) {
	args := m.Called(ctx, userID, cacheKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Entry), args.Error(1)
}

func (m *MockRepository) Upsert(ctx context.Context, e *Entry) (*Entry, error) {
	args := m.Called(ctx, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Entry), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, userID int) ([]*Entry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Entry), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, userID int, cacheKey string) error {
	args := m.Called(ctx, userID, cacheKey)
	return args.Error(0)
}

func (m *MockRepository) DeleteKeys(ctx context.Context, userID int, cacheKeys []string) (int64, error) {
	args := m.Called(ctx, userID, cacheKeys)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) DeleteAll(ctx context.Context, userID int) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSnapshot(t *testing.T) *snapshot.Snapshot {
	t.Helper()
	s, err := snapshot.FromMap(map[string]any{"price": 12.5})
	require.NoError(t, err)
	return s
}

var frozenNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(repo *MockRepository) *Service {
	svc := NewService(repo, testLogger())
	svc.now = func() time.Time { return frozenNow }
	return svc
}

func TestGet_Live(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	entry := &Entry{
		UserID:    7,
		CacheKey:  "PRODUCT:41",
		ExpiresAt: frozenNow.Add(time.Minute),
	}
	repo.On("Get", mock.Anything, 7, "PRODUCT:41").Return(entry, nil)

	got, err := svc.Get(context.Background(), 7, "PRODUCT:41")

	require.NoError(t, err)
	assert.Equal(t, entry, got)
}

func TestGet_ExpiredIsMissBeforeSweep(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	// запись еще физически в хранилище, но срок вышел
	repo.On("Get", mock.Anything, 7, "PRODUCT:41").Return(&Entry{
		UserID:    7,
		CacheKey:  "PRODUCT:41",
		ExpiresAt: frozenNow.Add(-time.Second),
	}, nil)

	_, err := svc.Get(context.Background(), 7, "PRODUCT:41")

	assert.ErrorIs(t, err, ErrMiss)
}

func TestGet_ExpiryBoundaryIsMiss(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	repo.On("Get", mock.Anything, 7, "k").Return(&Entry{ExpiresAt: frozenNow}, nil)

	_, err := svc.Get(context.Background(), 7, "k")

	assert.ErrorIs(t, err, ErrMiss)
}

func TestGet_Absent(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	repo.On("Get", mock.Anything, 7, "nope").Return(nil, ErrMiss)

	_, err := svc.Get(context.Background(), 7, "nope")

	assert.ErrorIs(t, err, ErrMiss)
}

func TestPut_SetsExpiry(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(e *Entry) bool {
		return e.ExpiresAt.Equal(frozenNow.Add(15*time.Minute)) && e.LastSyncedAt.Equal(frozenNow)
	})).Return(&Entry{ID: 1}, nil)

	_, err := svc.Put(context.Background(), PutRequest{
		UserID:       7,
		CacheKey:     "PRODUCT:41",
		CacheType:    TypeProduct,
		DataSnapshot: testSnapshot(t),
		TTL:          15 * time.Minute,
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestPut_DefaultTTL(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(e *Entry) bool {
		return e.ExpiresAt.Equal(frozenNow.Add(DefaultTTL))
	})).Return(&Entry{ID: 1}, nil)

	_, err := svc.Put(context.Background(), PutRequest{
		UserID:       7,
		CacheKey:     "STOCK:9",
		CacheType:    TypeStock,
		DataSnapshot: testSnapshot(t),
	})

	require.NoError(t, err)
}

func TestPut_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  PutRequest
	}{
		{"missing key", PutRequest{UserID: 7, CacheType: TypeStock}},
		{"unknown type", PutRequest{UserID: 7, CacheKey: "k", CacheType: "WAREHOUSE"}},
		{"empty snapshot", PutRequest{UserID: 7, CacheKey: "k", CacheType: TypeStock}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			svc := newTestService(repo)

			if tt.req.DataSnapshot == nil && tt.name != "empty snapshot" {
				tt.req.DataSnapshot = testSnapshot(t)
			}

			_, err := svc.Put(context.Background(), tt.req)

			assert.ErrorIs(t, err, ErrValidation)
			repo.AssertNotCalled(t, "Upsert")
		})
	}
}

func TestList_FiltersExpired(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	repo.On("List", mock.Anything, 7).Return([]*Entry{
		{CacheKey: "live", ExpiresAt: frozenNow.Add(time.Hour)},
		{CacheKey: "dead", ExpiresAt: frozenNow.Add(-time.Hour)},
	}, nil)

	entries, err := svc.List(context.Background(), 7)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "live", entries[0].CacheKey)
}

func TestInvalidateEntity(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	repo.On("DeleteKeys", mock.Anything, 7, []string{"PRODUCT:41", "PRODUCT"}).Return(int64(2), nil)

	err := svc.InvalidateEntity(context.Background(), 7, "PRODUCT", "41")

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestSweepExpired(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	repo.On("DeleteExpired", mock.Anything, frozenNow).Return(int64(3), nil)

	n, err := svc.SweepExpired(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
