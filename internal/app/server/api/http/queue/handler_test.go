package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/server/api/http/middleware/auth"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/apply"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/queue"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/snapshot"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Enqueue(ctx context.Context, req queue.EnqueueRequest) (*queue.Item, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.Item), args.Error(1)
}

func (m *MockService) Get(ctx context.Context, id int64) (*queue.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*queue.Item), args.Error(1)
}

func (m *MockService) List(ctx context.Context, filter queue.ListFilter) ([]*queue.Item, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*queue.Item), args.Error(1)
}

func (m *MockService) DequeueDue(ctx context.Context, userID int, deviceID string, limit int) ([]*queue.Item, error) {
	args := m.Called(ctx, userID, deviceID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*queue.Item), args.Error(1)
}

func (m *MockService) MarkSynced(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockService) MarkFailed(ctx context.Context, id int64, message string) error {
	return m.Called(ctx, id, message).Error(0)
}

func (m *MockService) MarkConflict(ctx context.Context, id int64, conflictID int64) error {
	return m.Called(ctx, id, conflictID).Error(0)
}

func (m *MockService) Retry(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockService) Requeue(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockService) Release(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockService) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockService) RecoverStale(ctx context.Context, staleAfter time.Duration) (int64, error) {
	args := m.Called(ctx, staleAfter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockService) NeedsAttention(ctx context.Context, userID int, deviceID string) ([]*queue.Item, error) {
	args := m.Called(ctx, userID, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*queue.Item), args.Error(1)
}

func TestHandler_Enqueue(t *testing.T) {
	userID := 7
	deviceID := "tablet-42"

	authCtx := auth.WithIdentity(context.Background(), userID, deviceID)

	t.Run("Success", func(t *testing.T) {
		svc := new(MockService)
		h := NewHandler(svc, 15*time.Minute, nil, nil)

		data := snapshot.New()
		data.Set("price", []byte("120"))

		input := &enqueueInput{}
		input.Body.EntityType = "PRODUCT"
		input.Body.EntityID = "P-100"
		input.Body.Operation = "UPDATE"
		input.Body.DataSnapshot = data
		input.Body.BaseVersion = 3

		svc.On("Enqueue",
			mock.Anything,
			mock.MatchedBy(func(req queue.EnqueueRequest) bool {
				return req.UserID == userID &&
					req.DeviceID == deviceID &&
					req.Operation == apply.OpUpdate &&
					req.BaseVersion == 3
			}),
		).Return(&queue.Item{
			ID:       10,
			UserID:   userID,
			DeviceID: deviceID,
			Status:   queue.StatusPending,
		}, nil)

		resp, err := h.enqueue(authCtx, input)

		assert.NoError(t, err)
		assert.Equal(t, "Ok", resp.Body.Status)
		assert.Equal(t, int64(10), resp.Body.Item.ID)
		svc.AssertExpectations(t)
	})

	t.Run("Error_Validation", func(t *testing.T) {
		svc := new(MockService)
		h := NewHandler(svc, 15*time.Minute, nil, nil)

		input := &enqueueInput{}
		input.Body.EntityType = "PRODUCT"
		input.Body.EntityID = "P-100"
		input.Body.Operation = "UPDATE"

		svc.On("Enqueue", mock.Anything, mock.Anything).
			Return(nil, queue.ErrValidation)

		resp, err := h.enqueue(authCtx, input)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid queue item")
		assert.Equal(t, "Error", resp.Body.Status)
	})

	t.Run("Error_NoIdentity", func(t *testing.T) {
		h := NewHandler(nil, 15*time.Minute, nil, nil)

		resp, err := h.enqueue(context.Background(), &enqueueInput{})

		assert.Nil(t, resp)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Unauthorized")
	})
}

func TestHandler_Retry_ForeignItemLooksMissing(t *testing.T) {
	authCtx := auth.WithIdentity(context.Background(), 7, "tablet-42")

	svc := new(MockService)
	h := NewHandler(svc, 15*time.Minute, nil, nil)

	// Элемент принадлежит другому пользователю
	svc.On("Get", mock.Anything, int64(99)).
		Return(&queue.Item{ID: 99, UserID: 1000, Status: queue.StatusFailed}, nil)

	resp, err := h.retry(authCtx, &itemInput{ID: 99})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.Equal(t, "Error", resp.Body.Status)
	svc.AssertNotCalled(t, "Retry", mock.Anything, mock.Anything)
}

func TestHandler_Recover(t *testing.T) {
	authCtx := auth.WithIdentity(context.Background(), 7, "tablet-42")

	t.Run("ServerDefault", func(t *testing.T) {
		svc := new(MockService)
		h := NewHandler(svc, 15*time.Minute, nil, nil)

		svc.On("RecoverStale", mock.Anything, 15*time.Minute).
			Return(int64(3), nil)

		resp, err := h.recover(authCtx, &recoverInput{})

		assert.NoError(t, err)
		assert.Equal(t, int64(3), resp.Body.Recovered)
		svc.AssertExpectations(t)
	})

	t.Run("ExplicitThreshold", func(t *testing.T) {
		svc := new(MockService)
		h := NewHandler(svc, 15*time.Minute, nil, nil)

		input := &recoverInput{}
		input.Body.StaleAfterMinutes = 45

		svc.On("RecoverStale", mock.Anything, 45*time.Minute).
			Return(int64(0), nil)

		resp, err := h.recover(authCtx, input)

		assert.NoError(t, err)
		assert.Equal(t, int64(0), resp.Body.Recovered)
		svc.AssertExpectations(t)
	})

	t.Run("BelowFloorRaisedToServerValue", func(t *testing.T) {
		svc := new(MockService)
		h := NewHandler(svc, 15*time.Minute, nil, nil)

		// порог агрессивнее серверного повышается до серверного,
		// иначе одно устройство сбрасывает чужие активные элементы
		input := &recoverInput{}
		input.Body.StaleAfterMinutes = 1

		svc.On("RecoverStale", mock.Anything, 15*time.Minute).
			Return(int64(0), nil)

		_, err := h.recover(authCtx, input)

		assert.NoError(t, err)
		svc.AssertExpectations(t)
	})
}

func TestHandler_Attention(t *testing.T) {
	authCtx := auth.WithIdentity(context.Background(), 7, "tablet-42")

	svc := new(MockService)
	h := NewHandler(svc, 15*time.Minute, nil, nil)

	conflictID := int64(5)
	svc.On("NeedsAttention", mock.Anything, 7, "tablet-42").
		Return([]*queue.Item{
			{ID: 1, Status: queue.StatusConflict, ConflictID: &conflictID},
			{ID: 2, Status: queue.StatusFailed, RetryCount: 3, MaxRetries: 3},
		}, nil)

	resp, err := h.attention(authCtx, nil)

	assert.NoError(t, err)
	assert.Equal(t, "Ok", resp.Body.Status)
	assert.Equal(t, 2, resp.Body.Total)
}
