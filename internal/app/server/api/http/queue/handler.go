package queue

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/server/api/http/middleware/auth"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/apply"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/queue"
)

type Handler struct {
	service    queue.Servicer
	staleAfter time.Duration
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service queue.Servicer, staleAfter time.Duration, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		staleAfter: staleAfter,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.enqueueOp(), h.enqueue)
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.attentionOp(), h.attention)
	huma.Register(api, h.recoverOp(), h.recover)
	huma.Register(api, h.findOp(), h.find)
	huma.Register(api, h.retryOp(), h.retry)
	huma.Register(api, h.deleteOp(), h.delete)
}

func (h *Handler) enqueue(ctx context.Context, input *enqueueInput) (*enqueueOutput, error) {
	userID, deviceID, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	item, err := h.service.Enqueue(ctx, queue.EnqueueRequest{
		UserID:         userID,
		DeviceID:       deviceID,
		EntityType:     input.Body.EntityType,
		EntityID:       input.Body.EntityID,
		Operation:      apply.Operation(input.Body.Operation),
		DataSnapshot:   input.Body.DataSnapshot,
		BaseVersion:    input.Body.BaseVersion,
		Priority:       input.Body.Priority,
		MaxRetries:     input.Body.MaxRetries,
		SourceChangeID: input.Body.SourceChangeID,
	})
	if err != nil {
		return &enqueueOutput{
			Body: itemResponse{Status: "Error"},
		}, mapError(err)
	}

	return &enqueueOutput{
		Body: itemResponse{
			Status: "Ok",
			Item:   item,
		},
	}, nil
}

func (h *Handler) list(ctx context.Context, input *listInput) (*listOutput, error) {
	userID, deviceID, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	items, err := h.service.List(ctx, queue.ListFilter{
		UserID:     &userID,
		DeviceID:   deviceID,
		EntityType: input.EntityType,
		Status:     queue.Status(input.Status),
		Limit:      input.Limit,
		Offset:     input.Offset,
	})
	if err != nil {
		return &listOutput{
			Body: listResponse{Status: "Error"},
		}, mapError(err)
	}

	return &listOutput{
		Body: listResponse{
			Status: "Ok",
			Items:  items,
			Total:  len(items),
		},
	}, nil
}

func (h *Handler) find(ctx context.Context, input *itemInput) (*enqueueOutput, error) {
	userID, _, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	item, err := h.owned(ctx, userID, input.ID)
	if err != nil {
		return &enqueueOutput{
			Body: itemResponse{Status: "Error"},
		}, mapError(err)
	}

	return &enqueueOutput{
		Body: itemResponse{
			Status: "Ok",
			Item:   item,
		},
	}, nil
}

func (h *Handler) retry(ctx context.Context, input *itemInput) (*statusOutput, error) {
	userID, _, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := h.owned(ctx, userID, input.ID); err != nil {
		return &statusOutput{
			Body: statusResponse{Status: "Error"},
		}, mapError(err)
	}

	if err := h.service.Retry(ctx, input.ID); err != nil {
		return &statusOutput{
			Body: statusResponse{Status: "Error"},
		}, mapError(err)
	}

	return &statusOutput{
		Body: statusResponse{
			Status:  "Ok",
			Message: "item requeued",
		},
	}, nil
}

func (h *Handler) delete(ctx context.Context, input *itemInput) (*statusOutput, error) {
	userID, _, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := h.owned(ctx, userID, input.ID); err != nil {
		return &statusOutput{
			Body: statusResponse{Status: "Error"},
		}, mapError(err)
	}

	if err := h.service.Delete(ctx, input.ID); err != nil {
		return &statusOutput{
			Body: statusResponse{Status: "Error"},
		}, mapError(err)
	}

	return &statusOutput{
		Body: statusResponse{
			Status:  "Ok",
			Message: "item deleted",
		},
	}, nil
}

func (h *Handler) recover(ctx context.Context, input *recoverInput) (*recoverOutput, error) {
	if _, _, err := identity(ctx); err != nil {
		return nil, err
	}

	// восстановление задевает элементы всех устройств, поэтому клиентский
	// порог не может быть агрессивнее серверного: иначе одно устройство
	// сбросит чужие элементы, которые еще обрабатываются
	staleAfter := h.staleAfter
	if requested := time.Duration(input.Body.StaleAfterMinutes) * time.Minute; requested > staleAfter {
		staleAfter = requested
	}

	recovered, err := h.service.RecoverStale(ctx, staleAfter)
	if err != nil {
		return &recoverOutput{
			Body: recoverResponse{Status: "Error"},
		}, mapError(err)
	}

	return &recoverOutput{
		Body: recoverResponse{
			Status:    "Ok",
			Recovered: recovered,
		},
	}, nil
}

func (h *Handler) attention(ctx context.Context, _ *struct{}) (*attentionOutput, error) {
	userID, deviceID, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	items, err := h.service.NeedsAttention(ctx, userID, deviceID)
	if err != nil {
		return &attentionOutput{
			Body: listResponse{Status: "Error"},
		}, mapError(err)
	}

	return &attentionOutput{
		Body: listResponse{
			Status: "Ok",
			Items:  items,
			Total:  len(items),
		},
	}, nil
}

// owned возвращает элемент, если он принадлежит пользователю; чужой элемент
// неотличим от отсутствующего
func (h *Handler) owned(ctx context.Context, userID int, id int64) (*queue.Item, error) {
	item, err := h.service.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		return nil, queue.ErrNotFound
	}
	return item, nil
}

func identity(ctx context.Context) (int, string, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return 0, "", huma.Error401Unauthorized("Unauthorized")
	}
	deviceID, ok := auth.GetDeviceID(ctx)
	if !ok {
		return 0, "", huma.Error401Unauthorized("Unauthorized")
	}
	return userID, deviceID, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, queue.ErrValidation):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, queue.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, queue.ErrRetryExhausted), errors.Is(err, queue.ErrInvalidState):
		return huma.Error409Conflict(err.Error())
	default:
		return err
	}
}
