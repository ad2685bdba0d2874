package conflict

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/server/api/http/middleware/auth"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/conflict"
)

type Handler struct {
	service    conflict.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service conflict.Servicer, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.findOp(), h.find)
	huma.Register(api, h.resolveOp(), h.resolve)
	huma.Register(api, h.ignoreOp(), h.ignore)
}

func (h *Handler) list(ctx context.Context, input *listInput) (*listOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	conflicts, err := h.service.List(ctx, conflict.ListFilter{
		UserID:     &userID,
		EntityType: input.EntityType,
		Status:     conflict.Status(input.Status),
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
			Status:    "Ok",
			Conflicts: conflicts,
			Total:     len(conflicts),
		},
	}, nil
}

func (h *Handler) find(ctx context.Context, input *findInput) (*findOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	c, err := h.owned(ctx, userID, input.ID)
	if err != nil {
		return &findOutput{
			Body: conflictResponse{Status: "Error"},
		}, mapError(err)
	}

	return &findOutput{
		Body: conflictResponse{
			Status:   "Ok",
			Conflict: c,
		},
	}, nil
}

func (h *Handler) resolve(ctx context.Context, input *resolveInput) (*findOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	if _, err := h.owned(ctx, userID, input.ID); err != nil {
		return &findOutput{
			Body: conflictResponse{Status: "Error"},
		}, mapError(err)
	}

	resolved, err := h.service.Resolve(ctx, input.ID, conflict.ResolveRequest{
		Strategy:     conflict.Strategy(input.Body.Strategy),
		ResolvedData: input.Body.ResolvedData,
		ResolvedBy:   input.Body.ResolvedBy,
	})
	if err != nil {
		return &findOutput{
			Body: conflictResponse{Status: "Error"},
		}, mapError(err)
	}

	return &findOutput{
		Body: conflictResponse{
			Status:   "Ok",
			Conflict: resolved,
		},
	}, nil
}

func (h *Handler) ignore(ctx context.Context, input *ignoreInput) (*statusOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	if _, err := h.owned(ctx, userID, input.ID); err != nil {
		return &statusOutput{
			Body: statusResponse{Status: "Error"},
		}, mapError(err)
	}

	if err := h.service.Ignore(ctx, input.ID, input.Body.IgnoredBy); err != nil {
		return &statusOutput{
			Body: statusResponse{Status: "Error"},
		}, mapError(err)
	}

	return &statusOutput{
		Body: statusResponse{
			Status:  "Ok",
			Message: "conflict ignored",
		},
	}, nil
}

// owned возвращает конфликт, если он принадлежит пользователю
func (h *Handler) owned(ctx context.Context, userID int, id int64) (*conflict.Conflict, error) {
	c, err := h.service.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, conflict.ErrNotFound
	}
	return c, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, conflict.ErrValidation), errors.Is(err, conflict.ErrUnsupportedMerge),
		errors.Is(err, conflict.ErrUnknownStrategy):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, conflict.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, conflict.ErrInvalidState):
		return huma.Error409Conflict(err.Error())
	default:
		return err
	}
}
