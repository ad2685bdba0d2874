package cache

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/server/api/http/middleware/auth"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/cache"
)

type Handler struct {
	service    cache.Servicer
	defaultTTL time.Duration
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service cache.Servicer, defaultTTL time.Duration, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		defaultTTL: defaultTTL,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.getOp(), h.get)
	huma.Register(api, h.putOp(), h.put)
	huma.Register(api, h.invalidateOp(), h.invalidate)
	huma.Register(api, h.invalidateAllOp(), h.invalidateAll)
}

func (h *Handler) list(ctx context.Context, _ *struct{}) (*listOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	entries, err := h.service.List(ctx, userID)
	if err != nil {
		return &listOutput{
			Body: listResponse{Status: "Error"},
		}, mapError(err)
	}

	return &listOutput{
		Body: listResponse{
			Status:  "Ok",
			Entries: entries,
			Total:   len(entries),
		},
	}, nil
}

func (h *Handler) get(ctx context.Context, input *getInput) (*entryOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	entry, err := h.service.Get(ctx, userID, input.Key)
	if err != nil {
		return &entryOutput{
			Body: entryResponse{Status: "Error"},
		}, mapError(err)
	}

	return &entryOutput{
		Body: entryResponse{
			Status: "Ok",
			Entry:  entry,
		},
	}, nil
}

func (h *Handler) put(ctx context.Context, input *putInput) (*entryOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	ttl := h.defaultTTL
	if input.Body.TTLMinutes > 0 {
		ttl = time.Duration(input.Body.TTLMinutes) * time.Minute
	}

	entry, err := h.service.Put(ctx, cache.PutRequest{
		UserID:       userID,
		CacheKey:     input.Key,
		CacheType:    cache.Type(input.Body.CacheType),
		DataSnapshot: input.Body.DataSnapshot,
		TTL:          ttl,
	})
	if err != nil {
		return &entryOutput{
			Body: entryResponse{Status: "Error"},
		}, mapError(err)
	}

	return &entryOutput{
		Body: entryResponse{
			Status: "Ok",
			Entry:  entry,
		},
	}, nil
}

func (h *Handler) invalidate(ctx context.Context, input *getInput) (*statusOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	if err := h.service.Invalidate(ctx, userID, input.Key); err != nil {
		return &statusOutput{
			Body: statusResponse{Status: "Error"},
		}, mapError(err)
	}

	return &statusOutput{
		Body: statusResponse{
			Status:  "Ok",
			Message: "entry invalidated",
		},
	}, nil
}

func (h *Handler) invalidateAll(ctx context.Context, _ *struct{}) (*statusOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	if err := h.service.InvalidateAll(ctx, userID); err != nil {
		return &statusOutput{
			Body: statusResponse{Status: "Error"},
		}, mapError(err)
	}

	return &statusOutput{
		Body: statusResponse{
			Status:  "Ok",
			Message: "cache cleared",
		},
	}, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, cache.ErrValidation):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, cache.ErrMiss):
		return huma.Error404NotFound(err.Error())
	default:
		return err
	}
}
