package synclog

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/server/api/http/middleware/auth"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/synclog"
)

type Handler struct {
	service    synclog.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service synclog.Servicer, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.processOp(), h.process)
	huma.Register(api, h.startOp(), h.start)
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.findOp(), h.find)
	huma.Register(api, h.completeOp(), h.complete)
	huma.Register(api, h.failOp(), h.fail)
	huma.Register(api, h.cancelOp(), h.cancel)
}

func (h *Handler) process(ctx context.Context, input *startInput) (*processOutput, error) {
	req, err := h.startRequest(ctx, input)
	if err != nil {
		return nil, err
	}

	result, err := h.service.Process(ctx, req)
	if err != nil {
		return &processOutput{
			Body: processResponse{Status: "Error"},
		}, mapError(err)
	}

	return &processOutput{
		Body: processResponse{
			Status:         "Ok",
			Session:        result.Session,
			NeedsAttention: result.NeedsAttention,
		},
	}, nil
}

func (h *Handler) start(ctx context.Context, input *startInput) (*sessionOutput, error) {
	req, err := h.startRequest(ctx, input)
	if err != nil {
		return nil, err
	}

	session, err := h.service.Start(ctx, req)
	if err != nil {
		return &sessionOutput{
			Body: sessionResponse{Status: "Error"},
		}, mapError(err)
	}

	return &sessionOutput{
		Body: sessionResponse{
			Status:  "Ok",
			Session: session,
		},
	}, nil
}

func (h *Handler) list(ctx context.Context, input *listInput) (*listOutput, error) {
	userID, deviceID, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	sessions, err := h.service.List(ctx, synclog.ListFilter{
		UserID:   &userID,
		DeviceID: deviceID,
		Status:   synclog.Status(input.Status),
		Limit:    input.Limit,
		Offset:   input.Offset,
	})
	if err != nil {
		return &listOutput{
			Body: listResponse{Status: "Error"},
		}, mapError(err)
	}

	return &listOutput{
		Body: listResponse{
			Status:   "Ok",
			Sessions: sessions,
			Total:    len(sessions),
		},
	}, nil
}

func (h *Handler) find(ctx context.Context, input *sessionInput) (*sessionOutput, error) {
	userID, _, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	session, err := h.owned(ctx, userID, input.ID)
	if err != nil {
		return &sessionOutput{
			Body: sessionResponse{Status: "Error"},
		}, mapError(err)
	}

	return &sessionOutput{
		Body: sessionResponse{
			Status:  "Ok",
			Session: session,
		},
	}, nil
}

func (h *Handler) complete(ctx context.Context, input *sessionInput) (*sessionOutput, error) {
	userID, _, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := h.owned(ctx, userID, input.ID); err != nil {
		return &sessionOutput{
			Body: sessionResponse{Status: "Error"},
		}, mapError(err)
	}

	session, err := h.service.Complete(ctx, input.ID)
	if err != nil {
		return &sessionOutput{
			Body: sessionResponse{Status: "Error"},
		}, mapError(err)
	}

	return &sessionOutput{
		Body: sessionResponse{
			Status:  "Ok",
			Session: session,
		},
	}, nil
}

func (h *Handler) fail(ctx context.Context, input *failInput) (*statusOutput, error) {
	userID, _, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := h.owned(ctx, userID, input.ID); err != nil {
		return &statusOutput{
			Body: statusResponse{Status: "Error"},
		}, mapError(err)
	}

	if err := h.service.Fail(ctx, input.ID, input.Body.Message); err != nil {
		return &statusOutput{
			Body: statusResponse{Status: "Error"},
		}, mapError(err)
	}

	return &statusOutput{
		Body: statusResponse{
			Status:  "Ok",
			Message: "session failed",
		},
	}, nil
}

func (h *Handler) cancel(ctx context.Context, input *sessionInput) (*statusOutput, error) {
	userID, _, err := identity(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := h.owned(ctx, userID, input.ID); err != nil {
		return &statusOutput{
			Body: statusResponse{Status: "Error"},
		}, mapError(err)
	}

	if err := h.service.Cancel(ctx, input.ID); err != nil {
		return &statusOutput{
			Body: statusResponse{Status: "Error"},
		}, mapError(err)
	}

	return &statusOutput{
		Body: statusResponse{
			Status:  "Ok",
			Message: "session cancelled",
		},
	}, nil
}

func (h *Handler) startRequest(ctx context.Context, input *startInput) (synclog.StartRequest, error) {
	userID, deviceID, err := identity(ctx)
	if err != nil {
		return synclog.StartRequest{}, err
	}

	return synclog.StartRequest{
		UserID:     userID,
		DeviceID:   deviceID,
		SyncType:   synclog.SyncType(input.Body.SyncType),
		Direction:  synclog.Direction(input.Body.Direction),
		DeviceType: input.Body.DeviceType,
		AppVersion: input.Body.AppVersion,
	}, nil
}

// owned возвращает сессию, если она принадлежит пользователю
func (h *Handler) owned(ctx context.Context, userID int, id string) (*synclog.Log, error) {
	session, err := h.service.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, synclog.ErrNotFound
	}
	return session, nil
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
	case errors.Is(err, synclog.ErrValidation):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, synclog.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, synclog.ErrConcurrentSync), errors.Is(err, synclog.ErrInvalidState):
		return huma.Error409Conflict(err.Error())
	default:
		return err
	}
}
