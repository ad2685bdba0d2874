package health

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/infrastructure/storage"
)

type Handler struct {
	db         storage.HealthChecker
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(db storage.HealthChecker, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		db:         db,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.healthCheckOp(), h.healthCheck)
}

func (h *Handler) healthCheck(ctx context.Context, _ *Input) (*Output, error) {
	h.log.Debug("health check request received")

	dbStatus := "OK"
	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			h.log.Error("database ping failed", "error", err)
			dbStatus = "Unavailable"
		}
	}

	return &Output{
		Body: Response{
			Status:   "OK",
			Database: dbStatus,
		},
	}, nil
}
