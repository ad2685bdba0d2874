package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

// TokenValidator проверяет токен устройства и возвращает его владельца
type TokenValidator interface {
	Validate(token string) (userID int, deviceID string, err error)
}

type Auth struct {
	tokens TokenValidator
	log    *slog.Logger
}

func New(tokens TokenValidator, log *slog.Logger) *Auth {
	return &Auth{
		tokens: tokens,
		log:    log.With(slog.String("component", "auth_middleware")),
	}
}

type contextKey string

const UserIDKey contextKey = "userID"
const DeviceIDKey contextKey = "deviceID"

// Middleware возвращает middleware для Huma с сигнатурой func(ctx Context, next func(Context))
func (a *Auth) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		token := ctx.Header("Authorization")

		if len(token) < 7 || token[:7] != "Bearer " {
			a.log.Warn("missing bearer token")
			a.reject(ctx)
			return
		}

		userID, deviceID, err := a.tokens.Validate(token[7:])
		if err != nil {
			a.log.Warn("token rejected", "error", err)
			a.reject(ctx)
			return
		}

		newCtx := context.WithValue(ctx.Context(), UserIDKey, userID)
		newCtx = context.WithValue(newCtx, DeviceIDKey, deviceID)
		newHumaCtx := huma.WithContext(ctx, newCtx)

		next(newHumaCtx)
	}
}

func (a *Auth) reject(ctx huma.Context) {
	ctx.SetStatus(http.StatusUnauthorized)
	ctx.SetHeader("Content-Type", "application/json")

	w := ctx.BodyWriter()
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error": "Unauthorized",
	}); err != nil {
		a.log.Error("failed to write unauthorized response", "error", err)
	}
}

// WithIdentity кладет владельца токена в контекст напрямую, минуя middleware
func WithIdentity(ctx context.Context, userID int, deviceID string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, DeviceIDKey, deviceID)
}

func GetUserID(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(UserIDKey).(int)
	return userID, ok
}

func GetDeviceID(ctx context.Context) (string, bool) {
	deviceID, ok := ctx.Value(DeviceIDKey).(string)
	return deviceID, ok
}
