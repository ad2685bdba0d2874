package cache

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "cache-list",
		Method:      http.MethodGet,
		Path:        "/api/v1/mobile/cache",
		Summary:     "Живые записи кэша пользователя",
		Tags:        []string{"cache"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) getOp() huma.Operation {
	return huma.Operation{
		OperationID: "cache-get",
		Method:      http.MethodGet,
		Path:        "/api/v1/mobile/cache/{key}",
		Summary:     "Получить запись кэша",
		Description: "Истекшая запись считается отсутствующей, даже если фоновая очистка еще не прошла.",
		Tags:        []string{"cache"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) putOp() huma.Operation {
	return huma.Operation{
		OperationID: "cache-put",
		Method:      http.MethodPut,
		Path:        "/api/v1/mobile/cache/{key}",
		Summary:     "Обновить запись кэша",
		Description: "Создает или перезаписывает запись со свежим сроком жизни.",
		Tags:        []string{"cache"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) invalidateOp() huma.Operation {
	return huma.Operation{
		OperationID: "cache-invalidate",
		Method:      http.MethodDelete,
		Path:        "/api/v1/mobile/cache/{key}",
		Summary:     "Удалить запись кэша",
		Tags:        []string{"cache"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) invalidateAllOp() huma.Operation {
	return huma.Operation{
		OperationID: "cache-invalidate-all",
		Method:      http.MethodDelete,
		Path:        "/api/v1/mobile/cache",
		Summary:     "Очистить кэш пользователя",
		Tags:        []string{"cache"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}
