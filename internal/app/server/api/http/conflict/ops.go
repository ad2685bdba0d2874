package conflict

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "conflicts-list",
		Method:      http.MethodGet,
		Path:        "/api/v1/sync/conflicts",
		Summary:     "Список конфликтов пользователя",
		Tags:        []string{"conflicts"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) findOp() huma.Operation {
	return huma.Operation{
		OperationID: "conflicts-find",
		Method:      http.MethodGet,
		Path:        "/api/v1/sync/conflicts/{id}",
		Summary:     "Получить конфликт",
		Description: "Возвращает конфликт с серверным и клиентским слепками данных для разбора оператором.",
		Tags:        []string{"conflicts"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) resolveOp() huma.Operation {
	return huma.Operation{
		OperationID: "conflicts-resolve",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/conflicts/{id}/resolve",
		Summary:     "Разрешить конфликт",
		Description: "Применяет стратегию разрешения и возвращает элемент очереди в обработку. Повторное разрешение невозможно.",
		Tags:        []string{"conflicts"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) ignoreOp() huma.Operation {
	return huma.Operation{
		OperationID: "conflicts-ignore",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/conflicts/{id}/ignore",
		Summary:     "Игнорировать конфликт",
		Description: "Закрывает конфликт без применения данных; элемент очереди остается в CONFLICT.",
		Tags:        []string{"conflicts"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}
