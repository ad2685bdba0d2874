package synclog

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) processOp() huma.Operation {
	return huma.Operation{
		OperationID: "sessions-process",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/sessions",
		Summary:     "Выполнить сессию синхронизации",
		Description: "Открывает сессию и прогоняет очередь устройства до конца: применение мутаций, фиксация конфликтов, счетчики. На устройство допускается одна активная сессия.",
		Tags:        []string{"sessions"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) startOp() huma.Operation {
	return huma.Operation{
		OperationID: "sessions-start",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/sessions/start",
		Summary:     "Открыть сессию без обработки",
		Description: "Для многошаговой синхронизации: клиент открывает сессию, выполняет свои roundtrip'ы и закрывает ее через complete.",
		Tags:        []string{"sessions"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "sessions-list",
		Method:      http.MethodGet,
		Path:        "/api/v1/sync/logs",
		Summary:     "История сессий устройства",
		Description: "Недавние сессии, новые первыми.",
		Tags:        []string{"sessions"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) findOp() huma.Operation {
	return huma.Operation{
		OperationID: "sessions-find",
		Method:      http.MethodGet,
		Path:        "/api/v1/sync/logs/{id}",
		Summary:     "Получить сессию",
		Tags:        []string{"sessions"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) completeOp() huma.Operation {
	return huma.Operation{
		OperationID: "sessions-complete",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/logs/{id}/complete",
		Summary:     "Завершить сессию",
		Description: "Частичный успех — это COMPLETED: пообъектные сбои остаются в очереди, сессию не валят.",
		Tags:        []string{"sessions"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) failOp() huma.Operation {
	return huma.Operation{
		OperationID: "sessions-fail",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/logs/{id}/fail",
		Summary:     "Провалить сессию",
		Description: "Только для инфраструктурных сбоев на стороне клиента.",
		Tags:        []string{"sessions"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) cancelOp() huma.Operation {
	return huma.Operation{
		OperationID: "sessions-cancel",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/logs/{id}/cancel",
		Summary:     "Отменить сессию",
		Description: "Останавливает дальнейшую обработку; уже примененные элементы не откатываются.",
		Tags:        []string{"sessions"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}
