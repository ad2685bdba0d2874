package queue

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) enqueueOp() huma.Operation {
	return huma.Operation{
		OperationID: "queue-enqueue",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/queue",
		Summary:     "Поставить мутацию в очередь",
		Description: "Ставит отложенное клиентское изменение в очередь устройства. Повторная доставка с тем же source_change_id возвращает уже созданный элемент.",
		Tags:        []string{"queue"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "queue-list",
		Method:      http.MethodGet,
		Path:        "/api/v1/sync/queue",
		Summary:     "Список элементов очереди устройства",
		Tags:        []string{"queue"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) findOp() huma.Operation {
	return huma.Operation{
		OperationID: "queue-find",
		Method:      http.MethodGet,
		Path:        "/api/v1/sync/queue/{id}",
		Summary:     "Получить элемент очереди",
		Tags:        []string{"queue"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) retryOp() huma.Operation {
	return huma.Operation{
		OperationID: "queue-retry",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/queue/{id}/retry",
		Summary:     "Вернуть проваленный элемент в очередь",
		Description: "Переводит FAILED элемент обратно в PENDING. Элемент с исчерпанным лимитом повторов вернуть нельзя.",
		Tags:        []string{"queue"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) deleteOp() huma.Operation {
	return huma.Operation{
		OperationID: "queue-delete",
		Method:      http.MethodDelete,
		Path:        "/api/v1/sync/queue/{id}",
		Summary:     "Удалить элемент очереди",
		Description: "Удаляет элемент в PENDING или FAILED. SYNCED и CONFLICT неизменяемы, IN_PROGRESS занят сервером.",
		Tags:        []string{"queue"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) recoverOp() huma.Operation {
	return huma.Operation{
		OperationID: "queue-recover",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/queue/recover",
		Summary:     "Вернуть зависшие элементы в очередь",
		Description: "Возвращает в PENDING элементы, застрявшие в IN_PROGRESS после падения сессии.",
		Tags:        []string{"queue"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) attentionOp() huma.Operation {
	return huma.Operation{
		OperationID: "queue-attention",
		Method:      http.MethodGet,
		Path:        "/api/v1/sync/queue/attention",
		Summary:     "Элементы, требующие вмешательства",
		Description: "FAILED с исчерпанными повторами и CONFLICT с неразрешенным конфликтом.",
		Tags:        []string{"queue"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}
