package queue

import (
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/queue"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/snapshot"
)

// Request/Response структуры для Enqueue
type enqueueInput struct {
	Body enqueueRequest
}

type enqueueRequest struct {
	EntityType     string             `json:"entity_type" doc:"Тип сущности ERP" minLength:"1"`
	EntityID       string             `json:"entity_id" doc:"ID сущности" minLength:"1"`
	Operation      string             `json:"operation_type" enum:"INSERT,UPDATE,DELETE" doc:"Тип операции"`
	DataSnapshot   *snapshot.Snapshot `json:"data_snapshot,omitempty" doc:"Слепок данных на момент изменения"`
	BaseVersion    int64              `json:"base_version,omitempty" doc:"Версия записи, которую видел клиент"`
	Priority       int                `json:"priority,omitempty" minimum:"0" maximum:"10" doc:"Приоритет, 1 обрабатывается первым"`
	MaxRetries     int                `json:"max_retries,omitempty" minimum:"0" maximum:"10" doc:"Лимит повторов"`
	SourceChangeID string             `json:"source_change_id,omitempty" doc:"Клиентский ID изменения для идемпотентности"`
}

type enqueueOutput struct {
	Body itemResponse
}

type itemResponse struct {
	Status string      `json:"status"`
	Error  string      `json:"error,omitempty"`
	Item   *queue.Item `json:"item,omitempty"`
}

// Request/Response для List
type listInput struct {
	Status     string `query:"status" enum:",PENDING,IN_PROGRESS,SYNCED,FAILED,CONFLICT" doc:"Фильтр по статусу"`
	EntityType string `query:"entity_type" doc:"Фильтр по типу сущности"`
	Limit      int    `query:"limit" minimum:"0" maximum:"500" doc:"Размер страницы"`
	Offset     int    `query:"offset" minimum:"0" doc:"Смещение"`
}

type listOutput struct {
	Body listResponse
}

type listResponse struct {
	Status string        `json:"status"`
	Error  string        `json:"error,omitempty"`
	Items  []*queue.Item `json:"items"`
	Total  int           `json:"total"`
}

// Request/Response для Find/Retry/Delete
type itemInput struct {
	ID int64 `path:"id" example:"1" doc:"ID элемента очереди"`
}

type statusOutput struct {
	Body statusResponse
}

type statusResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Request/Response для Recover
type recoverInput struct {
	Body recoverRequest
}

type recoverRequest struct {
	StaleAfterMinutes int `json:"stale_after_minutes,omitempty" minimum:"0" doc:"Порог зависания в минутах; значения ниже серверного порога повышаются до него, 0 — серверное значение"`
}

type recoverOutput struct {
	Body recoverResponse
}

type recoverResponse struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	Recovered int64  `json:"recovered"`
}

// Request/Response для Attention
type attentionOutput struct {
	Body listResponse
}
