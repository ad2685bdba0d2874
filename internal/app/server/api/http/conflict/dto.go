package conflict

import (
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/conflict"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/snapshot"
)

// Request/Response структуры для List
type listInput struct {
	Status     string `query:"status" enum:",DETECTED,RESOLVED,IGNORED" doc:"Фильтр по статусу"`
	EntityType string `query:"entity_type" doc:"Фильтр по типу сущности"`
	Limit      int    `query:"limit" minimum:"0" maximum:"500" doc:"Размер страницы"`
	Offset     int    `query:"offset" minimum:"0" doc:"Смещение"`
}

type listOutput struct {
	Body listResponse
}

type listResponse struct {
	Status    string               `json:"status"`
	Error     string               `json:"error,omitempty"`
	Conflicts []*conflict.Conflict `json:"conflicts"`
	Total     int                  `json:"total"`
}

// Request/Response для Find
type findInput struct {
	ID int64 `path:"id" example:"1" doc:"ID конфликта"`
}

type findOutput struct {
	Body conflictResponse
}

type conflictResponse struct {
	Status   string             `json:"status"`
	Error    string             `json:"error,omitempty"`
	Conflict *conflict.Conflict `json:"conflict,omitempty"`
}

// Request/Response для Resolve
type resolveInput struct {
	ID   int64 `path:"id" example:"1" doc:"ID конфликта"`
	Body resolveRequest
}

type resolveRequest struct {
	Strategy     string             `json:"resolution_strategy" enum:"SERVER_WINS,CLIENT_WINS,MANUAL,MERGE" doc:"Стратегия разрешения"`
	ResolvedData *snapshot.Snapshot `json:"resolved_data,omitempty" doc:"Итоговые данные; обязательны для MANUAL"`
	ResolvedBy   string             `json:"resolved_by,omitempty" doc:"Кто разрешил; обязателен для MANUAL"`
}

// Request/Response для Ignore
type ignoreInput struct {
	ID   int64 `path:"id" example:"1" doc:"ID конфликта"`
	Body ignoreRequest
}

type ignoreRequest struct {
	IgnoredBy string `json:"ignored_by,omitempty" doc:"Кто проигнорировал"`
}

type statusOutput struct {
	Body statusResponse
}

type statusResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}
