package synclog

import (
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/queue"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/synclog"
)

// Request/Response структуры для Process и Start
type startInput struct {
	Body startRequest
}

type startRequest struct {
	SyncType   string `json:"sync_type,omitempty" enum:",FULL,INCREMENTAL,PUSH,PULL" doc:"Вид сессии; по умолчанию INCREMENTAL"`
	Direction  string `json:"sync_direction,omitempty" enum:",UPLOAD,DOWNLOAD,BIDIRECTIONAL" doc:"Направление; по умолчанию BIDIRECTIONAL"`
	DeviceType string `json:"device_type,omitempty" doc:"Тип устройства"`
	AppVersion string `json:"app_version,omitempty" doc:"Версия мобильного приложения"`
}

type processOutput struct {
	Body processResponse
}

type processResponse struct {
	Status         string        `json:"status"`
	Error          string        `json:"error,omitempty"`
	Session        *synclog.Log  `json:"session,omitempty"`
	NeedsAttention []*queue.Item `json:"needs_attention,omitempty"`
}

type sessionOutput struct {
	Body sessionResponse
}

type sessionResponse struct {
	Status  string       `json:"status"`
	Error   string       `json:"error,omitempty"`
	Session *synclog.Log `json:"session,omitempty"`
}

// Request/Response для List
type listInput struct {
	Status string `query:"status" enum:",INITIATED,IN_PROGRESS,COMPLETED,FAILED,CANCELLED" doc:"Фильтр по статусу"`
	Limit  int    `query:"limit" minimum:"0" maximum:"500" doc:"Размер страницы"`
	Offset int    `query:"offset" minimum:"0" doc:"Смещение"`
}

type listOutput struct {
	Body listResponse
}

type listResponse struct {
	Status   string         `json:"status"`
	Error    string         `json:"error,omitempty"`
	Sessions []*synclog.Log `json:"sessions"`
	Total    int            `json:"total"`
}

// Request/Response для Find/Cancel/Complete/Fail
type sessionInput struct {
	ID string `path:"id" format:"uuid" doc:"ID сессии"`
}

type failInput struct {
	ID   string `path:"id" format:"uuid" doc:"ID сессии"`
	Body failRequest
}

type failRequest struct {
	Message string `json:"error_message,omitempty" doc:"Причина провала"`
}

type statusOutput struct {
	Body statusResponse
}

type statusResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}
