package synclog

import (
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/queue"
)

// StartRequest — запрос на открытие сессии синхронизации
type StartRequest struct {
	UserID     int       `json:"user_id"`
	DeviceID   string    `json:"device_id"`
	DeviceType string    `json:"device_type,omitempty"`
	AppVersion string    `json:"app_version,omitempty"`
	SyncType   SyncType  `json:"sync_type"`
	Direction  Direction `json:"sync_direction"`
}

// ProcessResult — итог серверного прогона сессии: сама сессия и элементы,
// требующие внимания устройства. Сырые серверные ошибки клиенту не отдаются.
type ProcessResult struct {
	Session        *Log          `json:"session"`
	NeedsAttention []*queue.Item `json:"needs_attention,omitempty"`
}
