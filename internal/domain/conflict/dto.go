package conflict

import (
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/snapshot"
)

// CreateRequest — фиксация обнаруженного конфликта
type CreateRequest struct {
	QueueItemID   int64              `json:"queue_item_id"`
	UserID        int                `json:"user_id"`
	DeviceID      string             `json:"device_id"`
	EntityType    string             `json:"entity_type"`
	EntityID      string             `json:"entity_id"`
	ServerData    *snapshot.Snapshot `json:"server_data,omitempty"`
	ClientData    *snapshot.Snapshot `json:"client_data,omitempty"`
	ServerVersion int64              `json:"server_version"`
	BaseVersion   int64              `json:"base_version"`
	Type          Type               `json:"conflict_type"`
}

// ResolveRequest — запрос на разрешение конфликта
type ResolveRequest struct {
	Strategy     Strategy           `json:"resolution_strategy"`
	ResolvedData *snapshot.Snapshot `json:"resolved_data,omitempty"`
	ResolvedBy   string             `json:"resolved_by,omitempty"`
}
