package queue

import (
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/apply"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/snapshot"
)

// EnqueueRequest — запрос на постановку мутации в очередь
type EnqueueRequest struct {
	UserID         int                `json:"user_id"`
	DeviceID       string             `json:"device_id"`
	EntityType     string             `json:"entity_type"`
	EntityID       string             `json:"entity_id"`
	Operation      apply.Operation    `json:"operation_type"`
	DataSnapshot   *snapshot.Snapshot `json:"data_snapshot,omitempty"`
	BaseVersion    int64              `json:"base_version"`
	Priority       int                `json:"priority,omitempty"`
	MaxRetries     int                `json:"max_retries,omitempty"`
	SourceChangeID string             `json:"source_change_id,omitempty"`
}
