package conflict

import (
	"time"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/snapshot"
)

// Type — классификация расхождения между серверным и клиентским состоянием
type Type string

const (
	TypeUpdateUpdate    Type = "UPDATE_UPDATE"
	TypeUpdateDelete    Type = "UPDATE_DELETE"
	TypeVersionMismatch Type = "VERSION_MISMATCH"
)

// Strategy — политика разрешения конфликта
type Strategy string

const (
	StrategyServerWins Strategy = "SERVER_WINS"
	StrategyClientWins Strategy = "CLIENT_WINS"
	StrategyManual     Strategy = "MANUAL"
	StrategyMerge      Strategy = "MERGE"
)

// Valid проверяет, что стратегия известна
func (s Strategy) Valid() bool {
	switch s {
	case StrategyServerWins, StrategyClientWins, StrategyManual, StrategyMerge:
		return true
	}
	return false
}

// Status — статус конфликта
type Status string

const (
	StatusDetected Status = "DETECTED"
	StatusResolved Status = "RESOLVED"
	StatusIgnored  Status = "IGNORED"
)

// SystemResolver — идентичность для автоматических стратегий
const SystemResolver = "system"

// Conflict — одно зафиксированное расхождение между авторитетным состоянием
// и клиентской мутацией. ServerData и ClientData — слепки на момент
// обнаружения; ResolvedData заполняется тогда и только тогда, когда
// status = RESOLVED.
type Conflict struct {
	ID                 int64              `json:"id"`
	QueueItemID        int64              `json:"queue_item_id"`
	UserID             int                `json:"user_id"`
	DeviceID           string             `json:"device_id"`
	EntityType         string             `json:"entity_type"`
	EntityID           string             `json:"entity_id"`
	ServerData         *snapshot.Snapshot `json:"server_data,omitempty"`
	ClientData         *snapshot.Snapshot `json:"client_data,omitempty"`
	ServerVersion      int64              `json:"server_version"`
	BaseVersion        int64              `json:"base_version"`
	Type               Type               `json:"conflict_type"`
	ResolutionStrategy *Strategy          `json:"resolution_strategy,omitempty"`
	Status             Status             `json:"status"`
	ResolvedData       *snapshot.Snapshot `json:"resolved_data,omitempty"`
	ResolvedBy         string             `json:"resolved_by,omitempty"`
	ResolvedAt         *time.Time         `json:"resolved_at,omitempty"`
	DetectedAt         time.Time          `json:"detected_at"`
}
