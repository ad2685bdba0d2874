package queue

import (
	"time"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/apply"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/snapshot"
)

// Status — статус элемента очереди синхронизации
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusSynced     Status = "SYNCED"
	StatusFailed     Status = "FAILED"
	StatusConflict   Status = "CONFLICT"
)

const (
	// PriorityHighest..PriorityLowest — допустимый диапазон приоритетов,
	// 1 обрабатывается первым
	PriorityHighest = 1
	PriorityLowest  = 10

	DefaultPriority   = 5
	DefaultMaxRetries = 3
	MaxRetriesLimit   = 10
)

// Item — одна отложенная клиентская мутация.
// Владелец — пара (user_id, device_id); статус и служебные поля меняет
// только сервер.
type Item struct {
	ID             int64              `json:"id"`
	UserID         int                `json:"user_id"`
	DeviceID       string             `json:"device_id"`
	EntityType     string             `json:"entity_type"`
	EntityID       string             `json:"entity_id"`
	Operation      apply.Operation    `json:"operation_type"`
	DataSnapshot   *snapshot.Snapshot `json:"data_snapshot,omitempty"`
	BaseVersion    int64              `json:"base_version"`
	SourceChangeID string             `json:"source_change_id,omitempty"`
	Status         Status             `json:"status"`
	Priority       int                `json:"priority"`
	RetryCount     int                `json:"retry_count"`
	MaxRetries     int                `json:"max_retries"`
	ErrorMessage   string             `json:"error_message,omitempty"`
	ConflictID     *int64             `json:"conflict_id,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	SyncedAt       *time.Time         `json:"synced_at,omitempty"`
}

// RetryExhausted сообщает, что лимит повторов исчерпан
func (i *Item) RetryExhausted() bool {
	return i.RetryCount >= i.MaxRetries
}

// ClientMutable сообщает, может ли клиент изменять или удалять элемент.
// SYNCED и CONFLICT неизменяемы, IN_PROGRESS занят сервером.
func (i *Item) ClientMutable() bool {
	return i.Status == StatusPending || i.Status == StatusFailed
}
