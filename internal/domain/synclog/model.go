package synclog

import (
	"time"
)

// SyncType — вид сессии синхронизации
type SyncType string

const (
	SyncFull        SyncType = "FULL"
	SyncIncremental SyncType = "INCREMENTAL"
	SyncPush        SyncType = "PUSH"
	SyncPull        SyncType = "PULL"
)

// Valid проверяет, что вид сессии известен
func (t SyncType) Valid() bool {
	switch t {
	case SyncFull, SyncIncremental, SyncPush, SyncPull:
		return true
	}
	return false
}

// Direction — направление синхронизации
type Direction string

const (
	DirectionUpload        Direction = "UPLOAD"
	DirectionDownload      Direction = "DOWNLOAD"
	DirectionBidirectional Direction = "BIDIRECTIONAL"
)

// Valid проверяет, что направление известно
func (d Direction) Valid() bool {
	switch d {
	case DirectionUpload, DirectionDownload, DirectionBidirectional:
		return true
	}
	return false
}

// Status — статус сессии. Терминальные статусы финальны, переходов из них нет.
type Status string

const (
	StatusInitiated  Status = "INITIATED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
	StatusCancelled  Status = "CANCELLED"
)

// Terminal сообщает, финален ли статус
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Counters — агрегаты одной сессии, внутри сессии только растут
type Counters struct {
	RecordsUploaded   int `json:"records_uploaded"`
	RecordsDownloaded int `json:"records_downloaded"`
	ConflictsDetected int `json:"conflicts_detected"`
	ConflictsResolved int `json:"conflicts_resolved"`
}

// Log — результат одной сессии синхронизации устройства.
// До терминального статуса запись только дополняется, после — неизменяема.
type Log struct {
	ID              string     `json:"id"`
	UserID          int        `json:"user_id"`
	DeviceID        string     `json:"device_id"`
	DeviceType      string     `json:"device_type,omitempty"`
	AppVersion      string     `json:"app_version,omitempty"`
	SyncType        SyncType   `json:"sync_type"`
	Direction       Direction  `json:"sync_direction"`
	Status          Status     `json:"sync_status"`
	Counters        Counters   `json:"counters"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	DurationSeconds *int64     `json:"duration_seconds,omitempty"`
}
