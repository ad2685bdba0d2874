package cache

import (
	"time"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/snapshot"
)

// Type — категория кэшируемых данных
type Type string

const (
	TypeCustomer  Type = "CUSTOMER"
	TypeProduct   Type = "PRODUCT"
	TypePricelist Type = "PRICELIST"
	TypeStock     Type = "STOCK"
	TypeOrder     Type = "ORDER"
	TypePayment   Type = "PAYMENT"
	TypeOther     Type = "OTHER"
)

// Valid проверяет, что категория известна
func (t Type) Valid() bool {
	switch t {
	case TypeCustomer, TypeProduct, TypePricelist, TypeStock, TypeOrder, TypePayment, TypeOther:
		return true
	}
	return false
}

// Entry — серверный кэш чтения для мобильного клиента.
// (user_id, cache_key) уникальны. Запись с истекшим expires_at логически
// отсутствует: чтения обязаны считать ее промахом до фоновой очистки.
type Entry struct {
	ID           int64              `json:"id"`
	UserID       int                `json:"user_id"`
	CacheKey     string             `json:"cache_key"`
	CacheType    Type               `json:"cache_type"`
	DataSnapshot *snapshot.Snapshot `json:"data_snapshot,omitempty"`
	LastSyncedAt time.Time          `json:"last_synced_at"`
	ExpiresAt    time.Time          `json:"expires_at"`
}

// Expired сообщает, истекла ли запись на момент now
func (e *Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}

// EntityKey — соглашение о ключах: запись сущности кэшируется под
// "<entityType>:<entityId>", коллекция типа — под "<entityType>"
func EntityKey(entityType, entityID string) string {
	return entityType + ":" + entityID
}
