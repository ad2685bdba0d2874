package cache

import (
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/cache"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/snapshot"
)

// Request/Response структуры для Get
type getInput struct {
	Key string `path:"key" example:"PRODUCT:41" doc:"Ключ кэша"`
}

type entryOutput struct {
	Body entryResponse
}

type entryResponse struct {
	Status string       `json:"status"`
	Error  string       `json:"error,omitempty"`
	Entry  *cache.Entry `json:"entry,omitempty"`
}

// Request/Response для Put
type putInput struct {
	Key  string `path:"key" example:"PRODUCT:41" doc:"Ключ кэша"`
	Body putRequest
}

type putRequest struct {
	CacheType    string             `json:"cache_type" enum:"CUSTOMER,PRODUCT,PRICELIST,STOCK,ORDER,PAYMENT,OTHER" doc:"Категория данных"`
	DataSnapshot *snapshot.Snapshot `json:"data_snapshot" doc:"Кэшируемые данные"`
	TTLMinutes   int                `json:"ttl_minutes,omitempty" minimum:"0" doc:"Время жизни в минутах; 0 — серверное значение"`
}

// Request/Response для List
type listOutput struct {
	Body listResponse
}

type listResponse struct {
	Status  string         `json:"status"`
	Error   string         `json:"error,omitempty"`
	Entries []*cache.Entry `json:"entries"`
	Total   int            `json:"total"`
}

// Request/Response для Invalidate
type statusOutput struct {
	Body statusResponse
}

type statusResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}
