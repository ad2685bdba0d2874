package apply

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/snapshot"
)

var (
	ErrUnknownEntityType   = errors.New("no authority registered for entity type")
	ErrDuplicateEntityType = errors.New("authority already registered for entity type")
)

// Operation — тип клиентской мутации
type Operation string

const (
	OpInsert Operation = "INSERT"
	OpUpdate Operation = "UPDATE"
	OpDelete Operation = "DELETE"
)

// Valid проверяет, что операция одна из INSERT/UPDATE/DELETE
func (o Operation) Valid() bool {
	switch o {
	case OpInsert, OpUpdate, OpDelete:
		return true
	}
	return false
}

// EntityState — авторитетное состояние сущности на стороне бизнес-модуля.
// Version — монотонный счетчик версий записи; Deleted — запись удалена,
// но ее последняя версия еще известна модулю.
type EntityState struct {
	EntityType string
	EntityID   string
	Data       *snapshot.Snapshot
	Version    int64
	Deleted    bool
	ModifiedAt time.Time
}

// Mutation — мутация, применяемая к авторитетному состоянию
type Mutation struct {
	EntityType string
	EntityID   string
	Operation  Operation
	Data       *snapshot.Snapshot
}

// Authority — интерфейс бизнес-модуля, владеющего сущностью.
// Движок синхронизации не знает бизнес-семантику payload'ов: валидация
// и применение данных полностью на стороне реализации.
type Authority interface {
	// State возвращает текущее авторитетное состояние.
	// (nil, nil) — сущность никогда не существовала.
	State(ctx context.Context, entityType, entityID string) (*EntityState, error)

	// Apply применяет мутацию и возвращает новое состояние
	Apply(ctx context.Context, m Mutation) (*EntityState, error)
}

// Registry — реестр бизнес-модулей по типу сущности. Заполняется на старте
// и после этого не меняется, поэтому без блокировок.
type Registry struct {
	authorities map[string]Authority
}

// NewRegistry создает пустой реестр
func NewRegistry() *Registry {
	return &Registry{
		authorities: make(map[string]Authority),
	}
}

// Register регистрирует бизнес-модуль для типа сущности
func (r *Registry) Register(entityType string, a Authority) error {
	if entityType == "" {
		return fmt.Errorf("entity type must not be empty")
	}
	if a == nil {
		return fmt.Errorf("authority for %q must not be nil", entityType)
	}
	if _, ok := r.authorities[entityType]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEntityType, entityType)
	}
	r.authorities[entityType] = a
	return nil
}

// Authority возвращает модуль для типа сущности
func (r *Registry) Authority(entityType string) (Authority, error) {
	a, ok := r.authorities[entityType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntityType, entityType)
	}
	return a, nil
}

// EntityTypes возвращает отсортированный список известных типов
func (r *Registry) EntityTypes() []string {
	out := make([]string, 0, len(r.authorities))
	for t := range r.authorities {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
