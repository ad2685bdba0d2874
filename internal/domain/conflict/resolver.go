package conflict

import (
	"fmt"
	"sort"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/snapshot"
)

// MergeFunc — бизнес-функция пополевого слияния для конкретного типа
// сущности. Движок синхронизации только вызывает ее по ключу типа и не
// определяет бизнес-правила слияния.
type MergeFunc func(server, client *snapshot.Snapshot) (*snapshot.Snapshot, error)

// MergeRegistry — реестр merge-функций по типу сущности.
// Заполняется на старте и далее только читается.
type MergeRegistry struct {
	funcs map[string]MergeFunc
}

// NewMergeRegistry создает пустой реестр
func NewMergeRegistry() *MergeRegistry {
	return &MergeRegistry{
		funcs: make(map[string]MergeFunc),
	}
}

// Register регистрирует merge-функцию для типа сущности
func (r *MergeRegistry) Register(entityType string, fn MergeFunc) error {
	if entityType == "" {
		return fmt.Errorf("entity type must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("merge function for %q must not be nil", entityType)
	}
	if _, ok := r.funcs[entityType]; ok {
		return fmt.Errorf("merge function already registered for %q", entityType)
	}
	r.funcs[entityType] = fn
	return nil
}

// EntityTypes возвращает отсортированный список типов с merge-функциями
func (r *MergeRegistry) EntityTypes() []string {
	out := make([]string, 0, len(r.funcs))
	for t := range r.funcs {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Resolution — результат работы резолвера
type Resolution struct {
	// Data — разрешенное состояние; nil при NeedsManual
	Data *snapshot.Snapshot

	// NeedsManual — автоматическое разрешение невозможно, данные должен
	// предоставить оператор
	NeedsManual bool
}

// Resolver — чистый компонент принятия решения: по конфликту и стратегии
// выдает разрешенное состояние либо сигнализирует о необходимости ручного
// разрешения. Состояния не хранит и в хранилище не ходит.
type Resolver struct {
	merges *MergeRegistry
}

// NewResolver создает резолвер с реестром merge-функций
func NewResolver(merges *MergeRegistry) *Resolver {
	if merges == nil {
		merges = NewMergeRegistry()
	}
	return &Resolver{merges: merges}
}

// Resolve применяет стратегию к конфликту
func (r *Resolver) Resolve(c *Conflict, strategy Strategy) (*Resolution, error) {
	switch strategy {
	case StrategyServerWins:
		// клиентская мутация отбрасывается
		return &Resolution{Data: c.ServerData.Clone()}, nil

	case StrategyClientWins:
		// перезапись поверх промежуточных серверных изменений
		return &Resolution{Data: c.ClientData.Clone()}, nil

	case StrategyMerge:
		fn, ok := r.merges.funcs[c.EntityType]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedMerge, c.EntityType)
		}
		merged, err := fn(c.ServerData, c.ClientData)
		if err != nil {
			return nil, fmt.Errorf("merge %s/%s: %w", c.EntityType, c.EntityID, err)
		}
		return &Resolution{Data: merged}, nil

	case StrategyManual:
		return &Resolution{NeedsManual: true}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, strategy)
	}
}
