package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Snapshot — непрозрачный слепок полей сущности на момент времени.
// Сохраняет порядок полей, как они пришли с клиента; значения не
// интерпретируются движком синхронизации и хранятся как сырой JSON.
type Snapshot struct {
	keys   []string
	values map[string]json.RawMessage
}

// New создает пустой слепок
func New() *Snapshot {
	return &Snapshot{
		values: make(map[string]json.RawMessage),
	}
}

// FromMap создает слепок из обычной map (порядок ключей не гарантирован,
// используется в тестах и merge-функциях)
func FromMap(m map[string]any) (*Snapshot, error) {
	s := New()
	for k, v := range m {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal field %q: %w", k, err)
		}
		s.Set(k, raw)
	}
	return s, nil
}

// Set добавляет или заменяет поле. Новое поле попадает в конец порядка.
func (s *Snapshot) Set(key string, value json.RawMessage) {
	if s.values == nil {
		s.values = make(map[string]json.RawMessage)
	}
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

// Get возвращает сырое значение поля
func (s *Snapshot) Get(key string) (json.RawMessage, bool) {
	if s == nil || s.values == nil {
		return nil, false
	}
	v, ok := s.values[key]
	return v, ok
}

// Keys возвращает имена полей в исходном порядке
func (s *Snapshot) Keys() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Len возвращает количество полей
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// IsEmpty сообщает, что слепок отсутствует или не содержит полей
func (s *Snapshot) IsEmpty() bool {
	return s.Len() == 0
}

// Clone возвращает независимую копию слепка
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := New()
	for _, k := range s.keys {
		v := make(json.RawMessage, len(s.values[k]))
		copy(v, s.values[k])
		out.Set(k, v)
	}
	return out
}

// Equal сравнивает два слепка по набору полей и нормализованным значениям.
// Порядок полей на равенство не влияет.
func (s *Snapshot) Equal(other *Snapshot) bool {
	if s.Len() != other.Len() {
		return false
	}
	for _, k := range s.keys {
		ov, ok := other.Get(k)
		if !ok {
			return false
		}
		if !jsonEqual(s.values[k], ov) {
			return false
		}
	}
	return true
}

func jsonEqual(a, b json.RawMessage) bool {
	var ca, cb bytes.Buffer
	if err := json.Compact(&ca, a); err != nil {
		return bytes.Equal(a, b)
	}
	if err := json.Compact(&cb, b); err != nil {
		return false
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}

// MarshalJSON сериализует слепок как JSON-объект, поля идут в исходном порядке
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	if s == nil || len(s.keys) == 0 {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(s.values[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON разбирает JSON-объект, сохраняя порядок полей.
// Стандартный map[string]any порядок теряет, поэтому объект читается
// токенами через json.Decoder.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	s.keys = nil
	s.values = make(map[string]json.RawMessage)

	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("snapshot must be a JSON object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("read snapshot key: %w", err)
		}
		key := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("read snapshot value for %q: %w", key, err)
		}
		s.Set(key, raw)
	}

	// закрывающая скобка
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("read snapshot end: %w", err)
	}
	return nil
}
