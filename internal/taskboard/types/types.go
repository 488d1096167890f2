// Общие типы данных для работы с задачами и их schemaless-документами.
// Документ задачи хранится в колонке jsonb и содержит все бизнес-поля
// (статус, приоритет, владелец, инструменты, часы и т.д.).
//
// Основные возможности:
//   - Тип TaskData с поддержкой сериализации в jsonb (Scan/Value).
//   - Типизированные аксессоры для известных полей документа.
//   - Слияние частичных изменений по семантике JSON merge patch.
package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	TokenExpiresPeriod        = time.Hour * 24
	RefreshTokenExpiresPeriod = time.Hour * 24 * 30
)

// Статусы задач. Терминальные статусы — StatusCompleted и StatusDone,
// только у них заполняется поле completionDate.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in-progress"
	StatusTesting    = "testing"
	StatusDone       = "done"
	StatusCompleted  = "completed"
	StatusBlocked    = "blocked"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Значения по умолчанию для отсутствующих полей документа.
// Должны применяться одинаково во всех агрегатах, иначе итоговые
// суммы разных графиков разойдутся.
const (
	DefaultStatus   = StatusTodo
	DefaultPriority = PriorityMedium
)

// DefaultOwnerKey ключ документа, хранящий владельца задачи,
// если пространство не переопределило его через ownerCellKey.
const DefaultOwnerKey = "owner"

// TaskData schemaless-документ задачи
type TaskData map[string]interface{}

func (d TaskData) Value() (driver.Value, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (d *TaskData) Scan(value interface{}) error {
	if value == nil {
		*d = TaskData{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal JSONB value:", value))
	}

	return json.Unmarshal(bytes, d)
}

// Merge вливает частичное изменение в документ по семантике shallow
// merge patch: новые значения перекрывают старые, явный null удаляет ключ.
// Исходный документ не меняется.
func (d TaskData) Merge(patch TaskData) TaskData {
	res := make(TaskData, len(d)+len(patch))
	for k, v := range d {
		res[k] = v
	}
	for k, v := range patch {
		if v == nil {
			delete(res, k)
			continue
		}
		res[k] = v
	}
	return res
}

// String возвращает строковое поле документа или def, если поле
// отсутствует, пустое или имеет другой тип.
func (d TaskData) String(key, def string) string {
	v, ok := d[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return def
	}
	return s
}

// Float возвращает числовое поле документа, 0 при отсутствии.
// json.Unmarshal раскладывает числа в float64, но документы из внешних
// источников могут нести числа строками.
func (d TaskData) Float(key string) float64 {
	switch v := d[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	}
	return 0
}

// Strings возвращает массив строк из поля документа ([]интерфейсов
// после json.Unmarshal). Нестроковые элементы пропускаются.
func (d TaskData) Strings(key string) []string {
	raw, ok := d[key].([]interface{})
	if !ok {
		return nil
	}
	res := make([]string, 0, len(raw))
	for _, e := range raw {
		if s, ok := e.(string); ok {
			res = append(res, s)
		}
	}
	return res
}

// Time разбирает временное поле документа (RFC3339 или дата без времени).
func (d TaskData) Time(key string) *time.Time {
	s, ok := d[key].(string)
	if !ok || s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// IsTerminalStatus true для статусов, закрывающих задачу.
func IsTerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusDone
}
