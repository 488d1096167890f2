// Содержит облегченные структуры данных (DTO) для отдачи сущностей наружу.
package dto

import (
	"time"

	"github.com/gofrs/uuid"
)

// UserLight краткое представление пользователя.
type UserLight struct {
	ID uuid.UUID `json:"id"`

	// Email адрес пользователя
	Email string `json:"email"`

	// Username имя пользователя
	Username *string `json:"username" extensions:"x-nullable"`

	// IsSuperuser признак администратора системы
	IsSuperuser bool `json:"is_superuser"`
}

// WorkspaceLight краткое представление рабочего пространства.
type WorkspaceLight struct {
	ID uuid.UUID `json:"id"`

	// Name название пространства
	Name string `json:"name"`

	// Slug строковый идентификатор пространства
	Slug string `json:"slug"`

	// OwnerId идентификатор владельца
	OwnerId uuid.UUID `json:"owner_id"`
}

// Workspace полное представление рабочего пространства.
type Workspace struct {
	WorkspaceLight

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Owner владелец пространства
	Owner *UserLight `json:"owner,omitempty" extensions:"x-nullable"`
}

// WorkspaceMember участник рабочего пространства.
type WorkspaceMember struct {
	ID string `json:"id"`

	// Role числовая роль участника (15 - администратор)
	Role int `json:"role"`

	WorkspaceId uuid.UUID `json:"workspace_id"`

	// Member пользователь
	Member *UserLight `json:"member,omitempty" extensions:"x-nullable"`
}

// Task представление задачи с документом бизнес-полей.
type Task struct {
	ID uuid.UUID `json:"id"`

	WorkspaceId uuid.UUID `json:"workspace_id"`

	// SequenceId порядковый номер задачи внутри пространства
	SequenceId int `json:"sequence_id"`

	// DisplayId человекочитаемый идентификатор вида "slug-42"
	DisplayId string `json:"display_id"`

	// Version счетчик изменений документа
	Version int `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Data schemaless-документ задачи
	Data map[string]interface{} `json:"data"`
}

// FieldConfig описание настраиваемого поля пространства.
type FieldConfig struct {
	ID uuid.UUID `json:"id"`

	// Key ключ поля в документе задачи
	Key string `json:"key"`

	// Label отображаемое название поля
	Label string `json:"label"`

	// Kind тип поля (text, number, date, select, multiselect)
	Kind string `json:"kind"`

	// Options допустимые значения для select-полей
	Options []string `json:"options"`

	// Position порядок отображения
	Position int `json:"position"`
}
