// DAO для работы с настраиваемыми полями рабочих пространств.
// Список полей пространства определяет, какие ключи документа задачи
// известны интерфейсу и какие из них могут выступать полем владельца
// в аналитике.
package dao

import (
	"time"

	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/dto"
	"github.com/gofrs/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Настраиваемые поля пространства
type FieldConfig struct {
	ID uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	WorkspaceId uuid.UUID `json:"workspace_id" gorm:"type:uuid;index;uniqueIndex:field_configs_key_idx,priority:1"`

	// Ключ поля в документе задачи
	Key string `json:"key" gorm:"uniqueIndex:field_configs_key_idx,priority:2" validate:"fieldKey"`

	// Отображаемое название поля
	Label string `json:"label"`

	// Тип поля (text, number, date, select, multiselect)
	Kind string `json:"kind"`

	// Допустимые значения для select-полей
	Options pq.StringArray `json:"options" gorm:"type:text[]"`

	// Порядок отображения
	Position int `json:"position"`

	Workspace *Workspace `json:"-" gorm:"foreignKey:WorkspaceId" extensions:"x-nullable"`
}

func (fc *FieldConfig) ToDTO() *dto.FieldConfig {
	if fc == nil {
		return nil
	}
	return &dto.FieldConfig{
		ID:       fc.ID,
		Key:      fc.Key,
		Label:    fc.Label,
		Kind:     fc.Kind,
		Options:  fc.Options,
		Position: fc.Position,
	}
}

// GetWorkspaceFieldConfigs возвращает поля пространства в порядке отображения.
func GetWorkspaceFieldConfigs(db *gorm.DB, workspaceID uuid.UUID) ([]FieldConfig, error) {
	var fields []FieldConfig
	err := db.
		Where("workspace_id = ?", workspaceID).
		Order("position, key").
		Find(&fields).Error
	return fields, err
}

// GetWorkspaceFieldKeys возвращает ключи полей пространства.
func GetWorkspaceFieldKeys(db *gorm.DB, workspaceID uuid.UUID) ([]string, error) {
	var keys []string
	err := db.Model(&FieldConfig{}).
		Where("workspace_id = ?", workspaceID).
		Pluck("key", &keys).Error
	return keys, err
}

// ReplaceWorkspaceFieldConfigs заменяет весь список полей пространства.
func ReplaceWorkspaceFieldConfigs(db *gorm.DB, workspaceID uuid.UUID, fields []FieldConfig) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workspace_id = ?", workspaceID).Delete(&FieldConfig{}).Error; err != nil {
			return err
		}
		for i := range fields {
			if fields[i].ID == uuid.Nil {
				fields[i].ID = GenUUID()
			}
			fields[i].WorkspaceId = workspaceID
		}
		if len(fields) == 0 {
			return nil
		}
		return tx.Create(&fields).Error
	})
}
