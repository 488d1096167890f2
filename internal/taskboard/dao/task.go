// DAO для работы с задачами.
//
// Основные возможности:
//   - Создание задач с назначением порядкового номера внутри пространства.
//   - Поиск задачи по ID или порядковому номеру.
//   - Частичное обновление schemaless-документа задачи.
package dao

import (
	"fmt"
	"strconv"
	"time"

	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/dto"
	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/types"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// Задачи
type Task struct {
	ID uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	WorkspaceId uuid.UUID `json:"workspace_id" gorm:"type:uuid;index;uniqueIndex:tasks_sequence_idx,priority:1"`

	// Порядковый номер задачи внутри пространства
	SequenceId int `json:"sequence_id" gorm:"uniqueIndex:tasks_sequence_idx,priority:2"`

	// Человекочитаемый идентификатор вида "slug-42"
	DisplayId string `json:"display_id"`

	// Счетчик изменений документа
	Version int `json:"version" gorm:"default:0"`

	Data types.TaskData `json:"data" gorm:"type:jsonb"`

	Workspace *Workspace `json:"workspace,omitempty" gorm:"foreignKey:WorkspaceId" extensions:"x-nullable"`
}

func (t *Task) ToDTO() *dto.Task {
	if t == nil {
		return nil
	}
	return &dto.Task{
		ID:          t.ID,
		WorkspaceId: t.WorkspaceId,
		SequenceId:  t.SequenceId,
		DisplayId:   t.DisplayId,
		Version:     t.Version,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		Data:        t.Data,
	}
}

// CreateTask создает задачу, назначая следующий порядковый номер внутри
// пространства. Номер и создание выполняются в одной транзакции.
func CreateTask(db *gorm.DB, workspace *Workspace, task *Task) error {
	if task.ID == uuid.Nil {
		task.ID = GenUUID()
	}
	task.WorkspaceId = workspace.ID
	if task.Data == nil {
		task.Data = types.TaskData{}
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var maxSequence *int
		row := tx.Model(&Task{}).
			Select("max(sequence_id)").
			Unscoped().
			Where("workspace_id = ?", workspace.ID).
			Row()
		if err := row.Scan(&maxSequence); err != nil {
			return err
		}

		if maxSequence != nil {
			task.SequenceId = *maxSequence + 1
		} else {
			task.SequenceId = 1
		}
		task.DisplayId = fmt.Sprintf("%s-%d", workspace.Slug, task.SequenceId)

		return tx.Create(task).Error
	})
}

// GetTaskByIdOrSeq ищет задачу в пространстве по UUID или порядковому номеру.
func GetTaskByIdOrSeq(db *gorm.DB, workspaceID uuid.UUID, idOrSeq string) (Task, error) {
	var task Task
	query := db.Where("workspace_id = ?", workspaceID)

	if seq, err := strconv.Atoi(idOrSeq); err == nil {
		query = query.Where("sequence_id = ?", seq)
	} else {
		taskID, err := uuid.FromString(idOrSeq)
		if err != nil {
			return task, gorm.ErrRecordNotFound
		}
		query = query.Where("id = ?", taskID)
	}

	err := query.First(&task).Error
	return task, err
}

// PatchTaskData вливает частичное изменение в документ задачи и повышает
// версию. Возвращает обновленную задачу.
func PatchTaskData(db *gorm.DB, task *Task, patch types.TaskData) error {
	task.Data = task.Data.Merge(patch)
	task.Version++
	return db.Model(task).
		Select("Data", "Version").
		Updates(task).Error
}
