// Окончательное удаление мягко удаленных задач по истечении срока хранения.
package maintenance

import (
	"fmt"
	"log/slog"

	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/dao"
	"gorm.io/gorm"
)

type TasksCleaner struct {
	db            *gorm.DB
	retentionDays int
}

func NewTasksCleaner(db *gorm.DB, retentionDays int) *TasksCleaner {
	return &TasksCleaner{db: db, retentionDays: retentionDays}
}

func (tc *TasksCleaner) CleanTasks() {
	slog.Info("Start hard delete tasks")
	result := tc.db.Unscoped().
		Where(fmt.Sprintf("deleted_at < now() - interval '%d days'", tc.retentionDays)).
		Delete(&dao.Task{})
	if result.Error != nil {
		slog.Error("Hard delete tasks", "err", result.Error)
		return
	}
	slog.Info("Finish hard delete tasks", "deleted", result.RowsAffected)
}
