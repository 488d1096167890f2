// Окончательное удаление мягко удаленных рабочих пространств
// вместе с их участниками, задачами и настройками полей.
package maintenance

import (
	"fmt"
	"log/slog"

	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/dao"
	"gorm.io/gorm"
)

type WorkspacesCleaner struct {
	db            *gorm.DB
	retentionDays int
}

func NewWorkspacesCleaner(db *gorm.DB, retentionDays int) *WorkspacesCleaner {
	return &WorkspacesCleaner{db: db, retentionDays: retentionDays}
}

func (wc *WorkspacesCleaner) CleanWorkspaces() {
	slog.Info("Start hard delete workspaces")
	var workspaces []dao.Workspace
	err := wc.db.Unscoped().
		Where(fmt.Sprintf("deleted_at < now() - interval '%d days'", wc.retentionDays)).
		Limit(5).
		Find(&workspaces).Error
	if err != nil {
		slog.Error("Get soft deleted workspaces", "err", err)
		return
	}

	for _, workspace := range workspaces {
		err := wc.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Unscoped().Where("workspace_id = ?", workspace.ID).Delete(&dao.Task{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("workspace_id = ?", workspace.ID).Delete(&dao.FieldConfig{}).Error; err != nil {
				return err
			}
			if err := tx.Where("workspace_id = ?", workspace.ID).Delete(&dao.WorkspaceMember{}).Error; err != nil {
				return err
			}
			return tx.Unscoped().Delete(&workspace).Error
		})
		if err != nil {
			slog.Error("Hard delete workspace", "workspaceId", workspace.ID, "err", err)
		}
	}
	slog.Info("Finish hard delete workspaces")
}
