// DAO (Data Access Object) для работы с данными рабочих пространств.
//
// Основные возможности:
//   - Получение рабочих пространств по ID или slug.
//   - Создание новых рабочих пространств вместе с участником-владельцем.
//   - Управление членством в рабочих пространствах.
package dao

import (
	"time"

	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/dto"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// Роли участников пространства
const (
	RoleGuest  = 5
	RoleMember = 10
	RoleAdmin  = 15
)

// Рабочие пространства
type Workspace struct {
	ID uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Name string `json:"name" validate:"workspaceName"`
	Slug string `json:"slug" gorm:"uniqueIndex:,where:deleted_at is NULL" validate:"slug"`

	CreatedById uuid.UUID `json:"created_by_id" gorm:"type:uuid"`
	OwnerId     uuid.UUID `json:"owner_id" gorm:"type:uuid"`

	Owner *User `json:"owner,omitempty" gorm:"foreignKey:OwnerId" extensions:"x-nullable"`

	CurrentUserMembership *WorkspaceMember `json:"current_user_membership,omitempty" gorm:"-" extensions:"x-nullable"`
}

func (w *Workspace) ToLightDTO() *dto.WorkspaceLight {
	if w == nil {
		return nil
	}
	return &dto.WorkspaceLight{
		ID:      w.ID,
		Name:    w.Name,
		Slug:    w.Slug,
		OwnerId: w.OwnerId,
	}
}

func (w *Workspace) ToDTO() *dto.Workspace {
	if w == nil {
		return nil
	}
	return &dto.Workspace{
		WorkspaceLight: *w.ToLightDTO(),
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
		Owner:          w.Owner.ToLightDTO(),
	}
}

// Участники рабочих пространств
type WorkspaceMember struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// role smallint NOT NULL
	Role int `json:"role"`

	MemberId    uuid.UUID `json:"member_id" gorm:"type:uuid;index;uniqueIndex:workspace_members_idx,priority:2"`
	WorkspaceId uuid.UUID `json:"workspace_id" gorm:"type:uuid;uniqueIndex:workspace_members_idx,priority:1"`

	Workspace *Workspace `json:"workspace" gorm:"foreignKey:WorkspaceId" extensions:"x-nullable"`
	Member    *User      `json:"member" gorm:"foreignKey:MemberId" extensions:"x-nullable"`
}

func (wm *WorkspaceMember) ToDTO() *dto.WorkspaceMember {
	if wm == nil {
		return nil
	}
	return &dto.WorkspaceMember{
		ID:          wm.ID,
		Role:        wm.Role,
		WorkspaceId: wm.WorkspaceId,
		Member:      wm.Member.ToLightDTO(),
	}
}

// GetUserWorkspaces возвращает пространства, в которых состоит пользователь.
func GetUserWorkspaces(db *gorm.DB, userID uuid.UUID) ([]Workspace, error) {
	var workspaces []Workspace
	err := db.
		Joins("Owner").
		Where("workspaces.id in (?)",
			db.Model(&WorkspaceMember{}).Select("workspace_id").Where("member_id = ?", userID),
		).
		Order("workspaces.name").
		Find(&workspaces).Error
	return workspaces, err
}

// GetWorkspaceMember возвращает членство пользователя в пространстве.
func GetWorkspaceMember(db *gorm.DB, workspaceID, userID uuid.UUID) (WorkspaceMember, error) {
	var member WorkspaceMember
	err := db.
		Where("workspace_id = ?", workspaceID).
		Where("member_id = ?", userID).
		First(&member).Error
	return member, err
}
