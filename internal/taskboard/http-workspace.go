// Управление рабочими пространствами: создание, редактирование,
// участники и права доступа.
package taskboard

import (
	"net/http"
	"strings"

	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/apierrors"
	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/dao"
	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/dto"
	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type WorkspaceContext struct {
	AuthContext
	Workspace       dao.Workspace
	WorkspaceMember dao.WorkspaceMember
}

func (s *Services) WorkspaceMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := c.(AuthContext).User
		slugOrId := c.Param("workspaceSlug")

		query := s.db.Joins("Owner")
		if workspaceId, err := uuid.FromString(slugOrId); err == nil {
			query = query.Where("workspaces.id = ?", workspaceId)
		} else {
			query = query.Where("slug = ?", slugOrId)
		}

		var workspace dao.Workspace
		if err := query.First(&workspace).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return EErrorDefined(c, apierrors.ErrWorkspaceNotFound)
			}
			return EError(c, err)
		}

		workspaceMember, err := dao.GetWorkspaceMember(s.db, workspace.ID, user.ID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				// непричастным пространство не раскрывается
				return EErrorDefined(c, apierrors.ErrWorkspaceNotFound)
			}
			return EError(c, err)
		}
		workspace.CurrentUserMembership = &workspaceMember
		workspaceMember.Workspace = &workspace

		return next(WorkspaceContext{c.(AuthContext), workspace, workspaceMember})
	}
}

// Запрет изменений для гостей пространства
func (s *Services) WorkspaceWriteMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Method == http.MethodGet {
			return next(c)
		}
		ctx := c.(WorkspaceContext)
		if ctx.WorkspaceMember.Role < dao.RoleMember && !ctx.User.IsSuperuser {
			return EErrorDefined(c, apierrors.ErrNotEnoughRights)
		}
		return next(c)
	}
}

// AddWorkspaceServices - добавление сервисов рабочих пространств
func (s *Services) AddWorkspaceServices(g *echo.Group) {
	workspaceGroup := g.Group("workspaces/:workspaceSlug", s.WorkspaceMiddleware)

	g.GET("users/me/workspaces/", s.getUserWorkspaceList)
	g.POST("workspaces/", s.createWorkspace)

	workspaceGroup.GET("/", s.getWorkspace)
	workspaceGroup.PATCH("/", s.updateWorkspace)
	workspaceGroup.DELETE("/", s.deleteWorkspace)

	workspaceGroup.GET("/members/", s.getWorkspaceMemberList)
	workspaceGroup.POST("/members/", s.addWorkspaceMember)
	workspaceGroup.PATCH("/members/:memberId/", s.updateWorkspaceMember)
	workspaceGroup.DELETE("/members/:memberId/", s.deleteWorkspaceMember)

	workspaceGroup.GET("/workspace-members/me/", s.getWorkspaceMemberMe)
}

// getUserWorkspaceList возвращает пространства текущего пользователя.
func (s *Services) getUserWorkspaceList(c echo.Context) error {
	user := c.(AuthContext).User

	workspaces, err := dao.GetUserWorkspaces(s.db, user.ID)
	if err != nil {
		return EError(c, err)
	}

	resp := make([]dto.Workspace, len(workspaces))
	for i, workspace := range workspaces {
		resp[i] = *workspace.ToDTO()
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Services) createWorkspace(c echo.Context) error {
	user := *c.(AuthContext).User

	var req CreateWorkspaceRequest
	if err := c.Bind(&req); err != nil {
		return EError(c, err)
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return EErrorDefined(c, apierrors.ErrWorkspaceNameRequired)
	}
	if !CheckWorkspaceSlug(req.Slug) {
		return EErrorDefined(c, apierrors.ErrForbiddenSlug)
	}

	if err := c.Validate(req); err != nil {
		return EError(c, err)
	}

	var workspace dao.Workspace
	req.Bind(&workspace)
	workspace.ID = dao.GenUUID()
	workspace.OwnerId = user.ID
	workspace.CreatedById = user.ID

	if err := s.db.Create(&workspace).Error; err != nil {
		if err == gorm.ErrDuplicatedKey {
			return EErrorDefined(c, apierrors.ErrWorkspaceSlugConflict)
		}
		return EError(c, err)
	}

	workspaceMember := dao.WorkspaceMember{
		ID:          dao.GenID(),
		WorkspaceId: workspace.ID,
		MemberId:    user.ID,
		Role:        dao.RoleAdmin,
	}
	if err := s.db.Create(&workspaceMember).Error; err != nil {
		return EError(c, err)
	}

	workspace.Owner = &user
	return c.JSON(http.StatusCreated, workspace.ToDTO())
}

// getWorkspace возвращает информацию о рабочем пространстве.
func (s *Services) getWorkspace(c echo.Context) error {
	workspace := c.(WorkspaceContext).Workspace
	return c.JSON(http.StatusOK, workspace.ToDTO())
}

// updateWorkspace обновляет название и владельца пространства.
func (s *Services) updateWorkspace(c echo.Context) error {
	user := c.(WorkspaceContext).User
	workspace := c.(WorkspaceContext).Workspace
	member := c.(WorkspaceContext).WorkspaceMember

	if member.Role != dao.RoleAdmin && !user.IsSuperuser {
		return EErrorDefined(c, apierrors.ErrWorkspaceAdminRequired)
	}

	oldOwnerId := workspace.OwnerId
	id := workspace.ID
	slug := workspace.Slug
	if err := c.Bind(&workspace); err != nil {
		return EError(c, err)
	}
	workspace.ID = id
	workspace.Slug = slug
	workspace.Name = strings.TrimSpace(workspace.Name)

	if err := c.Validate(workspace); err != nil {
		return EError(c, err)
	}

	// Check new owner id exists and admin
	if oldOwnerId != workspace.OwnerId {
		newOwner, err := dao.GetWorkspaceMember(s.db, workspace.ID, workspace.OwnerId)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return EErrorDefined(c, apierrors.ErrWorkspaceMemberNotFound)
			}
			return EError(c, err)
		}
		if newOwner.Role != dao.RoleAdmin {
			return EErrorDefined(c, apierrors.ErrWorkspaceAdminRequired)
		}
	}

	if err := s.db.Select([]string{"name", "owner_id"}).Updates(&workspace).Error; err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, workspace.ToDTO())
}

// deleteWorkspace мягко удаляет пространство. Окончательное удаление
// выполняет фоновый чистильщик по истечении срока хранения.
func (s *Services) deleteWorkspace(c echo.Context) error {
	user := c.(WorkspaceContext).User
	workspace := c.(WorkspaceContext).Workspace

	if workspace.OwnerId != user.ID && !user.IsSuperuser {
		return EErrorDefined(c, apierrors.ErrNotEnoughRights)
	}

	if err := s.db.Delete(&workspace).Error; err != nil {
		return EError(c, err)
	}

	s.taskEvents.CloseWorkspaceSessions(workspace.ID.String())

	return c.NoContent(http.StatusOK)
}

// getWorkspaceMemberList возвращает участников пространства.
func (s *Services) getWorkspaceMemberList(c echo.Context) error {
	workspace := c.(WorkspaceContext).Workspace

	var members []dao.WorkspaceMember
	if err := s.db.
		Joins("Member").
		Where("workspace_id = ?", workspace.ID).
		Order(`"Member".email`).
		Find(&members).Error; err != nil {
		return EError(c, err)
	}

	resp := make([]dto.WorkspaceMember, len(members))
	for i, member := range members {
		resp[i] = *member.ToDTO()
	}
	return c.JSON(http.StatusOK, resp)
}

type AddMemberRequest struct {
	Email string `json:"email"`
	Role  int    `json:"role"`
}

// addWorkspaceMember добавляет существующего пользователя в пространство.
func (s *Services) addWorkspaceMember(c echo.Context) error {
	workspace := c.(WorkspaceContext).Workspace
	member := c.(WorkspaceContext).WorkspaceMember
	user := c.(WorkspaceContext).User

	if member.Role != dao.RoleAdmin && !user.IsSuperuser {
		return EErrorDefined(c, apierrors.ErrWorkspaceAdminRequired)
	}

	var req AddMemberRequest
	if err := c.Bind(&req); err != nil {
		return EError(c, err)
	}
	req.Email = strings.ToLower(req.Email)
	if !ValidateEmail(req.Email) || !IsValidRole(req.Role) {
		return EErrorMsgStatus(c, nil, http.StatusBadRequest)
	}

	var newMember dao.User
	if err := s.db.Where("email = ?", req.Email).First(&newMember).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return EErrorDefined(c, apierrors.ErrWorkspaceMemberNotFound)
		}
		return EError(c, err)
	}

	workspaceMember := dao.WorkspaceMember{
		ID:          dao.GenID(),
		WorkspaceId: workspace.ID,
		MemberId:    newMember.ID,
		Role:        req.Role,
		Member:      &newMember,
	}
	if err := s.db.Create(&workspaceMember).Error; err != nil {
		if err == gorm.ErrDuplicatedKey {
			return c.JSON(http.StatusOK, workspaceMember.ToDTO())
		}
		return EError(c, err)
	}

	return c.JSON(http.StatusCreated, workspaceMember.ToDTO())
}

// updateWorkspaceMember меняет роль участника пространства.
func (s *Services) updateWorkspaceMember(c echo.Context) error {
	workspace := c.(WorkspaceContext).Workspace
	member := c.(WorkspaceContext).WorkspaceMember
	user := c.(WorkspaceContext).User

	if member.Role != dao.RoleAdmin && !user.IsSuperuser {
		return EErrorDefined(c, apierrors.ErrWorkspaceAdminRequired)
	}

	memberId, err := uuid.FromString(c.Param("memberId"))
	if err != nil {
		return EErrorDefined(c, apierrors.ErrWorkspaceMemberNotFound)
	}

	var req UpdateMemberRequest
	if err := c.Bind(&req); err != nil {
		return EError(c, err)
	}
	if !IsValidRole(req.Role) {
		return EErrorMsgStatus(c, nil, http.StatusBadRequest)
	}

	target, err := dao.GetWorkspaceMember(s.db, workspace.ID, memberId)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return EErrorDefined(c, apierrors.ErrWorkspaceMemberNotFound)
		}
		return EError(c, err)
	}

	// владельца нельзя разжаловать
	if target.MemberId == workspace.OwnerId && req.Role != dao.RoleAdmin {
		return EErrorDefined(c, apierrors.ErrNotEnoughRights)
	}

	if err := s.db.Model(&target).Update("role", req.Role).Error; err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, target.ToDTO())
}

// deleteWorkspaceMember удаляет участника из пространства. Участник может
// выйти сам, остальных удаляет администратор.
func (s *Services) deleteWorkspaceMember(c echo.Context) error {
	workspace := c.(WorkspaceContext).Workspace
	member := c.(WorkspaceContext).WorkspaceMember
	user := c.(WorkspaceContext).User

	memberId, err := uuid.FromString(c.Param("memberId"))
	if err != nil {
		return EErrorDefined(c, apierrors.ErrWorkspaceMemberNotFound)
	}

	if memberId != user.ID && member.Role != dao.RoleAdmin && !user.IsSuperuser {
		return EErrorDefined(c, apierrors.ErrWorkspaceAdminRequired)
	}

	if memberId == workspace.OwnerId {
		return EErrorDefined(c, apierrors.ErrNotEnoughRights)
	}

	if err := s.db.
		Where("workspace_id = ?", workspace.ID).
		Where("member_id = ?", memberId).
		Delete(&dao.WorkspaceMember{}).Error; err != nil {
		return EError(c, err)
	}

	return c.NoContent(http.StatusOK)
}

// getWorkspaceMemberMe возвращает членство текущего пользователя.
func (s *Services) getWorkspaceMemberMe(c echo.Context) error {
	wm := c.(WorkspaceContext).WorkspaceMember
	return c.JSON(http.StatusOK, wm.ToDTO())
}
