// Настраиваемые поля рабочего пространства. Список полей определяет
// известные интерфейсу ключи документа задачи и допустимые поля владельца
// для аналитики.
package taskboard

import (
	"net/http"

	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/apierrors"
	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/dao"
	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/dto"
	"github.com/labstack/echo/v4"
)

// AddFieldConfigServices - добавление сервисов настраиваемых полей
func (s *Services) AddFieldConfigServices(g *echo.Group) {
	workspaceGroup := g.Group("workspaces/:workspaceSlug", s.WorkspaceMiddleware)
	workspaceGroup.GET("/fields/", s.getFieldConfigList)
	workspaceGroup.PUT("/fields/", s.replaceFieldConfigs)
}

// getFieldConfigList возвращает поля пространства в порядке отображения.
func (s *Services) getFieldConfigList(c echo.Context) error {
	workspace := c.(WorkspaceContext).Workspace

	fields, err := dao.GetWorkspaceFieldConfigs(s.db, workspace.ID)
	if err != nil {
		return EError(c, err)
	}

	resp := make([]dto.FieldConfig, len(fields))
	for i, field := range fields {
		resp[i] = *field.ToDTO()
	}
	return c.JSON(http.StatusOK, resp)
}

// replaceFieldConfigs заменяет весь список полей пространства.
// Дубликаты ключей отклоняются.
func (s *Services) replaceFieldConfigs(c echo.Context) error {
	workspace := c.(WorkspaceContext).Workspace
	member := c.(WorkspaceContext).WorkspaceMember
	user := c.(WorkspaceContext).User

	if member.Role != dao.RoleAdmin && !user.IsSuperuser {
		return EErrorDefined(c, apierrors.ErrWorkspaceAdminRequired)
	}

	var req []FieldConfigRequest
	if err := c.Bind(&req); err != nil {
		return EError(c, err)
	}
	if len(req) == 0 {
		return EErrorDefined(c, apierrors.ErrFieldsListIsEmpty)
	}

	seen := make(map[string]bool, len(req))
	fields := make([]dao.FieldConfig, len(req))
	for i, field := range req {
		if err := c.Validate(field); err != nil {
			return EErrorDefined(c, apierrors.ErrFieldKeyInvalid)
		}
		if seen[field.Key] {
			return EErrorDefined(c, apierrors.ErrFieldKeyConflict)
		}
		seen[field.Key] = true

		fields[i] = dao.FieldConfig{
			Key:      field.Key,
			Label:    field.Label,
			Kind:     field.Kind,
			Options:  field.Options,
			Position: field.Position,
		}
	}

	if err := dao.ReplaceWorkspaceFieldConfigs(s.db, workspace.ID, fields); err != nil {
		return EError(c, err)
	}

	return s.getFieldConfigList(c)
}
