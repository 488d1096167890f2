// Структуры запросов API и общие помощники для их разбора.
//
// Основные возможности:
//   - Создание и настройка рабочих пространств.
//   - Создание и частичное изменение задач.
//   - Разбор параметров пагинации.
package taskboard

import (
	"strings"

	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/dao"
	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/types"
	"github.com/labstack/echo/v4"
)

type CreateWorkspaceRequest struct {
	Name string `json:"name" validate:"workspaceName"`
	Slug string `json:"slug" validate:"slug"`
}

func (req *CreateWorkspaceRequest) Bind(workspace *dao.Workspace) {
	workspace.Name = strings.TrimSpace(req.Name)
	workspace.Slug = req.Slug
}

type CreateTaskRequest struct {
	Data types.TaskData `json:"data"`
}

type UpdateTaskRequest struct {
	Data types.TaskData `json:"data"`

	// Version версия документа, от которой клиент делает изменение
	Version *int `json:"version"`
}

type UpdateMemberRequest struct {
	Role int `json:"role"`
}

type FieldConfigRequest struct {
	Key      string   `json:"key" validate:"fieldKey"`
	Label    string   `json:"label"`
	Kind     string   `json:"kind"`
	Options  []string `json:"options"`
	Position int      `json:"position"`
}

func ExtractPaginationRequest(c echo.Context) (int, int, error) {
	offset := -1
	limit := 100
	if err := echo.QueryParamsBinder(c).
		Int("offset", &offset).
		Int("limit", &limit).BindError(); err != nil {
		return offset, limit, EError(c, err)
	}
	return offset, limit, nil
}

func IsValidRole(role int) bool {
	switch role {
	case
		dao.RoleGuest,
		dao.RoleMember,
		dao.RoleAdmin:
		return true
	}
	return false
}

func CheckWorkspaceSlug(slug string) bool {
	switch slug {
	case
		"api",
		"create-workspace",
		"error",
		"signin",
		"signup",
		"onboarding",
		"analytics",
		"404",
		"undefined",
		"no-workspace",
		"profile",
		"not-found":
		return false
	}
	return true
}
