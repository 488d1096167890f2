// Управление задачами рабочего пространства: создание, частичное изменение
// документа, удаление. Изменения транслируются подписчикам по вебсокету.
package taskboard

import (
	"net/http"
	"time"

	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/apierrors"
	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/business"
	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/dao"
	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/dto"
	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/notifications"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type TaskContext struct {
	WorkspaceContext
	Task dao.Task
}

func (s *Services) TaskMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.(WorkspaceContext)
		idOrSeq := c.Param("taskIdOrSeq")

		task, err := dao.GetTaskByIdOrSeq(s.db, ctx.Workspace.ID, idOrSeq)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return EErrorDefined(c, apierrors.ErrTaskNotFound)
			}
			return EError(c, err)
		}
		task.Workspace = &ctx.Workspace

		return next(TaskContext{ctx, task})
	}
}

// AddTaskServices - добавление сервисов задач
func (s *Services) AddTaskServices(g *echo.Group) {
	workspaceGroup := g.Group("workspaces/:workspaceSlug", s.WorkspaceMiddleware, s.WorkspaceWriteMiddleware)

	workspaceGroup.GET("/tasks/", s.getTaskList)
	workspaceGroup.POST("/tasks/", s.createTask)

	taskGroup := workspaceGroup.Group("/tasks/:taskIdOrSeq", s.TaskMiddleware)
	taskGroup.GET("/", s.getTask)
	taskGroup.PATCH("/", s.updateTask)
	taskGroup.DELETE("/", s.deleteTask)

	// Websocket task events endpoint
	workspaceGroup.GET("/ws/tasks/", func(c echo.Context) error {
		ctx := c.(WorkspaceContext)
		s.taskEvents.Handle(ctx.Workspace.ID.String(), c.Response(), c.Request())
		return nil
	})
}

// getTaskList возвращает страницу задач пространства. Поддерживает те же
// фильтры, что и аналитика, и пагинацию offset/limit.
func (s *Services) getTaskList(c echo.Context) error {
	workspace := c.(WorkspaceContext).Workspace

	var filters dto.AnalyticsFilters
	if err := filters.FromHTTPQuery(c); err != nil {
		return EError(c, err)
	}

	offset, limit, err := ExtractPaginationRequest(c)
	if err != nil {
		return err
	}

	resp, err := s.business.ListTasks(workspace.ID, filters, offset, limit)
	if err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// createTask создает задачу с документом бизнес-полей.
func (s *Services) createTask(c echo.Context) error {
	workspace := c.(WorkspaceContext).Workspace

	var req CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return EError(c, err)
	}
	if req.Data == nil {
		return EErrorDefined(c, apierrors.ErrTaskDataRequired)
	}

	task := dao.Task{
		Data: business.NormalizeTaskData(req.Data, time.Now()),
	}
	if err := dao.CreateTask(s.db, &workspace, &task); err != nil {
		return EError(c, err)
	}

	s.taskEvents.Broadcast(workspace.ID.String(), notifications.EventTaskCreated, task.ToDTO())

	return c.JSON(http.StatusCreated, task.ToDTO())
}

// getTask возвращает задачу по UUID или порядковому номеру.
func (s *Services) getTask(c echo.Context) error {
	task := c.(TaskContext).Task
	return c.JSON(http.StatusOK, task.ToDTO())
}

// updateTask вливает частичное изменение в документ задачи. Ключи с null
// удаляются из документа. При несовпадении присланной версии с текущей
// изменение отклоняется.
func (s *Services) updateTask(c echo.Context) error {
	ctx := c.(TaskContext)
	task := ctx.Task

	var req UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return EError(c, err)
	}
	if req.Data == nil {
		return EErrorDefined(c, apierrors.ErrTaskDataRequired)
	}

	if req.Version != nil && *req.Version != task.Version {
		return EErrorDefined(c, apierrors.ErrTaskBadConflict)
	}

	task.Data = business.NormalizeTaskData(task.Data.Merge(req.Data), time.Now())
	if err := dao.PatchTaskData(s.db, &task, nil); err != nil {
		return EError(c, err)
	}

	s.taskEvents.Broadcast(ctx.Workspace.ID.String(), notifications.EventTaskUpdated, task.ToDTO())

	return c.JSON(http.StatusOK, task.ToDTO())
}

// deleteTask мягко удаляет задачу.
func (s *Services) deleteTask(c echo.Context) error {
	ctx := c.(TaskContext)
	task := ctx.Task

	if err := s.db.Delete(&task).Error; err != nil {
		return EError(c, err)
	}

	s.taskEvents.Broadcast(ctx.Workspace.ID.String(), notifications.EventTaskDeleted, task.ToDTO())

	return c.NoContent(http.StatusOK)
}
