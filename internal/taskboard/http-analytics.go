// Эндпоинт аналитики рабочего пространства.
// Всегда отвечает 200 с конвертом {success, data | error}: фронтенду не
// приходится различать транспортные и прикладные ошибки.
package taskboard

import (
	"log/slog"
	"net/http"

	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/apierrors"
	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/dto"
	"github.com/labstack/echo/v4"
)

// AddAnalyticsServices - добавление сервисов аналитики
func (s *Services) AddAnalyticsServices(g *echo.Group) {
	workspaceGroup := g.Group("workspaces/:workspaceSlug", s.WorkspaceMiddleware)
	workspaceGroup.GET("/analytics/", s.getWorkspaceAnalytics)
}

// getWorkspaceAnalytics возвращает полный аналитический срез пространства.
// Ошибки входных данных возвращаются как есть, ошибки хранилища логируются
// с контекстом и заменяются общим сообщением.
func (s *Services) getWorkspaceAnalytics(c echo.Context) error {
	workspace := c.(WorkspaceContext).Workspace

	var filters dto.AnalyticsFilters
	if err := filters.FromHTTPQuery(c); err != nil {
		return c.JSON(http.StatusOK, dto.AnalyticsResponse{
			Success: false,
			Error:   apierrors.ErrAnalyticsBadDateRange.Err,
		})
	}

	data, err := s.business.GetAnalytics(workspace.ID, filters)
	if err != nil {
		if defined, ok := err.(apierrors.DefinedError); ok {
			return c.JSON(http.StatusOK, dto.AnalyticsResponse{
				Success: false,
				Error:   defined.Err,
			})
		}

		slog.Error("Fetch workspace analytics",
			"workspaceId", workspace.ID,
			"filters", filters,
			"err", err,
		)
		return c.JSON(http.StatusOK, dto.AnalyticsResponse{
			Success: false,
			Error:   apierrors.ErrAnalyticsFetchFailed.Err,
		})
	}

	return c.JSON(http.StatusOK, dto.AnalyticsResponse{
		Success: true,
		Data:    data,
	})
}
