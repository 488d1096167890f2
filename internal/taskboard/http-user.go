// Сервисы текущего пользователя.
package taskboard

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AddUserServices - добавление сервисов пользователя
func (s *Services) AddUserServices(g *echo.Group) {
	g.GET("users/me/", s.getCurrentUser)
}

// getCurrentUser возвращает данные текущего пользователя.
func (s *Services) getCurrentUser(c echo.Context) error {
	user := c.(AuthContext).User
	return c.JSON(http.StatusOK, user.ToLightDTO())
}
