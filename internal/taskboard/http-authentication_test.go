package taskboard

import (
	"testing"

	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/dao"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// unreachableDB открывает соединение с заведомо недоступной базой.
// Подключение ленивое, ошибка проявляется на первом запросе.
func unreachableDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 port=1 user=none dbname=none sslmode=disable",
	}), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               logger.Discard,
	})
	require.NoError(t, err)
	return db
}

// Сбой обновления времени активности не должен прерывать запрос:
// функция молча логирует ошибку и не пишет ответ.
func TestTouchLastActivityFailureTolerated(t *testing.T) {
	db := unreachableDB(t)
	user := dao.User{ID: dao.GenUUID()}

	assert.NotPanics(t, func() { touchLastActivity(db, &user) })
}
