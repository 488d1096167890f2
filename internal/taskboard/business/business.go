// Бизнес-логика приложения taskboard.
// Функции предназначены для переиспользования в HTTP handlers.
//
// Основные возможности:
//   - Аналитика рабочих пространств (ядро системы).
//   - Компиляция пользовательских фильтров в условия запросов.
//   - Нормализация документов задач.
package business

import (
	"gorm.io/gorm"
)

type Business struct {
	db *gorm.DB
}

func NewBL(db *gorm.DB) *Business {
	return &Business{db: db}
}
