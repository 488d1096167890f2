// DAO (Data Access Object) - предоставляет методы для взаимодействия с базой данных.
// Содержит модели пользователей, рабочих пространств, задач и настраиваемых полей.
//
// Основные возможности:
//   - Генерация UUID и паролей.
//   - Пагинация выборок.
//   - Создание пользователя по умолчанию при первом запуске.
package dao

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/config"
	"github.com/gofrs/uuid"
	"github.com/sethvargo/go-password/password"
	"golang.org/x/crypto/pbkdf2"
	"gorm.io/gorm"
)

// Config глобальная конфигурация приложения, устанавливается при старте.
var Config *config.Config

// -migration
type PaginationResponse struct {
	Count  int64 `json:"count"`
	Offset int   `json:"offset"`
	Limit  int   `json:"limit"`
	Result any   `json:"result"`
}

func GenUUID() uuid.UUID {
	return uuid.Must(uuid.NewV4())
}

func GenID() string {
	return GenUUID().String()
}

// HashPassword хэширует пароль в формате pbkdf2_sha256$<iters>$<salt>$<hash>.
func HashPassword(pass string) string {
	salt := make([]byte, 16)
	rand.Read(salt)
	saltStr := base64.RawStdEncoding.EncodeToString(salt)
	hash := base64.StdEncoding.EncodeToString(pbkdf2.Key([]byte(pass), []byte(saltStr), 260000, 32, sha256.New))
	return fmt.Sprintf("pbkdf2_sha256$260000$%s$%s", saltStr, hash)
}

// AddDefaultUser создает администратора по умолчанию со сгенерированным
// паролем. Пароль выводится в лог один раз при создании.
func AddDefaultUser(db *gorm.DB, email string) {
	pass, err := password.Generate(16, 4, 0, false, false)
	if err != nil {
		slog.Error("Generate default user password", "err", err)
		return
	}

	ubx := "admin"
	tm := time.Now()
	user := User{
		ID:          GenUUID(),
		Email:       email,
		Password:    HashPassword(pass),
		Username:    &ubx,
		LastActive:  &tm,
		IsActive:    true,
		IsSuperuser: true,
	}

	if err := db.Create(&user).Error; err != nil {
		slog.Error("Create default user", "err", err)
		return
	}
	slog.Info("Default user created", "email", email, "password", pass)
}

func PaginationRequest(offset int, limit int, query *gorm.DB, target any) (res PaginationResponse, err error) {
	// Count query
	if err := query.Session(&gorm.Session{}).Model(target).Count(&res.Count).Error; err != nil {
		return res, err
	}

	// Data query
	if err := query.Offset(offset).Limit(limit).Find(target).Error; err != nil {
		return res, err
	}

	res.Result = target
	res.Limit = limit
	res.Offset = offset

	return res, nil
}
