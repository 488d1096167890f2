// DAO для работы с пользователями.
package dao

import (
	"time"

	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/dto"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`

	Password string  `json:"-"`
	Username *string `json:"username" gorm:"uniqueIndex:,where:deleted_at is NULL" extensions:"x-nullable"`
	Email    string  `json:"email" gorm:"uniqueIndex:,where:deleted_at is NULL and email <> ''"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	IsSuperuser bool `json:"is_superuser"`
	IsActive    bool `json:"is_active" gorm:"default:true"`

	// AuthToken статический токен для интеграций (Bearer)
	AuthToken *string `json:"-" gorm:"uniqueIndex" extensions:"x-nullable"`

	LastActive    *time.Time `json:"last_active" extensions:"x-nullable"`
	LastLoginTime *time.Time `json:"-" extensions:"x-nullable"`
	LastLoginIp   string     `json:"-"`

	LastWorkspaceId uuid.NullUUID `json:"-" gorm:"type:uuid;index" extensions:"x-nullable"`
}

func (u *User) ToLightDTO() *dto.UserLight {
	if u == nil {
		return nil
	}
	return &dto.UserLight{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		IsSuperuser: u.IsSuperuser,
	}
}

// UpdateUserLastActivityTime обновляет время последней активности не чаще
// раза в минуту, чтобы не писать в БД на каждый запрос.
func UpdateUserLastActivityTime(db *gorm.DB, user *User) error {
	if user.LastActive != nil && time.Since(*user.LastActive) < time.Minute {
		return nil
	}
	tm := time.Now()
	user.LastActive = &tm
	return db.Model(user).Select("last_active").Updates(user).Error
}
