// Аутентификация и авторизация пользователей.
// Обеспечивает доступ к ресурсам с использованием JWT и кук.
//
// Основные возможности:
//   - Вход пользователя по email и паролю.
//   - Генерация и проверка токенов доступа (JWT) с поддержкой обновления.
//   - Статические токены для интеграций (Bearer).
//   - Поддержка схем Basic, Bearer и Cookies.
package taskboard

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/apierrors"
	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/dao"
	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

type Authentication struct {
	db     *gorm.DB
	secret []byte
}

type AuthContext struct {
	echo.Context
	User         *dao.User
	AccessToken  *Token
	RefreshToken *Token
	TokenAuth    bool
}

type AuthConfig struct {
	Secret  []byte
	DB      *gorm.DB
	Skipper middleware.Skipper
}

func AuthMiddleware(config AuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method == "OPTIONS" {
				return c.NoContent(http.StatusOK)
			}

			if config.Skipper != nil && config.Skipper(c) {
				return next(c)
			}

			var refreshToken *Token
			var accessToken *Token

			schema, tokenString, ok := strings.Cut(c.Request().Header.Get("Sec-WebSocket-Protocol"), ",")
			if !ok {
				schema, tokenString, ok = strings.Cut(c.Request().Header.Get("Authorization"), " ")
				if !ok {
					// Cookie token
					schema = "Cookies"
					if accessCookie, err := c.Cookie("access_token"); err == nil && accessCookie != nil {
						accessToken = new(Token)
						accessToken.SignedString = accessCookie.Value
						accessToken.Type = "access"
					}

					if refreshCookie, err := c.Cookie("refresh_token"); err == nil && refreshCookie != nil {
						refreshToken = new(Token)
						refreshToken.SignedString = refreshCookie.Value
						refreshToken.Type = "refresh"
					}

					if refreshToken == nil && accessToken == nil {
						return EErrorDefined(c, apierrors.ErrTokenInvalid)
					}
				}
			}
			schema = strings.TrimSpace(schema)

			if schema != "Cookies" {
				accessToken = new(Token)
				accessToken.SignedString = strings.TrimSpace(tokenString)
				accessToken.Type = schema
			}

			// Token auth
			if schema == "Basic" || schema == "Bearer" {
				var user dao.User
				if err := config.DB.
					Where("users.auth_token = ?", accessToken.SignedString).
					First(&user).Error; err != nil {
					if err == gorm.ErrRecordNotFound {
						return EErrorDefined(c, apierrors.ErrFailedLogin)
					}
					return EError(c, err)
				}
				if !user.IsActive {
					return EErrorDefined(c, apierrors.ErrUserNotActive)
				}
				touchLastActivity(config.DB, &user)
				return next(AuthContext{c, &user, accessToken, nil, true})
			}

			keyFunc := func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return config.Secret, nil
			}

			var accessError error
			if accessToken != nil {
				accessToken.JWT, accessError = jwt.Parse(accessToken.SignedString, keyFunc)
			}

			if refreshToken != nil {
				refreshToken.JWT, _ = jwt.Parse(refreshToken.SignedString, keyFunc)
			}

			var user *dao.User
			var err error

			// Prolong if expired
			if errors.Is(accessError, jwt.ErrTokenExpired) || accessToken == nil {
				accessToken, user, err = config.tokenProlong(c, refreshToken)
				if accessToken == nil || user == nil {
					return err
				}
			} else if accessError != nil {
				return EErrorDefined(c, apierrors.ErrTokenInvalid)
			} else {
				user, err = config.userFromClaims(accessToken.JWT)
				if err != nil {
					return EErrorDefined(c, apierrors.ErrTokenInvalid)
				}
			}

			// If user blocked
			if !user.IsActive {
				return EErrorDefined(c, apierrors.ErrUserNotActive)
			}

			touchLastActivity(config.DB, user)

			return next(AuthContext{c, user, accessToken, refreshToken, false})
		}
	}
}

// touchLastActivity обновляет время последней активности пользователя.
// Сбой обновления не прерывает запрос: ответ за него не пишется,
// ошибка только логируется.
func touchLastActivity(db *gorm.DB, user *dao.User) {
	if err := dao.UpdateUserLastActivityTime(db, user); err != nil {
		slog.Error("Update user last activity time", "userId", user.ID, "err", err)
	}
}

func (a *AuthConfig) userFromClaims(token *jwt.Token) (*dao.User, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, apierrors.ErrTokenInvalid
	}

	rawId, ok := claims["user_id"].(string)
	if !ok {
		return nil, apierrors.ErrTokenInvalid
	}
	userId, err := uuid.FromString(rawId)
	if err != nil {
		return nil, apierrors.ErrTokenInvalid
	}

	var user dao.User
	if err := a.DB.Where("users.id = ?", userId).First(&user).Error; err != nil {
		return nil, apierrors.ErrTokenInvalid
	}
	return &user, nil
}

func (a *AuthConfig) tokenProlong(c echo.Context, token *Token) (*Token, *dao.User, error) {
	if token == nil || token.JWT == nil {
		return nil, nil, EErrorDefined(c, apierrors.ErrTokenExpired)
	}

	claims, ok := token.JWT.Claims.(jwt.MapClaims)
	if !ok || !token.JWT.Valid {
		return nil, nil, EErrorDefined(c, apierrors.ErrTokenInvalid)
	}

	if tokenType, _ := claims["token_type"].(string); tokenType != "refresh" {
		return nil, nil, EErrorDefined(c, apierrors.ErrTokenInvalid)
	}

	user, err := a.userFromClaims(token.JWT)
	if err != nil {
		return nil, nil, EErrorDefined(c, apierrors.ErrTokenInvalid)
	}

	accessToken, refreshToken, err := createAccessToken(user.ID.String())
	if err != nil {
		return nil, nil, EError(c, err)
	}

	setAuthCookies(c, accessToken, refreshToken)

	return accessToken, user, nil
}

func AddAuthenticationServices(db *gorm.DB, g *echo.Echo, secret []byte) *Authentication {
	ret := &Authentication{db, secret}

	g.POST("api/sign-in/", ret.signIn)
	g.POST("api/sign-out/", ret.signOut)
	return ret
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// signIn аутентифицирует пользователя по email и паролю и возвращает
// пару токенов вместе с данными пользователя.
func (a *Authentication) signIn(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return EError(c, err)
	}

	req.Email = strings.ToLower(req.Email)

	if req.Email == "" || req.Password == "" {
		return EErrorDefined(c, apierrors.ErrLoginCredentialsRequired)
	}

	var user dao.User
	if err := a.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return EErrorDefined(c, apierrors.ErrFailedLogin)
		}
		return EError(c, err)
	}

	if !user.IsActive {
		return EErrorDefined(c, apierrors.ErrUserNotActive)
	}

	if !checkPassword(req.Password, user.Password) {
		return EErrorDefined(c, apierrors.ErrFailedLogin)
	}

	tm := time.Now()
	user.LastActive = &tm
	user.LastLoginTime = &tm
	user.LastLoginIp = c.RealIP()
	if err := a.db.Model(&user).Select("LastActive", "LastLoginTime", "LastLoginIp").Updates(&user).Error; err != nil {
		return EError(c, err)
	}

	accessToken, refreshToken, err := createAccessToken(user.ID.String())
	if err != nil {
		return EError(c, err)
	}

	setAuthCookies(c, accessToken, refreshToken)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"access_token":  accessToken.SignedString,
		"refresh_token": refreshToken.SignedString,
		"user":          user.ToLightDTO(),
	})
}

func (a *Authentication) signOut(c echo.Context) error {
	clearAuthCookies(c)
	return c.NoContent(http.StatusOK)
}
