// Пакет содержит определения ошибок, используемых в приложении taskboard. Каждая ошибка имеет код, статус HTTP и описание, что позволяет удобно обрабатывать исключения и предоставлять информативные сообщения пользователю.
//
// Основные возможности:
//   - Определение типов ошибок, связанных с авторизацией, рабочими пространствами, задачами и аналитикой.
//   - Предоставление кодов ошибок, соответствующих кодам HTTP статусов.
//   - Функция для форматирования сообщений об ошибках с использованием аргументов.
package apierrors

import (
	"fmt"
	"net/http"
	"strings"
)

type DefinedError struct {
	Code       int    `json:"code"`
	StatusCode int    `json:"-"`
	Err        string `json:"error"`
	RuErr      string `json:"ru_error,omitempty"`
}

func (e DefinedError) Error() string {
	return e.Err
}

var (
	// 1*** - auth errors
	ErrFailedLogin              = DefinedError{Code: 1001, StatusCode: http.StatusUnauthorized, Err: "invalid credentials", RuErr: "Неправильный email или пароль"}
	ErrLoginCredentialsRequired = DefinedError{Code: 1002, StatusCode: http.StatusUnauthorized, Err: "both email and password are required", RuErr: "Поля email и пароль не могут быть пустыми"}
	ErrUserNotActive            = DefinedError{Code: 1003, StatusCode: http.StatusUnauthorized, Err: "user is blocked", RuErr: "Учетная запись заблокирована"}

	// 11** - session errors
	ErrTokenExpired = DefinedError{Code: 1101, StatusCode: http.StatusUnauthorized, Err: "token expired", RuErr: "Срок действия токена истек"}
	ErrTokenInvalid = DefinedError{Code: 1102, StatusCode: http.StatusUnauthorized, Err: "invalid token", RuErr: "Неверный токен"}

	// 2*** - workspace errors
	ErrWorkspaceNotFound       = DefinedError{Code: 2001, StatusCode: http.StatusNotFound, Err: "workspace not found", RuErr: "Рабочее пространство не найдено"}
	ErrWorkspaceNameRequired   = DefinedError{Code: 2002, StatusCode: http.StatusBadRequest, Err: "workspace must have a name", RuErr: "Поле Имя пространства не может быть пустым"}
	ErrForbiddenSlug           = DefinedError{Code: 2003, StatusCode: http.StatusBadRequest, Err: "forbidden slug", RuErr: "Индикатор содержит недопустимые символы"}
	ErrWorkspaceSlugConflict   = DefinedError{Code: 2004, StatusCode: http.StatusConflict, Err: "workspace with that slug already exists", RuErr: "Пространство с таким идентификатором уже существует"}
	ErrNotEnoughRights         = DefinedError{Code: 2005, StatusCode: http.StatusForbidden, Err: "not enough rights", RuErr: "У вас недостаточно прав для выполнения этого действия"}
	ErrWorkspaceMemberNotFound = DefinedError{Code: 2006, StatusCode: http.StatusBadRequest, Err: "workspace member not found", RuErr: "Пользователь не является участником данного пространства"}
	ErrWorkspaceAdminRequired  = DefinedError{Code: 2007, StatusCode: http.StatusForbidden, Err: "workspace admin role is required", RuErr: "Для действия необходима роль администратора пространства"}

	// 4*** - task errors
	ErrTaskNotFound      = DefinedError{Code: 4001, StatusCode: http.StatusNotFound, Err: "task not found", RuErr: "Задача не найдена"}
	ErrTaskDataRequired  = DefinedError{Code: 4002, StatusCode: http.StatusBadRequest, Err: "task data is required", RuErr: "Документ задачи не может быть пустым"}
	ErrTaskBadConflict   = DefinedError{Code: 4003, StatusCode: http.StatusConflict, Err: "task version conflict", RuErr: "Задача была изменена другим пользователем"}
	ErrFieldKeyInvalid   = DefinedError{Code: 4101, StatusCode: http.StatusBadRequest, Err: "invalid field key", RuErr: "Ключ поля содержит недопустимые символы"}
	ErrFieldKeyConflict  = DefinedError{Code: 4102, StatusCode: http.StatusConflict, Err: "field with that key already exists", RuErr: "Поле с таким ключом уже существует"}
	ErrFieldsListIsEmpty = DefinedError{Code: 4103, StatusCode: http.StatusBadRequest, Err: "fields list is empty", RuErr: "Список полей не может быть пустым"}

	// 5*** - analytics errors
	ErrWorkspaceIdRequired   = DefinedError{Code: 5001, StatusCode: http.StatusBadRequest, Err: "workspace id is required", RuErr: "Не указано рабочее пространство"}
	ErrUnknownOwnerField     = DefinedError{Code: 5002, StatusCode: http.StatusBadRequest, Err: "unknown owner field key", RuErr: "Указан неизвестный ключ поля владельца"}
	ErrAnalyticsFetchFailed  = DefinedError{Code: 5003, StatusCode: http.StatusInternalServerError, Err: "Failed to fetch analytics", RuErr: "Не удалось получить аналитику"}
	ErrAnalyticsBadDateRange = DefinedError{Code: 5004, StatusCode: http.StatusBadRequest, Err: "invalid date range", RuErr: "Некорректный диапазон дат"}

	// 9*** - general errors
	ErrGeneric       = DefinedError{Code: 9001, StatusCode: http.StatusBadRequest, Err: "general error", RuErr: "Произошла ошибка. Попробуйте повторить запрос позже"}
	ErrEntityToLarge = DefinedError{Code: 9002, StatusCode: http.StatusRequestEntityTooLarge, Err: "entity too large", RuErr: "Превышен допустимый размер запроса"}
)

// WithFormattedMessage подставляет аргументы в шаблоны сообщений ошибки.
func (e DefinedError) WithFormattedMessage(args ...interface{}) DefinedError {
	if strings.Contains(e.Err, "%") {
		e.Err = fmt.Sprintf(e.Err, args...)
	}
	if strings.Contains(e.RuErr, "%") {
		e.RuErr = fmt.Sprintf(e.RuErr, args...)
	}
	return e
}
