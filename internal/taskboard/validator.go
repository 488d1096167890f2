// Валидация данных запросов. Содержит валидаторы полей, используемых в API:
// имя рабочего пространства, slug, ключ настраиваемого поля.
// Использует библиотеку go-playground/validator.
package taskboard

import (
	"regexp"
	"unicode/utf8"

	"github.com/go-playground/validator"
)

type RequestValidator struct {
	validator *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New()

	if err := v.RegisterValidation("workspaceName", workspaceNameValidator); err != nil {
		return nil
	}

	if err := v.RegisterValidation("slug", slugValidator); err != nil {
		return nil
	}

	if err := v.RegisterValidation("fieldKey", fieldKeyValidator); err != nil {
		return nil
	}
	return &RequestValidator{v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	if err := rv.validator.Struct(i); err != nil {
		_, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil
		}
		return err
	}
	return nil
}

func workspaceNameValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	lenStr := utf8.RuneCountInString(value)
	if !isValidLatinCyrillicDigitWithSymbol(value) {
		return false
	}
	return lenStr >= 3 && lenStr <= 100
}

func slugValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	lenStr := utf8.RuneCountInString(value)
	if !isValidLatinLowerDigitHyphen(value) {
		return false
	}
	return lenStr >= 3 && lenStr <= 50
}

// Ключ поля участвует в выражениях запросов аналитики, формат жесткий
func fieldKeyValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return isValidFieldKey(value)
}

// Validate
func isValidLatinCyrillicDigitWithSymbol(str string) bool {
	pt := `^[A-Za-zА-Яа-яёЁ0-9 ._\/\-\\!#\$%&'\"\(\)\*\+,\-.:;№<=>?@\[\\\]\^_\{\|\}~]+$`
	re := regexp.MustCompile(pt)
	return re.MatchString(str)
}

func isValidLatinLowerDigitHyphen(str string) bool {
	pt := `^[a-z0-9-]+$`
	re := regexp.MustCompile(pt)
	return re.MatchString(str)
}

func isValidFieldKey(str string) bool {
	pt := `^[a-zA-Z][a-zA-Z0-9_]{0,63}$`
	re := regexp.MustCompile(pt)
	return re.MatchString(str)
}
