// Компилятор фильтров аналитики. Преобразует структуру фильтров в набор
// параметризованных SQL-условий, применимых к любому агрегатному запросу
// по задачам. Все значения подставляются только через параметры запроса.
package business

import (
	"regexp"
	"strings"

	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/apierrors"
	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/dao"
	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/dto"
	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/types"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// SQL-выражения известных полей документа. Значения по умолчанию для
// отсутствующих статуса и приоритета применяются прямо в выражении,
// чтобы фильтрация и группировка везде видели одинаковые значения.
const (
	statusExpr   = "coalesce(nullif(tasks.data->>'status', ''), 'todo')"
	priorityExpr = "coalesce(nullif(tasks.data->>'priority', ''), 'medium')"
)

// allAssetClasses сентинел интерфейса "без фильтра" для assetClass
const allAssetClasses = "All"

// ownerKeyPattern допустимый формат ключа поля владельца
var ownerKeyPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{0,63}$`)

// builtinOwnerKeys ключи владельца, допустимые без настройки полей пространства
var builtinOwnerKeys = []string{"owner", "assignee"}

type filterCond struct {
	query string
	args  []interface{}
}

// compiledFilters скомпилированный набор условий. Пустой набор означает
// отсутствие ограничений.
type compiledFilters struct {
	conds []filterCond
}

// Apply навешивает условия на запрос. Условия объединяются по AND.
func (cf compiledFilters) Apply(query *gorm.DB) *gorm.DB {
	for _, cond := range cf.conds {
		query = query.Where(cond.query, cond.args...)
	}
	return query
}

func (cf *compiledFilters) add(query string, args ...interface{}) {
	cf.conds = append(cf.conds, filterCond{query: query, args: args})
}

// addValues добавляет условие на вхождение значения поля в набор.
// Одно значение сравнивается на равенство, несколько — через IN.
func (cf *compiledFilters) addValues(expr string, exprArgs []interface{}, values []string) {
	if len(values) == 0 {
		return
	}
	if len(values) == 1 {
		cf.add(expr+" = ?", append(exprArgs, values[0])...)
		return
	}
	cf.add(expr+" in (?)", append(exprArgs, values)...)
}

// compileTaskFilters компилирует фильтры в условия по колонкам tasks.
// Функция чистая: не обращается к БД и не меняет входные данные.
// Пустые наборы значений означают отсутствие ограничения; сентинел "All"
// отбрасывается только у класса активов.
func compileTaskFilters(filters dto.AnalyticsFilters, ownerKey string) compiledFilters {
	var cf compiledFilters

	cf.addValues(statusExpr, nil, normalizeValues(filters.Status, false))
	cf.addValues(priorityExpr, nil, normalizeValues(filters.Priority, false))
	cf.addValues("tasks.data->>?", []interface{}{ownerKey}, normalizeValues(filters.Assignee, false))
	cf.addValues("lower(tasks.data->>'teamName')", nil, normalizeValues(filters.Team, true))
	cf.addValues("lower(tasks.data->>'assetClass')", nil, normalizeValues(dropAllSentinel(filters.AssetClass), true))

	if filters.DateFrom != nil {
		cf.add("tasks.created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		cf.add("tasks.created_at <= ?", *filters.DateTo)
	}

	return cf
}

// normalizeValues отбрасывает пустые значения. При lower значения
// приводятся к нижнему регистру для сравнения без учета регистра.
func normalizeValues(values []string, lower bool) []string {
	res := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if lower {
			v = strings.ToLower(v)
		}
		res = append(res, v)
	}
	return res
}

// dropAllSentinel отбрасывает сентинел интерфейса "без фильтра".
// Сентинел есть только у класса активов: для остальных полей "All" -
// обычное значение.
func dropAllSentinel(values []string) []string {
	res := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == allAssetClasses {
			continue
		}
		res = append(res, v)
	}
	return res
}

// resolveOwnerKey проверяет запрошенный ключ поля владельца по списку
// полей пространства и встроенным ключам. Пустой ключ означает ключ
// по умолчанию. Неизвестный или некорректный ключ - ошибка запроса:
// имя поля участвует в выражениях запросов и не может быть произвольным.
func (b *Business) resolveOwnerKey(workspaceID uuid.UUID, requested string) (string, error) {
	if requested == "" || requested == types.DefaultOwnerKey {
		return types.DefaultOwnerKey, nil
	}

	if !ownerKeyPattern.MatchString(requested) {
		return "", apierrors.ErrUnknownOwnerField
	}

	for _, key := range builtinOwnerKeys {
		if requested == key {
			return requested, nil
		}
	}

	keys, err := dao.GetWorkspaceFieldKeys(b.db, workspaceID)
	if err != nil {
		return "", err
	}
	for _, key := range keys {
		if requested == key {
			return requested, nil
		}
	}

	return "", apierrors.ErrUnknownOwnerField
}
