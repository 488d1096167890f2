package business

import (
	"testing"
	"time"

	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/dto"
	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileTaskFiltersEmpty(t *testing.T) {
	cf := compileTaskFilters(dto.AnalyticsFilters{}, types.DefaultOwnerKey)
	assert.Empty(t, cf.conds)
}

func TestCompileTaskFiltersAllSentinel(t *testing.T) {
	cf := compileTaskFilters(dto.AnalyticsFilters{
		AssetClass: []string{"All"},
		Status:     []string{"", "  "},
	}, types.DefaultOwnerKey)
	assert.Empty(t, cf.conds)
}

func TestCompileTaskFiltersSingleValue(t *testing.T) {
	cf := compileTaskFilters(dto.AnalyticsFilters{
		Status: []string{"todo"},
	}, types.DefaultOwnerKey)

	require.Len(t, cf.conds, 1)
	assert.Equal(t, statusExpr+" = ?", cf.conds[0].query)
	assert.Equal(t, []interface{}{"todo"}, cf.conds[0].args)
}

func TestCompileTaskFiltersMultipleValues(t *testing.T) {
	cf := compileTaskFilters(dto.AnalyticsFilters{
		Priority: []string{"high", "urgent"},
	}, types.DefaultOwnerKey)

	require.Len(t, cf.conds, 1)
	assert.Equal(t, priorityExpr+" in (?)", cf.conds[0].query)
	assert.Equal(t, []interface{}{[]string{"high", "urgent"}}, cf.conds[0].args)
}

func TestCompileTaskFiltersOwnerKey(t *testing.T) {
	cf := compileTaskFilters(dto.AnalyticsFilters{
		Assignee: []string{"alice"},
	}, "assignee")

	require.Len(t, cf.conds, 1)
	assert.Equal(t, "tasks.data->>? = ?", cf.conds[0].query)
	assert.Equal(t, []interface{}{"assignee", "alice"}, cf.conds[0].args)
}

func TestCompileTaskFiltersCaseInsensitive(t *testing.T) {
	cf := compileTaskFilters(dto.AnalyticsFilters{
		AssetClass: []string{"Equities", "FX"},
		Team:       []string{"Platform"},
	}, types.DefaultOwnerKey)

	require.Len(t, cf.conds, 2)
	assert.Equal(t, []interface{}{"platform"}, cf.conds[0].args)
	assert.Equal(t, []interface{}{[]string{"equities", "fx"}}, cf.conds[1].args)
}

func TestCompileTaskFiltersDateBounds(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 23, 59, 59, 999999999, time.UTC)
	cf := compileTaskFilters(dto.AnalyticsFilters{
		DateFrom: &from,
		DateTo:   &to,
	}, types.DefaultOwnerKey)

	require.Len(t, cf.conds, 2)
	assert.Equal(t, "tasks.created_at >= ?", cf.conds[0].query)
	assert.Equal(t, []interface{}{from}, cf.conds[0].args)
	assert.Equal(t, "tasks.created_at <= ?", cf.conds[1].query)
	assert.Equal(t, []interface{}{to}, cf.conds[1].args)
}

func TestNormalizeValues(t *testing.T) {
	assert.Empty(t, normalizeValues(nil, false))
	assert.Empty(t, normalizeValues([]string{"", "  "}, false))
	assert.Equal(t, []string{"done"}, normalizeValues([]string{" done "}, false))
	assert.Equal(t, []string{"equities", "fx"}, normalizeValues([]string{"Equities", "FX"}, true))
	assert.Equal(t, []string{"Equities"}, normalizeValues([]string{"Equities"}, false))
}

func TestDropAllSentinel(t *testing.T) {
	assert.Empty(t, dropAllSentinel([]string{"All"}))
	assert.Equal(t, []string{"FX"}, dropAllSentinel([]string{"All", "FX"}))
}

// Сентинел не распространяется на остальные поля: владелец с именем
// "All" остается фильтруемым значением.
func TestCompileTaskFiltersOwnerNamedAll(t *testing.T) {
	cf := compileTaskFilters(dto.AnalyticsFilters{
		Assignee: []string{"All"},
	}, types.DefaultOwnerKey)

	require.Len(t, cf.conds, 1)
	assert.Equal(t, "tasks.data->>? = ?", cf.conds[0].query)
	assert.Equal(t, []interface{}{"owner", "All"}, cf.conds[0].args)
}

func TestOwnerKeyPattern(t *testing.T) {
	assert.True(t, ownerKeyPattern.MatchString("owner"))
	assert.True(t, ownerKeyPattern.MatchString("custom_field2"))
	assert.False(t, ownerKeyPattern.MatchString("data->>'x'"))
	assert.False(t, ownerKeyPattern.MatchString("1field"))
	assert.False(t, ownerKeyPattern.MatchString(""))
}
