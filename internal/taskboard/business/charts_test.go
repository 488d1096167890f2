package business

import (
	"testing"
	"time"

	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/dto"
	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollingAverages(t *testing.T) {
	assert.Empty(t, rollingAverages(nil, 3))
	assert.Equal(t, []float64{10}, rollingAverages([]float64{10}, 3))
	assert.Equal(t,
		[]float64{10, 15, 20, 30},
		rollingAverages([]float64{10, 20, 30, 40}, 3))
}

func TestHoursEfficiency(t *testing.T) {
	assert.Equal(t, float64(0), hoursEfficiency(5, 0))
	assert.Equal(t, float64(50), hoursEfficiency(5, 10))
	assert.Equal(t, float64(120), hoursEfficiency(12, 10))
}

func TestBuildRemainingTrendFillsGaps(t *testing.T) {
	trend := buildRemainingTrend(
		[]monthCount{{Month: "2024-01", Count: 3}},
		[]monthCount{{Month: "2024-03", Count: 2}},
	)

	require.Len(t, trend, 3)
	assert.Equal(t, dto.RemainingWorkPoint{Month: "2024-01", Created: 3, Completed: 0, Remaining: 3}, trend[0])
	assert.Equal(t, dto.RemainingWorkPoint{Month: "2024-02", Created: 0, Completed: 0, Remaining: 3}, trend[1])
	assert.Equal(t, dto.RemainingWorkPoint{Month: "2024-03", Created: 0, Completed: 2, Remaining: 1}, trend[2])
}

func TestBuildRemainingTrendEmpty(t *testing.T) {
	trend := buildRemainingTrend(nil, nil)
	assert.NotNil(t, trend)
	assert.Empty(t, trend)
}

func TestMonthRange(t *testing.T) {
	months, err := monthRange("2023-11", "2024-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"2023-11", "2023-12", "2024-01", "2024-02"}, months)

	months, err = monthRange("2024-05", "2024-05")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-05"}, months)
}

func TestSortPriorities(t *testing.T) {
	priorities := []string{"low", "custom", "urgent", "medium", "high"}
	sortPriorities(priorities)
	assert.Equal(t, []string{"urgent", "high", "medium", "low", "custom"}, priorities)
}

func TestSortStatuses(t *testing.T) {
	statuses := []string{"completed", "todo", "review", "in-progress"}
	sortStatuses(statuses)
	assert.Equal(t, []string{"todo", "in-progress", "completed", "review"}, statuses)
}

func TestStatusColorFallback(t *testing.T) {
	assert.NotEmpty(t, statusColor(types.StatusTodo))
	assert.Equal(t, "#64748b", statusColor("unknown"))
}

func TestPaletteColorCycles(t *testing.T) {
	assert.Equal(t, paletteColor(0), paletteColor(len(assetClassPalette)))
}

func TestNormalizeTaskDataTerminal(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	data := NormalizeTaskData(types.TaskData{"status": "completed"}, now)
	assert.Equal(t, "2024-03-15T12:00:00Z", data.String("completionDate", ""))

	// присланная клиентом дата сохраняется в каноническом виде
	data = NormalizeTaskData(types.TaskData{"status": "done", "completionDate": "2024-01-01"}, now)
	assert.Equal(t, "2024-01-01T00:00:00Z", data.String("completionDate", ""))

	data = NormalizeTaskData(types.TaskData{"status": "in-progress", "completionDate": "2024-01-01"}, now)
	assert.Equal(t, "", data.String("completionDate", ""))

	data = NormalizeTaskData(nil, now)
	assert.NotNil(t, data)
	_, ok := data["completionDate"]
	assert.False(t, ok)
}

func TestNormalizeTaskDataBadCompletionDate(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	// нечитаемая дата завершения заменяется текущей
	data := NormalizeTaskData(types.TaskData{"status": "done", "completionDate": "not-a-date"}, now)
	assert.Equal(t, "2024-03-15T12:00:00Z", data.String("completionDate", ""))

	// нестроковое значение тоже
	data = NormalizeTaskData(types.TaskData{"status": "completed", "completionDate": 42}, now)
	assert.Equal(t, "2024-03-15T12:00:00Z", data.String("completionDate", ""))
}
