// Чистые вспомогательные функции для построения графиков аналитики:
// цвета серий, скользящие средние, заполнение календарных месяцев.
package business

import (
	"fmt"
	"sort"
	"time"

	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/dto"
	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/types"
)

// Окно скользящего среднего времени цикла
const rollingWindowMonths = 3

var statusColors = map[string]string{
	types.StatusTodo:       "#94a3b8",
	types.StatusInProgress: "#3b82f6",
	types.StatusTesting:    "#f59e0b",
	types.StatusDone:       "#22c55e",
	types.StatusCompleted:  "#10b981",
	types.StatusBlocked:    "#ef4444",
}

// Фиксированная палитра секторов диаграммы классов активов.
// При большем числе классов цвета повторяются по кругу.
var assetClassPalette = []string{
	"#3b82f6",
	"#10b981",
	"#f59e0b",
	"#ef4444",
	"#8b5cf6",
	"#06b6d4",
	"#ec4899",
	"#84cc16",
}

var statusOrder = map[string]int{
	types.StatusTodo:       0,
	types.StatusInProgress: 1,
	types.StatusTesting:    2,
	types.StatusBlocked:    3,
	types.StatusDone:       4,
	types.StatusCompleted:  5,
}

var priorityOrder = map[string]int{
	types.PriorityUrgent: 0,
	types.PriorityHigh:   1,
	types.PriorityMedium: 2,
	types.PriorityLow:    3,
}

func statusColor(status string) string {
	if color, ok := statusColors[status]; ok {
		return color
	}
	return "#64748b"
}

func paletteColor(i int) string {
	return assetClassPalette[i%len(assetClassPalette)]
}

func priorityRank(priority string) int {
	if rank, ok := priorityOrder[priority]; ok {
		return rank
	}
	return len(priorityOrder)
}

func statusRank(status string) int {
	if rank, ok := statusOrder[status]; ok {
		return rank
	}
	return len(statusOrder)
}

// sortPriorities сортирует приоритеты по убыванию важности,
// неизвестные значения - в конец по алфавиту.
func sortPriorities(priorities []string) {
	sort.Slice(priorities, func(i, j int) bool {
		ri, rj := priorityRank(priorities[i]), priorityRank(priorities[j])
		if ri != rj {
			return ri < rj
		}
		return priorities[i] < priorities[j]
	})
}

// sortStatuses сортирует статусы в порядке колонок доски,
// неизвестные значения - в конец по алфавиту.
func sortStatuses(statuses []string) {
	sort.Slice(statuses, func(i, j int) bool {
		ri, rj := statusRank(statuses[i]), statusRank(statuses[j])
		if ri != rj {
			return ri < rj
		}
		return statuses[i] < statuses[j]
	})
}

// rollingAverages считает скользящее среднее по окну из текущего и до
// window-1 предыдущих значений. Короткое окно в начале серии усредняется
// по фактическому числу значений.
func rollingAverages(values []float64, window int) []float64 {
	result := make([]float64, len(values))
	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		var sum float64
		for _, v := range values[start : i+1] {
			sum += v
		}
		result[i] = sum / float64(i-start+1)
	}
	return result
}

// hoursEfficiency процент отработанных часов к плановым.
// При нулевом плане возвращает 0, а не ошибку деления.
func hoursEfficiency(worked, current float64) float64 {
	if current == 0 {
		return 0
	}
	return worked / current * 100
}

// buildRemainingTrend собирает непрерывную серию остатка работ из помесячных
// счетчиков созданных и завершенных задач. Остаток накапливается с начала
// серии и переносится через месяцы без активности.
func buildRemainingTrend(created, completed []monthCount) []dto.RemainingWorkPoint {
	createdBy := make(map[string]int, len(created))
	for _, m := range created {
		createdBy[m.Month] = m.Count
	}
	completedBy := make(map[string]int, len(completed))
	for _, m := range completed {
		completedBy[m.Month] = m.Count
	}

	first, last := monthBounds(created, completed)
	if first == "" {
		return []dto.RemainingWorkPoint{}
	}

	months, err := monthRange(first, last)
	if err != nil {
		return []dto.RemainingWorkPoint{}
	}

	trend := make([]dto.RemainingWorkPoint, 0, len(months))
	remaining := 0
	for _, month := range months {
		c := createdBy[month]
		d := completedBy[month]
		remaining += c - d
		trend = append(trend, dto.RemainingWorkPoint{
			Month:     month,
			Created:   c,
			Completed: d,
			Remaining: remaining,
		})
	}
	return trend
}

// monthBounds находит первый и последний месяц двух отсортированных серий.
func monthBounds(created, completed []monthCount) (first, last string) {
	take := func(m string) {
		if m == "" {
			return
		}
		if first == "" || m < first {
			first = m
		}
		if m > last {
			last = m
		}
	}
	if len(created) > 0 {
		take(created[0].Month)
		take(created[len(created)-1].Month)
	}
	if len(completed) > 0 {
		take(completed[0].Month)
		take(completed[len(completed)-1].Month)
	}
	return first, last
}

// monthRange перечисляет календарные месяцы от from до to включительно
// в формате YYYY-MM.
func monthRange(from, to string) ([]string, error) {
	start, err := time.Parse("2006-01", from)
	if err != nil {
		return nil, fmt.Errorf("parse month %q: %w", from, err)
	}
	end, err := time.Parse("2006-01", to)
	if err != nil {
		return nil, fmt.Errorf("parse month %q: %w", to, err)
	}

	var months []string
	for m := start; !m.After(end); m = m.AddDate(0, 1, 0) {
		months = append(months, m.Format("2006-01"))
	}
	return months, nil
}
