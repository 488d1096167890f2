// Содержит структуры данных (DTO) для представления аналитики рабочего пространства.
// Используется для сериализации/десериализации данных в формате JSON.
//
// Основные возможности:
//   - Параметры фильтрации аналитических запросов.
//   - Готовые к отрисовке серии для графиков (статусы, производительность, тренды).
//   - Канонический пустой ответ для пространств без задач.
package dto

import (
	"time"

	"github.com/labstack/echo/v4"
)

// AnalyticsFilters представляет набор фильтров аналитического запроса.
// Каждое поле опционально; несколько значений одного поля объединяются по OR,
// разные поля — по AND.
type AnalyticsFilters struct {
	// Status фильтр по статусам задач
	Status []string `json:"status,omitempty"`

	// Priority фильтр по приоритетам
	Priority []string `json:"priority,omitempty"`

	// Assignee фильтр по значениям поля владельца (ключ поля задается OwnerCellKey)
	Assignee []string `json:"assignee,omitempty"`

	// Team фильтр по командам, сравнение без учета регистра
	Team []string `json:"team,omitempty"`

	// AssetClass фильтр по классам активов, сравнение без учета регистра.
	// Значение "All" — сентинел интерфейса, означает отсутствие фильтра.
	AssetClass []string `json:"asset_class,omitempty"`

	// DateFrom нижняя граница даты создания задачи (включительно)
	DateFrom *time.Time `json:"date_from,omitempty" extensions:"x-nullable"`

	// DateTo верхняя граница даты создания задачи (включительно)
	DateTo *time.Time `json:"date_to,omitempty" extensions:"x-nullable"`

	// OwnerCellKey ключ документа, хранящий владельца задачи. По умолчанию "owner"
	OwnerCellKey string `json:"owner_cell_key,omitempty"`
}

// FromHTTPQuery заполняет фильтры из query-параметров запроса.
// Даты принимаются в формате YYYY-MM-DD или RFC3339.
func (f *AnalyticsFilters) FromHTTPQuery(c echo.Context) error {
	var dateFrom, dateTo string
	if err := echo.QueryParamsBinder(c).
		Strings("status", &f.Status).
		Strings("priority", &f.Priority).
		Strings("assignee", &f.Assignee).
		Strings("team", &f.Team).
		Strings("asset_class", &f.AssetClass).
		String("date_from", &dateFrom).
		String("date_to", &dateTo).
		String("owner_cell_key", &f.OwnerCellKey).BindError(); err != nil {
		return err
	}

	if dateFrom != "" {
		t, err := parseFilterDate(dateFrom, false)
		if err != nil {
			return err
		}
		f.DateFrom = &t
	}

	if dateTo != "" {
		t, err := parseFilterDate(dateTo, true)
		if err != nil {
			return err
		}
		f.DateTo = &t
	}

	return nil
}

// parseFilterDate разбирает дату фильтра. Дата без времени в позиции
// верхней границы расширяется до конца суток, чтобы граница оставалась
// включительной.
func parseFilterDate(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// StatusCount количество задач в одном статусе.
type StatusCount struct {
	// Status значение статуса
	Status string `json:"status"`

	// Count количество задач
	Count int `json:"count"`

	// Color цвет статуса в HEX формате
	Color string `json:"color"`
}

// ThroughputPoint завершенные задачи за один месяц.
type ThroughputPoint struct {
	// Date начало месяца завершения
	Date time.Time `json:"date"`

	// HoursSaved сумма сэкономленных часов
	HoursSaved float64 `json:"hoursSaved"`

	// Count количество завершенных задач
	Count int `json:"count"`
}

// CycleTimePoint среднее время цикла за месяц.
type CycleTimePoint struct {
	// Month месяц завершения в формате "YYYY-MM"
	Month string `json:"month"`

	// AvgCycleDays средний цикл (создание - завершение) в днях
	AvgCycleDays float64 `json:"avgCycleDays"`

	// RollingAvgDays скользящее среднее за текущий и до двух предыдущих месяцев
	RollingAvgDays float64 `json:"rollingAvgDays"`
}

// HoursSavedWorkedPoint баланс часов за месяц.
type HoursSavedWorkedPoint struct {
	// Month месяц завершения в формате "YYYY-MM"
	Month string `json:"month"`

	// Worked сумма отработанных часов
	Worked float64 `json:"worked"`

	// Saved сумма сэкономленных часов
	Saved float64 `json:"saved"`

	// Net разница saved - worked
	Net float64 `json:"net"`
}

// RemainingWorkPoint размер бэклога на конец месяца.
// Серия непрерывна: месяцы без активности тоже присутствуют.
type RemainingWorkPoint struct {
	// Month календарный месяц в формате "YYYY-MM"
	Month string `json:"month"`

	// Created создано задач за месяц
	Created int `json:"created"`

	// Completed завершено задач за месяц
	Completed int `json:"completed"`

	// Remaining накопленный остаток created - completed
	Remaining int `json:"remaining"`
}

// ToolCount количество задач, использующих инструмент.
type ToolCount struct {
	// Tool название инструмента в нижнем регистре
	Tool string `json:"tool"`

	// Count количество задач
	Count int `json:"count"`
}

// OwnerProductivityItem продуктивность одного владельца.
type OwnerProductivityItem struct {
	// Owner значение поля владельца
	Owner string `json:"owner"`

	// CompletedTasks количество завершенных задач
	CompletedTasks int `json:"completedTasks"`

	// AvgCycleDays средний цикл завершенных задач в днях
	AvgCycleDays float64 `json:"avgCycleDays"`

	// TotalHoursSaved сумма сэкономленных часов
	TotalHoursSaved float64 `json:"totalHoursSaved"`
}

// TeamWorkloadItem нагрузка одной команды.
type TeamWorkloadItem struct {
	// Team название команды в нижнем регистре
	Team string `json:"team"`

	// Count количество задач
	Count int `json:"count"`
}

// AssetClassSlice сектор распределения по классам активов.
type AssetClassSlice struct {
	// AssetClass класс актива; "Unassigned" для задач без класса
	AssetClass string `json:"assetClass"`

	// Count количество задач
	Count int `json:"count"`

	// Fill цвет сектора из фиксированной палитры
	Fill string `json:"fill"`
}

// PriorityAgingRow распределение открытых задач одного приоритета
// по возрастным корзинам (дней с момента создания).
type PriorityAgingRow struct {
	// Priority приоритет задач
	Priority string `json:"priority"`

	// UpTo3Days задач возрастом до 3 дней включительно
	UpTo3Days int `json:"0-3"`

	// UpTo7Days задач возрастом от 3 до 7 дней
	UpTo7Days int `json:"3-7"`

	// UpTo14Days задач возрастом от 7 до 14 дней
	UpTo14Days int `json:"7-14"`

	// Over14Days задач возрастом старше 14 дней
	Over14Days int `json:"14+"`
}

// HoursEfficiencyPoint эффективность по часам за месяц.
type HoursEfficiencyPoint struct {
	// Month месяц завершения в формате "YYYY-MM"
	Month string `json:"month"`

	// CurrentHrs сумма текущих (плановых) часов
	CurrentHrs float64 `json:"currentHrs"`

	// WorkedHrs сумма отработанных часов
	WorkedHrs float64 `json:"workedHrs"`

	// Efficiency worked / current * 100; 0 при нулевых плановых часах
	Efficiency float64 `json:"efficiency"`
}

// KPISummary сводные показатели пространства.
type KPISummary struct {
	// TotalTasks общее количество задач
	TotalTasks int `json:"totalTasks"`

	// OpenTasks количество незакрытых задач
	OpenTasks int `json:"openTasks"`

	// AvgCycleDays средний цикл завершенных задач в днях
	AvgCycleDays float64 `json:"avgCycleDays"`

	// TotalHoursSaved сумма сэкономленных часов
	TotalHoursSaved float64 `json:"totalHoursSaved"`
}

// AnalyticsData полный аналитический срез рабочего пространства.
type AnalyticsData struct {
	// StatusCounts распределение по статусам
	StatusCounts []StatusCount `json:"statusCounts"`

	// ThroughputOverTime завершенные задачи по месяцам
	ThroughputOverTime []ThroughputPoint `json:"throughputOverTime"`

	// CycleTime среднее и скользящее время цикла по месяцам
	CycleTime []CycleTimePoint `json:"cycleTime"`

	// HoursSavedWorked баланс часов по месяцам
	HoursSavedWorked []HoursSavedWorkedPoint `json:"hoursSavedWorked"`

	// RemainingWorkTrend непрерывный тренд остатка работ
	RemainingWorkTrend []RemainingWorkPoint `json:"remainingWorkTrend"`

	// ToolsUsed инструменты по частоте использования
	ToolsUsed []ToolCount `json:"toolsUsed"`

	// AssetClasses отсортированный список классов активов для фильтра
	AssetClasses []string `json:"assetClasses"`

	// OwnerProductivity топ-5 владельцев по завершенным задачам
	OwnerProductivity []OwnerProductivityItem `json:"ownerProductivity"`

	// TeamsWorkload топ-10 команд по количеству задач
	TeamsWorkload []TeamWorkloadItem `json:"teamsWorkload"`

	// AssetClassDistribution распределение по классам активов
	AssetClassDistribution []AssetClassSlice `json:"assetClassDistribution"`

	// PriorityAging возраст открытых задач по приоритетам
	PriorityAging []PriorityAgingRow `json:"priorityAging"`

	// HoursEfficiency эффективность по часам по месяцам
	HoursEfficiency []HoursEfficiencyPoint `json:"hoursEfficiency"`

	// KPISummary сводные показатели
	KPISummary KPISummary `json:"kpiSummary"`

	// Owners список владельцев для фильтра
	Owners []string `json:"owners"`

	// Teams список команд для фильтра
	Teams []string `json:"teams"`

	// Priorities список приоритетов для фильтра (urgent > high > medium > low)
	Priorities []string `json:"priorities"`

	// Statuses список статусов для фильтра
	Statuses []string `json:"statuses"`
}

// NewEmptyAnalyticsData возвращает канонический пустой ответ: все массивы
// пустые (не nil), все показатели нулевые. Используется как каркас ответа
// и как единственное валидное представление пространства без задач.
func NewEmptyAnalyticsData() *AnalyticsData {
	return &AnalyticsData{
		StatusCounts:           []StatusCount{},
		ThroughputOverTime:     []ThroughputPoint{},
		CycleTime:              []CycleTimePoint{},
		HoursSavedWorked:       []HoursSavedWorkedPoint{},
		RemainingWorkTrend:     []RemainingWorkPoint{},
		ToolsUsed:              []ToolCount{},
		AssetClasses:           []string{},
		OwnerProductivity:      []OwnerProductivityItem{},
		TeamsWorkload:          []TeamWorkloadItem{},
		AssetClassDistribution: []AssetClassSlice{},
		PriorityAging:          []PriorityAgingRow{},
		HoursEfficiency:        []HoursEfficiencyPoint{},
		Owners:                 []string{},
		Teams:                  []string{},
		Priorities:             []string{},
		Statuses:               []string{},
	}
}

// AnalyticsResponse конверт ответа аналитики.
type AnalyticsResponse struct {
	// Success признак успешного выполнения
	Success bool `json:"success"`

	// Data аналитический срез, присутствует только при Success=true
	Data *AnalyticsData `json:"data,omitempty" extensions:"x-nullable"`

	// Error сообщение об ошибке, присутствует только при Success=false
	Error string `json:"error,omitempty"`
}
