// Содержит бизнес-логику аналитики рабочего пространства - ядро приложения.
// Все метрики считаются независимыми агрегатными запросами на стороне БД
// и выполняются параллельно; результат собирается в единый срез AnalyticsData.
//
// Основные возможности:
//   - Распределение задач по статусам, приоритетам и классам активов.
//   - Пропускная способность и время цикла по месяцам со скользящим средним.
//   - Непрерывный тренд остатка работ.
//   - Продуктивность владельцев и нагрузка команд.
//   - Возраст открытых задач по приоритетам.
//   - Списки значений для фильтров интерфейса.
package business

import (
	"sort"
	"time"

	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/apierrors"
	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/dao"
	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/dto"
	"github.com/gofrs/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Серверные лимиты секций "топ N"
const (
	topOwnersLimit = 5
	topTeamsLimit  = 10
)

// SQL-выражения полей документа, общие для агрегатов. Завершенной считается
// задача в терминальном статусе с заполненной датой завершения: метрики
// времени цикла и пропускной способности молча исключают задачи,
// нарушающие этот инвариант.
const (
	completedCond     = statusExpr + " in ('completed', 'done')"
	openCond          = statusExpr + " not in ('completed', 'done')"
	completionPresent = "nullif(tasks.data->>'completionDate', '') is not null"
	completionExpr    = "(tasks.data->>'completionDate')::timestamptz"
	cycleDaysExpr     = "extract(epoch from " + completionExpr + " - tasks.created_at) / 86400"
	savedHrsExpr      = "coalesce((tasks.data->>'savedHrs')::numeric, 0)"
	workedHrsExpr     = "coalesce((tasks.data->>'workedHrs')::numeric, 0)"
	currentHrsExpr    = "coalesce((tasks.data->>'currentHrs')::numeric, 0)"
)

// GetAnalytics возвращает полный аналитический срез пространства под
// заданными фильтрами. Все агрегаты выполняются параллельно; ошибка любого
// из них отменяет весь запрос - частичный результат не возвращается.
//
// Параметры:
//   - workspaceID: UUID рабочего пространства
//   - filters: фильтры аналитики (все поля опциональны)
//
// Возвращает:
//   - *dto.AnalyticsData: аналитический срез; для пустого пространства -
//     канонический пустой ответ
//   - error: ошибка, если произошла при выполнении запросов
func (b *Business) GetAnalytics(workspaceID uuid.UUID, filters dto.AnalyticsFilters) (*dto.AnalyticsData, error) {
	if workspaceID == uuid.Nil {
		return nil, apierrors.ErrWorkspaceIdRequired
	}

	ownerKey, err := b.resolveOwnerKey(workspaceID, filters.OwnerCellKey)
	if err != nil {
		return nil, err
	}

	cf := compileTaskFilters(filters, ownerKey)
	data := dto.NewEmptyAnalyticsData()
	now := time.Now()

	// Агрегаты независимы и пишут в разные поля data
	var g errgroup.Group
	g.Go(func() error { return b.getStatusCounts(workspaceID, cf, data) })
	g.Go(func() error { return b.getThroughputOverTime(workspaceID, cf, data) })
	g.Go(func() error { return b.getCycleTime(workspaceID, cf, data) })
	g.Go(func() error { return b.getHoursSavedWorked(workspaceID, cf, data) })
	g.Go(func() error { return b.getRemainingWorkTrend(workspaceID, cf, data) })
	g.Go(func() error { return b.getToolsUsed(workspaceID, cf, data) })
	g.Go(func() error { return b.getAssetClasses(workspaceID, cf, data) })
	g.Go(func() error { return b.getOwnerProductivity(workspaceID, cf, ownerKey, data) })
	g.Go(func() error { return b.getTeamsWorkload(workspaceID, cf, data) })
	g.Go(func() error { return b.getAssetClassDistribution(workspaceID, cf, data) })
	g.Go(func() error { return b.getPriorityAging(workspaceID, cf, now, data) })
	g.Go(func() error { return b.getHoursEfficiency(workspaceID, cf, data) })
	g.Go(func() error { return b.getKPISummary(workspaceID, cf, data) })
	g.Go(func() error { return b.getOwnerOptions(workspaceID, cf, ownerKey, data) })
	g.Go(func() error { return b.getTeamOptions(workspaceID, cf, data) })
	g.Go(func() error { return b.getPriorityOptions(workspaceID, cf, data) })
	g.Go(func() error { return b.getStatusOptions(workspaceID, cf, data) })

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return data, nil
}

// taskQuery базовый запрос агрегата: задачи пространства под фильтрами.
// Каждый агрегат обязан начинаться с него - это единственная точка,
// где навешивается условие принадлежности пространству.
func (b *Business) taskQuery(workspaceID uuid.UUID, cf compiledFilters) *gorm.DB {
	return cf.Apply(
		b.db.Model(&dao.Task{}).Where("tasks.workspace_id = ?", workspaceID),
	)
}

// getStatusCounts получает распределение задач по статусам.
// Статусы без задач не попадают в результат.
func (b *Business) getStatusCounts(workspaceID uuid.UUID, cf compiledFilters, data *dto.AnalyticsData) error {
	var result []struct {
		Status string
		Count  int
	}

	err := b.taskQuery(workspaceID, cf).
		Select(statusExpr + " as status, count(*) as count").
		Group("status").
		Order("count desc, status").
		Scan(&result).Error
	if err != nil {
		return err
	}

	data.StatusCounts = make([]dto.StatusCount, len(result))
	for i, r := range result {
		data.StatusCounts[i] = dto.StatusCount{
			Status: r.Status,
			Count:  r.Count,
			Color:  statusColor(r.Status),
		}
	}
	return nil
}

// getThroughputOverTime получает завершенные задачи по месяцам завершения.
func (b *Business) getThroughputOverTime(workspaceID uuid.UUID, cf compiledFilters, data *dto.AnalyticsData) error {
	var result []struct {
		Date       time.Time
		HoursSaved float64
		Count      int
	}

	err := b.taskQuery(workspaceID, cf).
		Select("date_trunc('month', "+completionExpr+") as date, sum("+savedHrsExpr+") as hours_saved, count(*) as count").
		Where(completedCond).
		Where(completionPresent).
		Group("date").
		Order("date").
		Scan(&result).Error
	if err != nil {
		return err
	}

	data.ThroughputOverTime = make([]dto.ThroughputPoint, len(result))
	for i, r := range result {
		data.ThroughputOverTime[i] = dto.ThroughputPoint{
			Date:       r.Date,
			HoursSaved: r.HoursSaved,
			Count:      r.Count,
		}
	}
	return nil
}

// getCycleTime получает среднее время цикла по месяцам завершения и
// считает скользящее среднее по окну из текущего и до двух предыдущих
// месяцев. В начале серии окно короче - нулями не дополняется.
func (b *Business) getCycleTime(workspaceID uuid.UUID, cf compiledFilters, data *dto.AnalyticsData) error {
	var result []struct {
		Month        string
		AvgCycleDays float64
	}

	err := b.taskQuery(workspaceID, cf).
		Select("TO_CHAR("+completionExpr+", 'YYYY-MM') as month, avg("+cycleDaysExpr+") as avg_cycle_days").
		Where(completedCond).
		Where(completionPresent).
		Group("month").
		Order("month").
		Scan(&result).Error
	if err != nil {
		return err
	}

	averages := make([]float64, len(result))
	for i, r := range result {
		averages[i] = r.AvgCycleDays
	}
	rolling := rollingAverages(averages, rollingWindowMonths)

	data.CycleTime = make([]dto.CycleTimePoint, len(result))
	for i, r := range result {
		data.CycleTime[i] = dto.CycleTimePoint{
			Month:          r.Month,
			AvgCycleDays:   r.AvgCycleDays,
			RollingAvgDays: rolling[i],
		}
	}
	return nil
}

// getHoursSavedWorked получает баланс сэкономленных и отработанных часов
// по месяцам завершения.
func (b *Business) getHoursSavedWorked(workspaceID uuid.UUID, cf compiledFilters, data *dto.AnalyticsData) error {
	var result []struct {
		Month  string
		Worked float64
		Saved  float64
	}

	err := b.taskQuery(workspaceID, cf).
		Select("TO_CHAR("+completionExpr+", 'YYYY-MM') as month, sum("+workedHrsExpr+") as worked, sum("+savedHrsExpr+") as saved").
		Where(completedCond).
		Where(completionPresent).
		Group("month").
		Order("month").
		Scan(&result).Error
	if err != nil {
		return err
	}

	data.HoursSavedWorked = make([]dto.HoursSavedWorkedPoint, len(result))
	for i, r := range result {
		data.HoursSavedWorked[i] = dto.HoursSavedWorkedPoint{
			Month:  r.Month,
			Worked: r.Worked,
			Saved:  r.Saved,
			Net:    r.Saved - r.Worked,
		}
	}
	return nil
}

// getRemainingWorkTrend получает накопленный остаток работ по календарным
// месяцам. Серия непрерывна от первого месяца активности до последнего:
// месяцы без созданных и завершенных задач получают точку с переносом
// остатка, иначе график исказит тренд бэклога.
func (b *Business) getRemainingWorkTrend(workspaceID uuid.UUID, cf compiledFilters, data *dto.AnalyticsData) error {
	var createdByMonth []monthCount
	err := b.taskQuery(workspaceID, cf).
		Select("TO_CHAR(tasks.created_at, 'YYYY-MM') as month, count(*) as count").
		Group("month").
		Order("month").
		Scan(&createdByMonth).Error
	if err != nil {
		return err
	}

	var completedByMonth []monthCount
	err = b.taskQuery(workspaceID, cf).
		Select("TO_CHAR("+completionExpr+", 'YYYY-MM') as month, count(*) as count").
		Where(completedCond).
		Where(completionPresent).
		Group("month").
		Order("month").
		Scan(&completedByMonth).Error
	if err != nil {
		return err
	}

	data.RemainingWorkTrend = buildRemainingTrend(createdByMonth, completedByMonth)
	return nil
}

// getToolsUsed получает частоту использования инструментов. Массив tools
// разворачивается по одному элементу на строку, сравнение элементов - без
// учета регистра.
func (b *Business) getToolsUsed(workspaceID uuid.UUID, cf compiledFilters, data *dto.AnalyticsData) error {
	var result []struct {
		Tool  string
		Count int
	}

	err := b.taskQuery(workspaceID, cf).
		Select("lower(tool.value) as tool, count(*) as count").
		Joins("cross join lateral jsonb_array_elements_text(coalesce(tasks.data->'tools', '[]'::jsonb)) as tool(value)").
		Group("tool").
		Order("count desc, tool").
		Scan(&result).Error
	if err != nil {
		return err
	}

	data.ToolsUsed = make([]dto.ToolCount, len(result))
	for i, r := range result {
		data.ToolsUsed[i] = dto.ToolCount{Tool: r.Tool, Count: r.Count}
	}
	return nil
}

// getAssetClasses получает отсортированный список классов активов
// для выпадающего списка фильтра.
func (b *Business) getAssetClasses(workspaceID uuid.UUID, cf compiledFilters, data *dto.AnalyticsData) error {
	var result []struct {
		AssetClass string
	}

	err := b.taskQuery(workspaceID, cf).
		Select("distinct lower(tasks.data->>'assetClass') as asset_class").
		Where("nullif(tasks.data->>'assetClass', '') is not null").
		Order("asset_class").
		Scan(&result).Error
	if err != nil {
		return err
	}

	data.AssetClasses = make([]string, len(result))
	for i, r := range result {
		data.AssetClasses[i] = r.AssetClass
	}
	return nil
}

// getOwnerProductivity получает топ-5 владельцев по завершенным задачам.
// Ключ поля владельца настраивается и передается только параметром запроса.
func (b *Business) getOwnerProductivity(workspaceID uuid.UUID, cf compiledFilters, ownerKey string, data *dto.AnalyticsData) error {
	var result []struct {
		Owner           string
		CompletedTasks  int
		AvgCycleDays    float64
		TotalHoursSaved float64
	}

	err := b.taskQuery(workspaceID, cf).
		Select("tasks.data->>? as owner, count(*) as completed_tasks, avg("+cycleDaysExpr+") as avg_cycle_days, sum("+savedHrsExpr+") as total_hours_saved", ownerKey).
		Where(completedCond).
		Where(completionPresent).
		Where("nullif(tasks.data->>?, '') is not null", ownerKey).
		Group("owner").
		Order("completed_tasks desc, owner").
		Limit(topOwnersLimit).
		Scan(&result).Error
	if err != nil {
		return err
	}

	data.OwnerProductivity = make([]dto.OwnerProductivityItem, len(result))
	for i, r := range result {
		data.OwnerProductivity[i] = dto.OwnerProductivityItem{
			Owner:           r.Owner,
			CompletedTasks:  r.CompletedTasks,
			AvgCycleDays:    r.AvgCycleDays,
			TotalHoursSaved: r.TotalHoursSaved,
		}
	}
	return nil
}

// getTeamsWorkload получает топ-10 команд по количеству задач.
func (b *Business) getTeamsWorkload(workspaceID uuid.UUID, cf compiledFilters, data *dto.AnalyticsData) error {
	var result []struct {
		Team  string
		Count int
	}

	err := b.taskQuery(workspaceID, cf).
		Select("lower(tasks.data->>'teamName') as team, count(*) as count").
		Where("nullif(tasks.data->>'teamName', '') is not null").
		Group("team").
		Order("count desc, team").
		Limit(topTeamsLimit).
		Scan(&result).Error
	if err != nil {
		return err
	}

	data.TeamsWorkload = make([]dto.TeamWorkloadItem, len(result))
	for i, r := range result {
		data.TeamsWorkload[i] = dto.TeamWorkloadItem{Team: r.Team, Count: r.Count}
	}
	return nil
}

// getAssetClassDistribution получает распределение задач по классам активов.
// Задачи без класса попадают в "Unassigned". Цвета секторов идут по кругу
// фиксированной палитры.
func (b *Business) getAssetClassDistribution(workspaceID uuid.UUID, cf compiledFilters, data *dto.AnalyticsData) error {
	var result []struct {
		AssetClass string
		Count      int
	}

	err := b.taskQuery(workspaceID, cf).
		Select("case when coalesce(tasks.data->>'assetClass', '') = '' then 'Unassigned' else lower(tasks.data->>'assetClass') end as asset_class, count(*) as count").
		Group("asset_class").
		Order("count desc, asset_class").
		Scan(&result).Error
	if err != nil {
		return err
	}

	data.AssetClassDistribution = make([]dto.AssetClassSlice, len(result))
	for i, r := range result {
		data.AssetClassDistribution[i] = dto.AssetClassSlice{
			AssetClass: r.AssetClass,
			Count:      r.Count,
			Fill:       paletteColor(i),
		}
	}
	return nil
}

// getPriorityAging получает распределение открытых задач по возрастным
// корзинам для каждого приоритета. Возраст считается от переданного now,
// закрытые задачи исключаются.
func (b *Business) getPriorityAging(workspaceID uuid.UUID, cf compiledFilters, now time.Time, data *dto.AnalyticsData) error {
	type agingRow struct {
		Priority   string
		UpTo3Days  int
		UpTo7Days  int
		UpTo14Days int
		Over14Days int
	}
	var result []agingRow

	err := b.taskQuery(workspaceID, cf).
		Select(priorityExpr+` as priority,
			sum(case when tasks.created_at >= ? - interval '3 days' then 1 else 0 end) as up_to3_days,
			sum(case when tasks.created_at < ? - interval '3 days' and tasks.created_at >= ? - interval '7 days' then 1 else 0 end) as up_to7_days,
			sum(case when tasks.created_at < ? - interval '7 days' and tasks.created_at >= ? - interval '14 days' then 1 else 0 end) as up_to14_days,
			sum(case when tasks.created_at < ? - interval '14 days' then 1 else 0 end) as over14_days`,
			now, now, now, now, now, now).
		Where(openCond).
		Group("priority").
		Scan(&result).Error
	if err != nil {
		return err
	}

	sort.Slice(result, func(i, j int) bool {
		return priorityRank(result[i].Priority) < priorityRank(result[j].Priority)
	})

	data.PriorityAging = make([]dto.PriorityAgingRow, len(result))
	for i, r := range result {
		data.PriorityAging[i] = dto.PriorityAgingRow{
			Priority:   r.Priority,
			UpTo3Days:  r.UpTo3Days,
			UpTo7Days:  r.UpTo7Days,
			UpTo14Days: r.UpTo14Days,
			Over14Days: r.Over14Days,
		}
	}
	return nil
}

// getHoursEfficiency получает эффективность по часам по месяцам завершения.
// Учитываются все задачи с датой завершения независимо от статуса.
func (b *Business) getHoursEfficiency(workspaceID uuid.UUID, cf compiledFilters, data *dto.AnalyticsData) error {
	var result []struct {
		Month      string
		CurrentHrs float64
		WorkedHrs  float64
	}

	err := b.taskQuery(workspaceID, cf).
		Select("TO_CHAR("+completionExpr+", 'YYYY-MM') as month, sum("+currentHrsExpr+") as current_hrs, sum("+workedHrsExpr+") as worked_hrs").
		Where(completionPresent).
		Group("month").
		Order("month").
		Scan(&result).Error
	if err != nil {
		return err
	}

	data.HoursEfficiency = make([]dto.HoursEfficiencyPoint, len(result))
	for i, r := range result {
		data.HoursEfficiency[i] = dto.HoursEfficiencyPoint{
			Month:      r.Month,
			CurrentHrs: r.CurrentHrs,
			WorkedHrs:  r.WorkedHrs,
			Efficiency: hoursEfficiency(r.WorkedHrs, r.CurrentHrs),
		}
	}
	return nil
}

// getKPISummary получает сводные показатели одним запросом.
func (b *Business) getKPISummary(workspaceID uuid.UUID, cf compiledFilters, data *dto.AnalyticsData) error {
	var result struct {
		TotalTasks      int
		OpenTasks       *int
		AvgCycleDays    *float64
		TotalHoursSaved *float64
	}

	err := b.taskQuery(workspaceID, cf).
		Select(`count(*) as total_tasks,
			sum(case when ` + openCond + ` then 1 else 0 end) as open_tasks,
			avg(case when ` + completedCond + ` and ` + completionPresent + ` then ` + cycleDaysExpr + ` end) as avg_cycle_days,
			sum(` + savedHrsExpr + `) as total_hours_saved`).
		Scan(&result).Error
	if err != nil {
		return err
	}

	data.KPISummary = dto.KPISummary{TotalTasks: result.TotalTasks}
	if result.OpenTasks != nil {
		data.KPISummary.OpenTasks = *result.OpenTasks
	}
	if result.AvgCycleDays != nil {
		data.KPISummary.AvgCycleDays = *result.AvgCycleDays
	}
	if result.TotalHoursSaved != nil {
		data.KPISummary.TotalHoursSaved = *result.TotalHoursSaved
	}
	return nil
}

// getOwnerOptions получает список значений поля владельца для фильтра.
func (b *Business) getOwnerOptions(workspaceID uuid.UUID, cf compiledFilters, ownerKey string, data *dto.AnalyticsData) error {
	var result []struct {
		Owner string
	}

	err := b.taskQuery(workspaceID, cf).
		Select("distinct tasks.data->>? as owner", ownerKey).
		Where("nullif(tasks.data->>?, '') is not null", ownerKey).
		Order("owner").
		Scan(&result).Error
	if err != nil {
		return err
	}

	data.Owners = make([]string, len(result))
	for i, r := range result {
		data.Owners[i] = r.Owner
	}
	return nil
}

// getTeamOptions получает список команд для фильтра.
func (b *Business) getTeamOptions(workspaceID uuid.UUID, cf compiledFilters, data *dto.AnalyticsData) error {
	var result []struct {
		Team string
	}

	err := b.taskQuery(workspaceID, cf).
		Select("distinct lower(tasks.data->>'teamName') as team").
		Where("nullif(tasks.data->>'teamName', '') is not null").
		Order("team").
		Scan(&result).Error
	if err != nil {
		return err
	}

	data.Teams = make([]string, len(result))
	for i, r := range result {
		data.Teams[i] = r.Team
	}
	return nil
}

// getPriorityOptions получает список приоритетов для фильтра в порядке
// убывания важности.
func (b *Business) getPriorityOptions(workspaceID uuid.UUID, cf compiledFilters, data *dto.AnalyticsData) error {
	var result []struct {
		Priority string
	}

	err := b.taskQuery(workspaceID, cf).
		Select("distinct " + priorityExpr + " as priority").
		Scan(&result).Error
	if err != nil {
		return err
	}

	priorities := make([]string, len(result))
	for i, r := range result {
		priorities[i] = r.Priority
	}
	sortPriorities(priorities)
	data.Priorities = priorities
	return nil
}

// getStatusOptions получает список статусов для фильтра в каноническом
// порядке доски.
func (b *Business) getStatusOptions(workspaceID uuid.UUID, cf compiledFilters, data *dto.AnalyticsData) error {
	var result []struct {
		Status string
	}

	err := b.taskQuery(workspaceID, cf).
		Select("distinct " + statusExpr + " as status").
		Scan(&result).Error
	if err != nil {
		return err
	}

	statuses := make([]string, len(result))
	for i, r := range result {
		statuses[i] = r.Status
	}
	sortStatuses(statuses)
	data.Statuses = statuses
	return nil
}

type monthCount struct {
	Month string
	Count int
}
