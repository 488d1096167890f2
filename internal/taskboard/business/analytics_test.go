// Интеграционные тесты аналитики. Требуют PostgreSQL: адрес берется из
// DATABASE_URL, без него тесты пропускаются.
package business

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/apierrors"
	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/dao"
	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/dto"
	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/types"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			fmt.Println("db connection error:", err)
			os.Exit(1)
		}
		if err := db.AutoMigrate(
			&dao.User{},
			&dao.Workspace{},
			&dao.WorkspaceMember{},
			&dao.Task{},
			&dao.FieldConfig{},
		); err != nil {
			fmt.Println("migration error:", err)
			os.Exit(1)
		}
		testDB = db
	}
	os.Exit(m.Run())
}

func requireDB(t *testing.T) *Business {
	t.Helper()
	if testDB == nil {
		t.Skip("DATABASE_URL not set")
	}
	return NewBL(testDB)
}

func createTestWorkspace(t *testing.T) *dao.Workspace {
	t.Helper()

	user := dao.User{
		ID:       dao.GenUUID(),
		Email:    fmt.Sprintf("%s@test.local", dao.GenID()),
		Password: dao.HashPassword("test"),
	}
	require.NoError(t, testDB.Create(&user).Error)

	workspace := dao.Workspace{
		ID:          dao.GenUUID(),
		Name:        "Analytics test",
		Slug:        fmt.Sprintf("an-%s", dao.GenID()[:8]),
		CreatedById: user.ID,
		OwnerId:     user.ID,
	}
	require.NoError(t, testDB.Create(&workspace).Error)

	t.Cleanup(func() {
		testDB.Unscoped().Where("workspace_id = ?", workspace.ID).Delete(&dao.Task{})
		testDB.Unscoped().Where("workspace_id = ?", workspace.ID).Delete(&dao.FieldConfig{})
		testDB.Unscoped().Delete(&workspace)
		testDB.Unscoped().Delete(&user)
	})
	return &workspace
}

func createTestTask(t *testing.T, workspace *dao.Workspace, createdAt time.Time, data types.TaskData) dao.Task {
	t.Helper()
	task := dao.Task{Data: data}
	require.NoError(t, dao.CreateTask(testDB, workspace, &task))
	require.NoError(t, testDB.Model(&dao.Task{}).
		Where("id = ?", task.ID).
		Update("created_at", createdAt).Error)
	return task
}

func TestGetAnalyticsEmptyWorkspaceId(t *testing.T) {
	b := NewBL(nil)
	_, err := b.GetAnalytics(uuid.Nil, dto.AnalyticsFilters{})
	assert.ErrorIs(t, err, apierrors.ErrWorkspaceIdRequired)
}

func TestGetAnalyticsEmptyWorkspace(t *testing.T) {
	b := requireDB(t)
	workspace := createTestWorkspace(t)

	data, err := b.GetAnalytics(workspace.ID, dto.AnalyticsFilters{})
	require.NoError(t, err)

	// канонический пустой срез: нигде не nil
	assert.NotNil(t, data.StatusCounts)
	assert.Empty(t, data.StatusCounts)
	assert.NotNil(t, data.ThroughputOverTime)
	assert.NotNil(t, data.CycleTime)
	assert.NotNil(t, data.HoursSavedWorked)
	assert.NotNil(t, data.RemainingWorkTrend)
	assert.NotNil(t, data.ToolsUsed)
	assert.NotNil(t, data.AssetClasses)
	assert.NotNil(t, data.OwnerProductivity)
	assert.NotNil(t, data.TeamsWorkload)
	assert.NotNil(t, data.AssetClassDistribution)
	assert.NotNil(t, data.PriorityAging)
	assert.NotNil(t, data.HoursEfficiency)
	assert.NotNil(t, data.Owners)
	assert.NotNil(t, data.Teams)
	assert.NotNil(t, data.Priorities)
	assert.NotNil(t, data.Statuses)
	assert.Equal(t, dto.KPISummary{}, data.KPISummary)
}

func TestGetAnalyticsKPISummary(t *testing.T) {
	b := requireDB(t)
	workspace := createTestWorkspace(t)

	createTestTask(t, workspace,
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		types.TaskData{
			"status":         "completed",
			"completionDate": "2024-03-15T00:00:00Z",
			"savedHrs":       10,
			"workedHrs":      5,
		})

	data, err := b.GetAnalytics(workspace.ID, dto.AnalyticsFilters{})
	require.NoError(t, err)

	assert.Equal(t, 1, data.KPISummary.TotalTasks)
	assert.Equal(t, 0, data.KPISummary.OpenTasks)
	assert.InDelta(t, 14, data.KPISummary.AvgCycleDays, 0.01)
	assert.InDelta(t, 10, data.KPISummary.TotalHoursSaved, 0.001)

	require.Len(t, data.ThroughputOverTime, 1)
	assert.Equal(t, 1, data.ThroughputOverTime[0].Count)
	assert.InDelta(t, 10, data.ThroughputOverTime[0].HoursSaved, 0.001)

	require.Len(t, data.HoursSavedWorked, 1)
	assert.Equal(t, "2024-03", data.HoursSavedWorked[0].Month)
	assert.InDelta(t, 5, data.HoursSavedWorked[0].Net, 0.001)
}

func TestGetAnalyticsTenantIsolation(t *testing.T) {
	b := requireDB(t)
	first := createTestWorkspace(t)
	second := createTestWorkspace(t)

	createTestTask(t, first, time.Now(), types.TaskData{"status": "todo"})

	data, err := b.GetAnalytics(second.ID, dto.AnalyticsFilters{})
	require.NoError(t, err)
	assert.Equal(t, 0, data.KPISummary.TotalTasks)
	assert.Empty(t, data.StatusCounts)
}

func TestGetAnalyticsFilters(t *testing.T) {
	b := requireDB(t)
	workspace := createTestWorkspace(t)
	now := time.Now()

	createTestTask(t, workspace, now, types.TaskData{"status": "todo", "priority": "high", "assetClass": "Equities"})
	createTestTask(t, workspace, now, types.TaskData{"status": "in-progress", "priority": "low", "assetClass": "FX"})
	createTestTask(t, workspace, now, types.TaskData{"status": "blocked", "priority": "urgent"})
	createTestTask(t, workspace, now, types.TaskData{"priority": "medium"})

	// фильтр с несколькими значениями работает как ИЛИ
	data, err := b.GetAnalytics(workspace.ID, dto.AnalyticsFilters{
		Status: []string{"todo", "in-progress"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, data.KPISummary.TotalTasks)

	// сентинел "All" эквивалентен отсутствию фильтра
	unfiltered, err := b.GetAnalytics(workspace.ID, dto.AnalyticsFilters{})
	require.NoError(t, err)
	allSentinel, err := b.GetAnalytics(workspace.ID, dto.AnalyticsFilters{AssetClass: []string{"All"}})
	require.NoError(t, err)
	assert.Equal(t, unfiltered.KPISummary, allSentinel.KPISummary)
	assert.Equal(t, 4, unfiltered.KPISummary.TotalTasks)

	// класс актива сопоставляется без учета регистра
	data, err = b.GetAnalytics(workspace.ID, dto.AnalyticsFilters{AssetClass: []string{"EQUITIES"}})
	require.NoError(t, err)
	assert.Equal(t, 1, data.KPISummary.TotalTasks)

	// сумма по статусам равна общему числу задач,
	// отсутствующий статус считается todo
	var statusTotal int
	todoCount := 0
	for _, sc := range unfiltered.StatusCounts {
		statusTotal += sc.Count
		if sc.Status == types.StatusTodo {
			todoCount = sc.Count
		}
	}
	assert.Equal(t, unfiltered.KPISummary.TotalTasks, statusTotal)
	assert.Equal(t, 2, todoCount)

	assert.Equal(t, []string{"urgent", "high", "medium", "low"}, unfiltered.Priorities)
}

func TestGetAnalyticsOwnerIndirection(t *testing.T) {
	b := requireDB(t)
	workspace := createTestWorkspace(t)
	now := time.Now()

	createTestTask(t, workspace, now, types.TaskData{"owner": "alice", "assignee": "bob"})
	createTestTask(t, workspace, now, types.TaskData{"owner": "carol", "assignee": "bob"})

	data, err := b.GetAnalytics(workspace.ID, dto.AnalyticsFilters{})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "carol"}, data.Owners)

	data, err = b.GetAnalytics(workspace.ID, dto.AnalyticsFilters{OwnerCellKey: "assignee"})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, data.Owners)

	data, err = b.GetAnalytics(workspace.ID, dto.AnalyticsFilters{
		OwnerCellKey: "assignee",
		Assignee:     []string{"bob"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, data.KPISummary.TotalTasks)

	_, err = b.GetAnalytics(workspace.ID, dto.AnalyticsFilters{OwnerCellKey: "no_such_field"})
	assert.ErrorIs(t, err, apierrors.ErrUnknownOwnerField)
}

func TestGetAnalyticsCompletionDateRequired(t *testing.T) {
	b := requireDB(t)
	workspace := createTestWorkspace(t)
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	// терминальный статус без даты завершения
	createTestTask(t, workspace, created, types.TaskData{
		"status":   "completed",
		"savedHrs": 7,
	})
	createTestTask(t, workspace, created, types.TaskData{
		"status":         "completed",
		"completionDate": "2024-05-10T00:00:00Z",
		"savedHrs":       3,
		"workedHrs":      1,
	})

	data, err := b.GetAnalytics(workspace.ID, dto.AnalyticsFilters{})
	require.NoError(t, err)

	// метрики по дате завершения видят только вторую задачу
	require.Len(t, data.ThroughputOverTime, 1)
	assert.Equal(t, 1, data.ThroughputOverTime[0].Count)
	assert.InDelta(t, 3, data.ThroughputOverTime[0].HoursSaved, 0.001)

	require.Len(t, data.CycleTime, 1)
	assert.InDelta(t, 9, data.CycleTime[0].AvgCycleDays, 0.01)

	require.Len(t, data.HoursSavedWorked, 1)
	assert.Equal(t, "2024-05", data.HoursSavedWorked[0].Month)
	assert.InDelta(t, 3, data.HoursSavedWorked[0].Saved, 0.001)

	// в общих счетчиках присутствуют обе
	assert.Equal(t, 2, data.KPISummary.TotalTasks)
	assert.Equal(t, 0, data.KPISummary.OpenTasks)
}

func TestGetAnalyticsOwnerProductivity(t *testing.T) {
	b := requireDB(t)
	workspace := createTestWorkspace(t)
	created := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	completion := "2024-04-05T00:00:00Z"

	createTestTask(t, workspace, created, types.TaskData{
		"status": "done", "completionDate": completion,
		"owner": "alice", "assignee": "bob", "savedHrs": 4,
	})
	createTestTask(t, workspace, created, types.TaskData{
		"status": "done", "completionDate": completion,
		"owner": "alice", "assignee": "dave", "savedHrs": 2,
	})
	createTestTask(t, workspace, created, types.TaskData{
		"status": "done", "completionDate": completion,
		"owner": "carol", "assignee": "bob",
	})
	// открытая задача в топ не попадает
	createTestTask(t, workspace, created, types.TaskData{"owner": "alice"})

	data, err := b.GetAnalytics(workspace.ID, dto.AnalyticsFilters{})
	require.NoError(t, err)

	require.Len(t, data.OwnerProductivity, 2)
	assert.Equal(t, "alice", data.OwnerProductivity[0].Owner)
	assert.Equal(t, 2, data.OwnerProductivity[0].CompletedTasks)
	assert.InDelta(t, 6, data.OwnerProductivity[0].TotalHoursSaved, 0.001)
	assert.InDelta(t, 4, data.OwnerProductivity[0].AvgCycleDays, 0.01)
	assert.Equal(t, "carol", data.OwnerProductivity[1].Owner)

	// группировка переключается на запрошенный ключ владельца
	data, err = b.GetAnalytics(workspace.ID, dto.AnalyticsFilters{OwnerCellKey: "assignee"})
	require.NoError(t, err)

	require.Len(t, data.OwnerProductivity, 2)
	assert.Equal(t, "bob", data.OwnerProductivity[0].Owner)
	assert.Equal(t, 2, data.OwnerProductivity[0].CompletedTasks)
	assert.Equal(t, "dave", data.OwnerProductivity[1].Owner)
}

func TestGetAnalyticsPriorityAging(t *testing.T) {
	b := requireDB(t)
	workspace := createTestWorkspace(t)
	now := time.Now()

	createTestTask(t, workspace, now.AddDate(0, 0, -1), types.TaskData{"priority": "high"})
	createTestTask(t, workspace, now.AddDate(0, 0, -10), types.TaskData{"priority": "high"})
	createTestTask(t, workspace, now.AddDate(0, 0, -30), types.TaskData{"priority": "low"})
	// закрытая задача не стареет
	createTestTask(t, workspace, now.AddDate(0, 0, -30), types.TaskData{
		"priority":       "low",
		"status":         "done",
		"completionDate": now.Format(time.RFC3339),
	})

	data, err := b.GetAnalytics(workspace.ID, dto.AnalyticsFilters{})
	require.NoError(t, err)

	require.Len(t, data.PriorityAging, 2)
	assert.Equal(t, "high", data.PriorityAging[0].Priority)
	assert.Equal(t, 1, data.PriorityAging[0].UpTo3Days)
	assert.Equal(t, 1, data.PriorityAging[0].UpTo14Days)
	assert.Equal(t, "low", data.PriorityAging[1].Priority)
	assert.Equal(t, 1, data.PriorityAging[1].Over14Days)
}
