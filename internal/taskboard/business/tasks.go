package business

import (
	"time"

	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/dao"
	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/dto"
	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/types"
	"github.com/gofrs/uuid"
)

// NormalizeTaskData приводит документ задачи к согласованному виду перед
// сохранением. Дата завершения существует тогда и только тогда, когда
// задача в терминальном статусе: перевод в терминальный статус проставляет
// ее, если клиент не прислал свою, а возврат в работу стирает.
func NormalizeTaskData(data types.TaskData, now time.Time) types.TaskData {
	if data == nil {
		data = types.TaskData{}
	}

	status := data.String("status", types.DefaultStatus)
	if types.IsTerminalStatus(status) {
		// Дата хранится строго в RFC3339: агрегаты приводят ее к
		// timestamptz, нечитаемое значение ломало бы весь запрос.
		if t := data.Time("completionDate"); t != nil {
			data["completionDate"] = t.UTC().Format(time.RFC3339)
		} else {
			data["completionDate"] = now.UTC().Format(time.RFC3339)
		}
	} else {
		delete(data, "completionDate")
	}
	return data
}

// ListTasks возвращает страницу задач пространства под теми же фильтрами,
// что и аналитика.
func (b *Business) ListTasks(workspaceID uuid.UUID, filters dto.AnalyticsFilters, offset, limit int) (dao.PaginationResponse, error) {
	ownerKey, err := b.resolveOwnerKey(workspaceID, filters.OwnerCellKey)
	if err != nil {
		return dao.PaginationResponse{}, err
	}

	cf := compileTaskFilters(filters, ownerKey)
	query := cf.Apply(
		b.db.Where("tasks.workspace_id = ?", workspaceID),
	).Order("sequence_id")

	var tasks []dao.Task
	resp, err := dao.PaginationRequest(offset, limit, query, &tasks)
	if err != nil {
		return resp, err
	}

	result := make([]dto.Task, len(tasks))
	for i, task := range tasks {
		result[i] = *task.ToDTO()
	}
	resp.Result = result
	return resp, nil
}
