// Планировщик фоновых задач обслуживания.
//
// Основные возможности:
//   - Регистрация задач с cron-расписанием.
//   - Запуск и остановка диспетчера с восстановлением после паники.
package cronmanager

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

type JobFunc func()

type Job struct {
	Func     JobFunc
	Schedule string
}

type JobRegistry map[string]Job

type CronManager struct {
	dispatcher *cron.Cron
	entries    map[string]cron.EntryID
	mu         sync.Mutex
	registry   JobRegistry
}

// NewCronManager создает планировщик по реестру задач.
// Задачи ставятся в расписание при вызове LoadJobs.
func NewCronManager(registry JobRegistry) *CronManager {
	return &CronManager{
		dispatcher: cron.New(
			cron.WithChain(cron.Recover(cron.DefaultLogger)),
		),
		entries:  make(map[string]cron.EntryID),
		registry: registry,
	}
}

// LoadJobs перечитывает реестр и пересобирает расписание.
// Ошибка одной задачи не мешает постановке остальных.
func (cm *CronManager) LoadJobs() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for name, entryID := range cm.entries {
		cm.dispatcher.Remove(entryID)
		delete(cm.entries, name)
	}

	for name, job := range cm.registry {
		id, err := cm.dispatcher.AddFunc(job.Schedule, job.Func)
		if err != nil {
			slog.Error("Error adding job", "name", name, "err", err)
			continue
		}
		cm.entries[name] = id
	}

	return nil
}

// RemoveJob снимает задачу с расписания по имени.
func (cm *CronManager) RemoveJob(name string) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	entryID, exists := cm.entries[name]
	if !exists {
		return fmt.Errorf("no job scheduled with name: %s", name)
	}
	cm.dispatcher.Remove(entryID)
	delete(cm.entries, name)
	return nil
}

func (cm *CronManager) Start() {
	cm.dispatcher.Start()
}

// Stop останавливает диспетчер и дожидается завершения запущенных задач.
func (cm *CronManager) Stop() {
	ctx := cm.dispatcher.Stop()
	<-ctx.Done()
}
