// Трансляция событий задач по вебсокету подписчикам рабочего пространства.
// Поддержание активных сессий и автоматическое закрытие неактивных.
//
// Основные возможности:
//   - Несколько активных сессий на каждое рабочее пространство.
//   - Рассылка событий создания, изменения и удаления задач в JSON.
//   - Пинг для поддержания активных соединений.
package notifications

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aisa-it/taskboard/taskboard.go/internal/taskboard/dto"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gofrs/uuid"
)

const (
	pingPeriod = time.Second * 20
	timeout    = time.Minute
)

const (
	EventTaskCreated = "task.created"
	EventTaskUpdated = "task.updated"
	EventTaskDeleted = "task.deleted"
)

type TaskEvent struct {
	Type string    `json:"type"`
	Task *dto.Task `json:"task"`
	At   time.Time `json:"at"`
}

// TaskEventService раздает события задач по вебсокет-сессиям,
// сгруппированным по идентификатору рабочего пространства.
type TaskEventService struct {
	sessions map[string]map[uuid.UUID]*websocket.Conn
	mutex    sync.RWMutex
}

func NewTaskEventService() *TaskEventService {
	return &TaskEventService{
		sessions: make(map[string]map[uuid.UUID]*websocket.Conn),
	}
}

func (tes *TaskEventService) Handle(workspaceId string, w http.ResponseWriter, req *http.Request) {
	c, err := websocket.Accept(w, req, &websocket.AcceptOptions{
		// TODO remove pattern "*"
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Open websocket connection", "err", err)
		return
	}
	defer c.CloseNow()

	conId := uuid.Must(uuid.NewV4())

	tes.mutex.Lock()
	cons, ok := tes.sessions[workspaceId]
	if !ok {
		cons = make(map[uuid.UUID]*websocket.Conn)
	}
	cons[conId] = c
	tes.sessions[workspaceId] = cons
	tes.mutex.Unlock()

	go tes.pingLoop(workspaceId, conId, c)

	// Start read until close
	ctx := context.Background()
	ctx = c.CloseRead(ctx)
	<-ctx.Done()

	tes.mutex.Lock()
	delete(tes.sessions[workspaceId], conId)
	if len(tes.sessions[workspaceId]) == 0 {
		delete(tes.sessions, workspaceId)
	}
	tes.mutex.Unlock()

	c.Close(websocket.StatusNormalClosure, "")
}

func (tes *TaskEventService) CloseWorkspaceSessions(workspaceId string) {
	tes.mutex.Lock()
	defer tes.mutex.Unlock()
	cons, ok := tes.sessions[workspaceId]
	if !ok {
		return
	}
	for _, con := range cons {
		con.Close(websocket.StatusNormalClosure, "workspace closed")
	}
}

// Broadcast отправляет событие всем сессиям пространства.
// Отсутствие подписчиков не является ошибкой.
func (tes *TaskEventService) Broadcast(workspaceId string, eventType string, task *dto.Task) {
	event := TaskEvent{
		Type: eventType,
		Task: task,
		At:   time.Now().UTC(),
	}

	tes.mutex.RLock()
	cons, ok := tes.sessions[workspaceId]
	tes.mutex.RUnlock()
	if !ok {
		return
	}
	for _, session := range cons {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		if err := wsjson.Write(ctx, session, event); err != nil {
			slog.Error("Write task event to websocket", "workspaceId", workspaceId, "err", err)
		}
		cancel()
	}
}

func (tes *TaskEventService) pingLoop(workspaceId string, sessionId uuid.UUID, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		err := conn.Ping(ctx)
		cancel()
		if err != nil {
			slog.Debug("Ping to websocket failed", "workspaceId", workspaceId, "err", err)
			tes.mutex.Lock()
			delete(tes.sessions[workspaceId], sessionId)
			if len(tes.sessions[workspaceId]) == 0 {
				delete(tes.sessions, workspaceId)
			}
			tes.mutex.Unlock()
			conn.Close(websocket.StatusNormalClosure, "Ping failed, connection closed")
			return
		}
	}
}
