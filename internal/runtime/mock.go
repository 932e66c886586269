package runtime

import (
	"context"
	"fmt"
	"math/rand/v2" // Используем v2 для Go 1.25
	"time"

	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/domain"
)

// ExecutionProvider — callback агентского рантайма: шлюз дергает его
// на исходах EXECUTED и APPROVED. Сам рантайм вне скоупа сервиса.
type ExecutionProvider interface {
	Execute(ctx context.Context, task *domain.TaskRequest) ([]byte, error)
}

// MockRuntime имитирует агентский рантайм для локальной разработки и демо.
type MockRuntime struct{}

func (m *MockRuntime) Execute(ctx context.Context, task *domain.TaskRequest) ([]byte, error) {
	// Имитируем задержку 50-300мс
	latency := time.Duration(50+rand.IntN(250)) * time.Millisecond

	select {
	case <-time.After(latency):
		// Имитация работы
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	switch task.Action {
	case domain.ActionCreateTask:
		return []byte(`{"status": "created", "board": "kanban", "task_id": "T-1042"}`), nil
	case domain.ActionSendOutreach:
		return []byte(`{"status": "sent", "channel": "email", "recipients": 1}`), nil
	case domain.ActionExecuteWorkflow:
		return []byte(`{"status": "started", "workflow_run": "WF-339"}`), nil
	case domain.ActionPublishContent:
		return []byte(`{"status": "published", "surface": "dashboard"}`), nil
	default:
		return []byte(fmt.Sprintf(`{"status": "done", "action": %q}`, task.Action)), nil
	}
}
