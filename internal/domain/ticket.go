package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// Статусы State Machine тикета
type TicketStatus string

const (
	StatusPending  TicketStatus = "PENDING"
	StatusApproved TicketStatus = "APPROVED"
	StatusRejected TicketStatus = "REJECTED"
	StatusExpired  TicketStatus = "EXPIRED"
)

var (
	ErrInvalidTransition = errors.New("invalid ticket status transition")
	ErrAlreadyResolved   = errors.New("ticket already resolved")
	ErrTicketNotFound    = errors.New("ticket not found")
)

// TicketPriority — приоритет отображения в очереди ревью.
// Выводится из требуемого уровня риска, а не задается вручную.
type TicketPriority string

const (
	PriorityMedium   TicketPriority = "medium"
	PriorityHigh     TicketPriority = "high"
	PriorityCritical TicketPriority = "critical"
)

// PriorityForLevel маппит уровень риска в приоритет очереди.
func PriorityForLevel(level RequiredLevel) TicketPriority {
	switch level {
	case LevelMandatoryApproval:
		return PriorityCritical
	case LevelHumanReview:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// Comment — заметка ревьюера в треде тикета. Append-only:
// комментарии разрешены в любом статусе, включая уже закрытые тикеты
// (след для аудита), и никогда не удаляются.
type Comment struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// HITLTicket — персистентная единица решения человека по одному действию агента.
// Создается только шлюзом (Gate Service), когда autonomy-профиль воркспейса
// не позволяет авто-исполнение. Никогда не удаляется — это журнал аудита.
type HITLTicket struct {
	ID          string `json:"id"` // Человекочитаемый, например "HITL-9f3a21d4"
	WorkspaceID string `json:"workspace_id"`
	AgentID     string `json:"agent_id"`
	AgentType   string `json:"agent_type"`

	// TaskType сохраняем вместе с action: по ним колбэк исполнения
	// восстанавливает исходный запрос после одобрения
	TaskType TaskType       `json:"task_type"`
	Action   Action         `json:"action"`
	Priority TicketPriority `json:"priority"`
	Status   TicketStatus   `json:"status"`

	// Rationale — зачем агент хочет выполнить действие (из prompt запроса)
	Rationale        string          `json:"rationale"`
	EstimatedImpact  string          `json:"estimated_impact"`
	EstimatedCostUSD float64         `json:"estimated_cost_usd"`
	Context          json.RawMessage `json:"context,omitempty"` // Снапшот контекста запроса, для шлюза — opaque

	Comments []Comment `json:"comments,omitempty"`

	CreatedAt        time.Time  `json:"created_at"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy       *string    `json:"resolved_by,omitempty"` // пустой для EXPIRED: там нет человека
	ResolutionReason *string    `json:"resolution_reason,omitempty"`
}

// CanTransitionTo проверяет правила конечного автомата.
// PENDING — единственное нетерминальное состояние; из терминальных
// переходов не существует.
func (t *HITLTicket) CanTransitionTo(next TicketStatus) error {
	if t.Status != StatusPending {
		return ErrAlreadyResolved
	}
	if next == StatusPending {
		return ErrInvalidTransition
	}
	return nil
}

// IsTerminal сообщает, закрыт ли тикет.
func (t *HITLTicket) IsTerminal() bool {
	return t.Status != StatusPending
}

// TicketFilter — параметры выборки очереди. Пустые поля не фильтруют.
type TicketFilter struct {
	WorkspaceID string
	Status      TicketStatus
	AgentType   string
	Limit       int
}
