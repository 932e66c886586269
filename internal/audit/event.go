package audit

import "time"

// Исходы шлюза, фиксируемые в журнале. Тикеты сами по себе не удаляются,
// но журнал дает сквозную картину: и авто-исполнения, и бюджетные отказы,
// у которых тикета нет вовсе.
const (
	OutcomeExecuted         = "EXECUTED"
	OutcomeAwaitingApproval = "AWAITING_APPROVAL"
	OutcomeBudgetExceeded   = "BUDGET_EXCEEDED"
	OutcomeApproved         = "APPROVED"
	OutcomeRejected         = "REJECTED"
	OutcomeExpired          = "EXPIRED"
)

type Event struct {
	ID          string `json:"id"`           // UUID события
	TraceID     string `json:"trace_id"`     // Сквозной ID запроса
	WorkspaceID string `json:"workspace_id"` // Чей бюджет и политика
	AgentID     string `json:"agent_id"`     // Кто делал
	TicketID    string `json:"ticket_id"`    // Пустой для EXECUTED/BUDGET_EXCEEDED
	Action      string `json:"action"`       // Что хотел сделать

	Outcome string `json:"outcome"`
	Actor   string `json:"actor"` // Ревьюер для APPROVED/REJECTED, пустой для системных событий
	Detail  string `json:"detail"`

	Timestamp time.Time `json:"timestamp"`
}
