package domain

import "fmt"

// RequiredLevel — требуемый уровень подтверждения, результат классификатора.
// Порядок значим: сравнение с потолком autonomy-режима идет по рангу.
type RequiredLevel int

const (
	LevelNone RequiredLevel = iota
	LevelHumanReview
	LevelMandatoryApproval
)

func (l RequiredLevel) String() string {
	switch l {
	case LevelNone:
		return "NONE"
	case LevelHumanReview:
		return "HUMAN_REVIEW"
	case LevelMandatoryApproval:
		return "MANDATORY_APPROVAL"
	}
	return fmt.Sprintf("RequiredLevel(%d)", int(l))
}

// MarshalJSON отдает уровень строкой — фронту не нужен внутренний ранг.
func (l RequiredLevel) MarshalJSON() ([]byte, error) {
	return []byte(`"` + l.String() + `"`), nil
}

// ParseRequiredLevel разбирает значение из таблицы рисков в конфиге.
func ParseRequiredLevel(s string) (RequiredLevel, error) {
	switch s {
	case "NONE":
		return LevelNone, nil
	case "HUMAN_REVIEW":
		return LevelHumanReview, nil
	case "MANDATORY_APPROVAL":
		return LevelMandatoryApproval, nil
	}
	return LevelNone, fmt.Errorf("unknown required level %q", s)
}

// SubmitStatus — исход конвейера submit.
type SubmitStatus string

const (
	SubmitExecuted         SubmitStatus = "EXECUTED"
	SubmitAwaitingApproval SubmitStatus = "AWAITING_APPROVAL"
	SubmitBudgetExceeded   SubmitStatus = "BUDGET_EXCEEDED"
)

// SubmitResult — ответ шлюза вызывающей стороне.
// Заполненность полей зависит от Status; общий конверт удобнее
// трех отдельных типов на транспортном слое.
type SubmitResult struct {
	Status SubmitStatus `json:"status"`

	// EXECUTED
	Result []byte `json:"result,omitempty"`

	// AWAITING_APPROVAL
	TicketID        string        `json:"ticket_id,omitempty"`
	RequiredLevel   RequiredLevel `json:"required_level"`
	CurrentAutonomy AutonomyMode  `json:"current_autonomy,omitempty"`

	// BUDGET_EXCEEDED — состояние книги на момент отказа
	RemainingUSD float64 `json:"remaining_usd,omitempty"`
	LimitUSD     float64 `json:"limit_usd,omitempty"`
}
