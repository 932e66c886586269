package domain

import "time"

// AutonomyMode — сколько риска воркспейс позволяет агентам без ревью.
type AutonomyMode string

const (
	ModeObserver AutonomyMode = "observer" // Ничего не авто-исполняет, все в очередь
	ModeOperator AutonomyMode = "operator" // Авто-исполняет только NONE
	ModeExecutor AutonomyMode = "executor" // Авто-исполняет NONE и HUMAN_REVIEW
)

// KnownAutonomyMode проверяет значение режима из конфигурации воркспейса.
func KnownAutonomyMode(m AutonomyMode) bool {
	switch m {
	case ModeObserver, ModeOperator, ModeExecutor:
		return true
	}
	return false
}

// AutonomyProfile — настройка автономии воркспейса.
type AutonomyProfile struct {
	WorkspaceID string       `json:"workspace_id"`
	Mode        AutonomyMode `json:"mode"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// HITLLevel — производный уровень вовлечения человека: сколько тиров
// риска режим закрывает сам. Чем выше, тем меньше ручных подтверждений.
func (p AutonomyProfile) HITLLevel() int {
	switch p.Mode {
	case ModeOperator:
		return 1
	case ModeExecutor:
		return 2
	default: // observer и все неизвестное — максимум ручного контроля
		return 0
	}
}

// BudgetLedger — потолок расходов воркспейса в текущем биллинговом периоде.
// spent_usd монотонно не убывает; мутируется только атомарным коммитом
// Budget Guard, никогда — при создании тикета.
type BudgetLedger struct {
	WorkspaceID string    `json:"workspace_id"`
	LimitUSD    float64   `json:"limit_usd"`
	SpentUSD    float64   `json:"spent_usd"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RemainingUSD — производный остаток.
func (l BudgetLedger) RemainingUSD() float64 {
	return l.LimitUSD - l.SpentUSD
}

// CanAfford — чистая проверка допуска: spent + cost <= limit.
func (l BudgetLedger) CanAfford(costUSD float64) bool {
	return l.SpentUSD+costUSD <= l.LimitUSD
}

// Workspace — владелец autonomy-профиля и бюджетной книги.
type Workspace struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Autonomy  AutonomyProfile `json:"autonomy"`
	Budget    BudgetLedger    `json:"budget"`
	CreatedAt time.Time       `json:"created_at"`
}
