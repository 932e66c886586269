package domain

import (
	"errors"
	"fmt"
)

// ErrUnauthorized — роль вызывающего не дает права на операцию.
// Это решение Access Gate, а не политики рисков.
var ErrUnauthorized = errors.New("caller role does not grant this capability")

// ValidationError — битый вход, отбрасывается до любых изменений состояния.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: field %q: %s", e.Field, e.Reason)
}

// BudgetExceededError — штатный бизнес-исход, а не сбой системы.
// Несет состояние книги ПОСЛЕ коммита победителя гонки, чтобы
// вызывающий видел актуальный остаток. Ретраить бессмысленно:
// человеческое решение бюджет не создаст.
type BudgetExceededError struct {
	RemainingUSD float64
	LimitUSD     float64
	RequestedUSD float64
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("budget exceeded: requested $%.2f, remaining $%.2f of $%.2f limit",
		e.RequestedUSD, e.RemainingUSD, e.LimitUSD)
}
