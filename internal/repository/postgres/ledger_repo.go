package postgres

/*
Файл ledger_repo.go — бюджетная книга воркспейса (TCO ceiling).
Атомарность допуска обеспечивает сама база: условный UPDATE списывает
расход только если пост-инкрементное значение не выходит за лимит.
Два конкурентных сабмита не проскочат потолок вдвоем — проигравший
получает BudgetExceededError с состоянием книги ПОСЛЕ коммита победителя.
*/

import (
	"context"
	"errors"
	"fmt"

	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/domain"
	"github.com/jackc/pgx/v5"
)

// GetLedger — чтение состояния книги. Не блокирует писателей;
// допустимо слегка отстающее значение.
func (s *Store) GetLedger(ctx context.Context, workspaceID string) (*domain.BudgetLedger, error) {
	query := `SELECT workspace_id, limit_usd, spent_usd, updated_at
	          FROM budget_ledgers WHERE workspace_id = $1`

	var l domain.BudgetLedger
	err := s.pool.QueryRow(ctx, query, workspaceID).Scan(
		&l.WorkspaceID, &l.LimitUSD, &l.SpentUSD, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("postgres: budget ledger not found for workspace %s", workspaceID)
		}
		return nil, fmt.Errorf("postgres: failed to fetch budget ledger: %w", err)
	}
	return &l, nil
}

// CommitSpend — атомарный условный инкремент spent_usd.
// Списание происходит только на пути, реально дошедшем до исполнения.
func (s *Store) CommitSpend(ctx context.Context, workspaceID string, amountUSD float64) (*domain.BudgetLedger, error) {
	query := `
		UPDATE budget_ledgers
		SET spent_usd = spent_usd + $1,
		    updated_at = NOW()
		WHERE workspace_id = $2 AND spent_usd + $1 <= limit_usd
		RETURNING workspace_id, limit_usd, spent_usd, updated_at`

	var l domain.BudgetLedger
	err := s.pool.QueryRow(ctx, query, amountUSD, workspaceID).Scan(
		&l.WorkspaceID, &l.LimitUSD, &l.SpentUSD, &l.UpdatedAt,
	)
	if err == nil {
		return &l, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("postgres: failed to commit spend: %w", err)
	}

	// Ноль строк — лимит не пускает. Перечитываем книгу, чтобы отдать
	// вызывающему актуальный остаток, а не догадку.
	current, getErr := s.GetLedger(ctx, workspaceID)
	if getErr != nil {
		return nil, getErr
	}
	return nil, &domain.BudgetExceededError{
		RemainingUSD: current.RemainingUSD(),
		LimitUSD:     current.LimitUSD,
		RequestedUSD: amountUSD,
	}
}
