package postgres

/*
Файл ticket_repo.go содержит хранилище тикетов Human-in-the-loop.
Гарантия at-most-once resolution обеспечивается на уровне SQL:
UPDATE с условием status = 'PENDING' — проигравший гонку ревьюер
получает ноль строк и ошибку ErrAlreadyResolved, без ретраев.
*/

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/domain"
	"github.com/jackc/pgx/v5"
)

const ticketColumns = `id, workspace_id, agent_id, agent_type, task_type, action, priority, status,
	rationale, estimated_impact, estimated_cost_usd, context, resolution_reason,
	created_at, resolved_at, resolved_by`

type ticketScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row ticketScanner) (*domain.HITLTicket, error) {
	var t domain.HITLTicket
	var resolutionReason, resolvedBy sql.NullString
	var resolvedAt sql.NullTime

	err := row.Scan(
		&t.ID,
		&t.WorkspaceID,
		&t.AgentID,
		&t.AgentType,
		&t.TaskType,
		&t.Action,
		&t.Priority,
		&t.Status,
		&t.Rationale,
		&t.EstimatedImpact,
		&t.EstimatedCostUSD,
		&t.Context,
		&resolutionReason,
		&t.CreatedAt,
		&resolvedAt,
		&resolvedBy,
	)
	if err != nil {
		return nil, err
	}

	// Маппим NULL значения (тикет еще не закрыт)
	if resolutionReason.Valid {
		val := resolutionReason.String
		t.ResolutionReason = &val
	}
	if resolvedBy.Valid {
		val := resolvedBy.String
		t.ResolvedBy = &val
	}
	if resolvedAt.Valid {
		val := resolvedAt.Time
		t.ResolvedAt = &val
	}
	return &t, nil
}

// CreateTicket создает PENDING запись. Вызывается только шлюзом,
// когда autonomy-профиль требует человеческого решения.
func (s *Store) CreateTicket(ctx context.Context, t *domain.HITLTicket) error {
	query := `INSERT INTO hitl_tickets
		(id, workspace_id, agent_id, agent_type, task_type, action, priority, status,
		 rationale, estimated_impact, estimated_cost_usd, context, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := s.pool.Exec(ctx, query,
		t.ID, t.WorkspaceID, t.AgentID, t.AgentType, t.TaskType, t.Action, t.Priority, t.Status,
		t.Rationale, t.EstimatedImpact, t.EstimatedCostUSD, t.Context, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to create hitl ticket: %w", err)
	}
	return nil
}

// GetTicketByID возвращает тикет вместе с тредом комментариев.
func (s *Store) GetTicketByID(ctx context.Context, id string) (*domain.HITLTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM hitl_tickets WHERE id = $1`

	t, err := scanTicket(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTicketNotFound
		}
		return nil, fmt.Errorf("postgres: failed to fetch ticket: %w", err)
	}

	comments, err := s.listComments(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Comments = comments
	return t, nil
}

// FindTickets — фильтрация очереди (Decision Queue), новые сверху.
func (s *Store) FindTickets(ctx context.Context, f domain.TicketFilter) ([]*domain.HITLTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM hitl_tickets WHERE workspace_id = $1`
	args := []interface{}{f.WorkspaceID}

	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.AgentType != "" {
		args = append(args, f.AgentType)
		query += fmt.Sprintf(" AND agent_type = $%d", len(args))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query tickets: %w", err)
	}
	defer rows.Close()

	// Пустой слайс, чтобы в JSON был [] вместо null
	results := make([]*domain.HITLTicket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan ticket: %w", err)
		}
		results = append(results, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows iteration error: %w", err)
	}
	return results, nil
}

// ResolveTicket атомарно закрывает тикет. Условие status = 'PENDING'
// исключает Double Decision: статус, resolved_by и resolved_at
// проставляются ровно один раз, одним UPDATE.
func (s *Store) ResolveTicket(ctx context.Context, id string, status domain.TicketStatus, resolvedBy string, reason *string, at time.Time) (*domain.HITLTicket, error) {
	query := `
		UPDATE hitl_tickets
		SET status = $1,
		    resolved_by = $2,
		    resolved_at = $3,
		    resolution_reason = $4
		WHERE id = $5 AND status = 'PENDING'
		RETURNING ` + ticketColumns

	t, err := scanTicket(s.pool.QueryRow(ctx, query, status, resolvedBy, at, reason, id))
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("postgres: failed to resolve ticket: %w", err)
	}

	// Ноль строк: либо ID неверный, либо решение уже принято ранее.
	// Различаем отдельным чтением — вызывающему важны разные ошибки.
	if _, getErr := s.GetTicketByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, domain.ErrAlreadyResolved
}

// ExpirePending — единственный переход без участия человека:
// PENDING старше cutoff становятся EXPIRED. resolved_by остается NULL.
func (s *Store) ExpirePending(ctx context.Context, cutoff time.Time, at time.Time) ([]*domain.HITLTicket, error) {
	query := `
		UPDATE hitl_tickets
		SET status = 'EXPIRED', resolved_at = $2
		WHERE status = 'PENDING' AND created_at < $1
		RETURNING ` + ticketColumns

	rows, err := s.pool.Query(ctx, query, cutoff, at)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to expire tickets: %w", err)
	}
	defer rows.Close()

	expired := make([]*domain.HITLTicket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan expired ticket: %w", err)
		}
		expired = append(expired, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows iteration error: %w", err)
	}
	return expired, nil
}

// AddComment — append-only вставка, статус тикета не проверяется:
// комментарии разрешены и после закрытия (заметки для аудита).
func (s *Store) AddComment(ctx context.Context, c *domain.Comment) error {
	query := `INSERT INTO hitl_ticket_comments (id, ticket_id, author, body, created_at)
	          VALUES ($1, $2, $3, $4, $5)`

	_, err := s.pool.Exec(ctx, query, c.ID, c.TicketID, c.Author, c.Body, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: failed to add comment: %w", err)
	}
	return nil
}

func (s *Store) listComments(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	query := `SELECT id, ticket_id, author, body, created_at
	          FROM hitl_ticket_comments WHERE ticket_id = $1 ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query comments: %w", err)
	}
	defer rows.Close()

	comments := make([]domain.Comment, 0)
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.TicketID, &c.Author, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows iteration error: %w", err)
	}
	return comments, nil
}
