package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/audit"
)

// WriteBatch — пакетная вставка событий журнала решений.
// Вызывается воркером audit.Trail, не Hot Path-ом.
func (s *Store) WriteBatch(ctx context.Context, events []audit.Event) error {
	if len(events) == 0 {
		return nil
	}

	// Количество колонок в таблице gate_audit_log
	numFields := 10
	placeholderStr := ""
	vals := make([]interface{}, 0, len(events)*numFields)

	// Динамически строим запрос для пакетной вставки
	for i, e := range events {
		p := i * numFields
		placeholderStr += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d),",
			p+1, p+2, p+3, p+4, p+5, p+6, p+7, p+8, p+9, p+10)

		vals = append(vals,
			e.ID, e.TraceID, e.WorkspaceID, e.AgentID, e.TicketID,
			e.Action, e.Outcome, e.Actor, e.Detail, e.Timestamp,
		)
	}

	query := fmt.Sprintf(
		"INSERT INTO gate_audit_log (id, trace_id, workspace_id, agent_id, ticket_id, action, outcome, actor, detail, timestamp) VALUES %s",
		strings.TrimSuffix(placeholderStr, ","),
	)

	_, err := s.pool.Exec(ctx, query, vals...)
	if err != nil {
		return fmt.Errorf("postgres: failed to write audit batch: %w", err)
	}
	return nil
}
