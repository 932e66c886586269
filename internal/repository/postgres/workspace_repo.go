package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/domain"
	"github.com/jackc/pgx/v5"
)

// GetAutonomyProfile — точечное чтение профиля для промаха кэша.
func (s *Store) GetAutonomyProfile(ctx context.Context, workspaceID string) (*domain.AutonomyProfile, error) {
	query := `SELECT id, autonomy_mode, updated_at FROM workspaces WHERE id = $1`

	var p domain.AutonomyProfile
	err := s.pool.QueryRow(ctx, query, workspaceID).Scan(&p.WorkspaceID, &p.Mode, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("postgres: workspace %s not found", workspaceID)
		}
		return nil, fmt.Errorf("postgres: failed to fetch autonomy profile: %w", err)
	}
	return &p, nil
}

// ListAutonomyProfiles — «холодная загрузка» всех профилей при старте шлюза.
func (s *Store) ListAutonomyProfiles(ctx context.Context) ([]domain.AutonomyProfile, error) {
	query := `SELECT id, autonomy_mode, updated_at FROM workspaces`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list autonomy profiles: %w", err)
	}
	defer rows.Close()

	var results []domain.AutonomyProfile
	for rows.Next() {
		var p domain.AutonomyProfile
		if err := rows.Scan(&p.WorkspaceID, &p.Mode, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan autonomy profile: %w", err)
		}
		results = append(results, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows iteration error: %w", err)
	}
	return results, nil
}

// GetPerspective — роль пользователя в воркспейсе для Access Gate.
// Отсутствие перспективы означает отсутствие любых прав в этом
// воркспейсе, поэтому сразу ErrUnauthorized, а не "not found".
func (s *Store) GetPerspective(ctx context.Context, userID, workspaceID string) (domain.Perspective, error) {
	query := `SELECT user_id, workspace_id, role
	          FROM workspace_perspectives WHERE user_id = $1 AND workspace_id = $2`

	var p domain.Perspective
	err := s.pool.QueryRow(ctx, query, userID, workspaceID).Scan(&p.UserID, &p.WorkspaceID, &p.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Perspective{}, domain.ErrUnauthorized
		}
		return domain.Perspective{}, fmt.Errorf("postgres: failed to fetch perspective: %w", err)
	}
	return p, nil
}
