package postgres

import (
	"context"
	"fmt"

	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/infra"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store — единая точка доступа к PostgreSQL: тикеты, бюджетные книги,
// воркспейсы, пользователи и журнал аудита живут на одном пуле.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore поднимает пул соединений по конфигурации.
func NewStore(ctx context.Context, cfg infra.DatabaseConfig) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Ping проверяет доступность базы при старте
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
}
