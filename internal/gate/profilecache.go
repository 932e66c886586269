package gate

import (
	"context"
	"sync"

	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/domain"
	"github.com/Maaaiiik/cerebrin-prev3-production-sub002/internal/infra"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ProfileRepository — холодное хранилище autonomy-профилей (Postgres).
type ProfileRepository interface {
	GetAutonomyProfile(ctx context.Context, workspaceID string) (*domain.AutonomyProfile, error)
	ListAutonomyProfiles(ctx context.Context) ([]domain.AutonomyProfile, error)
}

// ProfileCache — L1 (RAM) кэш autonomy-профилей. Hot Path конвейера submit
// работает только с памятью; Postgres трогается на промахе и при Refresh.
// Инвалидация — через Pub/Sub сигнал об изменении профиля воркспейса.
type ProfileCache struct {
	mu       sync.RWMutex
	profiles map[string]domain.AutonomyProfile

	repo   ProfileRepository
	rdb    *redis.Client
	logger *zap.Logger
}

func NewProfileCache(repo ProfileRepository, rdb *redis.Client, logger *zap.Logger) *ProfileCache {
	return &ProfileCache{
		profiles: make(map[string]domain.AutonomyProfile),
		repo:     repo,
		rdb:      rdb,
		logger:   logger.Named("profile-cache"),
	}
}

// GetProfile реализует ProfileProvider. Промах кэша докатывается до БД
// и результат оседает в памяти.
func (c *ProfileCache) GetProfile(ctx context.Context, workspaceID string) (domain.AutonomyProfile, error) {
	c.mu.RLock()
	p, ok := c.profiles[workspaceID]
	c.mu.RUnlock()
	if ok {
		return p, nil
	}

	fresh, err := c.repo.GetAutonomyProfile(ctx, workspaceID)
	if err != nil {
		return domain.AutonomyProfile{}, err
	}

	c.mu.Lock()
	c.profiles[workspaceID] = *fresh
	c.mu.Unlock()
	return *fresh, nil
}

// Refresh выполняет «холодную загрузку» всех профилей при старте шлюза.
func (c *ProfileCache) Refresh(ctx context.Context) error {
	fromDB, err := c.repo.ListAutonomyProfiles(ctx)
	if err != nil {
		return err
	}

	next := make(map[string]domain.AutonomyProfile, len(fromDB))
	for _, p := range fromDB {
		next[p.WorkspaceID] = p
	}

	c.mu.Lock()
	c.profiles = next
	c.mu.Unlock()

	c.logger.Info("autonomy profile cache refreshed", zap.Int("count", len(next)))
	return nil
}

// StartListener подписывается на сигналы изменения профилей.
// Payload сообщения — ID воркспейса; его запись просто выбрасывается
// из кэша, следующий GetProfile перечитает БД.
func (c *ProfileCache) StartListener(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	pubsub := c.rdb.Subscribe(ctx, infra.RedisChanWorkspaceUpdate)
	ch := pubsub.Channel()

	for msg := range ch {
		workspaceID := msg.Payload
		c.mu.Lock()
		delete(c.profiles, workspaceID)
		c.mu.Unlock()
		c.logger.Debug("autonomy profile invalidated", zap.String("workspace_id", workspaceID))
	}
}
