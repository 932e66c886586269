package gate

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper — периодический обход PENDING тикетов, переживших TTL.
// Работает фоновой горутиной до отмены контекста.
type Sweeper struct {
	service  *Service
	interval time.Duration
	logger   *zap.Logger
}

func NewSweeper(service *Service, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{
		service:  service,
		interval: interval,
		logger:   logger.Named("sweeper"),
	}
}

// Run блокирует до отмены ctx; запускать как go sweeper.Run(ctx).
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("expiry sweeper started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("expiry sweeper stopped")
			return
		case now := <-ticker.C:
			n, err := s.service.ExpireSweep(ctx, now.UTC())
			if err != nil {
				s.logger.Error("expire sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.logger.Info("expire sweep finished", zap.Int("expired", n))
			}
		}
	}
}
