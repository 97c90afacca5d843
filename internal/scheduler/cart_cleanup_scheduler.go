package scheduler

import (
	"time"

	"github.com/jwoo/shopflow-backend/internal/app/repository"
	"github.com/jwoo/shopflow-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// CartCleanupScheduler empties carts that have been idle past the
// configured threshold so abandoned carts do not accumulate forever.
type CartCleanupScheduler struct {
	cron     *cron.Cron
	cartRepo repository.CartRepository
	spec     string
	maxIdle  time.Duration
}

func NewCartCleanupScheduler(cartRepo repository.CartRepository, spec string, maxIdle time.Duration) *CartCleanupScheduler {
	return &CartCleanupScheduler{
		cron:     cron.New(),
		cartRepo: cartRepo,
		spec:     spec,
		maxIdle:  maxIdle,
	}
}

func (s *CartCleanupScheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		cutoff := time.Now().Add(-s.maxIdle)

		logger.Info("Starting scheduled cart cleanup", map[string]interface{}{
			"cutoff": cutoff,
		})

		cleared, err := s.cartRepo.ClearStale(cutoff)
		if err != nil {
			logger.Error("Failed to clear stale carts", err)
			return
		}

		logger.Info("Stale cart cleanup finished", map[string]interface{}{
			"carts_cleared": cleared,
		})
	})

	if err != nil {
		logger.Error("Failed to add cron job for cart cleanup", err)
		return err
	}

	s.cron.Start()
	logger.Info("Cart cleanup scheduler started", map[string]interface{}{
		"schedule": s.spec,
		"max_idle": s.maxIdle.String(),
	})

	return nil
}

func (s *CartCleanupScheduler) Stop() {
	logger.Info("Stopping cart cleanup scheduler...")
	s.cron.Stop()
	logger.Info("Cart cleanup scheduler stopped")
}
