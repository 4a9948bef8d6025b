package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/mholloway/pennygate/internal/clock"
	"github.com/mholloway/pennygate/internal/config"
	"github.com/mholloway/pennygate/internal/repositories"
)

// CleanupManager periodically removes ban entries whose ban or failure
// window has lapsed. The tracker expires entries lazily on the next
// attempt; this sweep keeps rows from IPs that never come back from
// accumulating.
type CleanupManager struct {
	banRepo  *repositories.BanRepository
	banCfg   config.BanConfig
	clock    clock.Clock
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	banRepo *repositories.BanRepository,
	banCfg config.BanConfig,
	clk clock.Clock,
	logger *slog.Logger,
	interval time.Duration,
) *CleanupManager {
	return &CleanupManager{
		banRepo:  banRepo,
		banCfg:   banCfg,
		clock:    clk,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rowsDeleted, err := cm.banRepo.DeleteExpired(
		cleanupCtx,
		cm.banCfg.BanTries,
		cm.banCfg.BanLimit,
		cm.banCfg.BanTime,
		cm.clock.Now(),
	)
	if err != nil {
		cm.logger.Error("failed to cleanup expired ban entries", slog.Any("error", err))
		return
	}

	if rowsDeleted > 0 {
		cm.logger.Info("expired ban entry cleanup completed", slog.Int64("rows_deleted", rowsDeleted))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
