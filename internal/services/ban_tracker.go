package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mholloway/pennygate/internal/clock"
	"github.com/mholloway/pennygate/internal/config"
	"github.com/mholloway/pennygate/internal/models"
)

// BanStore defines the interface for ban entry persistence. Update and
// Delete are conditional on the entry's last-read timestamp and report
// models.ErrConflict (Update) or silently no-op (Delete) when the row
// moved under a concurrent writer.
type BanStore interface {
	Find(ctx context.Context, ip string) (*models.BanEntry, error)
	Create(ctx context.Context, entry *models.BanEntry) error
	Update(ctx context.Context, entry *models.BanEntry, expected time.Time) error
	Delete(ctx context.Context, ip string, expected time.Time) error
}

// banWriteRetries bounds the read-decide-write retry loop under
// contention from parallel attempts on the same IP.
const banWriteRetries = 5

// BanTracker decides, per source IP, whether logins are currently banned
// and how the stored failure entry changes on each failed attempt.
//
// Per IP the tracker moves through three states: no entry, watching
// (count below BanTries) and banned (count at or above BanTries). A ban
// that outlives BanTime is expired by deleting the entry outright, so an
// expired IP is indistinguishable from one with no history.
type BanTracker struct {
	store  BanStore
	clock  clock.Clock
	config config.BanConfig
	logger *slog.Logger
}

// NewBanTracker creates a new BanTracker
func NewBanTracker(store BanStore, clk clock.Clock, cfg config.BanConfig, logger *slog.Logger) *BanTracker {
	return &BanTracker{
		store:  store,
		clock:  clk,
		config: cfg,
		logger: logger,
	}
}

// Status reports whether an IP is currently banned, expiring a lapsed ban
// as a side effect. The status is evaluated before any recording of the
// current attempt's outcome, so a ban triggered by this very attempt is
// still reported as not banned.
//
// Store errors fail closed: the caller must abort the login attempt
// rather than assume "not banned".
func (t *BanTracker) Status(ctx context.Context, ip string) (bool, error) {
	entry, err := t.store.Find(ctx, ip)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		return false, storeUnavailable(err)
	}

	now := t.clock.Now()
	if entry.Banned(t.config.BanTries) && entry.BanExpired(now, t.config.BanTime) {
		if err := t.store.Delete(ctx, ip, entry.Time); err != nil {
			return false, storeUnavailable(err)
		}
		t.logger.Info("ban expired",
			slog.String("ip", ip),
			slog.Int("count", entry.Count))
		return false, nil
	}

	return entry.Banned(t.config.BanTries), nil
}

// RecordFailure folds one failed credential check into the IP's entry:
// create at count 1, reset to 1 when the failure window lapsed, otherwise
// increment. An entry that is already banned is left untouched so the ban
// cannot extend itself. Valid credential checks are never recorded.
//
// Each cycle re-reads the entry and writes conditionally, so two parallel
// failures from one IP cannot collapse into a single increment.
func (t *BanTracker) RecordFailure(ctx context.Context, ip string) error {
	for i := 0; i < banWriteRetries; i++ {
		entry, err := t.store.Find(ctx, ip)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return storeUnavailable(err)
		}

		now := t.clock.Now()

		if entry == nil {
			created := &models.BanEntry{IP: ip, Count: 1, Time: now}
			err := t.store.Create(ctx, created)
			if errors.Is(err, models.ErrConflict) {
				continue
			}
			if err != nil {
				return storeUnavailable(err)
			}
			return nil
		}

		if entry.Banned(t.config.BanTries) {
			if entry.BanExpired(now, t.config.BanTime) {
				if err := t.store.Delete(ctx, ip, entry.Time); err != nil {
					return storeUnavailable(err)
				}
				continue
			}
			return nil
		}

		next := models.BanEntry{IP: ip, Count: entry.Count + 1, Time: now}
		if entry.WindowLapsed(now, t.config.BanLimit) {
			next.Count = 1
		}

		err = t.store.Update(ctx, &next, entry.Time)
		if errors.Is(err, models.ErrConflict) {
			continue
		}
		if err != nil {
			return storeUnavailable(err)
		}

		if next.Banned(t.config.BanTries) {
			t.logger.Warn("ban triggered",
				slog.String("ip", ip),
				slog.Int("count", next.Count),
				slog.Duration("ban_time", t.config.BanTime))
		}
		return nil
	}

	return fmt.Errorf("ban entry for %s under contention: %w", ip, models.ErrConflict)
}

func storeUnavailable(err error) error {
	return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
}
