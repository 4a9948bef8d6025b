package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mholloway/pennygate/internal/database"
	"github.com/mholloway/pennygate/internal/models"
)

// BanRepository persists per-IP failure entries. Writes are conditional on
// the entry's last-updated timestamp so that concurrent read-decide-write
// cycles for the same IP cannot lose updates: a writer that raced loses
// with ErrConflict and must re-read.
type BanRepository struct {
	pool *pgxpool.Pool
}

// NewBanRepository creates a new BanRepository
func NewBanRepository(db *database.DB) *BanRepository {
	return &BanRepository{pool: db.Pool}
}

// Find returns the live entry for an IP, or models.ErrNotFound.
func (r *BanRepository) Find(ctx context.Context, ip string) (*models.BanEntry, error) {
	query := `SELECT ip, count, updated_at FROM ban_entries WHERE ip = $1`

	var entry models.BanEntry
	err := r.pool.QueryRow(ctx, query, ip).Scan(&entry.IP, &entry.Count, &entry.Time)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &entry, nil
}

// Create inserts a fresh entry. Returns models.ErrConflict if an entry for
// the IP already exists, which callers treat as a concurrent writer.
func (r *BanRepository) Create(ctx context.Context, entry *models.BanEntry) error {
	query := `
		INSERT INTO ban_entries (ip, count, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (ip) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query, entry.IP, entry.Count, entry.Time)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrConflict
	}
	return nil
}

// Update rewrites an entry's count and timestamp, conditional on the row
// still carrying the expected timestamp. Returns models.ErrConflict when
// the row moved (or was deleted) since it was read.
func (r *BanRepository) Update(ctx context.Context, entry *models.BanEntry, expected time.Time) error {
	query := `
		UPDATE ban_entries SET count = $2, updated_at = $3
		WHERE ip = $1 AND updated_at = $4
	`

	tag, err := r.pool.Exec(ctx, query, entry.IP, entry.Count, entry.Time, expected)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrConflict
	}
	return nil
}

// Delete removes an entry, conditional on the expected timestamp. A row
// that is already gone, or that moved under a concurrent writer, is left
// alone without error: the caller re-reads on its next cycle.
func (r *BanRepository) Delete(ctx context.Context, ip string, expected time.Time) error {
	query := `DELETE FROM ban_entries WHERE ip = $1 AND updated_at = $2`

	_, err := r.pool.Exec(ctx, query, ip, expected)
	if err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

// DeleteExpired removes entries whose ban duration (banned entries) or
// failure window (watching entries) has lapsed. Used by the background
// sweep; the tracker's lazy expiry remains authoritative.
func (r *BanRepository) DeleteExpired(ctx context.Context, banTries int, banLimit, banTime time.Duration, now time.Time) (int64, error) {
	query := `
		DELETE FROM ban_entries
		WHERE (count >= $1 AND updated_at < $2)
		   OR (count < $1 AND updated_at < $3)
	`

	tag, err := r.pool.Exec(ctx, query, banTries, now.Add(-banTime), now.Add(-banLimit))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired ban entries: %w", err)
	}
	return tag.RowsAffected(), nil
}
