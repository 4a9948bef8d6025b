package integration

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mholloway/pennygate/internal/clock"
	"github.com/mholloway/pennygate/internal/config"
	"github.com/mholloway/pennygate/internal/models"
	"github.com/mholloway/pennygate/internal/repositories"
	"github.com/mholloway/pennygate/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	tdb, err := SetupTestDatabase(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { tdb.Teardown(context.Background()) })
	return tdb
}

func TestBanRepository_ConditionalWrites(t *testing.T) {
	tdb := setupDB(t)
	repo := repositories.NewBanRepository(tdb.DB)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	entry := &models.BanEntry{IP: "1.2.3.4", Count: 1, Time: now}

	require.NoError(t, repo.Create(ctx, entry))

	// Second create for the same IP loses
	err := repo.Create(ctx, &models.BanEntry{IP: "1.2.3.4", Count: 1, Time: now})
	assert.ErrorIs(t, err, models.ErrConflict)

	// Update against the stored timestamp wins
	later := now.Add(time.Second)
	require.NoError(t, repo.Update(ctx, &models.BanEntry{IP: "1.2.3.4", Count: 2, Time: later}, now))

	// Update against a stale timestamp loses
	err = repo.Update(ctx, &models.BanEntry{IP: "1.2.3.4", Count: 3, Time: later}, now)
	assert.ErrorIs(t, err, models.ErrConflict)

	found, err := repo.Find(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, 2, found.Count)

	// Conditional delete with a stale timestamp is a no-op
	require.NoError(t, repo.Delete(ctx, "1.2.3.4", now))
	_, err = repo.Find(ctx, "1.2.3.4")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "1.2.3.4", found.Time))
	_, err = repo.Find(ctx, "1.2.3.4")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestBanRepository_ParallelFailuresAreNotLost(t *testing.T) {
	tdb := setupDB(t)
	repo := repositories.NewBanRepository(tdb.DB)
	ctx := context.Background()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	cfg := config.BanConfig{BanTries: 5, BanLimit: time.Minute, BanTime: 5 * time.Minute}
	tracker := services.NewBanTracker(repo, clock.System(), cfg, logger)

	// Four parallel failures from one IP must each land: the rapid
	// parallel-attempt pattern a brute-force client produces.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, tracker.RecordFailure(ctx, "9.9.9.9"))
		}()
	}
	wg.Wait()

	found, err := repo.Find(ctx, "9.9.9.9")
	require.NoError(t, err)
	assert.Equal(t, 4, found.Count)

	require.NoError(t, tdb.TruncateBanEntries(ctx))

	// Past the threshold the count pins at BanTries no matter how many
	// further failures arrive.
	for i := 0; i < 10; i++ {
		require.NoError(t, tracker.RecordFailure(ctx, "9.9.9.9"))
	}

	found, err = repo.Find(ctx, "9.9.9.9")
	require.NoError(t, err)
	assert.Equal(t, 5, found.Count)
}

func TestBanRepository_DeleteExpired(t *testing.T) {
	tdb := setupDB(t)
	repo := repositories.NewBanRepository(tdb.DB)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	banLimit := time.Minute
	banTime := 5 * time.Minute

	entries := []models.BanEntry{
		{IP: "10.0.0.1", Count: 5, Time: now.Add(-6 * time.Minute)},  // banned, lapsed
		{IP: "10.0.0.2", Count: 5, Time: now.Add(-1 * time.Minute)},  // banned, live
		{IP: "10.0.0.3", Count: 2, Time: now.Add(-2 * time.Minute)},  // watching, lapsed
		{IP: "10.0.0.4", Count: 2, Time: now.Add(-30 * time.Second)}, // watching, live
	}
	for i := range entries {
		require.NoError(t, repo.Create(ctx, &entries[i]))
	}

	deleted, err := repo.DeleteExpired(ctx, 5, banLimit, banTime, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	for _, ip := range []string{"10.0.0.2", "10.0.0.4"} {
		_, err := repo.Find(ctx, ip)
		assert.NoError(t, err, "live entry %s should survive", ip)
	}
	for _, ip := range []string{"10.0.0.1", "10.0.0.3"} {
		_, err := repo.Find(ctx, ip)
		assert.ErrorIs(t, err, models.ErrNotFound, "lapsed entry %s should be removed", ip)
	}
}

func TestUserRepository_CreateAndLookup(t *testing.T) {
	tdb := setupDB(t)
	repo := repositories.NewUserRepository(tdb.DB)
	ctx := context.Background()

	created, err := repo.Create(ctx, &models.User{Name: "alice", PinHash: "$2a$04$notarealhash"})
	require.NoError(t, err)
	require.NotEmpty(t, created.UID)

	byID, err := repo.GetByID(ctx, created.UID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Name)

	byName, err := repo.GetByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.UID, byName.UID)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	_, err = repo.GetByName(ctx, "nobody")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
