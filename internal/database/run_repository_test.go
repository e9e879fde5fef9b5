package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"catalogsync/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := New("sqlite://"+filepath.Join(t.TempDir(), "test.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunRepository_StartFinishGet(t *testing.T) {
	repo := NewRunRepository(newTestDatabase(t).DB)
	ctx := context.Background()

	run, err := repo.Start(ctx, "cli", "all")
	require.NoError(t, err)
	assert.Len(t, run.ID, 36)
	assert.Equal(t, models.SyncRunRunning, run.Status)

	run.Status = models.SyncRunSucceeded
	run.BrandsCreated = 3
	run.ProductsSkipped = 7
	require.NoError(t, repo.Finish(ctx, run))

	got, err := repo.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncRunSucceeded, got.Status)
	assert.Equal(t, 3, got.BrandsCreated)
	assert.Equal(t, 7, got.ProductsSkipped)
	assert.NotNil(t, got.FinishedAt)
}

func TestRunRepository_GetMissing(t *testing.T) {
	repo := NewRunRepository(newTestDatabase(t).DB)

	_, err := repo.Get(context.Background(), "does-not-exist")

	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRunRepository_ListNewestFirst(t *testing.T) {
	repo := NewRunRepository(newTestDatabase(t).DB)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		repo.now = func() time.Time { return at }
		_, err := repo.Start(ctx, "api", "all")
		require.NoError(t, err)
	}

	runs, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.True(t, runs[0].StartedAt.After(runs[1].StartedAt))
}

func TestRunRepository_ListCapsLimit(t *testing.T) {
	repo := NewRunRepository(newTestDatabase(t).DB)
	ctx := context.Background()

	for i := 0; i < MaxListLimit+5; i++ {
		_, err := repo.Start(ctx, "api", "all")
		require.NoError(t, err)
	}

	runs, err := repo.List(ctx, 1000000)
	require.NoError(t, err)
	assert.Len(t, runs, MaxListLimit)
}
