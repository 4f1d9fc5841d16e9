package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/mdb2el/internal/config"
	"github.com/timmy/mdb2el/internal/domain"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := InitDB(&config.DatabaseConfig{
		Driver:      "sqlite",
		Path:        filepath.Join(t.TempDir(), "data", "runs.db"),
		AutoMigrate: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newRun(runID string, index int, status domain.JobStatus) *domain.SyncRun {
	now := time.Now()
	return &domain.SyncRun{
		ID:               uuid.New().String(),
		RunID:            runID,
		JobIndex:         index,
		SourceDatabase:   "db",
		SourceCollection: "coll",
		TargetIndex:      "idx",
		Status:           status,
		StartedAt:        now,
		CompletedAt:      now,
	}
}

func TestSyncRunRepository_ListByRunID(t *testing.T) {
	repo := NewSyncRunRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRun("run-a", 2, domain.JobStatusCompleted)))
	require.NoError(t, repo.Create(ctx, newRun("run-a", 0, domain.JobStatusFailed)))
	require.NoError(t, repo.Create(ctx, newRun("run-b", 0, domain.JobStatusCompleted)))
	require.NoError(t, repo.Create(ctx, newRun("run-a", 1, domain.JobStatusCompleted)))

	runs, err := repo.ListByRunID(ctx, "run-a")
	require.NoError(t, err)
	require.Len(t, runs, 3)
	for i, r := range runs {
		assert.Equal(t, i, r.JobIndex)
		assert.Equal(t, "run-a", r.RunID)
	}
	assert.Equal(t, domain.JobDescriptor{
		SourceDatabase:   "db",
		SourceCollection: "coll",
		TargetIndex:      "idx",
	}, runs[0].Job())

	none, err := repo.ListByRunID(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSyncRunRepository_CountByStatus(t *testing.T) {
	repo := NewSyncRunRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRun("run-a", 0, domain.JobStatusCompleted)))
	require.NoError(t, repo.Create(ctx, newRun("run-a", 1, domain.JobStatusFailed)))
	require.NoError(t, repo.Create(ctx, newRun("run-a", 2, domain.JobStatusFailed)))

	failed, err := repo.CountByStatus(ctx, "run-a", domain.JobStatusFailed)
	require.NoError(t, err)
	assert.Equal(t, int64(2), failed)

	completed, err := repo.CountByStatus(ctx, "run-a", domain.JobStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, int64(1), completed)
}

func TestSyncRunRepository_DuplicateID(t *testing.T) {
	repo := NewSyncRunRepository(newTestDB(t))
	ctx := context.Background()

	run := newRun("run-a", 0, domain.JobStatusCompleted)
	require.NoError(t, repo.Create(ctx, run))
	dup := *run
	assert.Error(t, repo.Create(ctx, &dup))
}
