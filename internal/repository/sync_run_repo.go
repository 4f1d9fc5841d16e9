package repository

import (
	"context"

	"github.com/timmy/mdb2el/internal/domain"
	"gorm.io/gorm"
)

// SyncRunRepository stores the history of dispatched jobs.
type SyncRunRepository struct {
	db *gorm.DB
}

// NewSyncRunRepository creates a new SyncRunRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *SyncRunRepository: repository instance bound to db.
func NewSyncRunRepository(db *gorm.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// Create inserts one job outcome.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - run: job outcome to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *SyncRunRepository) Create(ctx context.Context, run *domain.SyncRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// ListByRunID returns the jobs of one run in dispatch order.
func (r *SyncRunRepository) ListByRunID(ctx context.Context, runID string) ([]domain.SyncRun, error) {
	var runs []domain.SyncRun
	if err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("job_index ASC").
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// CountByStatus counts the jobs of one run with the given status.
func (r *SyncRunRepository) CountByStatus(ctx context.Context, runID string, status domain.JobStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.SyncRun{}).
		Where("run_id = ? AND status = ?", runID, status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
