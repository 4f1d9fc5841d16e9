package domain

import "time"

// JobStatus represents the outcome of a dispatched synchronization job.
// Values include JobStatusCompleted and JobStatusFailed.
type JobStatus string

const (
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// SyncRun records a single dispatched job within one process run.
type SyncRun struct {
	ID               string    `gorm:"type:text;primaryKey" json:"id"`
	RunID            string    `gorm:"type:text;not null;index" json:"run_id"`
	JobIndex         int       `gorm:"not null" json:"job_index"`
	SourceDatabase   string    `gorm:"type:text" json:"source_database"`
	SourceCollection string    `gorm:"type:text" json:"source_collection"`
	TargetIndex      string    `gorm:"type:text" json:"target_index"`
	TargetType       string    `gorm:"type:text" json:"target_type"`
	Status           JobStatus `gorm:"type:text;not null;index" json:"status"`
	Documents        int64     `gorm:"default:0" json:"documents"`
	ErrorLog         string    `json:"error_log,omitempty"`
	StartedAt        time.Time `json:"started_at"`
	CompletedAt      time.Time `json:"completed_at"`
	CreatedAt        time.Time `json:"created_at"`
}

// TableName returns the database table name for SyncRun.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (SyncRun) TableName() string {
	return "sync_runs"
}

// Job returns the descriptor this run was dispatched for.
func (r *SyncRun) Job() JobDescriptor {
	return JobDescriptor{
		SourceDatabase:   r.SourceDatabase,
		SourceCollection: r.SourceCollection,
		TargetIndex:      r.TargetIndex,
		TargetType:       r.TargetType,
	}
}

// SyncStats summarises one synchronized job as reported by the engine.
type SyncStats struct {
	Total     int64         `json:"total"`     // documents matching the find query
	Documents int64         `json:"documents"` // documents indexed
	Pages     int           `json:"pages"`
	Duration  time.Duration `json:"duration"`
}
