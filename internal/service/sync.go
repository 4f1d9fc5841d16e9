package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/mdb2el/internal/dispatch"
	"github.com/timmy/mdb2el/internal/domain"
	"github.com/timmy/mdb2el/internal/jobs"
	"github.com/timmy/mdb2el/internal/logger"
	"github.com/timmy/mdb2el/internal/storage"
)

// RunRecorder persists the outcome of each dispatched job.
type RunRecorder interface {
	Create(ctx context.Context, run *domain.SyncRun) error
	CountByStatus(ctx context.Context, runID string, status domain.JobStatus) (int64, error)
}

// SyncService loads the jobs file, dispatches every loaded job and records the run.
type SyncService struct {
	dispatcher   *dispatch.Dispatcher
	runs         RunRecorder
	archive      storage.ObjectStorage
	logger       *logger.Logger
	configFile   string
	maxEntries   int
	reportPrefix string
}

// SyncConfig holds configuration for the sync service
type SyncConfig struct {
	ConfigFile   string // jobs file; defaults to jobs.ConfigFile
	MaxEntries   int    // job store bound; 0 means unbounded
	ReportPrefix string // object key prefix for archived reports
}

// NewSyncService creates a new sync service. runs and archive may be nil to
// disable run history and report archiving.
func NewSyncService(
	dispatcher *dispatch.Dispatcher,
	runs RunRecorder,
	archive storage.ObjectStorage,
	log *logger.Logger,
	cfg *SyncConfig,
) *SyncService {
	if cfg == nil {
		cfg = &SyncConfig{}
	}
	if log == nil {
		log = logger.GetDefault()
	}
	configFile := cfg.ConfigFile
	if configFile == "" {
		configFile = jobs.ConfigFile
	}
	return &SyncService{
		dispatcher:   dispatcher,
		runs:         runs,
		archive:      archive,
		logger:       log,
		configFile:   configFile,
		maxEntries:   cfg.MaxEntries,
		reportPrefix: cfg.ReportPrefix,
	}
}

// Run performs one load-and-dispatch pass. Dispatch runs on whatever the load
// produced, even when the load failed part way. Failures are logged and reflected
// in the report; Run never aborts early.
func (s *SyncService) Run(ctx context.Context) *RunReport {
	runID := uuid.New().String()
	ctx = s.logger.WithContext(ctx)
	ctx = logger.SetComponent(ctx, "sync")
	ctx = logger.SetRunID(ctx, runID)

	report := &RunReport{
		RunID:      runID,
		ConfigFile: s.configFile,
		StartedAt:  time.Now(),
	}

	store := jobs.NewStore(s.maxEntries)
	if err := jobs.Load(s.configFile, store); err != nil {
		report.LoadError = err.Error()
		logger.CtxError(ctx, "Can't load '%s': %v", s.configFile, err)
	}
	report.JobsLoaded = store.Len()
	logger.CtxDebug(ctx, "Loaded %d jobs from %s", report.JobsLoaded, s.configFile)

	results, err := s.dispatcher.DispatchAll(ctx, store.Entries())
	if err != nil {
		report.DispatchError = err.Error()
	}
	report.Jobs = results

	for i := range results {
		if results[i].Failed() {
			report.Failed++
		} else {
			report.Completed++
		}
		s.record(ctx, runID, &results[i])
	}
	s.checkHistory(ctx, report)

	report.FinishedAt = time.Now()
	s.archiveReport(ctx, report)

	logger.FromContext(ctx).WithFields(logger.Fields{
		"loaded":    report.JobsLoaded,
		"completed": report.Completed,
		"failed":    report.Failed,
		"duration":  report.FinishedAt.Sub(report.StartedAt).String(),
	}).Info("Sync run finished")

	return report
}

func (s *SyncService) record(ctx context.Context, runID string, result *dispatch.JobResult) {
	if s.runs == nil {
		return
	}

	run := &domain.SyncRun{
		ID:               uuid.New().String(),
		RunID:            runID,
		JobIndex:         result.Index,
		SourceDatabase:   result.Job.SourceDatabase,
		SourceCollection: result.Job.SourceCollection,
		TargetIndex:      result.Job.TargetIndex,
		TargetType:       result.Job.TargetType,
		Status:           result.Status,
		Documents:        result.Documents,
		ErrorLog:         result.Error,
		StartedAt:        result.StartedAt,
		CompletedAt:      result.StartedAt.Add(result.Duration),
		CreatedAt:        time.Now(),
	}

	if err := s.runs.Create(ctx, run); err != nil {
		logger.CtxWarn(ctx, "Failed to record outcome of job %d: %v", result.Index, err)
	}
}

// checkHistory counts the rows stored for this run and warns when they disagree
// with the dispatch results.
func (s *SyncService) checkHistory(ctx context.Context, report *RunReport) {
	if s.runs == nil || len(report.Jobs) == 0 {
		return
	}

	completed, err := s.runs.CountByStatus(ctx, report.RunID, domain.JobStatusCompleted)
	if err != nil {
		logger.CtxWarn(ctx, "Failed to count recorded jobs: %v", err)
		return
	}
	failed, err := s.runs.CountByStatus(ctx, report.RunID, domain.JobStatusFailed)
	if err != nil {
		logger.CtxWarn(ctx, "Failed to count recorded jobs: %v", err)
		return
	}

	report.Recorded = completed + failed
	if completed != int64(report.Completed) || failed != int64(report.Failed) {
		logger.CtxWarn(ctx, "Run history holds %d completed and %d failed jobs, expected %d and %d",
			completed, failed, report.Completed, report.Failed)
	}
}
