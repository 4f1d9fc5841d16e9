package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/timmy/mdb2el/internal/domain"
	"github.com/timmy/mdb2el/internal/logger"
)

// ErrEngineUnavailable is returned when the engine cannot be initialised; no job runs.
var ErrEngineUnavailable = errors.New("synchronization engine unavailable")

// SyncEngine performs the document transfer for one job.
type SyncEngine interface {
	// Init prepares the engine. It is called once, before the first job.
	Init(ctx context.Context) error

	// Synchronize transfers the documents of one job. It blocks until done.
	Synchronize(ctx context.Context, job domain.JobDescriptor) (*domain.SyncStats, error)
}

// JobResult is the outcome of one dispatched job.
type JobResult struct {
	Index     int                  `json:"index"`
	Job       domain.JobDescriptor `json:"job"`
	Status    domain.JobStatus     `json:"status"`
	Documents int64                `json:"documents"`
	Err       error                `json:"-"`
	Error     string               `json:"error,omitempty"`
	StartedAt time.Time            `json:"started_at"`
	Duration  time.Duration        `json:"duration"`
}

// Failed reports whether the job ended in error.
func (r *JobResult) Failed() bool {
	return r.Status == domain.JobStatusFailed
}

// Dispatcher runs jobs through a SyncEngine one at a time, in order.
type Dispatcher struct {
	engine SyncEngine
	logger *logger.Logger
}

// New creates a dispatcher.
// Parameters:
//   - engine: synchronization capability invoked once per job.
//   - log: fallback logger when the context carries none.
// Returns:
//   - *Dispatcher: dispatcher bound to engine.
func New(engine SyncEngine, log *logger.Logger) *Dispatcher {
	return &Dispatcher{engine: engine, logger: log}
}

// DispatchAll invokes the engine for jobs[0], jobs[1], ... in order and returns one
// result per job. A failing job is recorded and the next job still runs.
// Parameters:
//   - ctx: context handed to the engine.
//   - jobs: descriptors to run; incomplete descriptors are dispatched as they are.
// Returns:
//   - []JobResult: results in job order.
//   - error: ErrEngineUnavailable when the engine could not be initialised.
func (d *Dispatcher) DispatchAll(ctx context.Context, jobs []domain.JobDescriptor) ([]JobResult, error) {
	ctx = logger.EnsureContext(ctx, d.logger)

	if len(jobs) == 0 {
		logger.FromContext(ctx).Info("No jobs to dispatch")
		return nil, nil
	}

	if err := d.engine.Init(ctx); err != nil {
		logger.FromContext(ctx).WithError(err).Error("Synchronization engine is not available")
		return nil, fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
	}

	results := make([]JobResult, 0, len(jobs))
	for i, job := range jobs {
		results = append(results, d.dispatchOne(ctx, i, job))
	}
	return results, nil
}

func (d *Dispatcher) dispatchOne(ctx context.Context, index int, job domain.JobDescriptor) JobResult {
	ctx = logger.WithField(ctx, logger.FieldJobIndex, index)

	if !job.Complete() {
		logger.FromContext(ctx).WithFields(logger.Fields{
			logger.FieldDatabase:   job.SourceDatabase,
			logger.FieldCollection: job.SourceCollection,
			logger.FieldIndex:      job.TargetIndex,
			logger.FieldType:       job.TargetType,
		}).Warn("Dispatching incomplete job")
	}

	result := JobResult{
		Index:     index,
		Job:       job,
		StartedAt: time.Now(),
	}

	stats, err := d.synchronize(ctx, job)
	result.Duration = time.Since(result.StartedAt)
	if stats != nil {
		result.Documents = stats.Documents
	}

	entry := logger.With(logger.Fields{logger.FieldJobIndex: index}).
		WithDuration(result.Duration.Milliseconds()).
		WithCount(result.Documents)

	if err != nil {
		result.Status = domain.JobStatusFailed
		result.Err = err
		result.Error = err.Error()
		entry.WithStatus(string(result.Status)).Error(ctx, "Job %d failed: %v", index, err)
		return result
	}

	result.Status = domain.JobStatusCompleted
	entry.WithStatus(string(result.Status)).Info(ctx, "Job %d completed", index)
	return result
}

// synchronize shields the loop from an engine panic so later jobs still run.
func (d *Dispatcher) synchronize(ctx context.Context, job domain.JobDescriptor) (stats *domain.SyncStats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()
	return d.engine.Synchronize(ctx, job)
}
