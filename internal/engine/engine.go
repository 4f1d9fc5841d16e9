package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/timmy/mdb2el/internal/domain"
	"github.com/timmy/mdb2el/internal/logger"
)

const defaultBatchSize = 100

// Document is one source record ready for indexing. ID is the string form of the
// source _id; Source holds every other field.
type Document struct {
	ID     string
	Source map[string]interface{}
}

// DocumentSource reads documents from the source store.
type DocumentSource interface {
	Ping(ctx context.Context) error
	Count(ctx context.Context, database, collection string, filter interface{}) (int64, error)
	Fetch(ctx context.Context, database, collection string, filter interface{}, skip, limit int64) ([]Document, error)
}

// IndexWriter writes documents to the destination search index.
type IndexWriter interface {
	Ping(ctx context.Context) error
	Bulk(ctx context.Context, index, docType string, docs []Document) (*BulkResult, error)
}

// BulkResult summarises one bulk request.
type BulkResult struct {
	Indexed int
	Failed  int
}

// Config holds engine tuning.
type Config struct {
	BatchSize int
	Filter    interface{} // find filter applied to every collection; nil matches all
}

// Engine copies a MongoDB collection into an Elasticsearch index page by page.
type Engine struct {
	source    DocumentSource
	index     IndexWriter
	batchSize int
	filter    interface{}
}

// New creates an engine over the given source and index.
// Parameters:
//   - source: document reader.
//   - index: bulk writer.
//   - cfg: tuning; a non-positive batch size falls back to 100.
// Returns:
//   - *Engine: engine ready for Init.
func New(source DocumentSource, index IndexWriter, cfg *Config) *Engine {
	if cfg == nil {
		cfg = &Config{}
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Engine{
		source:    source,
		index:     index,
		batchSize: batchSize,
		filter:    cfg.Filter,
	}
}

// Init checks that both ends are reachable.
func (e *Engine) Init(ctx context.Context) error {
	if e.source == nil || e.index == nil {
		return errors.New("engine is missing a source or index")
	}
	if err := e.source.Ping(ctx); err != nil {
		return fmt.Errorf("source unreachable: %w", err)
	}
	if err := e.index.Ping(ctx); err != nil {
		return fmt.Errorf("index unreachable: %w", err)
	}
	return nil
}

// Synchronize copies every document of the job's collection that matches the
// filter into the job's index. Pages are read with skip/limit, count/batch+1 pages
// in total, and each non-empty page is sent as one bulk request.
func (e *Engine) Synchronize(ctx context.Context, job domain.JobDescriptor) (*domain.SyncStats, error) {
	start := time.Now()
	stats := &domain.SyncStats{}

	log := logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldDatabase:   job.SourceDatabase,
		logger.FieldCollection: job.SourceCollection,
		logger.FieldIndex:      job.TargetIndex,
		logger.FieldType:       job.TargetType,
	})

	total, err := e.source.Count(ctx, job.SourceDatabase, job.SourceCollection, e.filter)
	if err != nil {
		return stats, fmt.Errorf("failed to count documents: %w", err)
	}
	stats.Total = total

	pages := int(total/int64(e.batchSize)) + 1
	log.WithField("total", total).Infof("Sending %s documents from MongoDB to Elasticsearch", job.SourceCollection)

	for page := 0; page < pages; page++ {
		docs, err := e.source.Fetch(ctx, job.SourceDatabase, job.SourceCollection, e.filter,
			int64(page*e.batchSize), int64(e.batchSize))
		if err != nil {
			return stats, fmt.Errorf("failed to fetch page %d: %w", page, err)
		}
		stats.Pages++

		if len(docs) == 0 {
			continue
		}

		result, err := e.index.Bulk(ctx, job.TargetIndex, job.TargetType, docs)
		if result != nil {
			stats.Documents += int64(result.Indexed)
		}
		if err != nil {
			return stats, fmt.Errorf("failed to index page %d: %w", page, err)
		}

		log.WithFields(logger.Fields{
			"page":    page + 1,
			"pages":   pages,
			"indexed": stats.Documents,
		}).Debug("Bulk page indexed")
	}

	stats.Duration = time.Since(start)
	log.WithField("indexed", stats.Documents).Info("Sending finished")
	return stats, nil
}
