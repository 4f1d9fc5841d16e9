package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// ElasticConfig holds configuration for the Elasticsearch client.
type ElasticConfig struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

// BulkIndexer implements IndexWriter with the Elasticsearch _bulk API.
type BulkIndexer struct {
	client *resty.Client
}

// NewBulkIndexer creates a new Elasticsearch bulk client.
func NewBulkIndexer(cfg *ElasticConfig) *BulkIndexer {
	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	if cfg.Username != "" {
		client.SetBasicAuth(cfg.Username, cfg.Password)
	}

	return &BulkIndexer{client: client}
}

// Ping checks the node answers on its root endpoint.
func (b *BulkIndexer) Ping(ctx context.Context) error {
	resp, err := b.client.R().SetContext(ctx).Get("/")
	if err != nil {
		return fmt.Errorf("failed to reach Elasticsearch: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("Elasticsearch ping failed: status %d", resp.StatusCode())
	}
	return nil
}

// Bulk API request/response structures
type bulkAction struct {
	Index bulkActionMeta `json:"index"`
}

type bulkActionMeta struct {
	Index string `json:"_index"`
	Type  string `json:"_type,omitempty"`
	ID    string `json:"_id,omitempty"`
}

type bulkItemError struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type bulkItem struct {
	ID     string         `json:"_id"`
	Status int            `json:"status"`
	Error  *bulkItemError `json:"error,omitempty"`
}

type bulkResponse struct {
	Took   int                   `json:"took"`
	Errors bool                  `json:"errors"`
	Items  []map[string]bulkItem `json:"items"`
}

// Bulk indexes docs into index. An empty docType leaves _type out of the action.
// Item-level failures are counted and reported as an error.
func (b *BulkIndexer) Bulk(ctx context.Context, index, docType string, docs []Document) (*BulkResult, error) {
	if len(docs) == 0 {
		return &BulkResult{}, nil
	}

	body, err := buildBulkBody(index, docType, docs)
	if err != nil {
		return nil, err
	}

	var resp bulkResponse
	httpResp, err := b.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-ndjson").
		SetBody(body).
		SetResult(&resp).
		Post("/_bulk")

	if err != nil {
		return nil, fmt.Errorf("failed to call bulk API: %w", err)
	}

	if httpResp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("bulk API error: status %d: %s", httpResp.StatusCode(), httpResp.String())
	}

	result := &BulkResult{}
	var firstErr *bulkItemError
	for _, item := range resp.Items {
		for _, status := range item {
			if status.Error != nil || status.Status >= 300 {
				result.Failed++
				if firstErr == nil && status.Error != nil {
					firstErr = status.Error
				}
				continue
			}
			result.Indexed++
		}
	}

	if resp.Errors || result.Failed > 0 {
		if firstErr != nil {
			return result, fmt.Errorf("bulk API rejected %d of %d documents: %s: %s",
				result.Failed, len(docs), firstErr.Type, firstErr.Reason)
		}
		return result, fmt.Errorf("bulk API rejected %d of %d documents", result.Failed, len(docs))
	}

	return result, nil
}

// buildBulkBody renders the NDJSON body: an action line then the source line for
// each document, newline-terminated.
func buildBulkBody(index, docType string, docs []Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range docs {
		action := bulkAction{Index: bulkActionMeta{Index: index, Type: docType, ID: doc.ID}}
		if err := enc.Encode(action); err != nil {
			return nil, fmt.Errorf("failed to encode bulk action: %w", err)
		}
		source := doc.Source
		if source == nil {
			source = map[string]interface{}{}
		}
		if err := enc.Encode(source); err != nil {
			return nil, fmt.Errorf("failed to encode document %s: %w", doc.ID, err)
		}
	}
	return buf.Bytes(), nil
}
