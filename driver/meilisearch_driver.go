package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/meilisearch/meilisearch-go"
)

const meiliTaskPollInterval = 50 * time.Millisecond

// MeilisearchDriver stores index entries in a Meilisearch index keyed by "id".
// Meilisearch ranks with its own relevancy rules, so BM25 shape parameters do not apply.
type MeilisearchDriver struct {
	client meilisearch.ServiceManager
	index  meilisearch.IndexManager
	name   string
}

func NewMeilisearchDriver(client meilisearch.ServiceManager, indexName string) *MeilisearchDriver {
	return &MeilisearchDriver{
		client: client,
		index:  client.Index(indexName),
		name:   indexName,
	}
}

func (d *MeilisearchDriver) IndexName() string {
	return d.name
}

// Ping checks the instance health endpoint.
func (d *MeilisearchDriver) Ping(ctx context.Context) error {
	if _, err := d.client.HealthWithContext(ctx); err != nil {
		return &DriverError{Op: "Ping", Err: err}
	}
	return nil
}

func (d *MeilisearchDriver) EnsureIndex(ctx context.Context) error {
	if _, err := d.index.FetchInfoWithContext(ctx); err != nil {
		// Index might not exist, create it with an explicit primary key
		task, err := d.client.CreateIndexWithContext(ctx, &meilisearch.IndexConfig{Uid: d.name, PrimaryKey: "id"})
		if err != nil {
			return &DriverError{Op: "EnsureIndex", Err: fmt.Errorf("failed to create index: %w", err)}
		}
		if err := d.waitForSuccess(ctx, task.TaskUID); err != nil {
			return &DriverError{Op: "EnsureIndex", Err: fmt.Errorf("failed to wait for index creation: %w", err)}
		}
	}

	task, err := d.index.UpdateSearchableAttributesWithContext(ctx, &[]string{"content"})
	if err != nil {
		return &DriverError{Op: "EnsureIndex", Err: fmt.Errorf("failed to set searchable attributes: %w", err)}
	}
	if err := d.waitForSuccess(ctx, task.TaskUID); err != nil {
		return &DriverError{Op: "EnsureIndex", Err: fmt.Errorf("failed to wait for settings update: %w", err)}
	}
	return nil
}

// BulkIndex adds all entries in one task and waits for it. Meilisearch applies a
// task atomically, so every entry shares the task's outcome: a failed task
// reports each entry as rejected with the task's error.
func (d *MeilisearchDriver) BulkIndex(ctx context.Context, entries []IndexEntryDriver) ([]BulkItemResult, error) {
	if len(entries) == 0 {
		return []BulkItemResult{}, nil
	}

	docs := make([]map[string]any, len(entries))
	for i, e := range entries {
		metadata := e.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		docs[i] = map[string]any{
			"id":       e.ID,
			"content":  e.Content,
			"metadata": metadata,
		}
	}

	task, err := d.index.AddDocumentsWithContext(ctx, docs, nil)
	if err != nil {
		return nil, &DriverError{Op: "BulkIndex", Err: err}
	}
	done, err := d.waitForTask(ctx, task.TaskUID)
	if err != nil {
		return nil, &DriverError{Op: "BulkIndex", Err: fmt.Errorf("failed to wait for indexing task: %w", err)}
	}

	results := make([]BulkItemResult, len(entries))
	for i, e := range entries {
		results[i] = BulkItemResult{ID: e.ID, Status: 201}
		if done.Status == meilisearch.TaskStatusFailed {
			results[i].Status = 400
			results[i].Error = taskFailure(done)
		}
	}
	return results, nil
}

// Refresh is a no-op: BulkIndex returns only after the indexing task has been applied.
func (d *MeilisearchDriver) Refresh(ctx context.Context) error {
	return ctx.Err()
}

func (d *MeilisearchDriver) Search(ctx context.Context, query string, limit int) ([]IndexEntryDriver, error) {
	if err := ctx.Err(); err != nil {
		return nil, &DriverError{Op: "Search", Err: err}
	}

	raw, err := d.index.SearchRawWithContext(ctx, query, &meilisearch.SearchRequest{
		Limit: int64(limit),
	})
	if err != nil {
		return nil, &DriverError{Op: "Search", Err: err}
	}

	var parsed struct {
		Hits []struct {
			ID       any            `json:"id"`
			Content  string         `json:"content"`
			Metadata map[string]any `json:"metadata"`
		} `json:"hits"`
	}
	if raw != nil {
		if err := json.Unmarshal(*raw, &parsed); err != nil {
			return nil, &DriverError{Op: "Search", Err: fmt.Errorf("decode search response: %w", err)}
		}
	}

	entries := make([]IndexEntryDriver, 0, len(parsed.Hits))
	for _, hit := range parsed.Hits {
		entries = append(entries, IndexEntryDriver{
			ID:       fmt.Sprint(hit.ID),
			Content:  hit.Content,
			Metadata: hit.Metadata,
		})
	}
	return entries, nil
}

func (d *MeilisearchDriver) waitForTask(ctx context.Context, taskUID int64) (*meilisearch.Task, error) {
	return d.index.WaitForTaskWithContext(ctx, taskUID, meiliTaskPollInterval)
}

func (d *MeilisearchDriver) waitForSuccess(ctx context.Context, taskUID int64) error {
	task, err := d.waitForTask(ctx, taskUID)
	if err != nil {
		return err
	}
	if task.Status == meilisearch.TaskStatusFailed {
		return fmt.Errorf("task %d failed: %s", taskUID, taskFailure(task))
	}
	return nil
}

func taskFailure(task *meilisearch.Task) string {
	if task.Error.Code == "" {
		return task.Error.Message
	}
	return task.Error.Code + ": " + task.Error.Message
}
