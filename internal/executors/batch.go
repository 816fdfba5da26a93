package executors

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// BatchExecutor walks a list of items, counting each one as completed or
// failed on the task. Items listed in "fail" are counted as failed, which
// makes it a stand-in for imports where individual rows can be rejected.
type BatchExecutor struct{}

type batchPayload struct {
	Items       []string `json:"items"`
	Fail        []string `json:"fail"`
	ItemDelayMS int64    `json:"item_delay_ms"`
}

// Schema implements Executor.
func (e *BatchExecutor) Schema() string {
	return `{
		"type": "object",
		"properties": {
			"items": {
				"type": "array",
				"items": {"type": "string", "minLength": 1},
				"minItems": 1,
				"maxItems": 100000
			},
			"fail": {"type": "array", "items": {"type": "string"}},
			"item_delay_ms": {"type": "integer", "minimum": 0, "maximum": 60000}
		},
		"required": ["items"],
		"additionalProperties": false
	}`
}

// TotalItems implements Sizer.
func (e *BatchExecutor) TotalItems(payload json.RawMessage) (int, error) {
	p, err := decodeBatch(payload)
	if err != nil {
		return 0, err
	}
	return len(p.Items), nil
}

// Execute implements Executor. It fails only when every item failed.
func (e *BatchExecutor) Execute(ctx context.Context, job Job) error {
	p, err := decodeBatch(job.Task.Payload)
	if err != nil {
		return err
	}
	delay := time.Duration(p.ItemDelayMS) * time.Millisecond
	id := job.Task.ID

	failed := 0
	for _, item := range p.Items {
		if err := pause(ctx, delay); err != nil {
			return err
		}
		if slices.Contains(p.Fail, item) {
			failed++
			job.Items.IncrementFailed(id)
			continue
		}
		job.Items.IncrementCompleted(id, item)
	}

	if failed == len(p.Items) {
		return fmt.Errorf("all %d items failed", failed)
	}
	return nil
}

func decodeBatch(payload json.RawMessage) (batchPayload, error) {
	var p batchPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return p, fmt.Errorf("decode batch payload: %w", err)
	}
	return p, nil
}

// pause waits for d or until ctx is done. A zero d still observes ctx.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return context.Cause(ctx)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-timer.C:
		return nil
	}
}
