package executors

import (
	"context"
	"encoding/json"
	"fmt"
)

// EchoExecutor completes immediately, copying the payload message into the
// task message.
type EchoExecutor struct{}

type echoPayload struct {
	Message string `json:"message"`
}

// Schema implements Executor.
func (e *EchoExecutor) Schema() string {
	return `{
		"type": "object",
		"properties": {"message": {"type": "string", "maxLength": 1024}},
		"additionalProperties": false
	}`
}

// Execute implements Executor.
func (e *EchoExecutor) Execute(ctx context.Context, job Job) error {
	if err := context.Cause(ctx); err != nil {
		return err
	}

	var p echoPayload
	if len(job.Task.Payload) > 0 {
		if err := json.Unmarshal(job.Task.Payload, &p); err != nil {
			return fmt.Errorf("decode echo payload: %w", err)
		}
	}
	if p.Message == "" {
		p.Message = "echo"
	}

	job.Report(100, p.Message)
	return nil
}
