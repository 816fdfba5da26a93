package executors

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const defaultTickInterval = 100 * time.Millisecond

// SleepExecutor waits for the requested duration, reporting progress on
// every tick. It is mostly useful for exercising the scheduler.
type SleepExecutor struct {
	// Tick is the progress reporting interval. Zero means 100ms.
	Tick time.Duration
}

type sleepPayload struct {
	DurationMS int64 `json:"duration_ms"`
}

// Schema implements Executor.
func (e *SleepExecutor) Schema() string {
	return `{
		"type": "object",
		"properties": {
			"duration_ms": {"type": "integer", "minimum": 1, "maximum": 3600000}
		},
		"required": ["duration_ms"],
		"additionalProperties": false
	}`
}

// Execute implements Executor.
func (e *SleepExecutor) Execute(ctx context.Context, job Job) error {
	var p sleepPayload
	if err := json.Unmarshal(job.Task.Payload, &p); err != nil {
		return fmt.Errorf("decode sleep payload: %w", err)
	}
	duration := time.Duration(p.DurationMS) * time.Millisecond

	tick := e.Tick
	if tick <= 0 {
		tick = defaultTickInterval
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case <-ticker.C:
			elapsed := time.Since(start)
			if elapsed >= duration {
				job.Report(100, "")
				return nil
			}
			job.Report(int(elapsed*100/duration), fmt.Sprintf("sleeping, %s left", (duration-elapsed).Round(time.Millisecond)))
		}
	}
}
