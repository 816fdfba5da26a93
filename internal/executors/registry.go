package executors

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Built-in executor types
const (
	TypeEcho  = "echo"
	TypeSleep = "sleep"
	TypeBatch = "batch"
)

var (
	// ErrUnknownExecutor is returned for task types with no registered executor.
	ErrUnknownExecutor = errors.New("no executor registered for type")

	// ErrInvalidPayload is returned when a payload does not satisfy the
	// executor's schema.
	ErrInvalidPayload = errors.New("invalid task payload")
)

type entry struct {
	executor Executor
	schema   *jsonschema.Schema
}

// Registry holds executors keyed by task type. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	executors map[string]entry
	logger    *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		executors: make(map[string]entry),
		logger:    logger.With("component", "executor_registry"),
	}
}

// NewDefaultRegistry creates a registry with the built-in executors.
func NewDefaultRegistry(logger *slog.Logger) (*Registry, error) {
	r := NewRegistry(logger)
	builtins := map[string]Executor{
		TypeEcho:  &EchoExecutor{},
		TypeSleep: &SleepExecutor{},
		TypeBatch: &BatchExecutor{},
	}
	for name, e := range builtins {
		if err := r.Register(name, e); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds e under taskType, replacing any previous executor for that
// type. The executor's schema is compiled here; a broken schema is an error.
func (r *Registry) Register(taskType string, e Executor) error {
	if taskType == "" {
		return errors.New("executor type cannot be empty")
	}
	if e == nil {
		return errors.New("executor cannot be nil")
	}

	schema, err := compileSchema(taskType, e.Schema())
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.executors[taskType]; exists {
		r.logger.Warn("replacing registered executor", "task_type", taskType)
	}
	r.executors[taskType] = entry{executor: e, schema: schema}
	r.logger.Debug("registered executor", "task_type", taskType)
	return nil
}

// Get returns the executor registered for taskType.
func (r *Registry) Get(taskType string) (Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	en, ok := r.executors[taskType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownExecutor, taskType)
	}
	return en.executor, nil
}

// Types returns the registered task types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.executors))
	for name := range r.executors {
		types = append(types, name)
	}
	slices.Sort(types)
	return types
}

// Prepare looks up the executor for taskType and validates payload against
// its schema.
func (r *Registry) Prepare(taskType string, payload json.RawMessage) (Executor, error) {
	r.mu.RLock()
	en, ok := r.executors[taskType]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownExecutor, taskType)
	}
	if err := validatePayload(en.schema, payload); err != nil {
		return nil, err
	}
	return en.executor, nil
}
