package executors

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExecutor struct {
	schema string
}

func (s *stubExecutor) Schema() string                   { return s.schema }
func (s *stubExecutor) Execute(context.Context, Job) error { return nil }

func TestDefaultRegistry_BuiltinTypes(t *testing.T) {
	t.Parallel()

	r, err := NewDefaultRegistry(setupTestLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{TypeBatch, TypeEcho, TypeSleep}, r.Types())

	testCases := []struct {
		taskType     string
		expectedType interface{}
	}{
		{TypeEcho, &EchoExecutor{}},
		{TypeSleep, &SleepExecutor{}},
		{TypeBatch, &BatchExecutor{}},
	}
	for _, tc := range testCases {
		e, err := r.Get(tc.taskType)
		require.NoError(t, err)
		assert.IsType(t, tc.expectedType, e)
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	t.Parallel()

	r := NewRegistry(setupTestLogger())
	e, err := r.Get("unknown-type-for-testing")

	assert.Nil(t, e)
	assert.ErrorIs(t, err, ErrUnknownExecutor)
	assert.EqualError(t, err, "no executor registered for type: unknown-type-for-testing")
}

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	r := NewRegistry(setupTestLogger())

	assert.Error(t, r.Register("", &stubExecutor{}))
	assert.Error(t, r.Register("stub", nil))

	err := r.Register("broken", &stubExecutor{schema: `{"type": "str"}`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to compile JSON schema")

	first := &stubExecutor{}
	second := &stubExecutor{}
	require.NoError(t, r.Register("stub", first))
	require.NoError(t, r.Register("stub", second))
	got, err := r.Get("stub")
	require.NoError(t, err)
	assert.Same(t, second, got, "later registration replaces earlier one")
}

func TestRegistry_Prepare(t *testing.T) {
	t.Parallel()

	r, err := NewDefaultRegistry(setupTestLogger())
	require.NoError(t, err)

	tests := []struct {
		name     string
		taskType string
		payload  string
		errIs    error
		contains string
	}{
		{name: "valid sleep", taskType: TypeSleep, payload: `{"duration_ms": 10}`},
		{name: "echo without payload", taskType: TypeEcho, payload: ``},
		{
			name:     "missing required field",
			taskType: TypeSleep,
			payload:  `{}`,
			errIs:    ErrInvalidPayload,
			contains: "missing properties: 'duration_ms'",
		},
		{
			name:     "empty payload still checks required fields",
			taskType: TypeBatch,
			payload:  ``,
			errIs:    ErrInvalidPayload,
			contains: "missing properties: 'items'",
		},
		{
			name:     "wrong type",
			taskType: TypeSleep,
			payload:  `{"duration_ms": "ten"}`,
			errIs:    ErrInvalidPayload,
			contains: "expected integer, but got string",
		},
		{
			name:     "below minimum",
			taskType: TypeSleep,
			payload:  `{"duration_ms": 0}`,
			errIs:    ErrInvalidPayload,
			contains: "/duration_ms",
		},
		{
			name:     "malformed json",
			taskType: TypeEcho,
			payload:  `{"message":`,
			errIs:    ErrInvalidPayload,
			contains: "malformed JSON",
		},
		{
			name:     "unknown type",
			taskType: "nope",
			payload:  `{}`,
			errIs:    ErrUnknownExecutor,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			e, err := r.Prepare(tc.taskType, json.RawMessage(tc.payload))
			if tc.errIs == nil {
				require.NoError(t, err)
				assert.NotNil(t, e)
				return
			}
			require.Error(t, err)
			assert.Nil(t, e)
			assert.ErrorIs(t, err, tc.errIs)
			if tc.contains != "" {
				assert.Contains(t, err.Error(), tc.contains)
			}
		})
	}
}

func TestRegistry_NoSchemaAcceptsAnything(t *testing.T) {
	t.Parallel()

	r := NewRegistry(setupTestLogger())
	require.NoError(t, r.Register("free", &stubExecutor{}))

	_, err := r.Prepare("free", json.RawMessage(`[1, 2, 3]`))
	assert.NoError(t, err)
}
