package shared

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name string `json:"name" validate:"required,max=8"`
	Age  int    `json:"age" validate:"gte=0"`
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		requestBody string
		wantErr     bool
		errContains string
	}{
		{name: "valid json", requestBody: `{"name": "test", "age": 30}`},
		{name: "invalid json", requestBody: `{"name": "test", "age": 30,}`, wantErr: true, errContains: "invalid character"},
		{name: "empty body", requestBody: "", wantErr: true, errContains: "EOF"},
		{name: "unknown field", requestBody: `{"nme": "test"}`, wantErr: true, errContains: "unknown field"},
		{name: "trailing object", requestBody: `{"name": "a"} {"name": "b"}`, wantErr: true, errContains: "single JSON object"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(tc.requestBody))

			var got sampleRequest
			err := DecodeJSON(req, &got)

			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, sampleRequest{Name: "test", Age: 30}, got)
		})
	}
}

type selfValidating struct{}

func (selfValidating) Validate() error { return errors.New("custom rule") }

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateRequest(&sampleRequest{Name: "ok"}))
	assert.EqualError(t, ValidateRequest(selfValidating{}), "custom rule")

	err := ValidateRequest(&sampleRequest{})
	require.Error(t, err)
	assert.Equal(t, "Invalid Name: required field", DescribeValidationError(err))

	err = ValidateRequest(&sampleRequest{Name: "much too long"})
	assert.Equal(t, "Invalid Name: too long", DescribeValidationError(err))

	err = ValidateRequest(&sampleRequest{Name: "x", Age: -1})
	assert.Equal(t, "Invalid Age: too small", DescribeValidationError(err))

	assert.Equal(t, "Validation error", DescribeValidationError(errors.New("other")))
}
