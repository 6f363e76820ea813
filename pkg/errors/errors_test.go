package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrorTypeConnection, "pool exhausted")

	assert.Equal(t, ErrorTypeConnection, err.Type)
	assert.Equal(t, "connection: pool exhausted", err.Error())
	assert.NotEmpty(t, err.Stack)
	assert.Nil(t, err.Cause)
}

func TestNewf(t *testing.T) {
	err := Newf(ErrorTypeState, "connector %q is not ready", "users")
	assert.Equal(t, `state: connector "users" is not ready`, err.Error())
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(cause, ErrorTypeConnection, "failed to connect")

	assert.Equal(t, ErrorTypeConnection, err.Type)
	assert.Equal(t, cause, err.Unwrap())
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeExecution, "should vanish"))
}

func TestWrapPreservesOriginalStack(t *testing.T) {
	inner := New(ErrorTypeExecution, "query failed")
	outer := Wrap(inner, ErrorTypeTimeout, "deadline exceeded")

	require.NotEmpty(t, outer.Stack)
	assert.Equal(t, inner.Stack[0], outer.Stack[0])
}

func TestWithDetail(t *testing.T) {
	err := New(ErrorTypeNoResult, "no attributes resolved").
		WithDetail("cache_key", "(uid=alice)").
		WithDetail("connector", "ldap-users")

	assert.Equal(t, "(uid=alice)", err.Details["cache_key"])
	assert.Equal(t, "ldap-users", err.Details["connector"])
}

func TestIsType(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		errType ErrorType
		want    bool
	}{
		{"exact match", New(ErrorTypeConfig, "x"), ErrorTypeConfig, true},
		{"mismatch", New(ErrorTypeConfig, "x"), ErrorTypeMapping, false},
		{"timeout matches execution", New(ErrorTypeTimeout, "x"), ErrorTypeExecution, true},
		{"execution does not match timeout", New(ErrorTypeExecution, "x"), ErrorTypeTimeout, false},
		{"foreign error", stderrors.New("x"), ErrorTypeExecution, false},
		{"wrapped in fmt", fmt.Errorf("outer: %w", New(ErrorTypeConnection, "x")), ErrorTypeConnection, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsType(tt.err, tt.errType))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(ErrorTypeConnection, "x")))
	assert.True(t, IsRetryable(New(ErrorTypeTimeout, "x")))
	assert.False(t, IsRetryable(New(ErrorTypeExecution, "x")))
	assert.False(t, IsRetryable(New(ErrorTypeNoResult, "x")))
	assert.False(t, IsRetryable(stderrors.New("x")))
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrorTypeMapping, TypeOf(New(ErrorTypeMapping, "x")))
	assert.Equal(t, ErrorTypeInternal, TypeOf(stderrors.New("x")))
	assert.Equal(t, ErrorTypeValidation,
		TypeOf(fmt.Errorf("wrapped: %w", New(ErrorTypeValidation, "x"))))
}
