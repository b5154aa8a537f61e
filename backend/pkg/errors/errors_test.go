package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsErrorType_WalksWrapChain(t *testing.T) {
	malformed := NewMalformedRecord("book", "b1", "topics", fmt.Errorf("bad json"))
	storeErr := NewStoreUnavailable("list books", malformed)
	wrapped := fmt.Errorf("build graph: %w", storeErr)

	assert.True(t, IsStoreUnavailable(wrapped))
	assert.True(t, IsErrorType(wrapped, ErrorTypeData))
	assert.False(t, IsNotFound(wrapped))
	assert.False(t, IsRetryable(wrapped), "malformed data is not worth retrying")
}

func TestTypedErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		errType ErrorType
		message string
	}{
		{"not found", NewNotFound("node", "book-x"), ErrorTypeNotFound, "[not_found] node not found: book-x"},
		{"invalid argument", NewInvalidArgument("depth", "must be at least 1"), ErrorTypeInvalidArgument, "[invalid_argument] invalid depth: must be at least 1"},
		{"config", NewConfigMissingRequired("NEO4J_URI"), ErrorTypeConfig, "[config] missing required config: NEO4J_URI"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, IsErrorType(tt.err, tt.errType))
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}

func TestErrorsAs(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NewNotFound("seed", "book-404"))

	var nf *ErrNotFound
	if assert.True(t, stderrors.As(err, &nf)) {
		assert.Equal(t, "seed", nf.Kind)
		assert.Equal(t, "book-404", nf.ID)
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewStoreUnavailable("list episodes", fmt.Errorf("connection refused"))))
	assert.False(t, IsRetryable(NewContextCancelled("list episodes", nil)))
	assert.False(t, IsRetryable(NewInvalidArgument("limit", "must be positive")))
}

func TestNewStoreFailure(t *testing.T) {
	driverErr := fmt.Errorf("connection reset by peer")

	err := NewStoreFailure(context.Background(), "list books", driverErr)
	assert.True(t, IsStoreUnavailable(err))
	assert.ErrorIs(t, err, driverErr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = NewStoreFailure(ctx, "list books", driverErr)
	assert.True(t, IsErrorType(err, ErrorTypeContext))
	assert.False(t, IsStoreUnavailable(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsRetryable(err))
}
