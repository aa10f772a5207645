package mcpserver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/forumsearch/core/internal/forumerr"
)

func TestMapError_Nil(t *testing.T) {
	assert.Nil(t, mapError(nil))
}

func TestMapError_InvalidInput(t *testing.T) {
	err := mapError(forumerr.InvalidInput("query is required"))
	if assert.NotNil(t, err) {
		assert.Equal(t, codeInvalidParams, err.Code)
		assert.Equal(t, "query is required", err.Message)
	}
}

func TestMapError_IndexMissing(t *testing.T) {
	err := mapError(forumerr.IndexMissing("no active bm25 version for shard s0", nil))
	if assert.NotNil(t, err) {
		assert.Equal(t, codeIndexMissing, err.Code)
	}
}

func TestMapError_NotFound(t *testing.T) {
	err := mapError(forumerr.NotFound("job 42 not found", nil))
	if assert.NotNil(t, err) {
		assert.Equal(t, codeIndexMissing, err.Code)
	}
}

func TestMapError_OtherKindIsInternal(t *testing.T) {
	err := mapError(forumerr.StoreBusy("database is locked", nil))
	if assert.NotNil(t, err) {
		assert.Equal(t, codeInternalError, err.Code)
	}
}

func TestMapError_ContextCanceled(t *testing.T) {
	err := mapError(context.Canceled)
	if assert.NotNil(t, err) {
		assert.Equal(t, codeTimeout, err.Code)
	}
}

func TestMapError_DeadlineExceeded(t *testing.T) {
	err := mapError(context.DeadlineExceeded)
	if assert.NotNil(t, err) {
		assert.Equal(t, codeTimeout, err.Code)
	}
}

func TestMapError_UnrecognizedIsOpaqueInternal(t *testing.T) {
	err := mapError(errors.New("boom"))
	if assert.NotNil(t, err) {
		assert.Equal(t, codeInternalError, err.Code)
		assert.Equal(t, "internal error", err.Message, "unrecognized errors should not leak their message to the client")
	}
}

func TestToolError_ErrorString(t *testing.T) {
	err := &ToolError{Code: codeInvalidParams, Message: "bad input"}
	assert.Contains(t, err.Error(), "bad input")
	assert.Contains(t, err.Error(), "-32602")
}
