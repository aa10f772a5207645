// Package mcpserver implements the Model Context Protocol tool server
// for forumsearch: a search, suggest, and index_status tool over the
// already-built bm25/tfidf/vector/autocomplete indexes.
package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/forumsearch/core/internal/forumerr"
)

// Standard JSON-RPC error codes, plus forumsearch-specific codes in
// the -32000 range the MCP spec reserves for server-defined errors.
const (
	codeInvalidParams = -32602
	codeInternalError = -32603
	codeIndexMissing  = -32001
	codeTimeout       = -32002
)

// ToolError is a JSON-RPC-shaped error returned from a tool handler.
type ToolError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("mcp error %d: %s", e.Code, e.Message)
}

// invalidParams builds a ToolError for a caller-supplied argument
// problem (missing query, unknown index_type, etc.).
func invalidParams(msg string) *ToolError {
	return &ToolError{Code: codeInvalidParams, Message: msg}
}

// mapError translates a forumsearch error (or context cancellation)
// into a ToolError a client can act on, defaulting to an opaque
// internal error for anything unrecognized.
func mapError(err error) *ToolError {
	if err == nil {
		return nil
	}

	var fe *forumerr.Error
	if errors.As(err, &fe) {
		switch fe.Kind {
		case forumerr.KindInvalidInput:
			return invalidParams(fe.Message)
		case forumerr.KindIndexMissing, forumerr.KindIndexCorrupt, forumerr.KindNotFound:
			return &ToolError{Code: codeIndexMissing, Message: fe.Message}
		default:
			return &ToolError{Code: codeInternalError, Message: fe.Message}
		}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &ToolError{Code: codeTimeout, Message: "request timed out or was canceled"}
	default:
		return &ToolError{Code: codeInternalError, Message: "internal error"}
	}
}
