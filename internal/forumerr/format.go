package forumerr

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatForCLI formats an error for CLI output in the forumsearch commands.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	fe, ok := err.(*Error)
	if !ok {
		fe = Wrap(KindHandlerError, err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", fe.Message))
	sb.WriteString(fmt.Sprintf("  Kind: %s\n", fe.Kind))
	sb.WriteString(fmt.Sprintf("  Code: %s\n", fe.Code))
	return sb.String()
}

// jsonError is the JSON representation of an error, used by the MCP tool
// surface to report failures to callers.
type jsonError struct {
	Kind      string            `json:"kind"`
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Category  string            `json:"category"`
	Severity  string            `json:"severity"`
	Details   map[string]string `json:"details,omitempty"`
	Cause     string            `json:"cause,omitempty"`
	Retryable bool              `json:"retryable"`
}

// FormatJSON returns a JSON representation of the error.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}

	fe, ok := err.(*Error)
	if !ok {
		fe = Wrap(KindHandlerError, err)
	}

	je := jsonError{
		Kind:      string(fe.Kind),
		Code:      fe.Code,
		Message:   fe.Message,
		Category:  string(fe.Category),
		Severity:  string(fe.Severity),
		Details:   fe.Details,
		Retryable: fe.Retryable,
	}
	if fe.Cause != nil {
		je.Cause = fe.Cause.Error()
	}

	return json.Marshal(je)
}

// FormatForLog formats an error as key-value pairs suitable for slog
// attributes.
func FormatForLog(err error) map[string]any {
	if err == nil {
		return nil
	}

	fe, ok := err.(*Error)
	if !ok {
		return map[string]any{"error": err.Error()}
	}

	result := map[string]any{
		"error_kind": string(fe.Kind),
		"error_code": fe.Code,
		"message":    fe.Message,
		"category":   string(fe.Category),
		"severity":   string(fe.Severity),
		"retryable":  fe.Retryable,
	}
	if fe.Cause != nil {
		result["cause"] = fe.Cause.Error()
	}
	for k, v := range fe.Details {
		result["detail_"+k] = v
	}
	return result
}
