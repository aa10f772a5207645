package forumerr

import "fmt"

// Error is the structured error type for the forumsearch core. It carries
// enough context for a job handler to turn a failure into a terminal
// fail(job_id, "<Kind>: <msg>") call, or for a searcher to decide whether a
// shard failure is survivable.
type Error struct {
	Kind     Kind
	Code     string
	Message  string
	Category Category
	Severity Severity

	Details   map[string]string
	Cause     error
	Retryable bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by kind, enabling
// errors.Is(err, forumerr.New(KindNotFound, ...)) and sentinel-style
// comparisons against forumerr.Is(err, KindNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithDetail adds a key-value detail to the error. Returns the error for
// chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new Error of the given kind. Code, category, severity and
// retryability are derived from the kind.
func New(kind Kind, message string, cause error) *Error {
	info := infoFor(kind)
	return &Error{
		Kind:      kind,
		Code:      info.code,
		Message:   message,
		Category:  info.category,
		Severity:  info.severity,
		Cause:     cause,
		Retryable: info.retryable,
	}
}

// Wrap creates an Error of the given kind from an existing error, reusing
// its message.
func Wrap(kind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	return New(kind, err.Error(), err)
}

// NotFound creates a NotFound error (no such job/version/file).
func NotFound(message string, cause error) *Error {
	return New(KindNotFound, message, cause)
}

// Conflict creates a Conflict error (single-active invariant violation).
func Conflict(message string, cause error) *Error {
	return New(KindConflict, message, cause)
}

// IndexCorrupt creates an IndexCorrupt error.
func IndexCorrupt(message string, cause error) *Error {
	return New(KindIndexCorrupt, message, cause)
}

// IndexMissing creates an IndexMissing error.
func IndexMissing(message string, cause error) *Error {
	return New(KindIndexMissing, message, cause)
}

// StoreBusy creates a StoreBusy error; the caller may retry.
func StoreBusy(message string, cause error) *Error {
	return New(KindStoreBusy, message, cause)
}

// HandlerError wraps a job handler's error.
func HandlerError(message string, cause error) *Error {
	return New(KindHandlerError, message, cause)
}

// NoHandler creates a NoHandler error (unregistered job type).
func NoHandler(jobType string) *Error {
	return New(KindNoHandler, fmt.Sprintf("no handler registered for job type %q", jobType), nil)
}

// InvalidInput creates an InvalidInput validation error.
func InvalidInput(message string) *Error {
	return New(KindInvalidInput, message, nil)
}

// IsRetryable reports whether err is a *Error with Retryable set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if fe, ok := err.(*Error); ok {
		return fe.Retryable
	}
	return false
}

// IsFatal reports whether err is a *Error with fatal severity.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if fe, ok := err.(*Error); ok {
		return fe.Severity == SeverityFatal
	}
	return false
}

// KindOf extracts the Kind from err, or "" if err is not a *Error.
func KindOf(err error) Kind {
	if fe, ok := err.(*Error); ok {
		return fe.Kind
	}
	return ""
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
