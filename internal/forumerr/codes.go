// Package forumerr provides structured error handling for the forumsearch
// core.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: not-found errors (job, version, file)
//   - 2XX: conflict / invariant-violation errors
//   - 3XX: index integrity errors (corrupt, missing on disk)
//   - 4XX: storage-availability errors
//   - 5XX: handler and job-dispatch errors
//   - 6XX: input validation errors
package forumerr

// Category classifies an error for logging and dashboards.
type Category string

const (
	CategoryNotFound   Category = "NOT_FOUND"
	CategoryConflict   Category = "CONFLICT"
	CategoryIndex      Category = "INDEX"
	CategoryStorage    Category = "STORAGE"
	CategoryHandler    Category = "HANDLER"
	CategoryValidation Category = "VALIDATION"
)

// Severity defines error severity levels.
type Severity string

const (
	SeverityFatal   Severity = "FATAL"
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// Kind enumerates the error kinds surfaced by the core.
type Kind string

const (
	// KindNotFound means no such job/version/file.
	KindNotFound Kind = "NotFound"
	// KindConflict means activation would violate the single-active
	// invariant, or a concurrent duplicate insert occurred.
	KindConflict Kind = "Conflict"
	// KindIndexCorrupt means a file cannot be deserialized or fails
	// structural checks.
	KindIndexCorrupt Kind = "IndexCorrupt"
	// KindIndexMissing means the catalogue names an active version whose
	// file is absent on disk. Searchers log and skip the shard.
	KindIndexMissing Kind = "IndexMissing"
	// KindStoreBusy means the database lock was not acquired within the
	// busy-timeout; the caller may retry.
	KindStoreBusy Kind = "StoreBusy"
	// KindHandlerError wraps an error returned by a job handler.
	KindHandlerError Kind = "HandlerError"
	// KindNoHandler means a worker claimed a job whose type has no
	// registered handler; the job is failed, non-retryable.
	KindNoHandler Kind = "NoHandler"
	// KindInvalidInput means a validation failure: empty query,
	// out-of-range page size, malformed cursor. Never retried.
	KindInvalidInput Kind = "InvalidInput"
)

// codeInfo holds a Kind's numeric code, category, severity and default
// retryability; kindInfo maps each Kind to its codeInfo.
type codeInfo struct {
	code      string
	category  Category
	severity  Severity
	retryable bool
}

var kindInfo = map[Kind]codeInfo{
	KindNotFound:     {"ERR_101_NOT_FOUND", CategoryNotFound, SeverityError, false},
	KindConflict:     {"ERR_201_CONFLICT", CategoryConflict, SeverityError, false},
	KindIndexCorrupt: {"ERR_301_INDEX_CORRUPT", CategoryIndex, SeverityFatal, false},
	KindIndexMissing: {"ERR_302_INDEX_MISSING", CategoryIndex, SeverityWarning, false},
	KindStoreBusy:    {"ERR_401_STORE_BUSY", CategoryStorage, SeverityWarning, true},
	KindHandlerError: {"ERR_501_HANDLER_ERROR", CategoryHandler, SeverityError, false},
	KindNoHandler:    {"ERR_502_NO_HANDLER", CategoryHandler, SeverityError, false},
	KindInvalidInput: {"ERR_601_INVALID_INPUT", CategoryValidation, SeverityError, false},
}

func infoFor(kind Kind) codeInfo {
	if info, ok := kindInfo[kind]; ok {
		return info
	}
	return codeInfo{code: "ERR_599_UNKNOWN", category: CategoryHandler, severity: SeverityError}
}
