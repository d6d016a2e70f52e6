// Package errors defines stable error codes for all rewire failure modes.
package errors

import (
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// RootUnreadable indicates the project root cannot be read at all (fatal)
	RootUnreadable ErrorCode = "ROOT_UNREADABLE"
	// ReportWriteFailed indicates the output report directory cannot be written (fatal)
	ReportWriteFailed ErrorCode = "REPORT_WRITE_FAILED"
	// FileSkipped indicates a single file was excluded from the scan (non-fatal)
	FileSkipped ErrorCode = "FILE_SKIPPED"
	// BackupFailed indicates a pre-write backup copy failed for one candidate
	BackupFailed ErrorCode = "BACKUP_FAILED"
	// TargetMissing indicates a patch target vanished between planning and applying
	TargetMissing ErrorCode = "TARGET_MISSING"
	// NoSuitableTarget indicates no barrel file exists and none may be synthesized
	NoSuitableTarget ErrorCode = "NO_SUITABLE_TARGET"
	// LedgerConflict indicates a candidate status transition lost a compare-and-swap
	LedgerConflict ErrorCode = "LEDGER_CONFLICT"
	// CacheUnavailable indicates the scan cache database cannot be opened
	CacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
	// RunNotFound indicates no previous run exists under the output directory
	RunNotFound ErrorCode = "RUN_NOT_FOUND"
	// InternalError indicates an unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Command     string `json:"command,omitempty"`
	Description string `json:"description,omitempty"`
}

// RewireError represents a rewire error with code, message, and suggestions
type RewireError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a new RewireError
func New(code ErrorCode, message string, cause error) *RewireError {
	return &RewireError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: suggestedFixes[code],
	}
}

// Error implements the error interface
func (e *RewireError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *RewireError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *RewireError) WithDetails(details interface{}) *RewireError {
	e.Details = details
	return e
}

// IsFatal reports whether the error code should abort the whole run.
// Only an unreadable project root or an unwritable report directory stop
// the pipeline; everything else degrades per file or per candidate.
func (e *RewireError) IsFatal() bool {
	return e.Code == RootUnreadable || e.Code == ReportWriteFailed
}

// suggestedFixes maps error codes to suggested fix actions
var suggestedFixes = map[ErrorCode][]FixAction{
	RootUnreadable: {
		{
			Command:     "rewire scan --root <path>",
			Description: "Point --root at a readable project directory",
		},
	},
	RunNotFound: {
		{
			Command:     "rewire scan",
			Description: "Run a scan first to produce a report",
		},
	},
	CacheUnavailable: {
		{
			Command:     "rewire scan --no-cache",
			Description: "Bypass the scan cache for this run",
		},
	},
}
