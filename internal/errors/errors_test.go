package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	cause := stderrors.New("permission denied")
	err := New(RootUnreadable, "cannot read project root", cause)

	msg := err.Error()
	if !strings.Contains(msg, "ROOT_UNREADABLE") {
		t.Errorf("error string missing code: %s", msg)
	}
	if !strings.Contains(msg, "permission denied") {
		t.Errorf("error string missing cause: %s", msg)
	}
	if !stderrors.Is(err, cause) {
		t.Error("Unwrap should expose the cause")
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		code  ErrorCode
		fatal bool
	}{
		{RootUnreadable, true},
		{ReportWriteFailed, true},
		{BackupFailed, false},
		{TargetMissing, false},
		{FileSkipped, false},
		{LedgerConflict, false},
		{CacheUnavailable, false},
	}

	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			err := New(tc.code, "x", nil)
			if err.IsFatal() != tc.fatal {
				t.Errorf("IsFatal(%s) = %v, want %v", tc.code, err.IsFatal(), tc.fatal)
			}
		})
	}
}

func TestSuggestedFixes(t *testing.T) {
	err := New(RunNotFound, "no runs yet", nil)
	if len(err.SuggestedFixes) == 0 {
		t.Error("RunNotFound should carry a suggested fix")
	}
}
