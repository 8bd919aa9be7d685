package main

import (
	"context"
	"errors"

	"github.com/terraytm/iku/pkg/iku/interrupt"
	"github.com/terraytm/iku/pkg/iku/returncode"
	"github.com/terraytm/iku/pkg/iku/sync"
)

// exitCodeForError maps a returned error to a process exit code, per
// SPEC_FULL.md §6's return-code contract.
func exitCodeForError(err error) returncode.Code {
	if err == nil {
		return returncode.OK
	}

	var interrupted *interrupt.WithData[*sync.SyncResult]
	if errors.As(err, &interrupted) {
		return returncode.Interrupted
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return returncode.Interrupted
	}

	var usage *usageError
	if errors.As(err, &usage) {
		return usage.code
	}

	return returncode.Failed
}

// usageError carries a specific return code for a pre-flight argument or
// environment problem, distinguishing it from a generic synchronization
// failure.
type usageError struct {
	code    returncode.Code
	message string
}

func (e *usageError) Error() string {
	return e.message
}

func newUsageError(code returncode.Code, message string) *usageError {
	return &usageError{code: code, message: message}
}
