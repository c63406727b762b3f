package errors

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/julianstephens/weighbit/internal/logger"
)

var (
	// ErrStorageUnavailable means no persistence adapter is usable; state is kept in memory only
	ErrStorageUnavailable = stderrors.New("local storage unavailable, using in-memory state")
	// ErrCorruptData means a persisted blob could not be parsed and was replaced by an empty default
	ErrCorruptData = stderrors.New("stored data is corrupted, reset to defaults")
	// ErrQuotaExceeded means the adapter rejected a write for lack of space; the write is lost
	ErrQuotaExceeded = stderrors.New("storage quota exceeded")
	// ErrHabitNotFound means a mutation referenced an unknown habit; the snapshot is unchanged
	ErrHabitNotFound = stderrors.New("habit not found")
	// ErrCategoryNotFound means a mutation referenced an unknown category; the snapshot is unchanged
	ErrCategoryNotFound = stderrors.New("category not found")
	// ErrInvalidInput means a mutation was rejected by validation; the snapshot is unchanged
	ErrInvalidInput = stderrors.New("invalid input")
	// ErrOffline means a sync was skipped because there is no connectivity
	ErrOffline = stderrors.New("offline")
	// ErrRemoteUnavailable means the remote store could not be reached or rejected a request
	ErrRemoteUnavailable = stderrors.New("remote store unavailable")
	// ErrPartialSyncFailure means some offline queue entries failed replay; the queue was retained
	ErrPartialSyncFailure = stderrors.New("some queued operations failed to sync")
	// ErrLocalSave means a user-initiated mutation could not be written locally
	ErrLocalSave = stderrors.New("failed to save local data")
)

// PartialSyncError lists the queue entries that failed during a replay.
type PartialSyncError struct {
	Processed int
	Failures  []error
}

func (e *PartialSyncError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("%s (%d failed, %d processed): %s",
		ErrPartialSyncFailure, len(e.Failures), e.Processed, strings.Join(msgs, "; "))
}

func (e *PartialSyncError) Is(target error) bool {
	return target == ErrPartialSyncFailure
}

func (e *PartialSyncError) Unwrap() []error {
	return e.Failures
}

// IsFatal reports whether err must be surfaced to the user as a blocking error.
// Only a failed local save after a user mutation qualifies; everything else
// (offline, remote failures, corrupt or missing storage) degrades gracefully.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, ErrQuotaExceeded) || stderrors.Is(err, ErrLocalSave)
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
