package errors

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil error", nil, ""},
		{"simple error", errors.New("something went wrong"), "Error: something went wrong"},
		{"sentinel", ErrHabitNotFound, "Error: habit not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.err); got != tt.expected {
				t.Errorf("Format(%v) = %q, want %q", tt.err, got, tt.expected)
			}
		})
	}
}

func TestFormatf(t *testing.T) {
	if got := Formatf("failed to load %s", "snapshot"); got != "Error: failed to load snapshot" {
		t.Errorf("Formatf() = %q", got)
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"quota", ErrQuotaExceeded, true},
		{"wrapped quota", fmt.Errorf("%w: %w", ErrLocalSave, ErrQuotaExceeded), true},
		{"local save", fmt.Errorf("%w: disk full", ErrLocalSave), true},
		{"offline", ErrOffline, false},
		{"remote", fmt.Errorf("%w: timeout", ErrRemoteUnavailable), false},
		{"corrupt", ErrCorruptData, false},
		{"partial sync", &PartialSyncError{Failures: []error{errors.New("x")}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestPartialSyncError(t *testing.T) {
	cause := errors.New("upsert habit h1: connection reset")
	err := error(&PartialSyncError{Processed: 3, Failures: []error{cause}})

	if !errors.Is(err, ErrPartialSyncFailure) {
		t.Error("expected errors.Is to match ErrPartialSyncFailure")
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the individual failure")
	}
	var pse *PartialSyncError
	if !errors.As(err, &pse) || pse.Processed != 3 {
		t.Errorf("errors.As failed or lost Processed: %+v", pse)
	}
	msg := err.Error()
	if !strings.Contains(msg, "1 failed, 3 processed") || !strings.Contains(msg, "connection reset") {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestFatal(t *testing.T) {
	if os.Getenv("GO_TEST_FATAL") == "1" {
		Fatal(errors.New("test error"))
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestFatal$")
	cmd.Env = append(os.Environ(), "GO_TEST_FATAL=1")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Fatal() did not exit with error: %v", err)
	}
	if exitErr.ExitCode() != 1 {
		t.Errorf("Fatal() exit code = %d, want 1", exitErr.ExitCode())
	}
	if !strings.Contains(stderr.String(), "Error: test error") {
		t.Errorf("Fatal() stderr = %q, want to contain %q", stderr.String(), "Error: test error")
	}
}

func TestFatal_NilError(t *testing.T) {
	if os.Getenv("GO_TEST_FATAL_NIL") == "1" {
		Fatal(nil)
		os.Exit(0)
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestFatal_NilError")
	cmd.Env = append(os.Environ(), "GO_TEST_FATAL_NIL=1")
	if err := cmd.Run(); err != nil {
		t.Errorf("Fatal(nil) should not exit, but got error: %v", err)
	}
}
