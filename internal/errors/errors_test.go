package errors

import (
	"errors"
	"testing"
)

func TestNewValidationError(t *testing.T) {
	cause := errors.New("start_time is required")
	err := NewValidationError("validation failed", cause)

	if err.Type != ErrorTypeValidation {
		t.Errorf("NewValidationError type = %v, want %v", err.Type, ErrorTypeValidation)
	}
	if err.Message != "validation failed" {
		t.Errorf("NewValidationError message = %v, want %v", err.Message, "validation failed")
	}
	if err.Code != "VALIDATION_FAILED" {
		t.Errorf("NewValidationError code = %v, want %v", err.Code, "VALIDATION_FAILED")
	}
	if err.Cause != cause {
		t.Errorf("NewValidationError cause = %v, want %v", err.Cause, cause)
	}
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("time entry", "abc-123")

	if err.Type != ErrorTypeNotFound {
		t.Errorf("NewNotFoundError type = %v, want %v", err.Type, ErrorTypeNotFound)
	}
	if err.Message != "time entry not found: abc-123" {
		t.Errorf("NewNotFoundError message = %v, want %v", err.Message, "time entry not found: abc-123")
	}
	if err.Code != "NOT_FOUND" {
		t.Errorf("NewNotFoundError code = %v, want %v", err.Code, "NOT_FOUND")
	}

	resource, ok := err.GetContext("resource")
	if !ok || resource != "time entry" {
		t.Errorf("NewNotFoundError should set resource context")
	}

	identifier, ok := err.GetContext("identifier")
	if !ok || identifier != "abc-123" {
		t.Errorf("NewNotFoundError should set identifier context")
	}
}

func TestNewConflictError(t *testing.T) {
	err := NewConflictError("timer", "concurrent mutation")

	if err.Type != ErrorTypeConflict {
		t.Errorf("NewConflictError type = %v, want %v", err.Type, ErrorTypeConflict)
	}
	if err.Code != "CONFLICT" {
		t.Errorf("NewConflictError code = %v, want %v", err.Code, "CONFLICT")
	}
	if err.Message != "conflict on timer: concurrent mutation" {
		t.Errorf("NewConflictError message = %v", err.Message)
	}
}

func TestNewDatabaseError(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := NewDatabaseError("create time entry", cause)

	if err.Type != ErrorTypeDatabase {
		t.Errorf("NewDatabaseError type = %v, want %v", err.Type, ErrorTypeDatabase)
	}
	if err.Message != "database operation failed: create time entry" {
		t.Errorf("NewDatabaseError message = %v", err.Message)
	}
	if err.Cause != cause {
		t.Errorf("NewDatabaseError cause = %v, want %v", err.Cause, cause)
	}

	operation, ok := err.GetContext("operation")
	if !ok || operation != "create time entry" {
		t.Errorf("NewDatabaseError should set operation context")
	}
}

func TestWrapError(t *testing.T) {
	inner := errors.New("no such table")
	err := WrapError(inner, ErrorTypeDatabase, "query failed")

	if err.Type != ErrorTypeDatabase {
		t.Errorf("WrapError type = %v, want %v", err.Type, ErrorTypeDatabase)
	}
	if !errors.Is(err, inner) {
		t.Errorf("WrapError should unwrap to the inner error")
	}
}

func TestIsErrorType(t *testing.T) {
	err := NewNotFoundError("running timer", "task/t1")

	if !IsErrorType(err, ErrorTypeNotFound) {
		t.Errorf("IsErrorType should report not_found")
	}
	if IsErrorType(err, ErrorTypeValidation) {
		t.Errorf("IsErrorType should not report validation")
	}
	if IsErrorType(errors.New("plain"), ErrorTypeNotFound) {
		t.Errorf("IsErrorType should be false for plain errors")
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NewValidationError("bad input", nil)

	got, ok := AsAppError(appErr)
	if !ok || got != appErr {
		t.Errorf("AsAppError should recover the AppError")
	}

	if _, ok := AsAppError(errors.New("plain")); ok {
		t.Errorf("AsAppError should fail for plain errors")
	}
}

func TestGetUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "validation errors pass through",
			err:  NewValidationError("end_time before start_time", nil),
			want: "end_time before start_time",
		},
		{
			name: "not found errors pass through",
			err:  NewNotFoundError("running timer", "task/t1"),
			want: "running timer not found: task/t1",
		},
		{
			name: "database errors are masked",
			err:  NewDatabaseError("update", errors.New("locked")),
			want: "A database error occurred. Please try again.",
		},
		{
			name: "plain errors pass through",
			err:  errors.New("boom"),
			want: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetUserMessage(tt.err); got != tt.want {
				t.Errorf("GetUserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShouldLogError(t *testing.T) {
	if ShouldLogError(NewValidationError("bad", nil)) {
		t.Errorf("validation errors should not be logged")
	}
	if ShouldLogError(NewNotFoundError("entry", "x")) {
		t.Errorf("not found errors should not be logged")
	}
	if !ShouldLogError(NewDatabaseError("open", errors.New("boom"))) {
		t.Errorf("database errors should be logged")
	}
	if !ShouldLogError(errors.New("plain")) {
		t.Errorf("unknown errors should be logged")
	}
}
