package sfosql

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrorCode classifies a database failure.
type ErrorCode string

const (
	CodeFailed        ErrorCode = "FAILED"
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
)

// Sentinel errors for quick checks
var (
	ErrFailed        = errors.New("sfosql: operation failed")
	ErrNotFound      = errors.New("sfosql: record not found")
	ErrAlreadyExists = errors.New("sfosql: record already exists")
)

// Error is a normalized database error. Every driver-level failure crosses
// the dialect's Normalize before reaching a caller, so callers only ever
// see this type and the closed ErrorCode set.
type Error struct {
	Code    ErrorCode // Error classification
	Message string    // Human-readable message
	Op      string    // Operation that failed (e.g., "Acquire", "QueryOne")
	Query   string    // Statement text or operation tag, diagnostics only
	Cause   error     // Underlying native driver error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("sfosql: %s", e.Message)
	if e.Op != "" {
		msg = fmt.Sprintf("sfosql.%s: %s", e.Op, e.Message)
	}
	if e.Query != "" {
		msg += fmt.Sprintf(" (query: %s)", e.Query)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for sentinel error matching
func (e *Error) Is(target error) bool {
	switch e.Code {
	case CodeFailed:
		return target == ErrFailed
	case CodeNotFound:
		return target == ErrNotFound
	case CodeAlreadyExists:
		return target == ErrAlreadyExists
	}
	return false
}

// IsNotFound checks if error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if error is a uniqueness violation
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsFailed checks if error is an unclassified failure
func IsFailed(err error) bool {
	return errors.Is(err, ErrFailed)
}

// GetErrorCode extracts the error code if it's an sfosql error
func GetErrorCode(err error) (ErrorCode, bool) {
	var dbErr *Error
	if errors.As(err, &dbErr) {
		return dbErr.Code, true
	}
	return "", false
}

// failf builds a CodeFailed error without a native cause.
func failf(op, format string, args ...any) *Error {
	return &Error{
		Code:    CodeFailed,
		Message: fmt.Sprintf(format, args...),
		Op:      op,
	}
}

// normalizeCommon handles the backend-independent part of error mapping:
// nil passthrough, already-normalized errors, and the "no rows" case. The
// boolean reports whether the error was fully classified; dialects fall
// through to their native-code dispatch when it is false.
func normalizeCommon(err error, query string) (error, bool) {
	if err == nil {
		return nil, true
	}

	var dbErr *Error
	if errors.As(err, &dbErr) {
		return err, true
	}

	if errors.Is(err, sql.ErrNoRows) {
		return &Error{
			Code:    CodeNotFound,
			Message: "not found",
			Query:   query,
			Cause:   err,
		}, true
	}

	return err, false
}
