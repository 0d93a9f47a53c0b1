// This package gives the store's public operations a small, closed error
// vocabulary instead of ad hoc fmt.Errorf strings. Two domain-specific
// error types, each carrying its own cause/message/code/details:
// ValidationError for caller-supplied values that don't meet the store's
// constraints (a malformed IP string, a decay factor outside its range),
// and ArchiveError for failures in the persistence codec (bad header
// fields, truncated files, the underlying file-system calls the
// atomic-rename save protocol depends on).
//
// Both error types support errors.Is/errors.As through Unwrap, carry a
// stable ErrorCode for programmatic handling, and accept structured
// key/value details for logging. pkg/errors.CodeOf maps any error this
// module raises down to the small numeric Code contract the public
// operation surface exposes: OK is zero, every failure is negative.
package errors

import (
	stdErrors "errors"
	"os"
	"syscall"
)

// IsValidationError reports whether err is a ValidationError, or wraps one.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return stdErrors.As(err, &ve)
}

// IsArchiveError reports whether err is an ArchiveError, or wraps one.
func IsArchiveError(err error) bool {
	var ae *ArchiveError
	return stdErrors.As(err, &ae)
}

// AsValidationError extracts a ValidationError from an error chain.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if stdErrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// AsArchiveError extracts an ArchiveError from an error chain.
func AsArchiveError(err error) (*ArchiveError, bool) {
	var ae *ArchiveError
	if stdErrors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// GetErrorCode extracts the ErrorCode from any error that carries one, or
// returns ErrorCodeInternal for errors that don't.
func GetErrorCode(err error) ErrorCode {
	if ve, ok := AsValidationError(err); ok {
		return ve.Code()
	}
	if ae, ok := AsArchiveError(err); ok {
		return ae.Code()
	}
	return ErrorCodeInternal
}

// ClassifyIOError turns a raw file-system error from the archive codec
// into an ArchiveError with an operation-appropriate message, preserving
// the specific syscall errno (disk full, read-only filesystem, permission
// denied) as structured detail instead of collapsing everything into one
// generic "I/O failure" message.
func ClassifyIOError(err error, operation, path string, offset int64) *ArchiveError {
	if os.IsPermission(err) {
		return NewArchiveError(
			err, ErrorCodeArchiveIO, "permission denied during "+operation,
		).WithPath(path).WithOffset(offset).WithDetail("operation", operation)
	}

	if pathErr, ok := err.(*os.PathError); ok {
		if errno, ok := pathErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ENOSPC:
				return NewArchiveError(
					err, ErrorCodeArchiveIO, "no space left on device during "+operation,
				).WithPath(path).WithOffset(offset).WithDetail("operation", operation)
			case syscall.EROFS:
				return NewArchiveError(
					err, ErrorCodeArchiveIO, "filesystem is read-only during "+operation,
				).WithPath(path).WithOffset(offset).WithDetail("operation", operation)
			case syscall.EIO:
				return NewArchiveError(
					err, ErrorCodeArchiveIO, "hardware I/O error during "+operation,
				).WithPath(path).WithOffset(offset).WithDetail("operation", operation)
			}
		}
	}

	return NewArchiveError(
		err, ErrorCodeArchiveIO, "I/O failure during "+operation,
	).WithPath(path).WithOffset(offset).WithDetail("operation", operation)
}
