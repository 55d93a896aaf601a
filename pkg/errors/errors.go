// Package errors provides the structured error system used throughout the
// ember store.
//
// When an append-only storage engine fails, "something went wrong" is not
// enough: the caller needs to know which segment, which offset, which key and
// which operation were involved, and whether the failure is environmental
// (disk full, permissions) or a broken invariant. This package addresses that
// by building every error from a common baseError that carries a stable code,
// a wrapped cause and structured details, and extending it with domain types
// for the contexts where failures actually happen.
//
// Three domain types cover the store:
//
//   - StorageError for segment-file problems, carrying file, path, segment id
//     and byte offset.
//   - KVError for failures of the key/value contract itself, carrying key and
//     operation.
//   - ValidationError for bad configuration or input, carrying field and rule.
//
// Error codes provide the categorization layer: base codes (IO_ERROR,
// INVALID_INPUT, INTERNAL_ERROR) for failures any system can hit, storage
// codes (SERDE_ERROR, COMPACTION_FAILED, DISK_FULL, ...) for the log-segment
// layer, and store codes (KEY_NOT_FOUND, UNSUPPORTED_COMMAND) for the
// key/value contract. Handling code branches on codes via GetErrorCode or the
// Is* predicates rather than parsing messages.
package errors

import (
	stdErrors "errors"
	"os"
	"syscall"
)

// IsValidationError checks if the given error is a ValidationError or contains
// one in its error chain.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return stdErrors.As(err, &ve)
}

// IsStorageError determines if an error is related to segment-file operations,
// such as file I/O, disk space issues, or record corruption.
func IsStorageError(err error) bool {
	var se *StorageError
	return stdErrors.As(err, &se)
}

// IsKVError identifies errors raised by the key/value contract itself, such
// as removing an absent key.
func IsKVError(err error) bool {
	var ke *KVError
	return stdErrors.As(err, &ke)
}

// IsKeyNotFound reports whether err (anywhere in its chain) is the
// KEY_NOT_FOUND condition raised by removing a key with no live entry.
// Front-ends branch on this to print "Key not found" rather than a generic
// failure.
func IsKeyNotFound(err error) bool {
	if ke, ok := AsKVError(err); ok {
		return ke.Code() == ErrorCodeKeyNotFound
	}
	return false
}

// AsValidationError safely extracts a ValidationError from an error chain,
// providing access to validation-specific context such as which field failed
// and what rule was violated.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if stdErrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// AsStorageError extracts StorageError context from an error chain, providing
// access to segment IDs, file offsets, file names and paths.
func AsStorageError(err error) (*StorageError, bool) {
	var se *StorageError
	if stdErrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// AsKVError extracts KVError context from an error chain, providing access to
// the key and operation involved in the failure.
func AsKVError(err error) (*KVError, bool) {
	var ke *KVError
	if stdErrors.As(err, &ke) {
		return ke, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from any error that supports it, or
// returns ErrorCodeInternal for errors that don't carry one. This gives
// monitoring and handling code a single consistent categorization hook.
func GetErrorCode(err error) ErrorCode {
	if ve, ok := AsValidationError(err); ok {
		return ve.Code()
	}

	if se, ok := AsStorageError(err); ok {
		return se.Code()
	}

	if ke, ok := AsKVError(err); ok {
		return ke.Code()
	}

	return ErrorCodeInternal
}

// GetErrorDetails extracts structured details from any error that supports
// them, returning an empty map for errors without details.
func GetErrorDetails(err error) map[string]any {
	if ve, ok := AsValidationError(err); ok {
		if details := ve.Details(); details != nil {
			return details
		}
	}

	if se, ok := AsStorageError(err); ok {
		if details := se.Details(); details != nil {
			return details
		}
	}

	if ke, ok := AsKVError(err); ok {
		if details := ke.Details(); details != nil {
			return details
		}
	}

	return make(map[string]any)
}

// ClassifyDirectoryCreationError analyzes directory creation failures and
// returns appropriate error codes based on the underlying system error.
func ClassifyDirectoryCreationError(err error, path string) error {
	if os.IsPermission(err) {
		return NewStorageError(
			err, ErrorCodePermissionDenied,
			"Insufficient permissions to create store directory",
		).WithPath(path).
			WithDetail("operation", "directory_creation").
			WithDetail("requiredPermission", "write")
	}

	if errno, ok := pathErrno(err); ok {
		switch errno {
		case syscall.ENOSPC:
			return NewStorageError(
				err, ErrorCodeDiskFull,
				"Insufficient disk space to create store directory",
			).WithPath(path).WithDetail("operation", "directory_creation")
		case syscall.EROFS:
			return NewStorageError(
				err, ErrorCodeFilesystemReadonly,
				"Cannot create directory on read-only filesystem",
			).WithPath(path).WithDetail("operation", "directory_creation")
		}
	}

	return NewStorageError(
		err, ErrorCodeIO, "Failed to create store directory",
	).WithPath(path).WithDetail("operation", "directory_creation")
}

// ClassifyFileOpenError analyzes file opening failures and returns appropriate
// error codes based on the underlying system error.
func ClassifyFileOpenError(err error, filePath, fileName string) error {
	if os.IsPermission(err) {
		return NewStorageError(
			err, ErrorCodePermissionDenied,
			"Insufficient permissions to open segment file",
		).WithPath(filePath).
			WithFileName(fileName).
			WithDetail("operation", "file_open").
			WithDetail("requiredPermission", "read_write")
	}

	if errno, ok := pathErrno(err); ok {
		switch errno {
		case syscall.ENOSPC:
			return NewStorageError(
				err, ErrorCodeDiskFull,
				"Insufficient disk space to create segment file",
			).WithPath(filePath).
				WithFileName(fileName).
				WithDetail("operation", "file_open")
		case syscall.EROFS:
			return NewStorageError(
				err, ErrorCodeFilesystemReadonly,
				"Cannot create file on read-only filesystem",
			).WithPath(filePath).
				WithFileName(fileName).
				WithDetail("operation", "file_open")
		}
	}

	return NewStorageError(err, ErrorCodeIO, "Failed to open segment file").
		WithPath(filePath).
		WithFileName(fileName).
		WithDetail("operation", "file_open")
}

// ClassifyFlushError analyzes flush failures on the append path. A flush
// error often indicates disk capacity problems rather than transient I/O.
func ClassifyFlushError(err error, fileName, filePath string, offset int64) error {
	if errno, ok := pathErrno(err); ok {
		switch errno {
		case syscall.ENOSPC:
			return NewStorageError(
				err, ErrorCodeDiskFull,
				"Cannot flush segment file: insufficient disk space",
			).WithFileName(fileName).
				WithPath(filePath).
				WithOffset(offset).
				WithDetail("operation", "file_flush")
		case syscall.EROFS:
			return NewStorageError(
				err, ErrorCodeFilesystemReadonly,
				"Cannot flush segment file: filesystem is read-only",
			).WithFileName(fileName).
				WithPath(filePath).
				WithOffset(offset).
				WithDetail("operation", "file_flush")
		}
	}

	return NewStorageError(
		err, ErrorCodeIO, "Failed to flush segment file",
	).WithFileName(fileName).
		WithPath(filePath).
		WithOffset(offset).
		WithDetail("operation", "file_flush")
}

// pathErrno digs a syscall.Errno out of an *os.PathError chain, when present.
func pathErrno(err error) (syscall.Errno, bool) {
	if pathErr, ok := err.(*os.PathError); ok {
		if errno, ok := pathErr.Err.(syscall.Errno); ok {
			return errno, true
		}
	}
	return 0, false
}
