package errors

// StorageError is a specialized error type for segment-file operations.
// It embeds baseError to inherit the standard error functionality, then adds
// storage-specific fields that pinpoint exactly where a problem occurred.
type StorageError struct {
	*baseError
	segmentID uint64 // Which segment was being accessed when the error occurred.
	offset    int64  // Byte offset within the segment where the problem happened.
	fileName  string // Name of the file that caused the issue.
	path      string // Path of the file that caused the issue.
}

// NewStorageError creates a new storage-specific error.
func NewStorageError(err error, code ErrorCode, msg string) *StorageError {
	return &StorageError{baseError: NewBaseError(err, code, msg)}
}

// WithDetail adds contextual information while maintaining the StorageError type.
func (se *StorageError) WithDetail(key string, value any) *StorageError {
	se.baseError.WithDetail(key, value)
	return se
}

// WithSegmentID sets which segment was involved in the error.
func (se *StorageError) WithSegmentID(id uint64) *StorageError {
	se.segmentID = id
	return se
}

// WithOffset records the byte position where the error occurred.
func (se *StorageError) WithOffset(offset int64) *StorageError {
	se.offset = offset
	return se
}

// WithFileName captures which file was being processed when the error occurred.
func (se *StorageError) WithFileName(fileName string) *StorageError {
	se.fileName = fileName
	return se
}

// WithPath captures which path was being processed when the error occurred.
func (se *StorageError) WithPath(path string) *StorageError {
	se.path = path
	return se
}

// SegmentID returns the segment identifier where the error occurred.
func (se *StorageError) SegmentID() uint64 {
	return se.segmentID
}

// Offset returns the byte offset within the segment where the error happened.
// Combined with SegmentID, this gives the exact location of the problem.
func (se *StorageError) Offset() int64 {
	return se.offset
}

// FileName returns the name of the file that was being processed.
func (se *StorageError) FileName() string {
	return se.fileName
}

// Path returns the path of the file that was being processed.
func (se *StorageError) Path() string {
	return se.path
}
