package errors

// KVError provides specialized error handling for failures of the key/value
// contract itself: a remove of an absent key, or an index entry whose bytes
// decode as the wrong kind of record. It extends the base error system with
// the key and operation involved, which is usually all the context needed to
// understand what a caller did to trigger it.
type KVError struct {
	*baseError

	// The key being processed when the error occurred.
	key string

	// The store operation in flight: "Get", "Set" or "Remove".
	operation string

	// The segment involved, if the failure is tied to one.
	segmentID uint64
}

// NewKVError creates a new store-level error with the provided context.
func NewKVError(err error, code ErrorCode, msg string) *KVError {
	return &KVError{baseError: NewBaseError(err, code, msg)}
}

// WithDetail adds contextual information while maintaining the KVError type.
func (ke *KVError) WithDetail(key string, value any) *KVError {
	ke.baseError.WithDetail(key, value)
	return ke
}

// WithKey sets which key was being processed.
func (ke *KVError) WithKey(key string) *KVError {
	ke.key = key
	return ke
}

// WithOperation records which store operation was in flight.
func (ke *KVError) WithOperation(op string) *KVError {
	ke.operation = op
	return ke
}

// WithSegmentID sets which segment was involved, when applicable.
func (ke *KVError) WithSegmentID(id uint64) *KVError {
	ke.segmentID = id
	return ke
}

// Key returns the key that was being processed.
func (ke *KVError) Key() string {
	return ke.key
}

// Operation returns the store operation that was in flight.
func (ke *KVError) Operation() string {
	return ke.operation
}

// SegmentID returns the segment involved in the error.
func (ke *KVError) SegmentID() uint64 {
	return ke.segmentID
}

// NewKeyNotFoundError creates the error returned when a remove targets a key
// with no live entry.
func NewKeyNotFoundError(key string) *KVError {
	return NewKVError(nil, ErrorCodeKeyNotFound, "Key not found").
		WithKey(key).
		WithOperation("Remove")
}
