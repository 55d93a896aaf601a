package errors

// ValidationError is a specialized error type for input validation failures.
// It embeds baseError to inherit the standard error functionality, then adds
// fields identifying exactly which constraint was violated and how to correct
// the input.
type ValidationError struct {
	*baseError

	// Identifies which field or parameter failed validation.
	field string

	// Specifies which validation rule was violated (e.g., "required", "range").
	rule string

	// Captures the value that was actually provided.
	provided any

	// Describes what would have been valid.
	expected any
}

// NewValidationError creates a new validation-specific error with the provided context.
func NewValidationError(err error, code ErrorCode, msg string) *ValidationError {
	return &ValidationError{baseError: NewBaseError(err, code, msg)}
}

// WithDetail adds contextual information while maintaining the ValidationError type.
func (ve *ValidationError) WithDetail(key string, value any) *ValidationError {
	ve.baseError.WithDetail(key, value)
	return ve
}

// WithField sets which field failed validation.
func (ve *ValidationError) WithField(field string) *ValidationError {
	ve.field = field
	return ve
}

// WithRule specifies which validation rule was violated.
func (ve *ValidationError) WithRule(rule string) *ValidationError {
	ve.rule = rule
	return ve
}

// WithProvided captures what value was provided that failed validation.
func (ve *ValidationError) WithProvided(value any) *ValidationError {
	ve.provided = value
	return ve
}

// WithExpected describes what would have been a valid value.
func (ve *ValidationError) WithExpected(value any) *ValidationError {
	ve.expected = value
	return ve
}

// Field returns the field name that failed validation.
func (ve *ValidationError) Field() string {
	return ve.field
}

// Rule returns the validation rule that was violated.
func (ve *ValidationError) Rule() string {
	return ve.rule
}

// Provided returns the value that was provided and failed validation.
func (ve *ValidationError) Provided() any {
	return ve.provided
}

// Expected returns what would have been a valid value.
func (ve *ValidationError) Expected() any {
	return ve.expected
}

// NewRequiredFieldError creates a specialized error for missing required fields.
func NewRequiredFieldError(fieldName string) *ValidationError {
	return NewValidationError(
		nil,
		ErrorCodeInvalidInput,
		"Required field is missing or empty",
	).WithField(fieldName).WithRule("required")
}
