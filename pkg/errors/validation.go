package errors

// ValidationError reports a caller-supplied value that doesn't meet the
// store's constraints: a missing required argument, an unparseable IP
// string, or a decay factor outside its legal range.
type ValidationError struct {
	cause   error
	message string
	code    ErrorCode
	details map[string]any

	// field identifies which parameter failed validation.
	field string

	// rule names which constraint was violated ("required", "range",
	// "ipv4_format").
	rule string

	// provided is the value that was actually passed.
	provided any

	// expected describes what would have been valid, when there's a
	// single well-defined answer (a range, a format name).
	expected any
}

// NewValidationError creates a validation failure wrapping cause (nil if
// there is no underlying error) under code with the given message.
func NewValidationError(cause error, code ErrorCode, msg string) *ValidationError {
	return &ValidationError{cause: cause, code: code, message: msg}
}

func (ve *ValidationError) Error() string { return ve.message }

func (ve *ValidationError) Unwrap() error { return ve.cause }

func (ve *ValidationError) Code() ErrorCode { return ve.code }

func (ve *ValidationError) Details() map[string]any { return ve.details }

// WithMessage replaces the error message.
func (ve *ValidationError) WithMessage(msg string) *ValidationError {
	ve.message = msg
	return ve
}

// WithCode replaces the error code.
func (ve *ValidationError) WithCode(code ErrorCode) *ValidationError {
	ve.code = code
	return ve
}

// WithDetail attaches a structured key/value pair, lazily allocating the
// details map on first use.
func (ve *ValidationError) WithDetail(key string, value any) *ValidationError {
	if ve.details == nil {
		ve.details = make(map[string]any)
	}
	ve.details[key] = value
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
func (ve *ValidationError) Field() string { return ve.field }

// Rule returns the validation rule that was violated.
func (ve *ValidationError) Rule() string { return ve.rule }

// Provided returns the value that was provided and failed validation.
func (ve *ValidationError) Provided() any { return ve.provided }

// Expected returns what would have been a valid value.
func (ve *ValidationError) Expected() any { return ve.expected }

// NewNullArgumentError creates an error for a required context, buffer, or
// output reference that was nil at the call site.
func NewNullArgumentError(fieldName string) *ValidationError {
	return NewValidationError(
		nil,
		ErrorCodeNullArgument,
		"required argument is nil",
	).WithField(fieldName).WithRule("required")
}

// NewIPFormatError creates an error for a dotted-decimal string that
// doesn't match the dotted-decimal grammar (wrong dot count, empty octet,
// octet over 255, or a non-digit byte).
func NewIPFormatError(provided string) *ValidationError {
	return NewValidationError(
		nil,
		ErrorCodeInvalidInput,
		"value is not a valid dotted-decimal IPv4 address",
	).WithField("ip").WithRule("ipv4_format").WithProvided(provided)
}

// NewFactorRangeError creates an error for a decay factor outside [0.0, 1.0].
func NewFactorRangeError(provided float64) *ValidationError {
	return NewValidationError(
		nil,
		ErrorCodeInvalidInput,
		"decay factor must be in [0.0, 1.0]",
	).WithField("factor").
		WithRule("range").
		WithProvided(provided).
		WithDetail("minValue", 0.0).
		WithDetail("maxValue", 1.0)
}
