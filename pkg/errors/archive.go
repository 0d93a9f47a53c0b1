package errors

// ArchiveError reports a failure in the persistence codec: header
// validation, save's atomic-rename protocol, or load's entry stream.
// Built around file offsets and archive entries instead of caller input.
type ArchiveError struct {
	cause   error
	message string
	code    ErrorCode
	details map[string]any

	// path is the archive file (or its temp sibling) being read or written.
	path string

	// offset is the byte position within the file where the problem was
	// discovered, when known.
	offset int64

	// entryIndex is which 6-byte record (0-based) was being decoded when
	// a load failure occurred, when applicable.
	entryIndex int64

	// field names the header field that failed validation (e.g. "magic",
	// "version", "entry_count"), when applicable.
	field string
}

// NewArchiveError creates an archive failure wrapping cause (nil if there
// is no underlying error) under code with the given message.
func NewArchiveError(cause error, code ErrorCode, msg string) *ArchiveError {
	return &ArchiveError{cause: cause, code: code, message: msg}
}

func (ae *ArchiveError) Error() string { return ae.message }

func (ae *ArchiveError) Unwrap() error { return ae.cause }

func (ae *ArchiveError) Code() ErrorCode { return ae.code }

func (ae *ArchiveError) Details() map[string]any { return ae.details }

// WithMessage replaces the error message.
func (ae *ArchiveError) WithMessage(msg string) *ArchiveError {
	ae.message = msg
	return ae
}

// WithCode replaces the error code.
func (ae *ArchiveError) WithCode(code ErrorCode) *ArchiveError {
	ae.code = code
	return ae
}

// WithDetail attaches a structured key/value pair, lazily allocating the
// details map on first use.
func (ae *ArchiveError) WithDetail(key string, value any) *ArchiveError {
	if ae.details == nil {
		ae.details = make(map[string]any)
	}
	ae.details[key] = value
	return ae
}

// WithPath records which file was being processed.
func (ae *ArchiveError) WithPath(path string) *ArchiveError {
	ae.path = path
	return ae
}

// WithOffset records the byte position where the error occurred.
func (ae *ArchiveError) WithOffset(offset int64) *ArchiveError {
	ae.offset = offset
	return ae
}

// WithEntryIndex records which entry was being decoded.
func (ae *ArchiveError) WithEntryIndex(index int64) *ArchiveError {
	ae.entryIndex = index
	return ae
}

// WithField records which header field failed validation.
func (ae *ArchiveError) WithField(field string) *ArchiveError {
	ae.field = field
	return ae
}

// Path returns the file path associated with the error.
func (ae *ArchiveError) Path() string { return ae.path }

// Offset returns the byte offset associated with the error.
func (ae *ArchiveError) Offset() int64 { return ae.offset }

// EntryIndex returns which entry was being decoded, if applicable.
func (ae *ArchiveError) EntryIndex() int64 { return ae.entryIndex }

// Field returns which header field failed validation, if applicable.
func (ae *ArchiveError) Field() string { return ae.field }
