package form

import "fmt"

// Sentinel decode errors, comparable with errors.Is.
var (
	// ErrInsufficientData is returned when the source reader signals EOF
	// before a terminating delimiter was located.
	ErrInsufficientData = fmt.Errorf("form: insufficient data before terminator")

	// ErrMissingName is returned when a part's Content-Disposition lacks
	// a name parameter.
	ErrMissingName = fmt.Errorf("form: part is missing a name parameter")

	// ErrPrematureClose is returned when the closing delimiter appears
	// before any body part was read.
	ErrPrematureClose = fmt.Errorf("form: close delimiter seen before any part")

	// ErrBodyTooLarge is returned when a part body exceeds MaxSize, or
	// the aggregate of all file parts exceeds MaxTotalFileSize.
	ErrBodyTooLarge = fmt.Errorf("form: part body exceeds configured size limit")

	// ErrTooManyFields is returned once more non-file (in-memory) parts
	// have been decoded than MaxFields allows.
	ErrTooManyFields = fmt.Errorf("form: too many fields")

	// ErrTooManyFiles is returned once more file parts have been decoded
	// than MaxFileCount allows.
	ErrTooManyFiles = fmt.Errorf("form: too many files")
)

// InvalidHeaderError reports a part header line that does not match the
// relaxed "field-name *WSP \":\" *WSP field-value" grammar.
type InvalidHeaderError struct {
	Line string
}

func (e *InvalidHeaderError) Error() string {
	return fmt.Sprintf("form: invalid header line %q", e.Line)
}

// InvalidBoundaryError reports the first octet of a candidate boundary
// string that falls outside bchars ∪ {' '}.
type InvalidBoundaryError struct {
	Pos  int
	Byte byte
}

func (e *InvalidBoundaryError) Error() string {
	return fmt.Sprintf("form: invalid boundary character %q at position %d", e.Byte, e.Pos)
}

// InvalidPartError reports a Field the encoder cannot render: Encode
// returns it for a Field implementation other than Value, Blob and
// FileField.
type InvalidPartError struct {
	Field  string
	Name   string
	Reason string
}

func (e *InvalidPartError) Error() string {
	return fmt.Sprintf("form: invalid part %q (field %s): %s", e.Name, e.Field, e.Reason)
}

// FileOpenError reports a failure to open a Pathname-backed field for
// encoding.
type FileOpenError struct {
	Path string
	Name string
	Err  error
}

func (e *FileOpenError) Error() string {
	return fmt.Sprintf("form: failed to open %q for part %q: %v", e.Path, e.Name, e.Err)
}

func (e *FileOpenError) Unwrap() error { return e.Err }

// ReaderFailureError wraps an error returned by the caller-supplied Reader.
type ReaderFailureError struct {
	Err error
}

func (e *ReaderFailureError) Error() string { return fmt.Sprintf("form: reader failure: %v", e.Err) }
func (e *ReaderFailureError) Unwrap() error { return e.Err }

// WriterFailureError wraps an error returned by the caller-supplied Writer.
type WriterFailureError struct {
	Err error
}

func (e *WriterFailureError) Error() string { return fmt.Sprintf("form: writer failure: %v", e.Err) }
func (e *WriterFailureError) Unwrap() error { return e.Err }

// TempFileFailureError wraps an error from temp-file creation or I/O during
// decode.
type TempFileFailureError struct {
	Err error
}

func (e *TempFileFailureError) Error() string {
	return fmt.Sprintf("form: temp file failure: %v", e.Err)
}
func (e *TempFileFailureError) Unwrap() error { return e.Err }
