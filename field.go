package form

import (
	"os"
	"strconv"
)

// Field is one entry in a form's encoded value sequence: the encoder-side
// counterpart to Part. Concrete implementations are Value, Blob, and
// FileField.
type Field interface {
	fieldName() string
	header() map[string][]string
}

type fieldBase struct {
	Name   string
	Header map[string][]string
}

func (f fieldBase) fieldName() string           { return f.Name }
func (f fieldBase) header() map[string][]string { return f.Header }

// Value is a scalar field: string, any integer/float kind, or bool.
// Booleans render as "true"/"false"; everything else uses its natural
// textual representation, matching the distilled spec's coercion rule.
type Value struct {
	fieldBase
	scalar interface{}
}

// NewValue builds a Value field from a scalar. It panics if v is not one
// of string, an integer kind, a float kind, or bool -- a programmer error
// caught at construction time rather than deep inside the encoder.
func NewValue(name string, v interface{}) Value {
	switch v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
	default:
		panic("form: NewValue: unsupported scalar type")
	}
	return Value{fieldBase: fieldBase{Name: name}, scalar: v}
}

func (v Value) text() string {
	switch x := v.scalar.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.FormatInt(int64(x), 10)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return ""
	}
}

// Blob is an in-memory file-bearing field: bytes with a filename, encoded
// as a file body without ever touching the filesystem.
type Blob struct {
	fieldBase
	FileName string
	Data     []byte
}

// NewBlob builds a Blob field.
func NewBlob(name, filename string, data []byte) Blob {
	return Blob{fieldBase: fieldBase{Name: name}, FileName: filename, Data: data}
}

// FileField is a file-bearing field backed by an already-open handle or a
// filesystem path, per the priority order in §3 "Part (for encoding)":
//
//  1. FileName set and File != nil: stream from the open handle, caller
//     keeps ownership of the close.
//  2. FileName set, File == nil, Pathname != "": Encode opens Pathname
//     itself and closes it on every exit path.
//  3. FileName set, both File and Pathname empty: the field is silently
//     skipped.
type FileField struct {
	fieldBase
	FileName string
	File     *os.File
	Pathname string
}

// NewFileField builds a FileField from an already-open file handle. The
// caller retains ownership of f and must close it after Encode returns.
func NewFileField(name, filename string, f *os.File) FileField {
	return FileField{fieldBase: fieldBase{Name: name}, FileName: filename, File: f}
}

// NewFileFieldPath builds a FileField from a filesystem path. Encode opens
// and closes the file itself.
func NewFileFieldPath(name, filename, path string) FileField {
	return FileField{fieldBase: fieldBase{Name: name}, FileName: filename, Pathname: path}
}

// WithHeader attaches extra header lines to be written before the part's
// Content-Disposition line. Keys containing whitespace, or an empty key,
// are silently dropped by the encoder.
func WithHeader(f Field, h map[string][]string) Field {
	switch v := f.(type) {
	case Value:
		v.Header = h
		return v
	case Blob:
		v.Header = h
		return v
	case FileField:
		v.Header = h
		return v
	default:
		return f
	}
}
