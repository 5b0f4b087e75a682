// Package form encodes and decodes the multipart/form-data media type
// (RFC 2046 §5.1, RFC 7578). Decode streams a caller-supplied Reader
// through a chunked scanner that recognizes CRLF-delimited boundaries
// spanning arbitrary read sizes, keeping small fields in memory and
// spilling file-bearing parts to temp files. Encode renders a Form back
// into the wire format over a caller-supplied Writer.
package form

import (
	"os"
	"strings"
)

// Part is one decoded form-data part: either an in-memory scalar value
// (Data) or a file-bearing part (File, Pathname), never both.
type Part struct {
	// Name is the part's Content-Disposition name parameter. Never empty
	// on a Part returned from Decode.
	Name string

	// FileName is the Content-Disposition filename (or filename*)
	// parameter. Empty for in-memory parts. A present-but-empty
	// filename="" still makes the part file-bearing; use IsFile, not a
	// FileName != "" check, to tell the two apart.
	FileName string

	isFile bool

	// Header holds every header line seen on the part, keyed by
	// lower-cased header name, in the order repeated headers appeared.
	Header map[string][]string

	// Data holds the part body when the part is not file-bearing (IsFile
	// reports false).
	Data string

	// File and Pathname are set when IsFile reports true, which includes a
	// part whose filename parameter is present but empty. File is positioned
	// at offset 0 once Decode returns. Size is the number of bytes
	// written to File.
	File     *os.File
	Pathname string
	Size     int64

	guard *tempGuard
}

// IsFile reports whether the part is file-bearing. This is distinct from
// FileName != "": a part uploaded with filename="" is still file-bearing.
func (p *Part) IsFile() bool {
	return p.isFile
}

// ContentType returns the part's Content-Type header, or "" if absent.
func (p *Part) ContentType() string {
	v := p.Header["content-type"]
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

// Close closes the backing file, if any, and removes its temp file. It is
// safe to call on an in-memory Part (a no-op) and safe to call twice.
func (p *Part) Close() error {
	var err error
	if p.File != nil {
		err = p.File.Close()
		p.File = nil
	}
	if p.guard != nil {
		p.guard.remove()
	}
	p.Pathname = ""
	return err
}

// Detach disarms the part's temp-file guard without removing the file:
// the caller is taking ownership of Pathname (e.g. moving it to permanent
// storage) and is responsible for removing it when done.
func (p *Part) Detach() {
	if p.guard != nil {
		p.guard.disarm()
	}
}

// Form is a decoded multipart/form-data body: an ordered sequence of
// parts per field name. Map iteration order across distinct names is, as
// with any Go map, unspecified; the slice for one name preserves wire
// order.
type Form map[string][]*Part

// Get returns the first part for name, or nil if name was not present.
func (f Form) Get(name string) *Part {
	if v := f[name]; len(v) > 0 {
		return v[0]
	}
	return nil
}

// Value returns the in-memory data of the first part for name, or "" if
// name was not present or its first part is file-bearing.
func (f Form) Value(name string) string {
	if p := f.Get(name); p != nil && !p.IsFile() {
		return p.Data
	}
	return ""
}

// Close removes every file-bearing part's temp file and closes its handle.
// It is the Form-level counterpart to Part.Close, equivalent in spirit to
// the teacher's Form.RemoveAll.
func (f Form) Close() error {
	var first error
	for _, parts := range f {
		for _, p := range parts {
			if err := p.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// discardForm is Decode's failure-path cleanup: it walks every part
// captured so far and removes its temp file, swallowing per-part close
// errors since the caller is already receiving the decode error.
func discardForm(f Form) {
	for _, parts := range f {
		for _, p := range parts {
			p.Close()
		}
	}
}

// stripPath mirrors the teacher's filename sanitation in
// centpd/lib/mail/form/form.go: strip any directory component a hostile
// or careless client embedded in filename, keeping only the base name.
func stripPath(name string) string {
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 {
		return name[i+1:]
	}
	return name
}
