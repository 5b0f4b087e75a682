package form

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// Writer is the minimal surface Encode needs from its output.
type Writer = io.Writer

// FileWriter lets a Writer offer a zero-copy path for file-bearing parts
// (e.g. an http.ResponseWriter backed by sendfile, or any sink that can
// move a file's bytes without routing them through Go's heap). When w
// implements it, Encode hands the open file straight to WriteFile
// instead of reading it itself in chunkSize-sized pieces.
type FileWriter interface {
	WriteFile(f *os.File, length, offset int64, part *Field) (n int64, err error)
}

type encodeConfig struct {
	chunkSize int
}

var defaultEncodeConfig = encodeConfig{chunkSize: 32 * 1024}

// quoteEscaper renders a Content-Disposition parameter value safe for
// wrapping in a quoted-string: backslashes first, then double quotes,
// matching the escapeQuotes helper pattern used for building multipart
// requests outside the standard library.
var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// countingWriter tracks total bytes written so Encode can report its
// return value without every call site threading a counter by hand. It
// also holds the original sink so writePart can probe it for FileWriter
// without a *bufio.Writer (which never implements it) getting in the way.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// writeFile dispatches to w's FileWriter implementation, if any,
// crediting the bytes it reports to n. ok is false when w does not
// implement FileWriter, in which case the caller must fall back to a
// plain read-and-Write copy.
func (c *countingWriter) writeFile(f *os.File, length, offset int64, part *Field) (ok bool, err error) {
	fw, ok := c.w.(FileWriter)
	if !ok {
		return false, nil
	}
	n, err := fw.WriteFile(f, length, offset, part)
	c.n += n
	return true, err
}

// Encode renders fields into the multipart/form-data wire format on w,
// using boundary as the delimiter, and returns the number of bytes
// written. Fields are rendered in slice order; a Value renders as a
// plain text part, a Blob as an in-memory file part, and a FileField as
// a file part streamed from disk or an open handle per the priority
// rule documented on FileField.
func Encode(ctx context.Context, w Writer, fields []Field, boundary string, opts ...EncodeOption) (int64, error) {
	if err := ValidateBoundary(boundary); err != nil {
		return 0, err
	}
	if err := validateFields(fields); err != nil {
		return 0, err
	}

	cfg := defaultEncodeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	cw := &countingWriter{w: w}
	bw := bufio.NewWriterSize(cw, cfg.chunkSize)

	for _, f := range fields {
		if err := ctx.Err(); err != nil {
			return cw.n, err
		}
		if err := encodeField(cw, bw, boundary, cfg, f); err != nil {
			return cw.n, err
		}
	}

	if _, err := fmt.Fprintf(bw, "--%s--", boundary); err != nil {
		return cw.n, &WriterFailureError{Err: err}
	}
	if err := bw.Flush(); err != nil {
		return cw.n, &WriterFailureError{Err: err}
	}
	return cw.n, nil
}

// validateFields rejects any Field implementation other than Value,
// Blob, and FileField synchronously, before Encode writes a single
// byte -- the Go equivalent of the spec's ProgrammerError/InvalidPart
// shape check at the API boundary.
func validateFields(fields []Field) error {
	for _, f := range fields {
		switch f.(type) {
		case Value, Blob, FileField:
		default:
			return &InvalidPartError{Name: f.fieldName(), Reason: "unsupported Field implementation"}
		}
	}
	return nil
}

func encodeField(cw *countingWriter, bw *bufio.Writer, boundary string, cfg encodeConfig, f Field) error {
	switch v := f.(type) {
	case Value:
		return writePart(cw, bw, boundary, cfg, v.fieldName(), "", v.header(), strings.NewReader(v.text()), nil, f)
	case Blob:
		return writePart(cw, bw, boundary, cfg, v.fieldName(), v.FileName, v.header(), strings.NewReader(string(v.Data)), nil, f)
	case FileField:
		return encodeFileField(cw, bw, boundary, cfg, v, f)
	default:
		return nil
	}
}

func encodeFileField(cw *countingWriter, bw *bufio.Writer, boundary string, cfg encodeConfig, v FileField, field Field) error {
	switch {
	case v.FileName != "" && v.File != nil:
		if _, err := v.File.Seek(0, io.SeekStart); err != nil {
			return &ReaderFailureError{Err: err}
		}
		return writePart(cw, bw, boundary, cfg, v.fieldName(), v.FileName, v.header(), v.File, v.File, field)
	case v.FileName != "" && v.Pathname != "":
		f, err := os.Open(v.Pathname)
		if err != nil {
			return &FileOpenError{Path: v.Pathname, Name: v.FileName, Err: err}
		}
		defer f.Close()
		return writePart(cw, bw, boundary, cfg, v.fieldName(), v.FileName, v.header(), f, f, field)
	default:
		return nil
	}
}

// writePart writes one complete part: the opening delimiter, any extra
// caller-supplied headers, the Content-Disposition line (which §4.6
// requires to be appended last by the body encoder, after header
// writing), a default Content-Type for file parts lacking one, the
// blank line, the body, and the trailing CRLF.
//
// file is non-nil exactly when body is backed by an *os.File; in that
// case the body is offered to w's FileWriter implementation first,
// falling back to a chunkSize-buffered copy through body when w doesn't
// implement it.
func writePart(cw *countingWriter, bw *bufio.Writer, boundary string, cfg encodeConfig, name, filename string, extra map[string][]string, body io.Reader, file *os.File, field Field) error {
	if _, err := fmt.Fprintf(bw, "--%s\r\n", boundary); err != nil {
		return &WriterFailureError{Err: err}
	}

	wroteContentType := false
	for k, values := range extra {
		if k == "" || strings.ContainsAny(k, " \t\r\n\v\f") {
			continue
		}
		for _, v := range values {
			if strings.EqualFold(k, "content-type") {
				wroteContentType = true
			}
			if _, err := fmt.Fprintf(bw, "%s: %s\r\n", k, v); err != nil {
				return &WriterFailureError{Err: err}
			}
		}
	}
	if filename != "" && !wroteContentType {
		ct := mime.TypeByExtension(filepath.Ext(filename))
		if ct == "" {
			ct = "application/octet-stream"
		}
		if _, err := fmt.Fprintf(bw, "Content-Type: %s\r\n", ct); err != nil {
			return &WriterFailureError{Err: err}
		}
	}

	disp := fmt.Sprintf(`form-data; name="%s"`, escapeQuotes(name))
	if filename != "" {
		disp += fmt.Sprintf(`; filename="%s"`, escapeQuotes(filename))
	}
	if _, err := fmt.Fprintf(bw, "Content-Disposition: %s\r\n", disp); err != nil {
		return &WriterFailureError{Err: err}
	}

	if _, err := bw.WriteString("\r\n"); err != nil {
		return &WriterFailureError{Err: err}
	}
	if err := writeBody(cw, bw, cfg, body, file, field); err != nil {
		return err
	}
	if _, err := bw.WriteString("\r\n"); err != nil {
		return &WriterFailureError{Err: err}
	}
	return nil
}

// writeBody moves a part's body onto bw. When file is non-nil, it first
// offers w a zero-copy path via FileWriter (§6.1); otherwise -- and
// always for non-file bodies -- it reads body itself in cfg.chunkSize
// pieces.
func writeBody(cw *countingWriter, bw *bufio.Writer, cfg encodeConfig, body io.Reader, file *os.File, field Field) error {
	if file != nil {
		info, err := file.Stat()
		if err != nil {
			return &ReaderFailureError{Err: err}
		}
		if err := bw.Flush(); err != nil {
			return &WriterFailureError{Err: err}
		}
		handled, err := cw.writeFile(file, info.Size(), 0, &field)
		if err != nil {
			return &WriterFailureError{Err: err}
		}
		if handled {
			return nil
		}
	}
	buf := make([]byte, cfg.chunkSize)
	if _, err := io.CopyBuffer(bw, body, buf); err != nil {
		return &ReaderFailureError{Err: err}
	}
	return nil
}
