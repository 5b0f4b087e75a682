package form

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeRoundTripsThroughDecode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "upload.bin")
	if err := os.WriteFile(path, []byte("on-disk-bytes"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	fields := []Field{
		NewValue("title", "hello world"),
		NewValue("count", 3),
		NewBlob("thumb", "thumb.png", []byte("blobbytes")),
		NewFileFieldPath("doc", "upload.bin", path),
	}

	var buf bytes.Buffer
	n, err := Encode(context.Background(), &buf, fields, testBoundary)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Fatalf("Encode returned n=%d, buf has %d bytes", n, buf.Len())
	}

	got, err := decodeWithTempDir(t, buf.String())
	if err != nil {
		t.Fatalf("Decode(Encode(...)): %v", err)
	}
	defer got.Close()

	if v := got.Value("title"); v != "hello world" {
		t.Fatalf("title = %q", v)
	}
	if v := got.Value("count"); v != "3" {
		t.Fatalf("count = %q", v)
	}

	thumb := got.Get("thumb")
	wantThumb := &Part{
		Name:     "thumb",
		FileName: "thumb.png",
		isFile:   true,
		Header: map[string][]string{
			"content-type":        {"image/png"},
			"content-disposition": {`form-data; name="thumb"; filename="thumb.png"`},
		},
		Pathname: thumb.Pathname,
		Size:     9,
	}
	if diff := cmp.Diff(wantThumb, thumb, partCmpOpts); diff != "" {
		t.Fatalf("thumb mismatch (-want +got):\n%s", diff)
	}
	thumbData, _ := os.ReadFile(thumb.Pathname)
	if string(thumbData) != "blobbytes" {
		t.Fatalf("thumb data = %q", thumbData)
	}

	doc := got.Get("doc")
	wantDoc := &Part{
		Name:     "doc",
		FileName: "upload.bin",
		isFile:   true,
		Header: map[string][]string{
			"content-type":        {"application/octet-stream"},
			"content-disposition": {`form-data; name="doc"; filename="upload.bin"`},
		},
		Pathname: doc.Pathname,
		Size:     13,
	}
	if diff := cmp.Diff(wantDoc, doc, partCmpOpts); diff != "" {
		t.Fatalf("doc mismatch (-want +got):\n%s", diff)
	}
	docData, _ := os.ReadFile(doc.Pathname)
	if string(docData) != "on-disk-bytes" {
		t.Fatalf("doc data = %q", docData)
	}
}

func TestEncodeEscapesQuotesInNames(t *testing.T) {
	var buf bytes.Buffer
	fields := []Field{NewValue(`weird"name`, "v")}
	if _, err := Encode(context.Background(), &buf, fields, testBoundary); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(buf.String(), `name="weird\"name"`) {
		t.Fatalf("expected escaped quote in Content-Disposition, got:\n%s", buf.String())
	}
}

func TestEncodeSkipsEmptyFileField(t *testing.T) {
	var buf bytes.Buffer
	fields := []Field{FileField{fieldBase: fieldBase{Name: "empty"}, FileName: "ghost.txt"}}
	n, err := Encode(context.Background(), &buf, fields, testBoundary)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.Contains(buf.String(), "ghost.txt") {
		t.Fatalf("expected the empty FileField to be skipped entirely, got:\n%s", buf.String())
	}
	if n == 0 {
		t.Fatalf("expected the closing delimiter to still be written")
	}
}

func TestEncodeWritesExtraHeadersBeforeContentDisposition(t *testing.T) {
	var buf bytes.Buffer
	h := map[string][]string{"x-custom": {"1"}}
	fields := []Field{WithHeader(NewValue("a", "b"), h)}
	if _, err := Encode(context.Background(), &buf, fields, testBoundary); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out := buf.String()
	hi := strings.Index(out, "x-custom: 1")
	di := strings.Index(out, "Content-Disposition:")
	if hi < 0 || di < 0 || hi > di {
		t.Fatalf("expected extra header before Content-Disposition, got:\n%s", out)
	}
}

// fakeFileWriter implements FileWriter so Encode can hand it a
// file-bearing part's body directly instead of reading it itself.
type fakeFileWriter struct {
	buf   bytes.Buffer
	calls int
}

func (f *fakeFileWriter) Write(p []byte) (int, error) {
	return f.buf.Write(p)
}

func (f *fakeFileWriter) WriteFile(file *os.File, length, offset int64, part *Field) (int64, error) {
	f.calls++
	return io.Copy(&f.buf, file)
}

func TestEncodeUsesFileWriterZeroCopy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(path, []byte("zero-copy-bytes"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	fw := &fakeFileWriter{}
	fields := []Field{NewFileFieldPath("doc", "data.bin", path)}
	n, err := Encode(context.Background(), fw, fields, testBoundary)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if fw.calls != 1 {
		t.Fatalf("WriteFile calls = %d, want 1", fw.calls)
	}
	if n != int64(fw.buf.Len()) {
		t.Fatalf("Encode returned n=%d, sink received %d bytes", n, fw.buf.Len())
	}
	if !bytes.Contains(fw.buf.Bytes(), []byte("zero-copy-bytes")) {
		t.Fatalf("expected file bytes to reach the sink via WriteFile, got:\n%s", fw.buf.String())
	}
}

type bogusField struct{}

func (bogusField) fieldName() string           { return "bogus" }
func (bogusField) header() map[string][]string { return nil }

func TestEncodeRejectsUnsupportedFieldImplementation(t *testing.T) {
	var buf bytes.Buffer
	fields := []Field{NewValue("a", "b"), bogusField{}}
	n, err := Encode(context.Background(), &buf, fields, testBoundary)
	var invalid *InvalidPartError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want *InvalidPartError", err)
	}
	if n != 0 || buf.Len() != 0 {
		t.Fatalf("expected no I/O before rejecting the field, wrote %d bytes", buf.Len())
	}
}

func TestEncodeInvalidBoundaryRejected(t *testing.T) {
	var buf bytes.Buffer
	_, err := Encode(context.Background(), &buf, nil, "")
	if err == nil {
		t.Fatalf("expected an error for an empty boundary")
	}
}

func TestEncodeDefaultContentTypeForFileParts(t *testing.T) {
	var buf bytes.Buffer
	fields := []Field{NewBlob("f", "photo.jpg", []byte("data"))}
	if _, err := Encode(context.Background(), &buf, fields, testBoundary); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(buf.String(), "Content-Type: image/jpeg") {
		t.Fatalf("expected an inferred image/jpeg Content-Type, got:\n%s", buf.String())
	}
}
