package form

import (
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mah0x211/go-form-multipart/internal/bufreader"
)

func TestReadHeaderBlock(t *testing.T) {
	raw := "Content-Disposition: form-data; name=\"field1\"\r\n" +
		"X-Extra: value\r\n" +
		"\r\n" +
		"rest of body"
	br := bufreader.New(strings.NewReader(raw), 64)

	hb, err := readHeaderBlock(br, defaultMaxHeaderBytes)
	if err != nil {
		t.Fatalf("readHeaderBlock: %v", err)
	}
	if !hb.sawContentDisp {
		t.Fatalf("expected sawContentDisp = true")
	}
	want := map[string][]string{
		"content-disposition": {`form-data; name="field1"`},
		"x-extra":              {"value"},
	}
	if diff := cmp.Diff(want, hb.header); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
	if hb.dispositionParams["name"] != "field1" {
		t.Fatalf("name param = %q, want field1", hb.dispositionParams["name"])
	}

	rest := make([]byte, len("rest of body"))
	if _, err := io.ReadFull(br, rest); err != nil {
		t.Fatalf("reading remainder: %v", err)
	}
	if string(rest) != "rest of body" {
		t.Fatalf("remainder = %q", rest)
	}
}

func TestReadHeaderBlockRejectsFoldedLine(t *testing.T) {
	raw := "Content-Disposition: form-data;\r\n name=\"field1\"\r\n\r\n"
	br := bufreader.New(strings.NewReader(raw), 64)
	_, err := readHeaderBlock(br, defaultMaxHeaderBytes)
	if err == nil {
		t.Fatalf("expected an error on a folded continuation line")
	}
	if _, ok := err.(*InvalidHeaderError); !ok {
		t.Fatalf("expected *InvalidHeaderError, got %T: %v", err, err)
	}
}

func TestReadHeaderBlockBareLF(t *testing.T) {
	raw := "Content-Disposition: form-data; name=\"f\"\n\n"
	br := bufreader.New(strings.NewReader(raw), 64)
	hb, err := readHeaderBlock(br, defaultMaxHeaderBytes)
	if err != nil {
		t.Fatalf("readHeaderBlock: %v", err)
	}
	if hb.dispositionParams["name"] != "f" {
		t.Fatalf("name = %q", hb.dispositionParams["name"])
	}
}

func TestParseDispositionParamsFilenameStarWins(t *testing.T) {
	value := `form-data; name="f"; filename="plain.txt"; filename*=UTF-8''plan.txt`
	params := parseDispositionParams(value)
	if params["filename"] != "plan.txt" {
		t.Fatalf("filename = %q, want plan.txt (filename* should win)", params["filename"])
	}
}

func TestParseDispositionParamsPermissiveUnquoted(t *testing.T) {
	value := `form-data; name=f; filename=report.csv`
	params := parseDispositionParams(value)
	if params["name"] != "f" || params["filename"] != "report.csv" {
		t.Fatalf("params = %#v", params)
	}
}
