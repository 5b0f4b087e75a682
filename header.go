package form

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/mah0x211/go-form-multipart/internal/bufreader"
)

// dispositionParamRE is the permissive Content-Disposition parameter
// pattern from §4.3: it tolerates unquoted values rather than requiring a
// strict RFC 2045 parameter grammar. A value is either a quoted-string
// (group 2, possibly empty) or runs unquoted up to the next ";" or
// whitespace (group 3). Preserving this quirky behaviour (instead of
// substituting a strict parser) is intentional -- see DESIGN.md.
var dispositionParamRE = regexp.MustCompile(`([^\s=;]+)=(?:"([^"]*)"|([^;\s]*))`)

const defaultMaxHeaderBytes = 16 * 1024

// headerBlock is one part's parsed header section.
type headerBlock struct {
	header            map[string][]string
	dispositionParams map[string]string
	sawContentDisp    bool
}

// readHeaderBlock consumes bytes up to and including the first blank line
// terminating a part's header block. Header names are lower-cased; a line
// failing the relaxed grammar
//
//	HEADER = field-name *WSP ":" *WSP field-value *WSP (CR? LF)
//
// is a fatal *InvalidHeaderError carrying the offending line. RFC 822
// header folding (leading whitespace continuation) is intentionally not
// recognized: a folded continuation line has no colon of its own and so
// simply fails this grammar, exactly per §4.3's documented quirk.
func readHeaderBlock(br *bufreader.BufReader, maxHeaderBytes int64) (headerBlock, error) {
	hb := headerBlock{header: make(map[string][]string)}

	var consumed int64
	for {
		b := br.Buffered()
		i := bytes.IndexByte(b, '\n')
		if i < 0 {
			if maxHeaderBytes > 0 && consumed+int64(len(b)) > maxHeaderBytes {
				return hb, &InvalidHeaderError{Line: "(header block exceeds size limit)"}
			}
			if br.Capacity() < 2048 {
				br.CompactBuffer()
			}
			if br.Capacity() == 0 {
				return hb, &InvalidHeaderError{Line: "(header line too long)"}
			}
			if _, err := br.FillBufferAtleast(1); err != nil {
				if err == io.EOF {
					return hb, ErrInsufficientData
				}
				return hb, &ReaderFailureError{Err: err}
			}
			continue
		}

		line := b[:i]
		br.Discard(i + 1)
		consumed += int64(i + 1)

		// Strip trailing CR (bare LF is tolerated per §6.3).
		line = bytes.TrimSuffix(line, []byte{'\r'})
		// Tolerate trailing whitespace before the terminator.
		trimmed := bytes.TrimRight(line, " \t")

		if len(trimmed) == 0 {
			return hb, nil
		}

		colon := bytes.IndexByte(trimmed, ':')
		if colon < 0 {
			return hb, &InvalidHeaderError{Line: string(line)}
		}

		name := bytes.TrimRight(trimmed[:colon], " \t")
		if len(name) == 0 || !httpguts.ValidHeaderFieldName(string(name)) {
			return hb, &InvalidHeaderError{Line: string(line)}
		}

		value := bytes.TrimSpace(trimmed[colon+1:])
		lname := strings.ToLower(string(name))
		hb.header[lname] = append(hb.header[lname], string(value))

		if lname == "content-disposition" {
			hb.sawContentDisp = true
			hb.dispositionParams = parseDispositionParams(string(value))
		}
	}
}

// parseDispositionParams scans a Content-Disposition value with the
// permissive pattern documented in §4.3 and §9, storing lower(key) ->
// value for each match. filename* overwrites filename unconditionally
// once decoded (see rfc5987.go), regardless of parameter order -- this
// canonicalizes the distilled spec's map-iteration-order open question.
func parseDispositionParams(value string) map[string]string {
	params := make(map[string]string)
	for _, m := range dispositionParamRE.FindAllStringSubmatchIndex(value, -1) {
		key := strings.ToLower(value[m[2]:m[3]])
		if m[4] >= 0 { // quoted-string branch matched, possibly empty
			params[key] = value[m[4]:m[5]]
		} else {
			params[key] = value[m[6]:m[7]]
		}
	}
	if star, ok := params["filename*"]; ok {
		if decoded, err := decodeExtValue(star); err == nil {
			params["filename"] = decoded
		} else {
			params["filename"] = star
		}
	}
	return params
}
