package form

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

// decodeExtValue decodes an RFC 5987 ext-value, the form used by the
// filename* Content-Disposition parameter:
//
//	ext-value = charset "'" [ language ] "'" value-chars
//
// value-chars is percent-encoded per RFC 3986; this implementation
// percent-decodes it and then transcodes from the named charset to UTF-8
// via golang.org/x/text, rather than assuming the bytes are already
// UTF-8. Full RFC 2231 parameter continuation (filename*0*, filename*1*,
// ...) is out of scope, per spec.md's Non-goals.
func decodeExtValue(raw string) (string, error) {
	firstQuote := strings.IndexByte(raw, '\'')
	if firstQuote < 0 {
		return "", fmt.Errorf("form: filename* missing charset delimiter")
	}
	rest := raw[firstQuote+1:]
	secondQuote := strings.IndexByte(rest, '\'')
	if secondQuote < 0 {
		return "", fmt.Errorf("form: filename* missing language delimiter")
	}
	charset := raw[:firstQuote]
	encoded := rest[secondQuote+1:]

	decodedBytes, err := percentDecode(encoded)
	if err != nil {
		return "", err
	}

	if strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "us-ascii") {
		return string(decodedBytes), nil
	}

	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil || enc == nil {
		return "", fmt.Errorf("form: unknown charset %q in filename*", charset)
	}
	out, err := enc.NewDecoder().Bytes(decodedBytes)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func percentDecode(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '%' {
			out = append(out, c)
			continue
		}
		if i+2 >= len(s) {
			return nil, fmt.Errorf("form: truncated percent-encoding in filename*")
		}
		v, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("form: invalid percent-encoding in filename*: %w", err)
		}
		out = append(out, byte(v))
		i += 2
	}
	return out, nil
}
