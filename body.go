package form

import (
	"bytes"
	"io"

	"github.com/mah0x211/go-form-multipart/internal/bufreader"
)

// partScanner streams one multipart body at a time off a shared chunked
// buffer, stopping exactly at the byte preceding the next
// "CRLF dash-boundary" (the CR may be absent), per §4.4. It is the direct
// adaptation of the teacher's mail.PartReader: the delimiter detection
// (checkReadable/checkAfterPrefix) is unchanged in spirit, rehomed onto
// this package's bufreader and Part/Form vocabulary.
type partScanner struct {
	br *bufreader.BufReader

	dashBoundary   []byte // "--boundary"
	nlDashBoundary []byte // "\r\n--boundary" (or "\n--boundary")
	nl             []byte // "\r\n", narrowed to "\n" if the wire uses bare LF

	n         int   // bytes of s.br's buffered window known to belong to the current part
	err       error // queued terminal error
	rpart     int   // bytes of the current part already consumed
	partsRead int
}

func newPartScanner(br *bufreader.BufReader, boundary string) *partScanner {
	b := []byte("\r\n--" + boundary)
	return &partScanner{
		br:             br,
		dashBoundary:   b[2:],
		nlDashBoundary: b,
		nl:             b[:2],
	}
}

// skipWS skips interior SPACE/TAB transport padding.
func skipWS(b []byte) []byte {
	for len(b) != 0 && (b[0] == ' ' || b[0] == '\t') {
		b = b[1:]
	}
	return b
}

// isLineEnd reports whether b is exactly a line terminator, "\n" or
// "\r\n" -- the CR is permissively optional everywhere this is checked.
func isLineEnd(b []byte) bool {
	return bytes.Equal(b, []byte("\n")) || bytes.Equal(b, []byte("\r\n"))
}

// narrowToBareLF adopts bare-LF delimiters for the rest of this decode
// once the very first boundary line is seen without a CR, mirroring the
// teacher's multireader.go pr.partsRead == 0 adoption: a wire either uses
// CRLF consistently or LF consistently, decided once from the first
// delimiter actually observed, rather than re-checked per occurrence.
func (s *partScanner) narrowToBareLF(bareLF bool) {
	if !bareLF || len(s.nl) == 1 {
		return
	}
	s.nl = []byte("\n")
	s.nlDashBoundary = append([]byte("\n"), s.dashBoundary...)
}

// discardPreamble reads and drops lines until one equals exactly
// dash-boundary. If the close-delimiter is seen before any line equals
// dash-boundary, it fails with ErrPrematureClose.
func (s *partScanner) discardPreamble() error {
	br := s.br
	for {
		b := br.Buffered()
		i := bytes.IndexByte(b, '\n')
		if i < 0 {
			if s.err != nil {
				return s.fillErr()
			}
			if br.Capacity() == 0 {
				if br.Size() > len(b) {
					br.CompactBuffer()
				} else {
					return &InvalidHeaderError{Line: "(preamble line too long)"}
				}
			}
			_, s.err = br.FillBufferAtleast(1)
			continue
		}

		line := b[:i+1]
		if bytes.HasPrefix(line, s.dashBoundary) {
			ending := false
			blen := len(s.dashBoundary)
			rest := line[blen:]
			if len(rest) >= 2 && rest[0] == '-' && rest[1] == '-' {
				rest = rest[2:]
				ending = true
			}
			rest = skipWS(rest)
			if isLineEnd(rest) {
				if ending {
					return ErrPrematureClose
				}
				s.narrowToBareLF(bytes.Equal(rest, []byte("\n")))
				br.Discard(i + 1)
				s.partsRead++
				s.rpart = 0
				return nil
			}
		}
		br.Discard(i + 1)
	}
}

func (s *partScanner) fillErr() error {
	if s.err == io.EOF {
		return ErrInsufficientData
	}
	return &ReaderFailureError{Err: s.err}
}

func (s *partScanner) fillErr2(err error) error {
	if err == io.EOF {
		return ErrInsufficientData
	}
	return &ReaderFailureError{Err: err}
}

// nextPart advances past the current part's trailing delimiter line and
// positions the scanner at the start of the next part's headers. It
// returns io.EOF once the close-delimiter has been consumed.
//
// Read stops exactly at the CRLF (or bare LF) that opens the delimiter,
// leaving that line terminator itself still buffered -- it belongs to
// the delimiter grammar (CRLF dash-boundary), not to the body. Drop it
// here before re-scanning for the dash-boundary line proper.
func (s *partScanner) nextPart() error {
	br := s.br
	if _, err := br.Discard(len(s.nl)); err != nil {
		return s.fillErr2(err)
	}
	for {
		b := br.Buffered()
		i := bytes.IndexByte(b, '\n')
		if i < 0 {
			if s.err != nil {
				if s.err == io.EOF {
					// The close-delimiter may end the input with no line
					// terminator after it.
					if rest := bytes.TrimPrefix(b, s.dashBoundary); len(rest) < len(b) &&
						bytes.HasPrefix(rest, []byte("--")) && len(skipWS(rest[2:])) == 0 {
						br.Discard(len(b))
						return io.EOF
					}
					return ErrInsufficientData
				}
				return s.fillErr()
			}
			if br.Capacity() == 0 {
				if br.Size() > len(b) {
					br.CompactBuffer()
				} else {
					return &InvalidHeaderError{Line: "(boundary line too long)"}
				}
			}
			_, s.err = br.FillBufferAtleast(1)
			continue
		}

		line := b[:i+1]
		if bytes.HasPrefix(line, s.dashBoundary) {
			ending := false
			blen := len(s.dashBoundary)
			rest := line[blen:]
			if len(rest) >= 2 && rest[0] == '-' && rest[1] == '-' {
				rest = rest[2:]
				ending = true
			}
			trimmed := skipWS(rest)
			if isLineEnd(trimmed) {
				if ending {
					br.Discard(i + 1)
					return io.EOF
				}
				br.Discard(i + 1)
				s.partsRead++
				s.rpart = 0
				return nil
			}
		}
		return &InvalidHeaderError{Line: string(bytes.TrimRight(line, "\n"))}
	}
}

// checkAfterPrefix classifies the bytes immediately following a
// dash-boundary match: +1 a complete terminator match, 0 inconclusive
// (need more data), -1 a complete non-match.
func (s *partScanner) checkAfterPrefix(b []byte) int {
	if len(b) == 0 {
		return 0
	}
	endmark := false
	if b[0] == '-' {
		if len(b) == 1 {
			return 0
		}
		if b[1] == '-' {
			endmark = true
			b = b[2:]
		} else {
			return -1
		}
	}
	b = skipWS(b)
	if len(b) == 0 {
		if endmark && s.err == io.EOF {
			return +1
		}
		return 0
	}
	if len(b) < len(s.nl) {
		return 0
	}
	if bytes.Equal(b[:len(s.nl)], s.nl) {
		return +1
	}
	return -1
}

// checkReadable grows s.n, the count of buffered bytes known to be plain
// body data (not part of any delimiter), or returns io.EOF once a
// terminator has been conclusively matched.
func (s *partScanner) checkReadable() error {
	b := s.br.Buffered()
	if s.rpart == 0 {
		blen := len(s.dashBoundary)
		if len(b) >= blen {
			if bytes.Equal(b[:blen], s.dashBoundary) {
				switch s.checkAfterPrefix(b[blen:]) {
				case +1:
					return io.EOF
				case 0:
					return nil
				case -1:
					s.n += blen
					return nil
				}
			}
		} else if bytes.Equal(b, s.dashBoundary[:len(b)]) {
			return nil
		}
	}
	if i := bytes.Index(b, s.nlDashBoundary); i >= 0 {
		s.n += i
		switch s.checkAfterPrefix(b[i+len(s.nlDashBoundary):]) {
		case +1:
			return io.EOF
		case 0:
			return nil
		case -1:
			s.n += len(s.nlDashBoundary)
			return nil
		}
	}
	if bytes.HasPrefix(s.nlDashBoundary, b) {
		return nil
	}
	if i := bytes.LastIndexByte(b, s.nl[0]); i >= 0 && bytes.HasPrefix(s.nlDashBoundary, b[i:]) {
		s.n += i
		return nil
	}
	s.n += len(b)
	return nil
}

// Read implements io.Reader over the current part's body bytes, stopping
// at the delimiter without consuming it.
func (s *partScanner) Read(b []byte) (n int, err error) {
	br := s.br
	for s.n == 0 {
		err = s.checkReadable()
		if s.n == 0 {
			if err != nil {
				return 0, err
			}
			if s.err != nil {
				if s.err == io.EOF {
					return 0, ErrInsufficientData
				}
				return 0, s.fillErr()
			}
			if br.Capacity() == 0 {
				if br.Size() > len(br.Buffered()) {
					br.CompactBuffer()
				} else {
					return 0, &InvalidHeaderError{Line: "(boundary line too long)"}
				}
			}
			_, s.err = br.FillBufferAtleast(1)
		}
	}
	w := len(b)
	if w > s.n {
		w = s.n
	}
	n, _ = br.Read(b[:w])
	s.rpart += n
	s.n -= n
	return n, nil
}
