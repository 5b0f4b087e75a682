package form

import (
	"bytes"
	"context"
	"io"
	"os"

	"github.com/mah0x211/go-form-multipart/internal/bufreader"
)

// Reader is the minimal surface Decode needs from its input. *os.File and
// *bytes.Reader both satisfy it, as does any io.Reader.
type Reader = io.Reader

// DefaultDecodeConfig mirrors the teacher's DefaultParserParams
// (centpd/lib/mail/form/form.go): a part's header block (16 KiB) and a
// part's body (32 MiB) are bounded by default; the field count, file
// count and total file size limits are 0, which leaves them unbounded.
var DefaultDecodeConfig = decodeConfig{
	maxHeaderBytes:   defaultMaxHeaderBytes,
	maxSize:          32 << 20,
	chunkSize:        bufreader.DefaultChunkSize,
	maxFields:        0,
	maxFileCount:     0,
	maxTotalFileSize: 0,
	fileTemplate:     "",
}

type decodeConfig struct {
	maxHeaderBytes   int64
	maxSize          int64
	chunkSize        int
	maxFields        int
	maxFileCount     int
	maxTotalFileSize int64
	fileTemplate     string
	selector         *fieldSelector
	warn             func(error)
}

// Decode reads a multipart/form-data body from r, delimited by boundary
// (without the leading "--"), and returns the parsed Form.
//
// On any error the Form built so far is fully discarded (every temp file
// it created is removed) before returning, so callers never need to call
// Form.Close on a non-nil error return -- mirroring the teacher's killfile
// cleanup closures in ParseForm, generalized to every exit path.
func Decode(ctx context.Context, r Reader, boundary string, opts ...DecodeOption) (Form, error) {
	if err := ValidateBoundary(boundary); err != nil {
		return nil, err
	}

	cfg := DefaultDecodeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	br := bufreader.New(r, cfg.chunkSize)
	scanner := newPartScanner(br, boundary)

	form := make(Form)
	if err := scanner.discardPreamble(); err != nil {
		return nil, err
	}

	var fieldCount, fileCount int
	var totalFileSize int64

	for {
		if err := ctx.Err(); err != nil {
			discardForm(form)
			return nil, err
		}

		hb, err := readHeaderBlock(br, cfg.maxHeaderBytes)
		if err != nil {
			discardForm(form)
			return nil, err
		}

		if !hb.sawContentDisp {
			discardForm(form)
			return nil, ErrMissingName
		}
		name := hb.dispositionParams["name"]
		if name == "" {
			discardForm(form)
			return nil, ErrMissingName
		}
		filename, isFile := hb.dispositionParams["filename"]

		if cfg.selector != nil && !cfg.selector.allows(name, isFile) {
			// Skip this part's body without retaining it, then continue.
			if err := skipPart(scanner, cfg.maxSize); err != nil {
				discardForm(form)
				return nil, err
			}
			if err := scanner.nextPart(); err != nil {
				if err == io.EOF {
					if err := discardEpilogue(br); err != nil {
						discardForm(form)
						return nil, err
					}
					return form, nil
				}
				discardForm(form)
				return nil, err
			}
			continue
		}

		if cfg.maxFields > 0 && !isFile && fieldCount >= cfg.maxFields {
			discardForm(form)
			return nil, ErrTooManyFields
		}

		part := &Part{Name: name, Header: hb.header, isFile: isFile}

		if isFile {
			if cfg.maxFileCount > 0 && fileCount >= cfg.maxFileCount {
				discardForm(form)
				return nil, ErrTooManyFiles
			}
			part.FileName = stripPath(filename)

			f, path, guard, err := openTempFile(cfg.fileTemplate)
			if err != nil {
				discardForm(form)
				return nil, err
			}
			part.File = f
			part.Pathname = path
			part.guard = guard

			n, err := copyLimited(f, scanner, cfg.maxSize)
			if err != nil {
				part.Close()
				discardForm(form)
				return nil, err
			}
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				part.Close()
				discardForm(form)
				return nil, &ReaderFailureError{Err: err}
			}
			part.Size = n
			fileCount++
			totalFileSize += n
			if cfg.maxTotalFileSize > 0 && totalFileSize > cfg.maxTotalFileSize {
				part.Close()
				discardForm(form)
				return nil, ErrBodyTooLarge
			}
		} else {
			var buf bytes.Buffer
			n, err := copyLimited(&buf, scanner, cfg.maxSize)
			if err != nil {
				discardForm(form)
				return nil, err
			}
			part.Data = buf.String()
			part.Size = n
			fieldCount++
		}

		form[name] = append(form[name], part)

		if err := scanner.nextPart(); err != nil {
			if err == io.EOF {
				if err := discardEpilogue(br); err != nil {
					discardForm(form)
					return nil, err
				}
				return form, nil
			}
			discardForm(form)
			return nil, err
		}
	}
}

// discardEpilogue implements the decoder driver's final stage (§4.5):
// read and discard every byte the source still has to offer after the
// close-delimiter, until it signals EOF.
func discardEpilogue(br *bufreader.BufReader) error {
	_, err := br.Discard(-1)
	if err != nil && err != io.EOF {
		return &ReaderFailureError{Err: err}
	}
	return nil
}

// copyLimited copies src (always a *partScanner here, whose errors are
// already typed per errors.go) into dst, enforcing maxsize the way the
// teacher's ParseForm does with io.CopyN(dst, part, n+1): request one
// byte beyond the limit so a body that lands exactly on it still
// succeeds, while anything longer is caught without having to buffer
// the whole thing first.
func copyLimited(dst io.Writer, src io.Reader, maxsize int64) (int64, error) {
	if maxsize <= 0 {
		n, err := io.Copy(dst, src)
		if err == io.EOF {
			err = nil
		}
		return n, err
	}
	n, err := io.CopyN(dst, src, maxsize+1)
	if err == nil {
		return n, ErrBodyTooLarge
	}
	if err == io.EOF {
		return n, nil
	}
	return n, err
}

// skipPart drains a part's body without retaining any of it, used when a
// caller's WithFieldSelector rejects the part by name.
func skipPart(scanner *partScanner, maxsize int64) error {
	_, err := copyLimited(io.Discard, scanner, maxsize)
	return err
}

func openTempFile(template string) (*os.File, string, *tempGuard, error) {
	f, path, err := createTempFile(resolveTempTemplate(template))
	if err != nil {
		return nil, "", nil, &TempFileFailureError{Err: err}
	}
	return f, path, newTempGuard(path), nil
}
