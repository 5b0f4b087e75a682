package form

// DecodeOption configures Decode. DefaultDecodeConfig (not the zero
// value of decodeConfig) is always applied first; options are applied in
// the order given, so a later option overrides an earlier one touching
// the same field.
type DecodeOption func(*decodeConfig)

// WithMaxHeaderBytes bounds the size of any single part's header block.
func WithMaxHeaderBytes(n int64) DecodeOption {
	return func(c *decodeConfig) { c.maxHeaderBytes = n }
}

// WithMaxSize bounds the size of any single part's body. 0 means
// unbounded.
func WithMaxSize(n int64) DecodeOption {
	return func(c *decodeConfig) { c.maxSize = n }
}

// WithChunkSize sets the size of the underlying chunked buffer, and so
// the read granularity; the teacher's lib/bufreader defaults to 4096,
// kept as this package's default too. The buffer size also caps the
// longest line the decoder can scan: a preamble, delimiter or header
// line that does not fit in the buffer fails with *InvalidHeaderError.
func WithChunkSize(n int) DecodeOption {
	return func(c *decodeConfig) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithMaxFields bounds the number of non-file parts accepted. 0 means
// unbounded.
func WithMaxFields(n int) DecodeOption {
	return func(c *decodeConfig) { c.maxFields = n }
}

// WithMaxFileCount bounds the number of file-bearing parts accepted. 0
// means unbounded.
func WithMaxFileCount(n int) DecodeOption {
	return func(c *decodeConfig) { c.maxFileCount = n }
}

// WithMaxTotalFileSize bounds the cumulative size of every file-bearing
// part's body. 0 means unbounded.
func WithMaxTotalFileSize(n int64) DecodeOption {
	return func(c *decodeConfig) { c.maxTotalFileSize = n }
}

// WithFileTemplate sets the template passed to the temp-file creator
// (see tempfile.go); an empty template uses the fixed prefix "form" in
// the OS default temp directory.
func WithFileTemplate(template string) DecodeOption {
	return func(c *decodeConfig) { c.fileTemplate = template }
}

// WithFieldSelector restricts which parts are retained in the decoded
// Form, by name and by whether the part is file-bearing. Rejected parts
// are scanned and discarded without allocating a Part or a temp file,
// generalizing the teacher's textfields/filefields name slices
// (centpd/lib/mail/form/form.go) to glob patterns via gobwas/glob.
func WithFieldSelector(sel *fieldSelector) DecodeOption {
	return func(c *decodeConfig) { c.selector = sel }
}

// WithWarningLog installs a callback invoked for non-fatal decode
// conditions. Decode itself emits none today; it exists for future
// extension and so callers can thread in their own logger, mirroring the
// teacher's practice of keeping logging injected rather than global.
func WithWarningLog(fn func(error)) DecodeOption {
	return func(c *decodeConfig) { c.warn = fn }
}

// EncodeOption configures Encode.
type EncodeOption func(*encodeConfig)

// WithEncodeChunkSize sets the buffer size used when streaming a
// FileField's body into the output.
func WithEncodeChunkSize(n int) EncodeOption {
	return func(c *encodeConfig) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}
