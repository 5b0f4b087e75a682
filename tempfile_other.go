//go:build !linux

package form

import "os"

// createTempFile falls back to the portable create-and-retry scheme on
// platforms without a faster OS-specific path (mirroring the teacher's own
// mover_unix.go / mover_windows.go platform split, applied here to temp
// file creation instead of cross-filesystem moves).
func createTempFile(template string) (f *os.File, path string, err error) {
	return createTempFilePortable(template)
}
