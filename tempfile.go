package form

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// tempGuard owns a temp file's removal. It is attached to a Part via
// runtime.SetFinalizer so that a Part dropped by the caller without being
// explicitly consumed still has its backing file cleaned up -- the same
// contract the teacher's form.File.Remove / fstore packages give callers,
// expressed here as an explicit drop guard instead of a defer-until-GC
// finalizer on the *os.File itself.
type tempGuard struct {
	path string
}

func newTempGuard(path string) *tempGuard {
	g := &tempGuard{path: path}
	runtime.SetFinalizer(g, (*tempGuard).finalize)
	return g
}

func (g *tempGuard) finalize() {
	if g.path != "" {
		os.Remove(g.path)
		g.path = ""
	}
}

// disarm detaches the guard without removing the file: ownership of the
// path has moved to the caller.
func (g *tempGuard) disarm() {
	runtime.SetFinalizer(g, nil)
	g.path = ""
}

// remove removes the file now and detaches the guard.
func (g *tempGuard) remove() {
	runtime.SetFinalizer(g, nil)
	if g.path != "" {
		os.Remove(g.path)
		g.path = ""
	}
}

// resolveTempTemplate fills in the OS default temp directory with the
// fixed prefix "form" when the caller didn't supply WithFileTemplate,
// mirroring the teacher's fstore.Config.Path + prefix convention.
func resolveTempTemplate(template string) string {
	if template != "" {
		return template
	}
	return filepath.Join(os.TempDir(), "form")
}

const randSuffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// randSuffix renders six random bytes as filesystem-safe characters, per
// §4.5's filetmpl + "_XXXXXX" contract.
func randSuffix() string {
	var raw [6]byte
	if _, err := rand.Read(raw[:]); err != nil {
		// crypto/rand failing is effectively unrecoverable; fall back to a
		// fixed-looking but still unique-per-process value rather than
		// panicking the caller's decode.
		return fmt.Sprintf("%012x", []byte(fmt.Sprintf("%p", &raw)))[:6]
	}
	out := make([]byte, 6)
	for i, b := range raw {
		out[i] = randSuffixAlphabet[int(b)%len(randSuffixAlphabet)]
	}
	return string(out)
}

// createTempFilePortable opens a new, exclusively-created file named
// template+"_"+sixRandomChars, retrying on name collision. It is the
// fallback used on every platform without a faster OS-specific path, and
// the only path on platforms where none is implemented (tempfile_other.go).
func createTempFilePortable(template string) (f *os.File, path string, err error) {
	const maxAttempts = 10000
	for i := 0; i < maxAttempts; i++ {
		candidate := template + "_" + randSuffix()
		f, err = os.OpenFile(candidate, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0600)
		if err == nil {
			return f, candidate, nil
		}
		if !os.IsExist(err) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("form: could not allocate a unique temp file name under %q", template)
}
