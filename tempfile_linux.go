//go:build linux

package form

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// createTempFile opens an anonymous O_TMPFILE inode in the target
// directory and links it into place under template+"_XXXXXX" right away,
// before any data is written, so the named file is visible on disk while
// the caller is still writing it. If the filesystem backing the directory
// does not support O_TMPFILE (e.g. some overlay/network filesystems),
// it falls back to createTempFilePortable.
func createTempFile(template string) (f *os.File, path string, err error) {
	dir, prefix := filepath.Split(template)
	if dir == "" {
		dir = "."
	}

	fd, oerr := unix.Openat(unix.AT_FDCWD, dir, unix.O_RDWR|unix.O_TMPFILE|unix.O_EXCL|unix.O_CLOEXEC, 0600)
	if oerr != nil {
		return createTempFilePortable(template)
	}

	f = os.NewFile(uintptr(fd), filepath.Join(dir, prefix+"(deleted)"))

	path, err = linkTempFile(dir, fd, prefix)
	if err != nil {
		f.Close()
		return nil, "", err
	}
	return f, path, nil
}

func linkTempFile(dir string, fd int, prefix string) (string, error) {
	procPath := fmt.Sprintf("/proc/self/fd/%d", fd)
	const maxAttempts = 10000
	for i := 0; i < maxAttempts; i++ {
		path := filepath.Join(dir, prefix+"_"+randSuffix())
		err := unix.Linkat(unix.AT_FDCWD, procPath, unix.AT_FDCWD, path, unix.AT_SYMLINK_FOLLOW)
		if err == nil {
			return path, nil
		}
		if err != unix.EEXIST {
			return "", err
		}
	}
	return "", fmt.Errorf("form: could not allocate a unique temp file name under %q", dir)
}
