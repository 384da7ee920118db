package preflight

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

type target struct {
	dir    bool
	access uint32
	ok     string
	denied string
}

var (
	writableDir  = target{dir: true, access: unix.R_OK | unix.W_OK | unix.X_OK, ok: "read/write ok", denied: "insufficient permissions"}
	listableDir  = target{dir: true, access: unix.R_OK | unix.X_OK, ok: "list ok", denied: "not listable"}
	readableFile = target{access: unix.R_OK, ok: "read ok", denied: "not readable"}
)

func check(name, path string, want target) Result {
	fail := func(format string, args ...any) Result {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s)", path, fmt.Sprintf(format, args...))}
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fail("does not exist")
	case err != nil:
		return fail("stat: %v", err)
	case want.dir && !info.IsDir():
		return fail("is not a directory")
	case !want.dir && !info.Mode().IsRegular():
		return fail("not a regular file")
	}
	if err := unix.Access(path, want.access); err != nil {
		return fail("%s: %v", want.denied, err)
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, want.ok)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable
// and writable.
func CheckDirectoryAccess(name, path string) Result {
	return check(name, path, writableDir)
}

// CheckReadableFile verifies that path is a regular file the process can read.
func CheckReadableFile(name, path string) Result {
	return check(name, path, readableFile)
}

// CheckSearchRoot verifies an extension search root can be listed. A missing
// root is reported but does not stop extension discovery elsewhere.
func CheckSearchRoot(path string) Result {
	return check("Extension root", path, listableDir)
}
