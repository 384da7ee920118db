package fileutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// CopyFileExclusive streams src to dst. dst must not exist yet; when it does
// the returned error matches fs.ErrExist. The copy takes the permission bits
// of src minus any access for others, the timestamps of src, and its owner
// and group when the caller is allowed to set them.
func CopyFileExclusive(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	var st unix.Stat_t
	if err := unix.Fstat(int(in.Fd()), &st); err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}
	perm := os.FileMode(st.Mode).Perm() &^ 0o007

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	// Ownership is best effort; unprivileged callers cannot give files away.
	_ = out.Chown(int(st.Uid), int(st.Gid))
	if err := out.Chmod(perm); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}

	atimeSec, atimeNsec := st.Atim.Unix()
	mtimeSec, mtimeNsec := st.Mtim.Unix()
	return os.Chtimes(dst, time.Unix(atimeSec, atimeNsec), time.Unix(mtimeSec, mtimeNsec))
}

// WriteFileAtomic replaces path with data. The content is written to a
// temporary file in the same directory, synced, given mode and renamed over
// path, so readers see either the old or the new file.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
