package persist

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"wikiconfig/internal/fileutil"
)

// maxBackupAttempts bounds the exclusive-create retry loop.
const maxBackupAttempts = 1000

// Backup is one numbered copy of the local override.
type Backup struct {
	Path    string
	Number  int
	ModTime time.Time
	Size    int64
}

// ListBackups returns the backups of path, oldest (lowest number) first.
func ListBackups(path string) ([]Backup, error) {
	dir := filepath.Dir(path)
	prefix := filepath.Base(path) + "."
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list backups in %s: %w", dir, err)
	}

	var backups []Backup
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		n, ok := backupNumber(strings.TrimPrefix(name, prefix))
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat backup %s: %w", name, err)
		}
		backups = append(backups, Backup{
			Path:    filepath.Join(dir, name),
			Number:  n,
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}
	slices.SortFunc(backups, func(a, b Backup) int { return a.Number - b.Number })
	return backups, nil
}

func backupNumber(suffix string) (int, bool) {
	if suffix == "" {
		return 0, false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(suffix)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Prune removes the oldest backups of path so that at most retention remain.
// A negative retention keeps everything. It returns the removed paths.
func Prune(path string, retention int) ([]string, error) {
	if retention < 0 {
		return nil, nil
	}
	backups, err := ListBackups(path)
	if err != nil {
		return nil, err
	}
	if len(backups) <= retention {
		return nil, nil
	}
	var removed []string
	for _, b := range backups[:len(backups)-retention] {
		if err := os.Remove(b.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("remove backup %s: %w", b.Path, err)
		}
		removed = append(removed, b.Path)
	}
	return removed, nil
}

// backupFile copies path to the next free backup number above the highest
// existing one. A concurrent writer taking the same number is detected by the
// exclusive create and the next number is tried.
func backupFile(path string) (string, error) {
	backups, err := ListBackups(path)
	if err != nil {
		return "", err
	}
	next := 1
	if len(backups) > 0 {
		next = backups[len(backups)-1].Number + 1
	}
	for range maxBackupAttempts {
		dst := fmt.Sprintf("%s.%d", path, next)
		err := fileutil.CopyFileExclusive(path, dst)
		if err == nil {
			return dst, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", err
		}
		next++
	}
	return "", fmt.Errorf("no free backup name after %d attempts", maxBackupAttempts)
}
