package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

const probePrefix = "nfc-probe-"

// ProbeNormalization reports whether the filesystem holding dir stores file
// names in decomposed form. It creates a uniquely named file whose name
// contains a precomposed character, reads the directory back, and removes
// the file again.
func ProbeNormalization(dir string) (bool, error) {
	stem := probePrefix + uuid.NewString()
	name := norm.NFC.String(stem + "-é")
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return false, fmt.Errorf("create probe file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return false, fmt.Errorf("close probe file: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		_ = os.Remove(path)
		return false, fmt.Errorf("list %s: %w", dir, err)
	}
	var listed string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), stem) {
			listed = entry.Name()
			break
		}
	}
	if listed == "" {
		_ = os.Remove(path)
		return false, fmt.Errorf("probe file %s not listed in %s", name, dir)
	}
	if err := os.Remove(filepath.Join(dir, listed)); err != nil {
		return false, fmt.Errorf("remove probe file: %w", err)
	}
	return !norm.NFC.IsNormalString(listed), nil
}
