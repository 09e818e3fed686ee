package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates path and any missing parents.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", path, err)
	}
	return nil
}

// SafeJoin joins only the final element of name onto root, so ids carrying
// separators or ".." cannot leave root.
func SafeJoin(root, name string) string {
	return filepath.Join(root, filepath.Base(name))
}

// RegularFileExists reports whether path names a regular file. Directories
// and missing paths both report false.
func RegularFileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}
