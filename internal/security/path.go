package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidateFilePath rejects empty paths, NUL bytes, and relative paths that
// climb out of the working directory.
func ValidateFilePath(path string) error {
	if path == "" {
		return fmt.Errorf("file path cannot be empty")
	}
	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("file path contains a NUL byte")
	}

	clean := filepath.Clean(path)
	if !filepath.IsAbs(clean) && (clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator))) {
		return fmt.Errorf("path contains directory traversal: %s", path)
	}
	return nil
}

// ValidateReadableFile checks that path is safe, names a regular file, and is
// no larger than maxBytes. A maxBytes of zero or less skips the size check.
func ValidateReadableFile(path string, maxBytes int64) error {
	if err := ValidateFilePath(path); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return fmt.Errorf("%s is %d bytes, limit is %d", path, info.Size(), maxBytes)
	}
	return nil
}
