// Package pathutil provides shared path validation helpers.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidPath is returned for paths the filesystem cannot represent.
var ErrInvalidPath = errors.New("invalid file path")

// ValidateFilePath rejects empty paths, paths with null bytes and paths
// that name a directory ("", ".", or a trailing separator).
func ValidateFilePath(filePath string) error {
	if strings.TrimSpace(filePath) == "" {
		return fmt.Errorf("%w: path is empty", ErrInvalidPath)
	}
	if strings.Contains(filePath, "\x00") {
		return fmt.Errorf("%w: %q contains a null byte", ErrInvalidPath, filePath)
	}
	if strings.HasSuffix(filepath.ToSlash(filePath), "/") || filepath.Clean(filePath) == "." {
		return fmt.Errorf("%w: %q names a directory", ErrInvalidPath, filePath)
	}
	return nil
}

// SameFile reports whether a and b refer to the same file. Existing files
// are compared with os.SameFile, so hard links and symlinks are detected;
// otherwise the absolute, cleaned paths are compared.
func SameFile(a, b string) bool {
	if infoA, err := os.Stat(a); err == nil {
		if infoB, err := os.Stat(b); err == nil {
			return os.SameFile(infoA, infoB)
		}
	}

	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
