// Package filesys provides a small collection of utility functions for the
// file system operations the store performs: creating its directory,
// enumerating segment files, and deleting retired ones.
package filesys

import (
	"errors"
	"os"
	"path/filepath"
)

var (
	ErrIsNotDir = errors.New("path isn't a directory")
)

// CreateDir creates a directory at the specified path with the given permissions.
//
// If the directory already exists:
//   - If 'force' is true, it proceeds without error.
//   - If 'force' is false, it returns an error.
//
// It also returns an error if the existing path is a file (not a directory).
func CreateDir(dirPath string, permission os.FileMode, force bool) error {
	stat, err := os.Stat(dirPath)
	// If 'force' is false and the path exists, report that it already
	// exists; any other stat failure is returned as is.
	if !force {
		if err == nil {
			return os.ErrExist
		}
		if !os.IsNotExist(err) {
			return err
		}
	}

	// If the path exists and it's not a directory, return an error.
	if stat != nil && !stat.IsDir() {
		return ErrIsNotDir
	}

	// Create all necessary parent directories with the specified permissions.
	return os.MkdirAll(dirPath, permission)
}

// ReadDir reads the directory specified by `pattern` and returns a list of
// matching file paths. It uses `filepath.Glob`, so `pattern` can contain glob
// patterns (e.g., "mydir/*.json").
func ReadDir(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}

// DeleteFile deletes the file at the specified `filePath`.
// It returns an error if the file cannot be removed.
func DeleteFile(filePath string) error {
	return os.Remove(filePath)
}
