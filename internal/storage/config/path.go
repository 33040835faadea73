// Package config handles settings and the on-disk formats of profiles and the mod cache.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ParseImportPath validates a profile file given to import and returns the absolute path.
// It returns an error if:
//   - The path is empty
//   - The path contains parent directory traversal (..)
//   - The file does not exist or is a directory
//   - The file does not have a .yaml or .yml extension
func ParseImportPath(path string) (string, error) {
	if path == "" {
		return "", errors.New("import path cannot be empty")
	}

	if strings.Contains(path, "..") {
		return "", errors.New("import path contains invalid traversal")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.New("import file does not exist")
		}
		return "", err
	}

	if info.IsDir() {
		return "", errors.New("import path is a directory, not a file")
	}

	ext := strings.ToLower(filepath.Ext(abs))
	if ext != ".yaml" && ext != ".yml" {
		return "", errors.New("import file must have .yaml or .yml extension")
	}

	return abs, nil
}
