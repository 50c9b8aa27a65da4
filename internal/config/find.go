package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Find looks for crxpack.yaml in dir and each of its parents.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	// Traverse up the directory tree looking for crxpack.yaml
	for {
		configPath := filepath.Join(dir, FileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		// Check if we've reached the root
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found in current directory or any parent directory", FileName)
}
