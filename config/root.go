package config

import (
	"errors"
	"os"
	"path/filepath"
)

const (
	GoModFile = "go.mod"
	FileName  = "propcheck.yaml"
)

var ErrNotInProject = errors.New("not in a Go project (no go.mod found)")

// FindProjectRoot walks up from the current working directory looking for go.mod.
// Returns the directory containing go.mod, or an error if not found.
func FindProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindProjectRootFrom(cwd)
}

// FindProjectRootFrom walks up from the given directory looking for go.mod.
// Returns the directory containing go.mod, or an error if not found.
func FindProjectRootFrom(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if HasGoMod(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return "", ErrNotInProject
		}
		dir = parent
	}
}

// HasGoMod returns true if the given directory contains a go.mod file.
func HasGoMod(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, GoModFile))
	return err == nil
}

// Locate returns the settings file for the project containing startDir:
// propcheck.yaml in startDir itself, else in the project root. The second
// return value is false when neither exists.
func Locate(startDir string) (string, bool) {
	candidates := []string{filepath.Join(startDir, FileName)}
	if root, err := FindProjectRootFrom(startDir); err == nil {
		candidates = append(candidates, filepath.Join(root, FileName))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}
