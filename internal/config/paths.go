package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// ResolveBaseDir picks the directory relative data paths are resolved
// against: INTERNMATCH_ROOT, then the working directory or its parent if
// either holds an internship catalog, then the working directory.
func ResolveBaseDir() string {
	if env := os.Getenv("INTERNMATCH_ROOT"); env != "" {
		return ExpandHome(env)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	if hasDataLayout(cwd) {
		return cwd
	}
	parent := filepath.Dir(cwd)
	if hasDataLayout(parent) {
		return parent
	}

	return cwd
}

func hasDataLayout(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, "data")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, "internships.csv")); err == nil {
		return true
	}
	return false
}

// resolvePath anchors a relative path at base.
func resolvePath(base, path string) string {
	path = ExpandHome(strings.TrimSpace(path))
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
