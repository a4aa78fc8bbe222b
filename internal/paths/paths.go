// Package paths names header files relative to the project root.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// CanonicalizePath converts a header path to a root-relative path with
// forward slashes. Symlinks are resolved on both sides when they exist.
func CanonicalizePath(path string, root string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := evalSymlinks(abs)
	if err != nil {
		return "", err
	}

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	rootResolved, err := evalSymlinks(rootAbs)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func evalSymlinks(p string) (string, error) {
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return "", err
	}
	return resolved, nil
}

// IsWithinRoot checks if a path is inside root
func IsWithinRoot(path string, root string) bool {
	canonical, err := CanonicalizePath(path, root)
	if err != nil {
		return false
	}
	return canonical != ".." && !strings.HasPrefix(canonical, "../")
}

// UnitName is the name a header is stored under. Headers inside root keep
// their relative path; anything else falls back to the file name.
func UnitName(path string, root string) string {
	if IsWithinRoot(path, root) {
		if canonical, err := CanonicalizePath(path, root); err == nil {
			return canonical
		}
	}
	return filepath.Base(path)
}
