package devenv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"regassist-backend/lib/configutil"
)

const (
	moduleName     = "regassist-backend"
	devStatePrefix = "<dev_state>"
)

var modName = regexp.MustCompile(`(?m)^module *([\w\-_/.]+)$`)

func isWorkspaceRoot(dir string) bool {
	mod, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return false
	}
	matches := modName.FindSubmatch(mod)
	return len(matches) >= 2 && string(matches[1]) == moduleName
}

// GetWorkspaceRoot walks up from the cwd to the directory holding this
// module's go.mod.
func GetWorkspaceRoot() (string, error) {
	current, err := filepath.Abs(".")
	if err != nil {
		return "", err
	}

	for {
		if isWorkspaceRoot(current) {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", os.ErrNotExist
		}
		current = parent
	}
}

func GetStateFilePath(path string) (string, error) {
	root, err := GetWorkspaceRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "dev", ".state", path), nil
}

func GetStateConfig[T any](path string) (T, error) {
	configPath, err := GetStateFilePath(path)
	if err != nil {
		var out T
		return out, err
	}
	out, err := configutil.ReadConfig[T](configPath)
	if errors.Is(err, os.ErrNotExist) {
		return out, fmt.Errorf("no config at %s: %w", configPath, err)
	}
	return out, err
}

// ResolvePath expands a leading "<dev_state>" into dev/.state under the
// workspace root, creating the directory if needed. Other paths pass through.
func ResolvePath(path string) (string, error) {
	if !strings.HasPrefix(path, devStatePrefix) {
		return path, nil
	}

	root, err := GetWorkspaceRoot()
	if err != nil {
		return "", err
	}
	stateDir := filepath.Join(root, "dev", ".state")
	err = os.MkdirAll(stateDir, 0700)
	if err != nil {
		return "", err
	}

	subpath := strings.TrimLeft(strings.TrimPrefix(path, devStatePrefix), `/\`)
	return filepath.Join(stateDir, subpath), nil
}
