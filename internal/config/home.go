package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeDirName is the per-project directory holding config, the session database and logs.
const HomeDirName = ".labourcheck"

// GetHome returns the labourcheck home directory.
// Priority order:
//  1. LABOURCHECK_HOME environment variable (if set)
//  2. the nearest ancestor of the working directory that already has a .labourcheck directory
//  3. .labourcheck under the working directory
//
// The directory is created if it doesn't exist.
func GetHome() (string, error) {
	if home := os.Getenv("LABOURCHECK_HOME"); home != "" {
		if err := os.MkdirAll(home, 0755); err != nil {
			return "", fmt.Errorf("create labourcheck home directory: %w", err)
		}
		return home, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	if existing := findHome(cwd); existing != "" {
		return existing, nil
	}

	home := filepath.Join(cwd, HomeDirName)
	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create labourcheck home directory: %w", err)
	}
	return home, nil
}

// findHome walks up from dir looking for an existing home directory.
func findHome(dir string) string {
	current := dir
	for {
		candidate := filepath.Join(current, HomeDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(current)
		if parent == current {
			return ""
		}
		current = parent
	}
}

// ConfigPath returns the config file location inside home.
func ConfigPath(home string) string {
	return filepath.Join(home, "config.yaml")
}

// EnvPath returns the secrets file location inside home.
func EnvPath(home string) string {
	return filepath.Join(home, ".env")
}
