package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gitlab.com/tozd/go/errors"
)

// ConfigEnvVar overrides the default config file location. Scheduled task
// hosts usually set it instead of passing --config.
const ConfigEnvVar = "BATCHMOVE_CONFIG"

// DefaultConfigPath returns the config file named by BATCHMOVE_CONFIG, or
// the platform-appropriate default.
func DefaultConfigPath() (string, error) {
	if p := os.Getenv(ConfigEnvVar); p != "" {
		return ExpandPath(p), nil
	}
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", errors.Errorf("APPDATA not set and cannot determine home directory: %w", err)
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "batchmove", "config.json"), nil
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(home, ".config", "batchmove", "config.json"), nil
	}
}

// MustDefaultConfigPath returns DefaultConfigPath or panics on error.
// Use this only for flag defaults where error handling isn't possible.
func MustDefaultConfigPath() string {
	path, err := DefaultConfigPath()
	if err != nil {
		panic(fmt.Sprintf("failed to determine default config path: %v", err))
	}
	return path
}
