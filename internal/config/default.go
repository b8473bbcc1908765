package config

import (
	_ "embed"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/prettymuchbryce/batchmove/internal/pathutil"
)

//go:embed config-example.json
var defaultConfigContent string

// ErrConfigExists is returned by WriteDefaultConfig when the file is already there.
var ErrConfigExists = errors.New("config file already exists")

// DefaultConfigContent returns the embedded example configuration.
func DefaultConfigContent() string {
	return defaultConfigContent
}

// WriteDefaultConfig writes the example config to configPath. An existing
// file is only replaced when force is set. Returns the expanded path.
func WriteDefaultConfig(afs afero.Fs, configPath string, force bool) (string, error) {
	expanded := pathutil.ExpandPath(configPath)

	if _, err := afs.Stat(expanded); err == nil && !force {
		return expanded, errors.Errorf("%w: %s", ErrConfigExists, expanded)
	} else if err != nil && !os.IsNotExist(err) {
		return "", errors.Errorf("failed to check %s: %w", expanded, err)
	}

	dir := filepath.Dir(expanded)
	if err := afs.MkdirAll(dir, 0755); err != nil {
		return "", errors.Errorf("failed to create config directory %s: %w", dir, err)
	}

	if err := afero.WriteFile(afs, expanded, []byte(defaultConfigContent), 0644); err != nil {
		return "", errors.Errorf("failed to create default config %s: %w", expanded, err)
	}

	slog.Info("created default config", "path", expanded)
	return expanded, nil
}
