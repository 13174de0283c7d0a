// Package config persists the portal credentials between runs.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/titanous/json5"
	"wing-sales-extractor/internal/types"
)

// ErrMalformed is returned when the config file exists but cannot be parsed
var ErrMalformed = errors.New("malformed config file")

// Load reads credentials from path. A missing file yields empty credentials.
func Load(path string) (types.Credentials, error) {
	var creds types.Credentials

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return creds, nil
	}
	if err != nil {
		return creds, fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) == 0 {
		return creds, nil
	}

	if err := json5.Unmarshal(data, &creds); err != nil {
		return types.Credentials{}, fmt.Errorf("%w %s: %v", ErrMalformed, path, err)
	}
	return creds, nil
}

// Save overwrites path with creds
func Save(path string, creds types.Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadOrEmpty is Load that degrades a malformed file to empty credentials.
// The bad file is left in place and replaced by the next Save.
func LoadOrEmpty(path string, logger types.Logger) types.Credentials {
	creds, err := Load(path)
	if err != nil {
		logger.Warnf("Ignoring config file: %v", err)
		return types.Credentials{}
	}
	return creds
}
