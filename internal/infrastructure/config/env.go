package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// ProcessEnv resolves values from the process environment
type ProcessEnv struct{}

// Lookup implements ports.Environment
func (ProcessEnv) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapEnv resolves values from a fixed map
type MapEnv map[string]string

// Lookup implements ports.Environment
func (m MapEnv) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// LoadDotEnv merges the env file into the process environment.
// Variables already set in the environment take precedence; a missing file is ignored.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}
