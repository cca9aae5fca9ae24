// Package config provides YAML-based configuration loading with environment variable expansion.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Validator is an interface for configuration validation.
type Validator interface {
	Validate() error
}

// Load loads configuration from a YAML file with environment variable expansion.
// Fields absent from the file keep the values already in target.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}
	if err := Decode(data, target); err != nil {
		return fmt.Errorf("config file %s: %w", filename, err)
	}
	return nil
}

// Decode expands ${VAR} and ${VAR:-default} references in data, unmarshals
// it into target and runs target's Validate method if it has one. The default
// applies when VAR is unset or empty.
func Decode[T any](data []byte, target *T) error {
	expanded := os.Expand(string(data), lookupEnv)

	if err := yaml.Unmarshal([]byte(expanded), target); err != nil {
		return fmt.Errorf("failed to parse: %w", err)
	}

	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	return nil
}

func lookupEnv(ref string) string {
	name, fallback, hasDefault := strings.Cut(ref, ":-")
	if v := os.Getenv(name); v != "" || !hasDefault {
		return v
	}
	return fallback
}
