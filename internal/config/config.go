// Package config holds the helpers shared by the command line tools to layer
// configuration: defaults, then a JSON file, then environment, then flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// LoadConfigFile loads configuration from a JSON file.
//
// Parameters:
//   - path: Path to the JSON configuration file
//   - cfg: Pointer to the config struct to unmarshal into
//
// Returns:
//   - error: An error if the file cannot be read or the JSON is invalid
//
// Example:
//
//	var cfg JSONConfig
//	if err := config.LoadConfigFile("config.json", &cfg); err != nil {
//	    log.Fatal().Err(err).Send()
//	}
func LoadConfigFile(path string, cfg any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// ParseDuration parses a positive duration.
//
// A bare number is taken as seconds, so "10" and "10s" are equal. Anything
// else goes through time.ParseDuration ("1m30s", "500ms").
//
// Example:
//
//	step, err := config.ParseDuration("1m")
//	if err != nil {
//	    log.Fatal().Err(err).Send()
//	}
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, errors.New("empty duration")
	}

	var d time.Duration
	if n, err := strconv.Atoi(s); err == nil {
		d = time.Duration(n) * time.Second
	} else {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid duration format: %w", err)
		}
		d = parsed
	}

	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", d)
	}

	return d, nil
}

// GetConfigFilePath returns the config file path from the flag value or,
// when the flag is empty, from the CONFIG environment variable.
func GetConfigFilePath(configFlag string) string {
	if configFlag != "" {
		return configFlag
	}
	return os.Getenv("CONFIG")
}

// ApplyStringIfDefault applies a string value from the JSON config only if
// the current value still equals the default.
//
// Example:
//
//	ApplyStringIfDefault(&cfg.Address, "localhost:8080", jsonCfg.Address)
func ApplyStringIfDefault(current *string, defaultValue, jsonValue string) {
	if jsonValue != "" && *current == defaultValue {
		*current = jsonValue
	}
}

// ApplyDurationIfDefault parses and applies a duration from the JSON config
// only if the current value still equals the default. Unparsable values are
// ignored.
//
// Example:
//
//	ApplyDurationIfDefault(&cfg.Step, time.Minute, jsonCfg.Step)
func ApplyDurationIfDefault(current *time.Duration, defaultValue time.Duration, jsonValue string) {
	if jsonValue != "" && *current == defaultValue {
		if d, err := ParseDuration(jsonValue); err == nil {
			*current = d
		}
	}
}

// ApplyBoolIfDefault applies a boolean from the JSON config only if the
// current value is false and the JSON value is true.
func ApplyBoolIfDefault(current *bool, jsonValue bool) {
	if jsonValue && !*current {
		*current = jsonValue
	}
}
