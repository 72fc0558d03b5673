// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package workspace

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the user configuration, a TOML document. Known tables are
// [registry] (the component registry directory) and [build] (the
// default signing mode); everything else is passthrough storage so
// "config set" never drops keys it does not understand.
type Config struct {
	path string
	data map[string]any
}

// ConfigPath resolves the user config location: $WEFT_CONFIG when
// set, else ~/.config/weft/config.toml, else the legacy
// ~/.weft/config.toml when only that exists.
func ConfigPath() (string, error) {
	if override := os.Getenv("WEFT_CONFIG"); override != "" {
		return override, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	primary := filepath.Join(home, ".config", "weft", "config.toml")
	if _, err := os.Stat(primary); err == nil {
		return primary, nil
	}
	legacy := filepath.Join(home, ".weft", "config.toml")
	if _, err := os.Stat(legacy); err == nil {
		return legacy, nil
	}
	return primary, nil
}

// LoadConfig reads the user config. A missing file yields a zero
// config bound to the resolved path.
func LoadConfig() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFile(path)
}

// LoadConfigFile reads the config at an explicit path.
func LoadConfigFile(path string) (*Config, error) {
	config := &Config{path: path, data: make(map[string]any)}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, &config.data); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return config, nil
}

// Path returns the file this config is bound to.
func (c *Config) Path() string { return c.path }

// RegistryDir returns [registry] dir, or "" when unset.
func (c *Config) RegistryDir() string {
	return c.lookupString("registry", "dir")
}

// DefaultSign returns [build] sign, or "" when unset.
func (c *Config) DefaultSign() string {
	return c.lookupString("build", "sign")
}

func (c *Config) lookupString(table, key string) string {
	section, ok := c.data[table].(map[string]any)
	if !ok {
		return ""
	}
	value, _ := section[key].(string)
	return value
}

// Set assigns a string value at a dotted key path, creating
// intermediate tables as needed.
func (c *Config) Set(key, value string) error {
	parts := strings.Split(key, ".")
	for _, part := range parts {
		if part == "" {
			return fmt.Errorf("invalid config key %q", key)
		}
	}
	current := c.data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			if _, exists := current[part]; exists {
				return fmt.Errorf("config key %q: %q is not a table", key, part)
			}
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
	return nil
}

// Get returns the string value at a dotted key path, or "" when the
// path does not resolve to a string.
func (c *Config) Get(key string) string {
	parts := strings.Split(key, ".")
	current := c.data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			return ""
		}
		current = next
	}
	value, _ := current[parts[len(parts)-1]].(string)
	return value
}

// Save writes the config back to its path, creating the parent
// directory when missing.
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(c.path), err)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c.data); err != nil {
		return fmt.Errorf("serializing config: %w", err)
	}
	if err := os.WriteFile(c.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
