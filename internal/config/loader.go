// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader builds a Config from defaults, an optional file and the environment.
type Loader struct {
	path string
}

// NewLoader returns a Loader for path. An empty path skips the file layer.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Path returns the config file path, if any.
func (l *Loader) Path() string { return l.path }

// Load returns the merged configuration. It does not validate.
func (l *Loader) Load() (Config, error) {
	cfg := Defaults()
	if l.path != "" {
		if err := l.mergeFile(&cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

// mergeFile decodes the YAML file over cfg. Unknown keys are rejected;
// keys absent from the file keep their current value.
func (l *Loader) mergeFile(cfg *Config) error {
	path := filepath.Clean(l.path)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("%w: %s (only YAML supported)", ErrUnsupportedFormat, ext)
	}

	// #nosec G304 -- the config path is chosen by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "not found in type") {
			return fmt.Errorf("strict config parse error: %w: %v", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

// Load is a shortcut for NewLoader(path).Load followed by Validate.
func Load(path string) (Config, error) {
	cfg, err := NewLoader(path).Load()
	if err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
