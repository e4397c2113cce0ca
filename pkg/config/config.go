// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🔧 Defaults applied by Validate
const (
	DefaultBackend             = "os"
	DefaultMode                = "copy"
	DefaultConcurrency         = 2
	DefaultRenameSuffix        = "_"
	DefaultMaxConflictAttempts = 1000
	DefaultProgressIntervalMs  = 100
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var parsers []Parser

// Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📦 Endpoint names a backend and the root directory inside it
type Endpoint struct {
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
	Root    string `json:"root" yaml:"root"`
}

// 📚 Config describes one transfer job
type Config struct {
	Source      Endpoint `json:"source" yaml:"source"`
	Destination Endpoint `json:"destination" yaml:"destination"`

	// Entries are names under the source root; empty means everything in it
	Entries []string `json:"entries,omitempty" yaml:"entries,omitempty"`
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`

	Mode                string `json:"mode,omitempty" yaml:"mode,omitempty"`
	Concurrency         int    `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
	RenameSuffix        string `json:"rename_suffix,omitempty" yaml:"rename_suffix,omitempty"`
	MaxConflictAttempts int    `json:"max_conflict_attempts,omitempty" yaml:"max_conflict_attempts,omitempty"`
	ProgressIntervalMs  int    `json:"progress_interval_ms,omitempty" yaml:"progress_interval_ms,omitempty"`
	Async               bool   `json:"async,omitempty" yaml:"async,omitempty"`

	location string
}

// 🎯 LoadConfig reads, parses and validates a config file. The format is picked by extension:
// .json, .yaml/.yml or .hcl.
func LoadConfig(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("unsupported file extension %q", filepath.Ext(path))
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}
	cfg.location = path

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Location is the file the config was loaded from
func (cfg *Config) Location() string {
	return cfg.location
}

// 🔍 Validate checks required fields and fills defaults
func (cfg *Config) Validate() error {
	if cfg.Source.Root == "" {
		return errors.Errorf("source.root is required")
	}
	if cfg.Destination.Root == "" {
		return errors.Errorf("destination.root is required")
	}

	cfg.Source.Root = filepath.Clean(cfg.Source.Root)
	cfg.Destination.Root = filepath.Clean(cfg.Destination.Root)

	if cfg.Source.Backend == "" {
		cfg.Source.Backend = DefaultBackend
	}
	if cfg.Destination.Backend == "" {
		cfg.Destination.Backend = DefaultBackend
	}

	switch cfg.Mode {
	case "":
		cfg.Mode = DefaultMode
	case "copy", "move":
	default:
		return errors.Errorf("mode must be copy or move, got %q", cfg.Mode)
	}

	if cfg.Concurrency < 0 {
		return errors.Errorf("concurrency must not be negative")
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = DefaultConcurrency
	}

	if cfg.MaxConflictAttempts < 0 {
		return errors.Errorf("max_conflict_attempts must not be negative")
	}
	if cfg.MaxConflictAttempts == 0 {
		cfg.MaxConflictAttempts = DefaultMaxConflictAttempts
	}
	if cfg.RenameSuffix == "" {
		cfg.RenameSuffix = DefaultRenameSuffix
	}
	if cfg.ProgressIntervalMs == 0 {
		cfg.ProgressIntervalMs = DefaultProgressIntervalMs
	}

	for _, e := range cfg.Entries {
		if e == "" || strings.ContainsAny(e, `/\`) || e == "." || e == ".." {
			return errors.Errorf("entry %q must be a plain name under source.root", e)
		}
	}
	for _, pattern := range cfg.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	return nil
}

// ProgressInterval converts ProgressIntervalMs; a negative value disables throttling
func (cfg *Config) ProgressInterval() time.Duration {
	return time.Duration(cfg.ProgressIntervalMs) * time.Millisecond
}

// String returns a one-line description of the job
func (cfg *Config) String() string {
	from := cfg.Source.Root
	if len(cfg.Entries) > 0 {
		from = path.Join(from, "{"+strings.Join(cfg.Entries, ",")+"}")
	}
	return fmt.Sprintf("%s %s:%s -> %s:%s", cfg.Mode, cfg.Source.Backend, from, cfg.Destination.Backend, cfg.Destination.Root)
}
