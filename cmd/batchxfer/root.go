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


package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/batchxfer/cmd/batchxfer/opts"
	"github.com/walteh/batchxfer/pkg/backend"
	_ "github.com/walteh/batchxfer/pkg/backend/billyfs"
	"github.com/walteh/batchxfer/pkg/config"
	"gitlab.com/tozd/go/errors"
)

// rootFlags holds every persistent flag; a flag only overrides the config when it was set
type rootFlags struct {
	configFiles   []string
	source        string
	sourceBackend string
	dest          string
	destBackend   string
	mode          string
	concurrency   int
	exclude       []string
	suffix        string
	maxAttempts   int
	async         bool
	progress      bool
	debug         bool
}

func addRootFlags(cmd *cobra.Command, f *rootFlags) {
	flags := cmd.PersistentFlags()
	flags.StringSliceVarP(&f.configFiles, "config", "c", nil, "config file path (.yaml, .json or .hcl), repeatable")
	flags.StringVarP(&f.source, "from", "f", "", "source root directory")
	flags.StringVar(&f.sourceBackend, "from-backend", "", "source backend ("+config.DefaultBackend+" by default)")
	flags.StringVarP(&f.dest, "to", "t", "", "destination root directory")
	flags.StringVar(&f.destBackend, "to-backend", "", "destination backend ("+config.DefaultBackend+" by default)")
	flags.StringVarP(&f.mode, "mode", "m", "", "copy or move")
	flags.IntVarP(&f.concurrency, "concurrency", "j", 0, "maximum units transferred at once")
	flags.StringSliceVarP(&f.exclude, "exclude", "x", nil, "glob pattern to skip, repeatable")
	flags.StringVar(&f.suffix, "suffix", "", "separator placed before the counter of a renamed entry")
	flags.IntVar(&f.maxAttempts, "max-attempts", 0, "names tried before a conflict fails the unit")
	flags.BoolVar(&f.async, "async", false, "run one batch per config file at the same time")
	flags.BoolVar(&f.progress, "progress", false, "show a progress bar instead of per-unit lines; failures are still listed in the final summary")
	flags.BoolVarP(&f.debug, "debug", "d", false, "enable debug logging")
}

// newRootOpts builds one job per config file, or a single job from flags alone.
// Positional args select entries under the source root.
func newRootOpts(ctx context.Context, cmd *cobra.Command, f *rootFlags, args []string) (*opts.RootOpts, error) {
	var cfgs []*config.Config
	for _, path := range f.configFiles {
		cfg, err := config.LoadConfig(ctx, path)
		if err != nil {
			return nil, errors.Errorf("loading config: %w", err)
		}
		cfgs = append(cfgs, cfg)
	}
	if len(cfgs) == 0 {
		cfgs = append(cfgs, &config.Config{})
	}

	root := &opts.RootOpts{
		Async:      f.async,
		Progress:   f.progress,
		UserLogger: opts.NewUserLogger(ctx),
	}

	for _, cfg := range cfgs {
		if err := applyFlags(cmd, f, args, cfg); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, errors.Errorf("invalid configuration: %w", err)
		}

		job, err := openJob(ctx, cfg)
		if err != nil {
			return nil, err
		}
		root.Jobs = append(root.Jobs, job)
		if cfg.Async {
			root.Async = true
		}
	}

	return root, nil
}

func applyFlags(cmd *cobra.Command, f *rootFlags, args []string, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	if changed("from") {
		cfg.Source.Root = f.source
	}
	if changed("from-backend") {
		cfg.Source.Backend = f.sourceBackend
	}
	if changed("to") {
		cfg.Destination.Root = f.dest
	}
	if changed("to-backend") {
		cfg.Destination.Backend = f.destBackend
	}
	if changed("mode") {
		cfg.Mode = f.mode
	}
	if changed("concurrency") {
		cfg.Concurrency = f.concurrency
	}
	if changed("exclude") {
		cfg.Exclude = append(cfg.Exclude, f.exclude...)
	}
	if changed("suffix") {
		cfg.RenameSuffix = f.suffix
	}
	if changed("max-attempts") {
		cfg.MaxConflictAttempts = f.maxAttempts
	}
	if len(args) > 0 {
		cfg.Entries = args
	}

	for _, ep := range []*config.Endpoint{&cfg.Source, &cfg.Destination} {
		if ep.Root == "" || (ep.Backend != "" && ep.Backend != config.DefaultBackend) {
			continue
		}
		abs, err := filepath.Abs(ep.Root)
		if err != nil {
			return errors.Errorf("getting absolute path of %s: %w", ep.Root, err)
		}
		ep.Root = abs
	}
	return nil
}

func openJob(ctx context.Context, cfg *config.Config) (*opts.Job, error) {
	src, err := backend.Open(ctx, cfg.Source.Backend)
	if err != nil {
		return nil, errors.Errorf("opening source: %w", err)
	}

	// one memory filesystem has to serve both ends of the job
	dst := src
	if cfg.Destination.Backend != cfg.Source.Backend {
		dst, err = backend.Open(ctx, cfg.Destination.Backend)
		if err != nil {
			return nil, errors.Errorf("opening destination: %w", err)
		}
	}

	zerolog.Ctx(ctx).Debug().Str("job", cfg.String()).Msg("job ready")
	return &opts.Job{Config: cfg, Source: src, Destination: dst}, nil
}

func setupLogging(debug bool) zerolog.Logger {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}
