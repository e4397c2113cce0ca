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

package operation

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/batchxfer/pkg/backend"
	"github.com/walteh/batchxfer/pkg/config"
	"github.com/walteh/batchxfer/pkg/log"
	"github.com/walteh/batchxfer/pkg/status"
	"github.com/walteh/batchxfer/pkg/transfer"
	"gitlab.com/tozd/go/errors"
)

// 🎯 Operation is one runnable job step
type Operation interface {
	Execute(ctx context.Context) error
}

// 🔧 Options contains what every operation needs
type Options struct {
	// Config is the validated job configuration
	Config *config.Config
	// Source and Destination are the opened backends named by Config
	Source      backend.Backend
	Destination backend.Backend
	// Console prints per-unit lines; optional
	Console *log.Logger
	// Formatter renders the tracker's debug lines; optional
	Formatter status.Formatter
	// EventBuffer sizes the tracker's event subscription; defaults to DefaultEventBuffer
	EventBuffer int
	// OnBatch is called with the batch after expansion, before it starts; optional
	OnBatch func(ctx context.Context, b *transfer.Batch)
}

// Validate checks that the options are usable
func (o Options) Validate() error {
	if o.Config == nil {
		return errors.Errorf("config is required")
	}
	if o.Source == nil {
		return errors.Errorf("source backend is required")
	}
	if o.Destination == nil {
		return errors.Errorf("destination backend is required")
	}
	return nil
}

// 📦 BaseOperation holds shared state for operations
type BaseOperation struct {
	Options
}

// NewBaseOperation creates a base operation
func NewBaseOperation(opts Options) BaseOperation {
	return BaseOperation{Options: opts}
}

// transferOptions maps the job config onto batch options
func (op *BaseOperation) transferOptions() transfer.Options {
	cfg := op.Config
	return transfer.Options{
		Source:          op.Source,
		Destination:     op.Destination,
		SourceRoot:      cfg.Source.Root,
		DestinationRoot: cfg.Destination.Root,
		Concurrency:     cfg.Concurrency,
		Mode:            transfer.Mode(cfg.Mode),
		Exclude:         cfg.Exclude,
		Resolve: transfer.ResolveOptions{
			Suffix:      cfg.RenameSuffix,
			MaxAttempts: cfg.MaxConflictAttempts,
		},
		ProgressInterval: cfg.ProgressInterval(),
	}
}

// 📋 entries resolves the configured top-level entries against the source root.
// No entries means everything directly under the root.
func (op *BaseOperation) entries(ctx context.Context) ([]backend.Entry, error) {
	root := op.Config.Source.Root

	if len(op.Config.Entries) == 0 {
		list, err := op.Source.List(ctx, root)
		if err != nil {
			return nil, errors.Errorf("listing source root %s: %w", root, err)
		}
		return list, nil
	}

	out := make([]backend.Entry, 0, len(op.Config.Entries))
	for _, name := range op.Config.Entries {
		entry, err := op.Source.Stat(ctx, op.Source.Join(root, name))
		if err != nil {
			return nil, errors.Errorf("looking up entry %s: %w", name, err)
		}
		out = append(out, entry)
	}
	return out, nil
}

// 🏗️ expandedBatch builds a batch and expands it
func (op *BaseOperation) expandedBatch(ctx context.Context) (*transfer.Batch, error) {
	logger := zerolog.Ctx(ctx)

	if err := op.Validate(); err != nil {
		return nil, errors.Errorf("validating operation: %w", err)
	}

	entries, err := op.entries(ctx)
	if err != nil {
		return nil, err
	}

	b, err := transfer.New(op.transferOptions())
	if err != nil {
		return nil, errors.Errorf("creating batch: %w", err)
	}

	logger.Debug().Str("batch", b.ID()).Int("entries", len(entries)).Msg("expanding batch")

	if err := b.Expand(ctx, entries); err != nil {
		return nil, errors.Errorf("expanding batch: %w", err)
	}
	return b, nil
}
