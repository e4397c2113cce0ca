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
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 🏃 Runner executes operations one after another or all at once
type Runner struct {
	async bool
}

// NewRunner creates a runner
func NewRunner(async bool) *Runner {
	return &Runner{async: async}
}

// Run executes the operations. In sync mode the first failure stops the rest;
// in async mode every operation runs and the first failure is returned.
func (r *Runner) Run(ctx context.Context, ops ...Operation) error {
	if r.async {
		return r.runAsync(ctx, ops)
	}
	return r.runSync(ctx, ops)
}

func (r *Runner) runSync(ctx context.Context, ops []Operation) error {
	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return errors.Errorf("operation cancelled: %w", err)
		}
		if err := op.Execute(ctx); err != nil {
			return errors.Errorf("executing operation %d: %w", i, err)
		}
	}
	return nil
}

// ⚡ runAsync runs every operation on its own goroutine
func (r *Runner) runAsync(ctx context.Context, ops []Operation) error {
	logger := zerolog.Ctx(ctx)

	var g errgroup.Group
	for i, op := range ops {
		g.Go(func() error {
			if err := op.Execute(ctx); err != nil {
				logger.Debug().Err(err).Int("operation", i).Msg("operation failed")
				return errors.Errorf("executing operation %d: %w", i, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errors.Errorf("operation cancelled: %w", err)
	}
	return nil
}
