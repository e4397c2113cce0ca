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


package commands

import (
	"context"
	"time"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/batchxfer/cmd/batchxfer/opts"
	"github.com/walteh/batchxfer/pkg/log"
	"github.com/walteh/batchxfer/pkg/operation"
	"github.com/walteh/batchxfer/pkg/transfer"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

const progressTick = 100 * time.Millisecond

func NewCopyCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "copy [entry...]",
		Short: "Copy or move entries from the source root to the destination root",
		Long: `Copy transfers the named entries, or everything under the source root when
none are given. It will:
1. Expand every directory into its files and subdirectories
2. Create each entry at the destination, renaming on a name conflict
3. Stream file contents with bounded concurrency
4. Print a summary of what was transferred, failed or skipped

With --mode move the sources are removed after a successful transfer.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "copy").Logger().WithContext(cmd.Context())

			g, gctx := errgroup.WithContext(ctx)

			ops := make([]*operation.CopyOperation, len(opts.Jobs))
			run := make([]operation.Operation, len(opts.Jobs))
			for i, job := range opts.Jobs {
				o := job.Options()
				if opts.Progress {
					o.OnBatch = func(_ context.Context, b *transfer.Batch) {
						g.Go(func() error { return showProgress(gctx, b, job.Config.String()) })
					}
				} else {
					o.Console = log.New(cmd.OutOrStdout(), *zerolog.Ctx(ctx))
				}
				ops[i] = operation.NewCopyOperation(o)
				run[i] = ops[i]
			}

			runErr := operation.NewRunner(opts.Async).Run(ctx, run...)
			if err := g.Wait(); err != nil && runErr == nil {
				runErr = err
			}

			for _, op := range ops {
				if report := op.Report(); report != nil {
					opts.UserLogger.LogReport(report)
				}
			}

			if runErr != nil {
				return errors.Errorf("copying: %w", runErr)
			}
			return nil
		},
	}

	return cmd
}

// 📊 showProgress draws a bar for the batch until it reaches a terminal status
func showProgress(ctx context.Context, b *transfer.Batch, title string) error {
	bar, err := pterm.DefaultProgressbar.WithTotal(100).WithTitle(title).Start()
	if err != nil {
		return errors.Errorf("starting progress bar: %w", err)
	}

	ticker := time.NewTicker(progressTick)
	defer ticker.Stop()

	for {
		pct := int(b.Progress() * 100)
		if pct > bar.Current {
			bar.Add(pct - bar.Current)
		}
		if b.Status().Terminal() {
			_, err := bar.Stop()
			return err
		}

		select {
		case <-ctx.Done():
			_, _ = bar.Stop()
			return nil
		case <-ticker.C:
		}
	}
}
