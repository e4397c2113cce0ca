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
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/batchxfer/cmd/batchxfer/opts"
	"github.com/walteh/batchxfer/pkg/operation"
	"github.com/walteh/batchxfer/pkg/status"
	"gitlab.com/tozd/go/errors"
)

func NewPlanCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan [entry...]",
		Short: "List what copy would transfer without writing anything",
		Long: `Plan expands the selected entries exactly like copy and prints the resulting
units as a tree, followed by the total size. Nothing is created or removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "plan").Logger().WithContext(cmd.Context())
			out := cmd.OutOrStdout()

			for _, job := range opts.Jobs {
				op := operation.NewPlanOperation(job.Options())
				if err := operation.NewRunner(false).Run(ctx, op); err != nil {
					return errors.Errorf("planning %s: %w", job.Config, err)
				}
				plan := op.Plan()

				fmt.Fprintln(out, color.New(color.Bold).Sprint(job.Config.String()))
				for _, u := range plan.Units {
					fmt.Fprintln(out, status.FormatUnitLine(u))
				}
				fmt.Fprintf(out, "%d units, %d files, %s\n\n",
					len(plan.Units), plan.Files(), humanize.Bytes(uint64(max(plan.TotalBytes, 0))))
			}
			return nil
		},
	}

	return cmd
}
