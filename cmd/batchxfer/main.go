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
	"os/signal"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/batchxfer/cmd/batchxfer/commands"
	"github.com/walteh/batchxfer/cmd/batchxfer/opts"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewCommand().ExecuteContext(ctx); err != nil {
		pterm.Error.WithPrefix(pterm.Prefix{Text: "❌"}).Println(err)
		stop()
		os.Exit(1)
	}
}

// NewCommand builds the root command with every subcommand attached
func NewCommand() *cobra.Command {
	flags := &rootFlags{}
	root := &opts.RootOpts{}

	cmd := &cobra.Command{
		Use:   "batchxfer",
		Short: "Copy or move a batch of files and directories between storage backends",
		Long: `batchxfer expands the selected entries into a list of transfer units and
runs them with a bounded number of concurrent streams. Existing names at the
destination are never overwritten: the new entry gets a numbered name instead.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogging(flags.debug)
			ctx := logger.WithContext(cmd.Context())
			cmd.SetContext(ctx)

			built, err := newRootOpts(ctx, cmd, flags, args)
			if err != nil {
				return err
			}
			*root = *built
			return nil
		},
	}

	addRootFlags(cmd, flags)

	cmd.AddCommand(
		commands.NewCopyCmd(root),
		commands.NewPlanCmd(root),
		newVersionCmd(),
	)

	return cmd
}
