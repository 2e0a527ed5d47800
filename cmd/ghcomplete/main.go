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

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/ghcomplete/cmd/ghcomplete/commands"
	"github.com/walteh/ghcomplete/cmd/ghcomplete/opts"

	_ "github.com/walteh/ghcomplete/pkg/provider/github"
)

func main() {
	o := &opts.RootOpts{Version: GetVersionInfo().Version}

	rootCmd := &cobra.Command{
		Use:   "ghcomplete",
		Short: "Complete issue, pull request and contributor references",
		Long: `ghcomplete completes #issue, #pull-request and @contributor references for
the repository of the current directory. It asks the gh CLI first and falls
back to the REST API, and can serve editors as a language server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := setupLogging(cmd.Context())
			cmd.SetContext(ctx)
			return fillRootOpts(ctx, o)
		},
	}

	addRootFlags(rootCmd)

	rootCmd.AddCommand(
		commands.NewListCmd(o),
		commands.NewLSPCmd(o),
		newVersionCmd(),
	)

	ctx := zerolog.New(os.Stderr).WithContext(context.Background())
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
