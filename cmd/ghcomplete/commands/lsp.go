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
	"github.com/spf13/cobra"
	"github.com/walteh/ghcomplete/cmd/ghcomplete/opts"
	"github.com/walteh/ghcomplete/pkg/lsp"
	"gitlab.com/tozd/go/errors"
)

// NewLSPCmd creates the lsp command
func NewLSPCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Serve completions to editors over stdio",
		Long: `lsp runs a language server on stdin and stdout. Typing # completes issues and
pull requests, @ completes contributors. Completions are cached per document
until it is closed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h := lsp.NewHandler(cmd.Context(), o.Coordinator, o.Config.LSPTimeout(),
				lsp.WithServerInfo("ghcomplete", o.Version))
			if err := h.ServeStdio(); err != nil {
				return errors.Errorf("serving language server: %w", err)
			}
			return nil
		},
	}
}
