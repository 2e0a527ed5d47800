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
	"github.com/walteh/ghcomplete/cmd/ghcomplete/opts"
	"github.com/walteh/ghcomplete/pkg/cache"
	"github.com/walteh/ghcomplete/pkg/config"
	"github.com/walteh/ghcomplete/pkg/log"
	"github.com/walteh/ghcomplete/pkg/provider"
	"gitlab.com/tozd/go/errors"
)

var (
	// Flags
	configFile  string
	backendName string
	debug       bool
)

// fillRootOpts loads config and wires the coordinator
func fillRootOpts(ctx context.Context, o *opts.RootOpts) error {
	cfg, err := config.LoadOrDefault(ctx, configFile)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}

	backend, err := provider.Get(ctx, backendName, cfg)
	if err != nil {
		return errors.Errorf("creating backend: %w", err)
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	coord, err := provider.NewCoordinator(backend, cfg, cache.New())
	if err != nil {
		return errors.Errorf("creating coordinator: %w", err)
	}

	o.Config = cfg
	o.Coordinator = coord
	o.Console = log.New(os.Stdout, level)
	return nil
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "ghcomplete.yaml", "config file path (.yaml, .json or .hcl)")
	cmd.PersistentFlags().StringVar(&backendName, "backend", "github", "code host backend")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
}

// setupLogging configures zerolog based on flags; logs always go to stderr
func setupLogging(ctx context.Context) context.Context {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})).Level(level).With().Timestamp().Logger()
	return logger.WithContext(ctx)
}
