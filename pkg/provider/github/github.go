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

// Package github serves issue, pull request and contributor completions from
// GitHub and GitHub Enterprise, trying the gh CLI before the REST API.
package github

import (
	"context"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog"
	"github.com/walteh/ghcomplete/pkg/config"
	"github.com/walteh/ghcomplete/pkg/fetch"
	"github.com/walteh/ghcomplete/pkg/provider"
	"gitlab.com/tozd/go/errors"
)

func init() {
	provider.Register("github", New)
}

// 🎯 Backend builds gh CLI and REST strategies for GitHub hosts
type Backend struct {
	cfg     *config.Config
	program string
	prefix  []string
	runner  fetch.Runner
	getter  fetch.Getter
}

var _ provider.Backend = (*Backend)(nil)

// Option customizes a Backend
type Option func(*Backend)

// WithRunner replaces the process runner used by the CLI strategy
func WithRunner(r fetch.Runner) Option {
	return func(b *Backend) { b.runner = r }
}

// WithGetter replaces the client used by the REST strategy
func WithGetter(g fetch.Getter) Option {
	return func(b *Backend) { b.getter = g }
}

// 🏭 New creates a GitHub backend
func New(ctx context.Context, cfg *config.Config) (provider.Backend, error) {
	return NewBackend(ctx, cfg)
}

// NewBackend creates a GitHub backend with options
func NewBackend(ctx context.Context, cfg *config.Config, opts ...Option) (*Backend, error) {
	cfg, err := config.Validated(cfg)
	if err != nil {
		return nil, err
	}

	words, err := shellquote.Split(cfg.CLI.Command)
	if err != nil {
		return nil, errors.Errorf("parsing cli.command %q: %w", cfg.CLI.Command, err)
	}
	if len(words) == 0 {
		return nil, errors.Errorf("cli.command is empty")
	}

	for _, pattern := range cfg.Hosts {
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.Errorf("invalid host pattern: %q", pattern)
		}
	}

	b := &Backend{
		cfg:     cfg,
		program: words[0],
		prefix:  words[1:],
		runner:  ExecRunner{Timeout: cfg.CLITimeout()},
		getter:  NewRESTGetter(cfg),
	}
	for _, opt := range opts {
		opt(b)
	}

	zerolog.Ctx(ctx).Debug().Str("program", b.program).Strs("hosts", cfg.Hosts).Msg("created github backend")
	return b, nil
}

func (b *Backend) Name() string {
	return "github"
}

// 🔍 Supports matches host against the configured glob patterns
func (b *Backend) Supports(host string) bool {
	host = strings.ToLower(host)
	for _, pattern := range b.cfg.Hosts {
		if ok, _ := doublestar.Match(strings.ToLower(pattern), host); ok {
			return true
		}
	}
	return false
}

// 📋 Strategies returns the gh CLI strategy followed by the REST strategy
func (b *Backend) Strategies(ctx context.Context, p provider.Params) ([]fetch.Strategy, error) {
	args, err := CommandArgs(p)
	if err != nil {
		return nil, err
	}
	url, err := RESTURL(APIBaseURL(p.Repo.Host, b.cfg.HTTP.BaseURL), p)
	if err != nil {
		return nil, err
	}

	return []fetch.Strategy{
		&fetch.CommandStrategy{
			Runner:     b.runner,
			Program:    b.program,
			Args:       append(append([]string(nil), b.prefix...), args...),
			Trigger:    p.Trigger,
			Normalizer: p.Normalizer,
		},
		&fetch.HTTPStrategy{
			Getter:     b.getter,
			URL:        url,
			Trigger:    p.Trigger,
			Normalizer: p.Normalizer,
		},
	}, nil
}
