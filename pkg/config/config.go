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

package config

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/ghcomplete/pkg/item"
	"gitlab.com/tozd/go/errors"
)

const (
	// MaxLimit is the largest page the REST API returns
	MaxLimit = 100

	DefaultLimit   = 100
	DefaultState   = "open"
	DefaultFilter  = "all"
	DefaultCommand = "gh"
	DefaultTimeout = 10 * time.Second
	DefaultLSPWait = 5 * time.Second
)

// DefaultTokenEnv lists the environment variables checked for an API token
var DefaultTokenEnv = []string{"GITHUB_API_TOKEN", "GITHUB_TOKEN"}

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 🔧 KindConfig holds the options of one resource kind. Sort and FilterFn
// can only be set programmatically.
type KindConfig struct {
	Limit  int    `json:"limit,omitempty" yaml:"limit,omitempty" hcl:"limit,optional"`
	State  string `json:"state,omitempty" yaml:"state,omitempty" hcl:"state,optional"`
	Filter string `json:"filter,omitempty" yaml:"filter,omitempty" hcl:"filter,optional"`
	SortBy string `json:"sort_by,omitempty" yaml:"sort_by,omitempty" hcl:"sort_by,optional"`

	Sort     item.SortFunc   `json:"-" yaml:"-"`
	FilterFn item.FilterFunc `json:"-" yaml:"-"`
}

// 🔀 Merge overlays the non-zero fields of override on k
func (k KindConfig) Merge(override *KindConfig) KindConfig {
	if override == nil {
		return k
	}
	if override.Limit != 0 {
		k.Limit = override.Limit
	}
	if override.State != "" {
		k.State = override.State
	}
	if override.Filter != "" {
		k.Filter = override.Filter
	}
	if override.SortBy != "" {
		k.SortBy = override.SortBy
		k.Sort = nil
	}
	if override.Sort != nil {
		k.Sort = override.Sort
	}
	if override.FilterFn != nil {
		k.FilterFn = override.FilterFn
	}
	return k
}

// Normalizer builds the item normalizer for kind from these options
func (k KindConfig) Normalizer(kind item.Kind) item.Normalizer {
	sort := k.Sort
	if sort == nil && k.SortBy != "" {
		sort, _ = item.SortFuncByName(k.SortBy)
	}
	return item.NewNormalizer(kind, sort, k.FilterFn)
}

// Validate checks the options and fills in defaults
func (k *KindConfig) Validate(kind item.Kind) error {
	if k.Limit < 0 {
		return errors.Errorf("%s.limit must be positive, got %d", kind, k.Limit)
	}
	if k.Limit == 0 {
		k.Limit = DefaultLimit
	}
	if k.Limit > MaxLimit {
		k.Limit = MaxLimit
	}

	if kind != item.KindMention {
		if k.State == "" {
			k.State = DefaultState
		}
		switch k.State {
		case "open", "closed", "all":
		default:
			return errors.Errorf("%s.state must be one of open, closed, all; got %q", kind, k.State)
		}
	}

	if kind == item.KindIssue && k.Filter == "" {
		k.Filter = DefaultFilter
	}

	if k.SortBy != "" {
		if _, ok := item.SortFuncByName(k.SortBy); !ok {
			return errors.Errorf("%s.sort_by %q is unknown, options: %s", kind, k.SortBy, strings.Join(item.SortNames(), ", "))
		}
	}
	return nil
}

// 💻 CLIConfig configures the gh CLI strategy
type CLIConfig struct {
	// Command is shell-quoted; extra words are passed before the subcommand
	Command string `json:"command,omitempty" yaml:"command,omitempty" hcl:"command,optional"`
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty" hcl:"timeout,optional"`
}

// 🌐 HTTPConfig configures the REST strategy
type HTTPConfig struct {
	// BaseURL overrides the API root derived from the host
	BaseURL  string   `json:"base_url,omitempty" yaml:"base_url,omitempty" hcl:"base_url,optional"`
	Timeout  string   `json:"timeout,omitempty" yaml:"timeout,omitempty" hcl:"timeout,optional"`
	TokenEnv []string `json:"token_env,omitempty" yaml:"token_env,omitempty" hcl:"token_env,optional"`
}

// Token returns the first non-empty token from the configured variables
func (h *HTTPConfig) Token() string {
	for _, name := range h.TokenEnv {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// 📝 LSPConfig configures the language server host
type LSPConfig struct {
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty" hcl:"timeout,optional"`
}

// 📚 Config represents the complete configuration
type Config struct {
	// Hosts are glob patterns of supported hosts
	Hosts        []string    `json:"hosts,omitempty" yaml:"hosts,omitempty" hcl:"hosts,optional"`
	CLI          *CLIConfig  `json:"cli,omitempty" yaml:"cli,omitempty" hcl:"cli,block"`
	HTTP         *HTTPConfig `json:"http,omitempty" yaml:"http,omitempty" hcl:"http,block"`
	Issues       *KindConfig `json:"issues,omitempty" yaml:"issues,omitempty" hcl:"issues,block"`
	PullRequests *KindConfig `json:"pull_requests,omitempty" yaml:"pull_requests,omitempty" hcl:"pull_requests,block"`
	Mentions     *KindConfig `json:"mentions,omitempty" yaml:"mentions,omitempty" hcl:"mentions,block"`
	LSP          *LSPConfig  `json:"lsp,omitempty" yaml:"lsp,omitempty" hcl:"lsp,block"`
}

// 🏭 Default returns a validated config with every default set
func Default() *Config {
	cfg := &Config{}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

// Clone returns a copy of cfg that shares no pointers or slices with it
func (cfg *Config) Clone() *Config {
	out := *cfg
	out.Hosts = append([]string(nil), cfg.Hosts...)
	if cfg.CLI != nil {
		cli := *cfg.CLI
		out.CLI = &cli
	}
	if cfg.HTTP != nil {
		h := *cfg.HTTP
		h.TokenEnv = append([]string(nil), cfg.HTTP.TokenEnv...)
		out.HTTP = &h
	}
	if cfg.LSP != nil {
		l := *cfg.LSP
		out.LSP = &l
	}
	for _, kc := range []**KindConfig{&out.Issues, &out.PullRequests, &out.Mentions} {
		if *kc != nil {
			k := **kc
			*kc = &k
		}
	}
	return &out
}

// Validated returns a validated copy of cfg, or the defaults for nil. cfg
// itself is left untouched.
func Validated(cfg *Config) (*Config, error) {
	if cfg == nil {
		return Default(), nil
	}
	out := cfg.Clone()
	if err := out.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}
	return out, nil
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	// Get parser
	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	// Parse config
	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path, or returns the defaults when path is empty or
// does not exist
func LoadOrDefault(ctx context.Context, path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		zerolog.Ctx(ctx).Debug().Str("path", path).Msg("no config file, using defaults")
		return Default(), nil
	}
	return Load(ctx, path)
}

// 🔍 Validate checks if the configuration is valid and fills in defaults
func (cfg *Config) Validate() error {
	if len(cfg.Hosts) == 0 {
		cfg.Hosts = []string{"github.com"}
	}

	if cfg.CLI == nil {
		cfg.CLI = &CLIConfig{}
	}
	if strings.TrimSpace(cfg.CLI.Command) == "" {
		cfg.CLI.Command = DefaultCommand
	}
	if _, err := parseTimeout(cfg.CLI.Timeout, DefaultTimeout); err != nil {
		return errors.Errorf("cli.timeout: %w", err)
	}

	if cfg.HTTP == nil {
		cfg.HTTP = &HTTPConfig{}
	}
	if len(cfg.HTTP.TokenEnv) == 0 {
		cfg.HTTP.TokenEnv = append([]string(nil), DefaultTokenEnv...)
	}
	if _, err := parseTimeout(cfg.HTTP.Timeout, DefaultTimeout); err != nil {
		return errors.Errorf("http.timeout: %w", err)
	}

	if cfg.LSP == nil {
		cfg.LSP = &LSPConfig{}
	}
	if _, err := parseTimeout(cfg.LSP.Timeout, DefaultLSPWait); err != nil {
		return errors.Errorf("lsp.timeout: %w", err)
	}

	for _, kc := range []struct {
		kind item.Kind
		cfg  **KindConfig
	}{
		{item.KindIssue, &cfg.Issues},
		{item.KindPullRequest, &cfg.PullRequests},
		{item.KindMention, &cfg.Mentions},
	} {
		if *kc.cfg == nil {
			*kc.cfg = &KindConfig{}
		}
		if err := (*kc.cfg).Validate(kc.kind); err != nil {
			return err
		}
	}

	return nil
}

// Kind returns the options for kind
func (cfg *Config) Kind(kind item.Kind) KindConfig {
	var kc *KindConfig
	switch kind {
	case item.KindIssue:
		kc = cfg.Issues
	case item.KindPullRequest:
		kc = cfg.PullRequests
	case item.KindMention:
		kc = cfg.Mentions
	}
	if kc == nil {
		return KindConfig{}
	}
	return *kc
}

// CLITimeout returns the parsed cli.timeout
func (cfg *Config) CLITimeout() time.Duration {
	d, _ := parseTimeout(cfg.CLI.Timeout, DefaultTimeout)
	return d
}

// HTTPTimeout returns the parsed http.timeout
func (cfg *Config) HTTPTimeout() time.Duration {
	d, _ := parseTimeout(cfg.HTTP.Timeout, DefaultTimeout)
	return d
}

// LSPTimeout returns the parsed lsp.timeout
func (cfg *Config) LSPTimeout() time.Duration {
	d, _ := parseTimeout(cfg.LSP.Timeout, DefaultLSPWait)
	return d
}

func parseTimeout(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Errorf("parsing duration %q: %w", s, err)
	}
	if d <= 0 {
		return 0, errors.Errorf("duration %q must be positive", s)
	}
	return d, nil
}
