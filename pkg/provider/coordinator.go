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

package provider

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/ghcomplete/pkg/async"
	"github.com/walteh/ghcomplete/pkg/cache"
	"github.com/walteh/ghcomplete/pkg/config"
	"github.com/walteh/ghcomplete/pkg/fetch"
	"github.com/walteh/ghcomplete/pkg/item"
	"gitlab.com/tozd/go/errors"
)

// 📦 Result is delivered to a Callback on success
type Result struct {
	Items        []item.Item `json:"items"`
	IsIncomplete bool        `json:"isIncomplete"`
}

// Callback receives a successful result. It is never called on failure.
type Callback func(Result)

// 📨 Request is one completion request
type Request struct {
	Repo    Repo
	Trigger string
	// Scope keys the cache, typically a buffer or document URI
	Scope string

	// per-kind overrides merged over the configured options
	Issues       *config.KindConfig
	PullRequests *config.KindConfig
	Mentions     *config.KindConfig
}

func (r Request) override(kind item.Kind) *config.KindConfig {
	switch kind {
	case item.KindIssue:
		return r.Issues
	case item.KindPullRequest:
		return r.PullRequests
	case item.KindMention:
		return r.Mentions
	}
	return nil
}

// 🎛️ Coordinator serves completion requests: it checks the context, consults
// the cache, runs the backend's fallback chain and delivers results.
type Coordinator struct {
	backend Backend
	cfg     *config.Config
	cache   *cache.ScopeCache
}

// 🏭 NewCoordinator creates a coordinator over a validated copy of cfg; nil
// means the defaults. A nil cache gets a fresh one.
func NewCoordinator(backend Backend, cfg *config.Config, c *cache.ScopeCache) (*Coordinator, error) {
	cfg, err := config.Validated(cfg)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = cache.New()
	}
	return &Coordinator{backend: backend, cfg: cfg, cache: c}, nil
}

// Cache returns the cache so hosts can invalidate scopes
func (c *Coordinator) Cache() *cache.ScopeCache {
	return c.cache
}

// 🐛 GetIssues completes issues. It returns false when the request context
// is unsupported.
func (c *Coordinator) GetIssues(ctx context.Context, cb Callback, req Request) bool {
	return c.single(ctx, item.KindIssue, cb, req)
}

// 🔀 GetPullRequests completes pull requests
func (c *Coordinator) GetPullRequests(ctx context.Context, cb Callback, req Request) bool {
	return c.single(ctx, item.KindPullRequest, cb, req)
}

// 👤 GetMentions completes contributor logins
func (c *Coordinator) GetMentions(ctx context.Context, cb Callback, req Request) bool {
	return c.single(ctx, item.KindMention, cb, req)
}

// 🔗 GetIssuesAndPullRequests completes issues and pull requests together.
// The callback fires once with issues first, and only if both kinds succeed.
func (c *Coordinator) GetIssuesAndPullRequests(ctx context.Context, cb Callback, req Request) bool {
	if !c.supported(ctx, req) {
		return false
	}
	logger := zerolog.Ctx(ctx).With().Str("scope", req.Scope).Str("repo", req.Repo.String()).Logger()

	issues, issuesHit := c.cache.Get(item.KindIssue, req.Scope)
	prs, prsHit := c.cache.Get(item.KindPullRequest, req.Scope)
	if issuesHit && prsHit {
		logger.Debug().Msg("issues and pull requests cached")
		cb(Result{Items: merge(issues.Items, prs.Items)})
		return true
	}

	// nothing starts until both chains are built
	starts := make([]func() *async.Future[[]item.Item], 0, 2)
	for _, sub := range []struct {
		kind  item.Kind
		entry cache.Entry
		hit   bool
	}{
		{item.KindIssue, issues, issuesHit},
		{item.KindPullRequest, prs, prsHit},
	} {
		if sub.hit {
			items := sub.entry.Items
			starts = append(starts, func() *async.Future[[]item.Item] { return async.Resolved(items) })
			continue
		}
		start, err := c.prepare(ctx, sub.kind, req)
		if err != nil {
			logger.Error().Err(err).Str("kind", sub.kind.String()).Msg("building fetch chain")
			return false
		}
		starts = append(starts, start)
	}

	futures := make([]*async.Future[[]item.Item], 0, len(starts))
	for _, start := range starts {
		futures = append(futures, start())
	}

	async.Join(futures...).OnDone(func(r async.Result[[][]item.Item]) {
		if r.Err != nil {
			logger.Warn().Err(r.Err).Msg("fetching issues and pull requests failed")
			return
		}
		cb(Result{Items: merge(r.Value[0], r.Value[1])})
	})
	return true
}

func (c *Coordinator) single(ctx context.Context, kind item.Kind, cb Callback, req Request) bool {
	if !c.supported(ctx, req) {
		return false
	}
	logger := zerolog.Ctx(ctx).With().Str("kind", kind.String()).Str("scope", req.Scope).Logger()

	if e, ok := c.cache.Get(kind, req.Scope); ok {
		logger.Debug().Int("items", len(e.Items)).Msg("cache hit")
		cb(Result{Items: e.Items, IsIncomplete: e.IsIncomplete})
		return true
	}

	start, err := c.prepare(ctx, kind, req)
	if err != nil {
		logger.Error().Err(err).Msg("building fetch chain")
		return false
	}

	start().OnDone(func(r async.Result[[]item.Item]) {
		if r.Err != nil {
			logger.Warn().Err(r.Err).Str("repo", req.Repo.String()).Msg("fetch failed")
			return
		}
		cb(Result{Items: r.Value})
	})
	return true
}

// prepare validates the merged options and builds the backend chain for
// kind. Calling the returned func starts it; the cache is written before the
// started future settles.
func (c *Coordinator) prepare(ctx context.Context, kind item.Kind, req Request) (func() *async.Future[[]item.Item], error) {
	opts := c.cfg.Kind(kind).Merge(req.override(kind))
	if err := opts.Validate(kind); err != nil {
		return nil, errors.Errorf("request options: %w", err)
	}
	params := Params{
		Kind:       kind,
		Repo:       req.Repo,
		Trigger:    req.Trigger,
		Options:    opts,
		Normalizer: opts.Normalizer(kind),
	}

	strategies, err := c.backend.Strategies(ctx, params)
	if err != nil {
		return nil, err
	}
	chain, err := fetch.Fallback(strategies...)
	if err != nil {
		return nil, err
	}

	return func() *async.Future[[]item.Item] {
		zerolog.Ctx(ctx).Debug().Str("kind", kind.String()).Str("chain", chain.Name()).Msg("cache miss, fetching")

		// callers cannot abort a running fetch
		f := chain.Future(context.WithoutCancel(ctx))
		return async.Then(f, func(items []item.Item) ([]item.Item, error) {
			c.cache.Put(kind, req.Scope, cache.Entry{Items: items})
			return items, nil
		})
	}, nil
}

func (c *Coordinator) supported(ctx context.Context, req Request) bool {
	if c.backend == nil || !req.Repo.Resolved() || !c.backend.Supports(req.Repo.Host) {
		zerolog.Ctx(ctx).Debug().Str("repo", req.Repo.String()).Msg("unsupported completion context")
		return false
	}
	return true
}

func merge(issues, prs []item.Item) []item.Item {
	out := make([]item.Item, 0, len(issues)+len(prs))
	out = append(out, issues...)
	return append(out, prs...)
}
