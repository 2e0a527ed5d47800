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

package fetch

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/ghcomplete/pkg/async"
	"github.com/walteh/ghcomplete/pkg/item"
	"gitlab.com/tozd/go/errors"
)

// ErrNoStrategies is returned when a chain is built from nothing
var ErrNoStrategies = errors.Base("no fetch strategies given")

// 🔗 Chain tries strategies in order until one succeeds. Later strategies
// are never started before the previous one reported failure.
type Chain struct {
	strategies []Strategy
}

var _ Strategy = (*Chain)(nil)

// 🏭 Fallback builds a chain from an ordered list of strategies
func Fallback(strategies ...Strategy) (*Chain, error) {
	if len(strategies) == 0 {
		return nil, ErrNoStrategies
	}
	for i, s := range strategies {
		if s == nil {
			return nil, errors.Errorf("strategy %d is nil", i)
		}
	}
	return &Chain{strategies: strategies}, nil
}

// Run builds a chain and starts it
func Run(ctx context.Context, strategies []Strategy, onDone func(Outcome)) error {
	chain, err := Fallback(strategies...)
	if err != nil {
		return err
	}
	chain.Start(ctx, onDone)
	return nil
}

// Name joins the strategy names
func (c *Chain) Name() string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return strings.Join(names, " -> ")
}

// Start runs the chain; onDone is invoked once for the whole chain
func (c *Chain) Start(ctx context.Context, onDone func(Outcome)) {
	c.Future(ctx).OnDone(func(r async.Result[[]item.Item]) {
		onDone(Outcome{Items: r.Value, Err: r.Err})
	})
}

// Future runs the chain and returns its settled items. When every strategy
// fails it settles with a *ChainExhaustedError.
func (c *Chain) Future(ctx context.Context) *async.Future[[]item.Item] {
	logger := zerolog.Ctx(ctx)

	// appended only from callbacks that run strictly one after another
	var failures []error

	f := startFuture(ctx, c.strategies[0])
	for _, next := range c.strategies[1:] {
		f = async.OrElse(f, func(err error) *async.Future[[]item.Item] {
			failures = append(failures, err)
			logger.Debug().Err(err).Str("next", next.Name()).Msg("fetch strategy failed, falling back")
			return startFuture(ctx, next)
		})
	}

	out, resolve := async.NewPromise[[]item.Item]()
	f.OnDone(func(r async.Result[[]item.Item]) {
		if r.Err != nil {
			failures = append(failures, r.Err)
			resolve(nil, &ChainExhaustedError{Failures: failures})
			return
		}
		resolve(r.Value, nil)
	})
	return out
}

// startFuture starts s and settles with the first outcome it reports
func startFuture(ctx context.Context, s Strategy) *async.Future[[]item.Item] {
	f, resolve := async.NewPromise[[]item.Item]()
	s.Start(ctx, func(o Outcome) {
		if !resolve(o.Items, o.Err) {
			zerolog.Ctx(ctx).Warn().Str("strategy", s.Name()).Msg("fetch strategy reported more than once, ignoring")
		}
	})
	return f
}

// ❌ ChainExhaustedError reports that every strategy in a chain failed
type ChainExhaustedError struct {
	Failures []error
}

func (e *ChainExhaustedError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, err := range e.Failures {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("all %d fetch strategies failed: %s", len(e.Failures), strings.Join(msgs, "; "))
}

// Unwrap returns the last failure
func (e *ChainExhaustedError) Unwrap() error {
	if len(e.Failures) == 0 {
		return nil
	}
	return e.Failures[len(e.Failures)-1]
}
