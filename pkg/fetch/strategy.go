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

// Package fetch runs fetch strategies (an external CLI, an HTTP GET) and
// chains them with strict sequential fallback.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/ghcomplete/pkg/async"
	"github.com/walteh/ghcomplete/pkg/item"
	"gitlab.com/tozd/go/errors"
)

// 📦 Outcome is what a strategy reports when it finishes. A nil Err is success.
type Outcome struct {
	Items []item.Item
	Err   error
}

// OK reports whether the outcome is a success
func (o Outcome) OK() bool {
	return o.Err == nil
}

// 🔌 Strategy is one asynchronous attempt to obtain items. Start must return
// without blocking and invoke onDone exactly once.
type Strategy interface {
	Name() string
	Start(ctx context.Context, onDone func(Outcome))
}

// 🏃 Runner runs an external program and returns its stdout
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// RunnerFunc adapts a function to Runner
type RunnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func (f RunnerFunc) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f(ctx, name, args...)
}

// 🌐 Getter performs a GET and decodes the body as a JSON array of records
type Getter interface {
	Get(ctx context.Context, url string) ([]item.Record, error)
}

// GetterFunc adapts a function to Getter
type GetterFunc func(ctx context.Context, url string) ([]item.Record, error)

func (f GetterFunc) Get(ctx context.Context, url string) ([]item.Record, error) {
	return f(ctx, url)
}

// 💻 CommandStrategy runs a program and parses stdout as a JSON array
type CommandStrategy struct {
	Runner     Runner
	Program    string
	Args       []string
	Trigger    string
	Normalizer item.Normalizer
}

var _ Strategy = (*CommandStrategy)(nil)

// Name returns the command line
func (s *CommandStrategy) Name() string {
	return strings.TrimSpace("cli " + s.Program + " " + strings.Join(s.Args, " "))
}

// Start runs the program on its own goroutine
func (s *CommandStrategy) Start(ctx context.Context, onDone func(Outcome)) {
	launch(ctx, s.Name(), s.Trigger, s.Normalizer.From(item.SourceCLI), onDone, func() ([]item.Record, error) {
		out, err := s.Runner.Run(ctx, s.Program, s.Args...)
		if err != nil {
			return nil, errors.Errorf("running %s: %w", s.Program, err)
		}
		return DecodeRecords(out)
	})
}

// 🌐 HTTPStrategy performs a GET through the Getter
type HTTPStrategy struct {
	Getter     Getter
	URL        string
	Trigger    string
	Normalizer item.Normalizer
}

var _ Strategy = (*HTTPStrategy)(nil)

// Name returns the request line
func (s *HTTPStrategy) Name() string {
	return "http GET " + s.URL
}

// Start performs the request on its own goroutine
func (s *HTTPStrategy) Start(ctx context.Context, onDone func(Outcome)) {
	launch(ctx, s.Name(), s.Trigger, s.Normalizer.From(item.SourceHTTP), onDone, func() ([]item.Record, error) {
		recs, err := s.Getter.Get(ctx, s.URL)
		if err != nil {
			return nil, errors.Errorf("requesting %s: %w", s.URL, err)
		}
		return recs, nil
	})
}

// launch runs produce asynchronously, normalizes its records and reports
// exactly one outcome. Panics in produce or in the normalizer's sort and
// filter funcs become failures.
func launch(ctx context.Context, name, trigger string, n item.Normalizer, onDone func(Outcome), produce func() ([]item.Record, error)) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("strategy", name).Msg("starting fetch strategy")

	recs := async.Go(produce)
	items := async.Then(recs, func(recs []item.Record) (items []item.Item, err error) {
		defer func() {
			if r := recover(); r != nil {
				items, err = nil, errors.Errorf("normalizing records: panic: %v", r)
			}
		}()
		return n.NormalizeAll(trigger, recs), nil
	})
	items.OnDone(func(r async.Result[[]item.Item]) {
		if r.Err != nil {
			onDone(Outcome{Err: &StrategyError{Strategy: name, Err: r.Err}})
			return
		}
		logger.Debug().Str("strategy", name).Int("items", len(r.Value)).Msg("fetch strategy succeeded")
		onDone(Outcome{Items: r.Value})
	})
}

// DecodeRecords parses a JSON array of objects
func DecodeRecords(data []byte) ([]item.Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty output")
	}
	var recs []item.Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, errors.Errorf("decoding JSON array: %w", err)
	}
	return recs, nil
}

// ❌ StrategyError is a failure of one strategy
type StrategyError struct {
	Strategy string
	Err      error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Strategy, e.Err)
}

func (e *StrategyError) Unwrap() error {
	return e.Err
}
