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
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/ghcomplete/pkg/item"
	"gitlab.com/tozd/go/errors"
)

// 🔧 fakeStrategy reports a fixed outcome from its own goroutine and records
// when it was started
type fakeStrategy struct {
	name    string
	outcome Outcome
	delay   time.Duration
	calls   int // times onDone is invoked per start
	log     *startLog
}

type startLog struct {
	mu     sync.Mutex
	events []string
}

func (l *startLog) add(ev string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *startLog) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func (s *fakeStrategy) Name() string { return s.name }

func (s *fakeStrategy) Start(ctx context.Context, onDone func(Outcome)) {
	s.log.add("start " + s.name)
	go func() {
		time.Sleep(s.delay)
		s.log.add("done " + s.name)
		n := s.calls
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			onDone(s.outcome)
		}
	}()
}

func testCtx() context.Context {
	return zerolog.New(os.Stderr).Level(zerolog.Disabled).WithContext(context.Background())
}

// collect runs the chain and gathers every onDone call until timeout
func collect(t *testing.T, strategies ...Strategy) []Outcome {
	t.Helper()
	var mu sync.Mutex
	var got []Outcome
	done := make(chan struct{}, 8)

	err := Run(testCtx(), strategies, func(o Outcome) {
		mu.Lock()
		got = append(got, o)
		mu.Unlock()
		done <- struct{}{}
	})
	require.NoError(t, err, "starting chain")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("chain never completed")
	}
	// give a misbehaving chain the chance to call twice
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	return got
}

func TestFallbackPrimarySucceeds(t *testing.T) {
	log := &startLog{}
	x := item.Item{Label: "#1: x", InsertText: "#1"}
	primary := &fakeStrategy{name: "cli", outcome: Outcome{Items: []item.Item{x}}, log: log}
	secondary := &fakeStrategy{name: "http", outcome: Outcome{Items: []item.Item{{Label: "other"}}}, log: log}

	got := collect(t, primary, secondary)

	require.Len(t, got, 1, "onDone fires once")
	assert.True(t, got[0].OK())
	assert.Equal(t, []item.Item{x}, got[0].Items)
	assert.Equal(t, []string{"start cli", "done cli"}, log.get(), "secondary never starts")
}

func TestFallbackPrimaryFailsSecondarySucceeds(t *testing.T) {
	log := &startLog{}
	x := item.Item{Label: "#2: x", InsertText: "#2"}
	primary := &fakeStrategy{name: "cli", outcome: Outcome{Err: errors.New("gh not installed")}, delay: 20 * time.Millisecond, log: log}
	secondary := &fakeStrategy{name: "http", outcome: Outcome{Items: []item.Item{x}}, log: log}

	got := collect(t, primary, secondary)

	require.Len(t, got, 1, "onDone fires once")
	assert.True(t, got[0].OK())
	assert.Equal(t, []item.Item{x}, got[0].Items)
	assert.Equal(t, []string{"start cli", "done cli", "start http", "done http"}, log.get(),
		"secondary starts only after primary failed")
}

func TestFallbackAllFail(t *testing.T) {
	log := &startLog{}
	primary := &fakeStrategy{name: "cli", outcome: Outcome{Err: errors.New("exit status 1")}, log: log}
	secondary := &fakeStrategy{name: "http", outcome: Outcome{Err: errors.New("status 500")}, log: log}

	got := collect(t, primary, secondary)

	require.Len(t, got, 1)
	require.False(t, got[0].OK(), "no success when every strategy fails")
	assert.Nil(t, got[0].Items)

	var exhausted *ChainExhaustedError
	require.True(t, errors.As(got[0].Err, &exhausted), "failure is a ChainExhaustedError")
	require.Len(t, exhausted.Failures, 2)
	assert.EqualError(t, errors.Unwrap(got[0].Err), "status 500", "unwraps to the last failure")
	assert.Contains(t, got[0].Err.Error(), "exit status 1")
	assert.Contains(t, got[0].Err.Error(), "status 500")
}

func TestFallbackIgnoresDuplicateReports(t *testing.T) {
	log := &startLog{}
	primary := &fakeStrategy{name: "cli", outcome: Outcome{Err: errors.New("boom")}, calls: 3, log: log}
	secondary := &fakeStrategy{name: "http", outcome: Outcome{Items: []item.Item{}}, calls: 2, log: log}

	got := collect(t, primary, secondary)

	require.Len(t, got, 1, "chain reports exactly once")
	assert.Equal(t, []string{"start cli", "done cli", "start http", "done http"}, log.get(),
		"secondary started once despite repeated primary failure reports")
}

func TestFallbackSurvivesCrashingFilter(t *testing.T) {
	boom := func(string, item.Record) string { panic("filter crashed") }
	n := item.NewNormalizer(item.KindIssue, nil, boom)

	var httpStarted bool
	cli := &CommandStrategy{
		Runner: RunnerFunc(func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return []byte(`[{"number": 1, "title": "a"}]`), nil
		}),
		Program:    "gh",
		Trigger:    "#",
		Normalizer: n,
	}
	http := &HTTPStrategy{
		Getter: GetterFunc(func(ctx context.Context, url string) ([]item.Record, error) {
			httpStarted = true
			return []item.Record{{"number": float64(2), "title": "b"}}, nil
		}),
		URL:        "https://api.github.com/repos/o/r/issues",
		Trigger:    "#",
		Normalizer: n,
	}

	got := collect(t, cli, http)

	require.Len(t, got, 1, "onDone fires once")
	assert.True(t, httpStarted, "the crashing primary falls back")
	var exhausted *ChainExhaustedError
	require.True(t, errors.As(got[0].Err, &exhausted))
	assert.Len(t, exhausted.Failures, 2)
}

func TestFallbackEmpty(t *testing.T) {
	_, err := Fallback()
	assert.ErrorIs(t, err, ErrNoStrategies)

	called := false
	err = Run(testCtx(), nil, func(Outcome) { called = true })
	assert.ErrorIs(t, err, ErrNoStrategies)
	assert.False(t, called, "onDone is never called for an empty chain")

	_, err = Fallback(nil)
	assert.Error(t, err)
}

func TestChainName(t *testing.T) {
	log := &startLog{}
	c, err := Fallback(&fakeStrategy{name: "a", log: log}, &fakeStrategy{name: "b", log: log})
	require.NoError(t, err)
	assert.Equal(t, "a -> b", c.Name())
}
