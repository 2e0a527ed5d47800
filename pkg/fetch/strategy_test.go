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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/ghcomplete/pkg/item"
	"gitlab.com/tozd/go/errors"
)

func await(t *testing.T, s Strategy) Outcome {
	t.Helper()
	ch := make(chan Outcome, 1)
	s.Start(testCtx(), func(o Outcome) { ch <- o })
	select {
	case o := <-ch:
		return o
	case <-time.After(2 * time.Second):
		t.Fatal("strategy never reported")
		return Outcome{}
	}
}

func TestCommandStrategy(t *testing.T) {
	tests := []struct {
		name        string
		out         string
		runErr      error
		wantLabels  []string
		errContains string
	}{
		{
			name:       "json_array",
			out:        `[{"number": 1, "title": "one", "body": null, "updatedAt": "2024-01-01T00:00:00Z"}, {"number": 2, "title": "two"}]`,
			wantLabels: []string{"#1: one", "#2: two"},
		},
		{
			name:       "empty_array",
			out:        "[]\n",
			wantLabels: []string{},
		},
		{
			name:        "non_zero_exit",
			runErr:      errors.New("exit status 1"),
			errContains: "exit status 1",
		},
		{
			name:        "bad_json",
			out:         "gh: not logged in",
			errContains: "decoding JSON array",
		},
		{
			name:        "empty_output",
			out:         "",
			errContains: "empty output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotName string
			var gotArgs []string
			s := &CommandStrategy{
				Runner: RunnerFunc(func(ctx context.Context, name string, args ...string) ([]byte, error) {
					gotName, gotArgs = name, args
					return []byte(tt.out), tt.runErr
				}),
				Program:    "gh",
				Args:       []string{"issue", "list"},
				Trigger:    "#",
				Normalizer: item.NewNormalizer(item.KindIssue, nil, nil),
			}

			o := await(t, s)
			assert.Equal(t, "gh", gotName)
			assert.Equal(t, []string{"issue", "list"}, gotArgs)

			if tt.errContains != "" {
				require.Error(t, o.Err)
				assert.Contains(t, o.Err.Error(), tt.errContains)
				var se *StrategyError
				require.True(t, errors.As(o.Err, &se), "failure is a StrategyError")
				assert.Equal(t, s.Name(), se.Strategy)
				return
			}

			require.NoError(t, o.Err)
			labels := make([]string, 0, len(o.Items))
			for _, it := range o.Items {
				labels = append(labels, it.Label)
			}
			assert.Equal(t, tt.wantLabels, labels)
		})
	}
}

func TestCommandStrategyPanicIsFailure(t *testing.T) {
	s := &CommandStrategy{
		Runner: RunnerFunc(func(ctx context.Context, name string, args ...string) ([]byte, error) {
			panic("runner crashed")
		}),
		Program:    "gh",
		Normalizer: item.NewNormalizer(item.KindIssue, nil, nil),
	}
	o := await(t, s)
	require.Error(t, o.Err)
	assert.Contains(t, o.Err.Error(), "runner crashed")
}

func TestNormalizerPanicIsFailure(t *testing.T) {
	boom := func(string, item.Record) string { panic("filter crashed") }
	s := &CommandStrategy{
		Runner: RunnerFunc(func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return []byte(`[{"number": 1, "title": "a"}]`), nil
		}),
		Program:    "gh",
		Trigger:    "#",
		Normalizer: item.NewNormalizer(item.KindIssue, nil, boom),
	}

	o := await(t, s)
	require.Error(t, o.Err, "a crashing filter func fails the strategy")
	assert.Contains(t, o.Err.Error(), "filter crashed")
	var se *StrategyError
	assert.True(t, errors.As(o.Err, &se), "failure is a StrategyError")
}

func TestStrategiesReadTheirOwnTimestampOrder(t *testing.T) {
	rec := `[{"number": 1, "title": "a", "updatedAt": "2024-01-01T00:00:00Z", "updated_at": "2020-01-01T00:00:00Z"}]`
	cli := &CommandStrategy{
		Runner: RunnerFunc(func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return []byte(rec), nil
		}),
		Program:    "gh",
		Normalizer: item.NewNormalizer(item.KindIssue, nil, nil),
	}
	recs, err := DecodeRecords([]byte(rec))
	require.NoError(t, err)
	http := &HTTPStrategy{
		Getter: GetterFunc(func(ctx context.Context, url string) ([]item.Record, error) {
			return recs, nil
		}),
		URL:        "https://api.github.com/repos/o/r/issues",
		Normalizer: item.NewNormalizer(item.KindIssue, nil, nil),
	}

	o := await(t, cli)
	require.NoError(t, o.Err)
	require.Len(t, o.Items, 1)
	require.NotNil(t, o.Items[0].UpdatedAt)
	assert.Equal(t, 2024, o.Items[0].UpdatedAt.Year(), "cli prefers updatedAt")

	o = await(t, http)
	require.NoError(t, o.Err)
	require.Len(t, o.Items, 1)
	require.NotNil(t, o.Items[0].UpdatedAt)
	assert.Equal(t, 2020, o.Items[0].UpdatedAt.Year(), "http prefers updated_at")
}

func TestHTTPStrategy(t *testing.T) {
	s := &HTTPStrategy{
		Getter: GetterFunc(func(ctx context.Context, url string) ([]item.Record, error) {
			assert.Equal(t, "https://api.github.com/repos/o/r/contributors?per_page=10&page=1", url)
			return []item.Record{{"login": "alice"}, {"login": "bob"}}, nil
		}),
		URL:        "https://api.github.com/repos/o/r/contributors?per_page=10&page=1",
		Trigger:    "@",
		Normalizer: item.NewNormalizer(item.KindMention, nil, nil),
	}

	o := await(t, s)
	require.NoError(t, o.Err)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "@alice", o.Items[0].InsertText)
	assert.Equal(t, "@bob", o.Items[1].InsertText)

	failing := &HTTPStrategy{
		Getter: GetterFunc(func(ctx context.Context, url string) ([]item.Record, error) {
			return nil, errors.New("404 Not Found")
		}),
		URL:        "https://api.github.com/x",
		Normalizer: item.NewNormalizer(item.KindMention, nil, nil),
	}
	o = await(t, failing)
	require.Error(t, o.Err)
	assert.Contains(t, o.Err.Error(), "404 Not Found")
}
