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

package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/ghcomplete/pkg/config"
	"github.com/walteh/ghcomplete/pkg/fetch"
	"github.com/walteh/ghcomplete/pkg/item"
	"github.com/walteh/ghcomplete/pkg/provider"
	"gitlab.com/tozd/go/errors"
)

var repo = provider.Repo{Host: "github.com", Owner: "walteh", Name: "ghcomplete"}

func testCtx() context.Context {
	return zerolog.New(os.Stderr).Level(zerolog.Disabled).WithContext(context.Background())
}

func params(kind item.Kind, r provider.Repo) provider.Params {
	opts := config.Default().Kind(kind)
	return provider.Params{Kind: kind, Repo: r, Trigger: "#", Options: opts, Normalizer: opts.Normalizer(kind)}
}

func TestCommandArgs(t *testing.T) {
	enterprise := provider.Repo{Host: "ghe.example.com", Owner: "team", Name: "app"}

	tests := []struct {
		name string
		p    provider.Params
		want []string
	}{
		{
			name: "issues",
			p:    params(item.KindIssue, repo),
			want: []string{"issue", "list", "--repo", "walteh/ghcomplete", "--limit", "100", "--state", "open", "--json", "title,number,body,updatedAt"},
		},
		{
			name: "pull_requests",
			p:    params(item.KindPullRequest, repo),
			want: []string{"pr", "list", "--repo", "walteh/ghcomplete", "--limit", "100", "--state", "open", "--json", "title,number,body,updatedAt"},
		},
		{
			name: "mentions",
			p:    params(item.KindMention, repo),
			want: []string{"api", "repos/walteh/ghcomplete/contributors?per_page=100&page=1"},
		},
		{
			name: "enterprise_issues",
			p:    params(item.KindIssue, enterprise),
			want: []string{"issue", "list", "--repo", "ghe.example.com/team/app", "--limit", "100", "--state", "open", "--json", "title,number,body,updatedAt"},
		},
		{
			name: "enterprise_mentions",
			p:    params(item.KindMention, enterprise),
			want: []string{"api", "--hostname", "ghe.example.com", "repos/team/app/contributors?per_page=100&page=1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CommandArgs(tt.p)
			require.NoError(t, err, "CommandArgs should succeed")
			assert.Equal(t, tt.want, got, "args should match")
		})
	}

	_, err := CommandArgs(provider.Params{Kind: "labels", Repo: repo})
	assert.Error(t, err, "unknown kinds are rejected")
}

func TestRESTURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		p    provider.Params
		want string
	}{
		{
			name: "issues",
			base: APIBaseURL("github.com", ""),
			p:    params(item.KindIssue, repo),
			want: "https://api.github.com/repos/walteh/ghcomplete/issues?filter=all&state=open&per_page=100&page=1",
		},
		{
			name: "pulls",
			base: APIBaseURL("github.com", ""),
			p:    params(item.KindPullRequest, repo),
			want: "https://api.github.com/repos/walteh/ghcomplete/pulls?state=open&per_page=100&page=1",
		},
		{
			name: "contributors",
			base: APIBaseURL("github.com", ""),
			p:    params(item.KindMention, repo),
			want: "https://api.github.com/repos/walteh/ghcomplete/contributors?per_page=100&page=1",
		},
		{
			name: "enterprise",
			base: APIBaseURL("ghe.example.com", ""),
			p:    params(item.KindMention, repo),
			want: "https://ghe.example.com/api/v3/repos/walteh/ghcomplete/contributors?per_page=100&page=1",
		},
		{
			name: "override",
			base: APIBaseURL("github.com", "http://127.0.0.1:9999/api"),
			p:    params(item.KindMention, repo),
			want: "http://127.0.0.1:9999/api/repos/walteh/ghcomplete/contributors?per_page=100&page=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RESTURL(tt.base, tt.p)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSupports(t *testing.T) {
	cfg := config.Default()
	cfg.Hosts = []string{"github.com", "*.ghe.example.com"}
	b, err := NewBackend(testCtx(), cfg)
	require.NoError(t, err)

	assert.True(t, b.Supports("github.com"))
	assert.True(t, b.Supports("GitHub.com"), "hosts match case-insensitively")
	assert.True(t, b.Supports("code.ghe.example.com"))
	assert.False(t, b.Supports("gitlab.com"))
	assert.False(t, b.Supports(""))

	cfg.Hosts = []string{"[github.com"}
	_, err = NewBackend(testCtx(), cfg)
	assert.Error(t, err, "invalid patterns are rejected")
}

func TestNewBackendValidatesConfig(t *testing.T) {
	raw := &config.Config{}
	b, err := NewBackend(testCtx(), raw)
	require.NoError(t, err, "an unvalidated config gets defaults")
	assert.True(t, b.Supports("github.com"))
	assert.Nil(t, raw.CLI, "the caller's config is not modified")

	got, err := b.Strategies(testCtx(), params(item.KindIssue, repo))
	require.NoError(t, err)
	cli, ok := got[0].(*fetch.CommandStrategy)
	require.True(t, ok)
	assert.Equal(t, config.DefaultCommand, cli.Program)

	_, err = NewBackend(testCtx(), &config.Config{CLI: &config.CLIConfig{Timeout: "soon"}})
	assert.ErrorContains(t, err, "cli.timeout")
}

func TestStrategiesOrder(t *testing.T) {
	cfg := config.Default()
	cfg.CLI.Command = `gh --hostname "github.com"`
	b, err := NewBackend(testCtx(), cfg)
	require.NoError(t, err)

	got, err := b.Strategies(testCtx(), params(item.KindPullRequest, repo))
	require.NoError(t, err)
	require.Len(t, got, 2)

	cli, ok := got[0].(*fetch.CommandStrategy)
	require.True(t, ok, "cli strategy first")
	assert.Equal(t, "gh", cli.Program)
	assert.Equal(t, []string{"--hostname", "github.com", "pr", "list"}, cli.Args[:4], "command words come before the subcommand")

	rest, ok := got[1].(*fetch.HTTPStrategy)
	require.True(t, ok, "rest strategy second")
	assert.Equal(t, "https://api.github.com/repos/walteh/ghcomplete/pulls?state=open&per_page=100&page=1", rest.URL)
}

func TestRESTGetter(t *testing.T) {
	var mu sync.Mutex
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		headers = r.Header.Clone()
		mu.Unlock()

		switch r.URL.Path {
		case "/repos/walteh/ghcomplete/issues":
			assert.Equal(t, "all", r.URL.Query().Get("filter"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[{"number": 7, "title": "crash", "body": null, "updated_at": "2024-05-01T00:00:00Z"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message": "Not Found"}`))
		}
	}))
	defer srv.Close()

	t.Run("with_token", func(t *testing.T) {
		cfg := config.Default()
		cfg.HTTP.TokenEnv = []string{"GHCOMPLETE_TEST_TOKEN"}
		t.Setenv("GHCOMPLETE_TEST_TOKEN", "s3cret")

		g := NewRESTGetter(cfg)
		u, err := RESTURL(APIBaseURL("", srv.URL), params(item.KindIssue, repo))
		require.NoError(t, err)

		recs, err := g.Get(testCtx(), u)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "7", recs[0].String("number"))

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, "application/vnd.github.v3+json", headers.Get("Accept"))
		assert.Equal(t, "token s3cret", headers.Get("Authorization"))
	})

	t.Run("without_token", func(t *testing.T) {
		cfg := config.Default()
		cfg.HTTP.TokenEnv = []string{"GHCOMPLETE_TEST_TOKEN_UNSET"}

		g := NewRESTGetter(cfg)
		u, err := RESTURL(APIBaseURL("", srv.URL), params(item.KindIssue, repo))
		require.NoError(t, err)

		_, err = g.Get(testCtx(), u)
		require.NoError(t, err)

		mu.Lock()
		defer mu.Unlock()
		assert.Empty(t, headers.Get("Authorization"), "no token, no header")
	})

	t.Run("error_status", func(t *testing.T) {
		g := NewRESTGetter(config.Default())
		u, err := RESTURL(APIBaseURL("", srv.URL), params(item.KindMention, repo))
		require.NoError(t, err)

		_, err = g.Get(testCtx(), u)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})
}

func TestCLIFailureFallsBackToREST(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"login": "octocat", "contributions": 12}]`))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.HTTP.BaseURL = srv.URL
	var ran []string
	b, err := NewBackend(testCtx(), cfg, WithRunner(fetch.RunnerFunc(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		ran = append(ran, name)
		return nil, errors.New("executable file not found in $PATH")
	})))
	require.NoError(t, err)

	p := params(item.KindMention, repo)
	p.Trigger = "@"
	strategies, err := b.Strategies(testCtx(), p)
	require.NoError(t, err)

	done := make(chan fetch.Outcome, 1)
	require.NoError(t, fetch.Run(testCtx(), strategies, func(o fetch.Outcome) { done <- o }))

	select {
	case o := <-done:
		require.True(t, o.OK(), "REST strategy recovers the failure")
		require.Len(t, o.Items, 1)
		assert.Equal(t, "@octocat", o.Items[0].Label)
	case <-time.After(2 * time.Second):
		t.Fatal("chain never completed")
	}
	assert.Equal(t, []string{"gh"}, ran)
}

func TestExecRunner(t *testing.T) {
	out, err := ExecRunner{}.Run(testCtx(), "sh", "-c", `echo '[{"number": 1}]'`)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"number": 1}]`, string(out))

	_, err = ExecRunner{}.Run(testCtx(), "sh", "-c", "echo 'no such repo' >&2; exit 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such repo", "stderr lands in the error")

	_, err = ExecRunner{Timeout: 50 * time.Millisecond}.Run(testCtx(), "sleep", "5")
	assert.Error(t, err, "timeout kills the process")
}

func TestRegistered(t *testing.T) {
	b, err := provider.Get(testCtx(), "github", config.Default())
	require.NoError(t, err)
	assert.Equal(t, "github", b.Name())
}
