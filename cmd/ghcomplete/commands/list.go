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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/ghcomplete/cmd/ghcomplete/opts"
	"github.com/walteh/ghcomplete/pkg/config"
	"github.com/walteh/ghcomplete/pkg/gitremote"
	"github.com/walteh/ghcomplete/pkg/item"
	"github.com/walteh/ghcomplete/pkg/log"
	"github.com/walteh/ghcomplete/pkg/provider"
	"gitlab.com/tozd/go/errors"
)

// 🎯 target is one list subject
type target struct {
	title   string
	trigger string
	start   func(c *provider.Coordinator, ctx context.Context, cb provider.Callback, req provider.Request) bool
}

var targets = map[string]target{
	"issues":   {title: "issues", trigger: "#", start: (*provider.Coordinator).GetIssues},
	"prs":      {title: "pull requests", trigger: "#", start: (*provider.Coordinator).GetPullRequests},
	"mentions": {title: "contributors", trigger: "@", start: (*provider.Coordinator).GetMentions},
	"all":      {title: "issues and pull requests", trigger: "#", start: (*provider.Coordinator).GetIssuesAndPullRequests},
}

type listFlags struct {
	repo    string
	host    string
	dir     string
	state   string
	limit   int
	table   bool
	json    bool
	timeout time.Duration
}

// NewListCmd creates the list command
func NewListCmd(o *opts.RootOpts) *cobra.Command {
	f := &listFlags{}

	cmd := &cobra.Command{
		Use:       "list issues|prs|mentions|all",
		Short:     "List completion candidates for a repository",
		ValidArgs: []string{"issues", "prs", "mentions", "all"},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			repo, err := resolveRepo(ctx, f)
			if err != nil {
				return err
			}

			t := targets[args[0]]
			req, err := buildRequest(repo, t, f)
			if err != nil {
				return err
			}
			res, err := runList(ctx, o.Coordinator, t, req, f.timeout)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case f.json:
				return renderJSON(out, res)
			case f.table:
				return renderTable(out, res)
			default:
				renderConsole(ctx, o.Console, repo, t, res)
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&f.repo, "repo", "", "repository as owner/name or host/owner/name (default: discovered from --dir)")
	cmd.Flags().StringVar(&f.host, "host", "", "code host, overrides the discovered or given host")
	cmd.Flags().StringVar(&f.dir, "dir", ".", "directory whose git remote names the repository")
	cmd.Flags().StringVar(&f.state, "state", "", "open, closed or all")
	cmd.Flags().IntVar(&f.limit, "limit", 0, fmt.Sprintf("maximum number of candidates, at most %d", config.MaxLimit))
	cmd.Flags().BoolVar(&f.table, "table", false, "print a table")
	cmd.Flags().BoolVar(&f.json, "json", false, "print JSON")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 30*time.Second, "how long to wait for results")
	cmd.MarkFlagsMutuallyExclusive("table", "json")

	return cmd
}

// resolveRepo uses --repo when given, else the git remote of --dir
func resolveRepo(ctx context.Context, f *listFlags) (provider.Repo, error) {
	var repo provider.Repo
	var err error
	if f.repo != "" {
		repo, err = provider.ParseRepo(f.repo)
	} else {
		repo, err = gitremote.Discover(ctx, f.dir)
	}
	if err != nil {
		return provider.Repo{}, errors.Errorf("resolving repository: %w", err)
	}
	if f.host != "" {
		repo.Host = f.host
	}
	return repo, nil
}

func buildRequest(repo provider.Repo, t target, f *listFlags) (provider.Request, error) {
	req := provider.Request{Repo: repo, Trigger: t.trigger, Scope: "cli"}
	if f.limit == 0 && f.state == "" {
		return req, nil
	}

	// validate a copy, then keep only the fields the flags set so the rest
	// still inherit the config
	check := config.KindConfig{Limit: f.limit, State: f.state}
	if err := check.Validate(item.KindPullRequest); err != nil {
		return provider.Request{}, errors.Errorf("invalid flags: %w", err)
	}

	override := &config.KindConfig{State: f.state}
	if f.limit != 0 {
		override.Limit = check.Limit
	}
	req.Issues, req.PullRequests = override, override
	// mentions have no state
	req.Mentions = &config.KindConfig{Limit: override.Limit}
	return req, nil
}

// runList starts the request and waits for its single callback
func runList(ctx context.Context, c *provider.Coordinator, t target, req provider.Request, timeout time.Duration) (provider.Result, error) {
	results := make(chan provider.Result, 1)
	if !t.start(c, ctx, func(r provider.Result) { results <- r }, req) {
		return provider.Result{}, errors.Errorf("repository %s is not served by any configured host", req.Repo)
	}

	select {
	case r := <-results:
		return r, nil
	case <-time.After(timeout):
		return provider.Result{}, errors.Errorf("no %s after %s; every fetch strategy may have failed, rerun with --debug", t.title, timeout)
	case <-ctx.Done():
		return provider.Result{}, errors.Errorf("waiting for %s: %w", t.title, ctx.Err())
	}
}

func renderJSON(w io.Writer, res provider.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return errors.Errorf("encoding result: %w", err)
	}
	return nil
}

func renderTable(w io.Writer, res provider.Result) error {
	data := pterm.TableData{{"Kind", "Label", "Insert", "Updated"}}
	for _, it := range res.Items {
		updated := ""
		if it.UpdatedAt != nil {
			updated = it.UpdatedAt.UTC().Format(time.RFC3339)
		}
		data = append(data, []string{it.Kind.String(), it.Label, it.InsertText, updated})
	}

	s, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Errorf("rendering table: %w", err)
	}
	_, err = fmt.Fprintln(w, s)
	return err
}

func renderConsole(ctx context.Context, console *log.Logger, repo provider.Repo, t target, res provider.Result) {
	console.StartRequest(ctx, log.RequestOperation{Repo: repo.String(), Kind: t.title, Scope: "cli", Trigger: t.trigger})
	for _, it := range res.Items {
		console.LogItem(ctx, it)
	}
	console.EndRequest(ctx)
	console.LogNewline()
	console.Successf("%d %s", len(res.Items), t.title)
}
