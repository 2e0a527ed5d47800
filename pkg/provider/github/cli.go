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
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/walteh/ghcomplete/pkg/item"
	"github.com/walteh/ghcomplete/pkg/provider"
	"gitlab.com/tozd/go/errors"
)

// listFields are requested from gh issue list and gh pr list
const listFields = "title,number,body,updatedAt"

// 💻 CommandArgs returns the gh arguments for one fetch
func CommandArgs(p provider.Params) ([]string, error) {
	limit := strconv.Itoa(p.Options.Limit)
	repo := p.Repo.Slug()
	if p.Repo.Host != "" && p.Repo.Host != provider.DefaultHost {
		repo = p.Repo.Host + "/" + repo
	}

	switch p.Kind {
	case item.KindIssue:
		return []string{"issue", "list", "--repo", repo, "--limit", limit, "--state", p.Options.State, "--json", listFields}, nil
	case item.KindPullRequest:
		return []string{"pr", "list", "--repo", repo, "--limit", limit, "--state", p.Options.State, "--json", listFields}, nil
	case item.KindMention:
		args := []string{"api"}
		if p.Repo.Host != "" && p.Repo.Host != provider.DefaultHost {
			args = append(args, "--hostname", p.Repo.Host)
		}
		return append(args, fmt.Sprintf("repos/%s/contributors?per_page=%s&page=1", p.Repo.Slug(), limit)), nil
	default:
		return nil, errors.Errorf("unknown kind: %q", p.Kind)
	}
}

// ExecRunner runs programs with os/exec. A positive Timeout bounds each run.
type ExecRunner struct {
	Timeout time.Duration
}

// 🏃 Run runs name and returns its stdout
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, errors.Errorf("%w: %s", err, msg)
		}
		return nil, errors.WithStack(err)
	}
	return out, nil
}
