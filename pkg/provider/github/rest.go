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
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v60/github"
	"github.com/walteh/ghcomplete/pkg/config"
	"github.com/walteh/ghcomplete/pkg/item"
	"github.com/walteh/ghcomplete/pkg/provider"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/oauth2"
)

const acceptV3 = "application/vnd.github.v3+json"

// 🌐 APIBaseURL returns the REST root for host, with a trailing slash.
// override wins when set.
func APIBaseURL(host, override string) string {
	if override != "" {
		return strings.TrimSuffix(override, "/") + "/"
	}
	if host == "" || host == provider.DefaultHost {
		return "https://api.github.com/"
	}
	return "https://" + host + "/api/v3/"
}

// 🔗 RESTURL returns the first page URL for one fetch
func RESTURL(base string, p provider.Params) (string, error) {
	repo := url.PathEscape(p.Repo.Owner) + "/" + url.PathEscape(p.Repo.Name)
	limit := p.Options.Limit
	q := url.QueryEscape

	switch p.Kind {
	case item.KindIssue:
		return fmt.Sprintf("%srepos/%s/issues?filter=%s&state=%s&per_page=%d&page=1", base, repo, q(p.Options.Filter), q(p.Options.State), limit), nil
	case item.KindPullRequest:
		return fmt.Sprintf("%srepos/%s/pulls?state=%s&per_page=%d&page=1", base, repo, q(p.Options.State), limit), nil
	case item.KindMention:
		return fmt.Sprintf("%srepos/%s/contributors?per_page=%d&page=1", base, repo, limit), nil
	default:
		return "", errors.Errorf("unknown kind: %q", p.Kind)
	}
}

// 📡 RESTGetter fetches JSON arrays through a go-github client
type RESTGetter struct {
	client *github.Client
}

// NewRESTGetter creates a getter honouring http.timeout. The token, when
// present, is sent as "Authorization: token <value>".
func NewRESTGetter(cfg *config.Config) *RESTGetter {
	hc := &http.Client{Timeout: cfg.HTTPTimeout()}
	if tok := cfg.HTTP.Token(); tok != "" {
		hc.Transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: tok, TokenType: "token"}),
			Base:   http.DefaultTransport,
		}
	}
	return &RESTGetter{client: github.NewClient(hc)}
}

// Get requests an absolute URL and decodes the JSON array body
func (g *RESTGetter) Get(ctx context.Context, u string) ([]item.Record, error) {
	req, err := g.client.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", acceptV3)

	var recs []item.Record
	if _, err := g.client.Do(ctx, req, &recs); err != nil {
		return nil, errors.Errorf("making request: %w", err)
	}
	if recs == nil {
		return nil, errors.New("empty response body")
	}
	return recs, nil
}
