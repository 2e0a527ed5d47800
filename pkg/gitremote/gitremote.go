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

// Package gitremote resolves the code host repository of a working tree from
// its git remotes.
package gitremote

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/rs/zerolog"
	"github.com/walteh/ghcomplete/pkg/provider"
	"gitlab.com/tozd/go/errors"
)

// ErrNoRemote is returned when a repository has no usable remote
var ErrNoRemote = errors.Base("repository has no remotes")

// 🔍 Discover opens the repository containing dir and resolves its remote
// "origin", or the first remote by name when there is no origin
func Discover(ctx context.Context, dir string) (provider.Repo, error) {
	logger := zerolog.Ctx(ctx)

	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return provider.Repo{}, errors.Errorf("opening repository at %s: %w", dir, err)
	}

	remote, err := repo.Remote(git.DefaultRemoteName)
	if errors.Is(err, git.ErrRemoteNotFound) {
		remotes, lerr := repo.Remotes()
		if lerr != nil {
			return provider.Repo{}, errors.Errorf("listing remotes: %w", lerr)
		}
		if len(remotes) == 0 {
			return provider.Repo{}, ErrNoRemote
		}
		sort.Slice(remotes, func(i, j int) bool {
			return remotes[i].Config().Name < remotes[j].Config().Name
		})
		remote, err = remotes[0], nil
	}
	if err != nil {
		return provider.Repo{}, errors.Errorf("reading remote: %w", err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return provider.Repo{}, errors.Errorf("remote %s has no URL: %w", remote.Config().Name, ErrNoRemote)
	}

	r, err := ParseRemoteURL(urls[0])
	if err != nil {
		return provider.Repo{}, err
	}
	logger.Debug().Str("dir", dir).Str("remote", remote.Config().Name).Str("repo", r.String()).Msg("discovered repository")
	return r, nil
}

// 🔗 ParseRemoteURL parses https, ssh, git and scp-style remote URLs
func ParseRemoteURL(raw string) (provider.Repo, error) {
	raw = strings.TrimSpace(raw)

	var host, path string
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return provider.Repo{}, errors.Errorf("parsing remote URL %q: %w", raw, err)
		}
		host, path = u.Hostname(), u.Path
	} else {
		// user@host:owner/name
		at := strings.LastIndex(raw, "@")
		colon := strings.Index(raw[at+1:], ":")
		if colon < 0 {
			return provider.Repo{}, errors.Errorf("unsupported remote URL: %q", raw)
		}
		host, path = raw[at+1:at+1+colon], raw[at+1+colon+1:]
	}

	parts := strings.Split(strings.TrimSuffix(strings.Trim(path, "/"), ".git"), "/")
	if host == "" || len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return provider.Repo{}, errors.Errorf("remote URL %q does not name owner/repository", raw)
	}

	return provider.Repo{
		Host:  strings.ToLower(host),
		Owner: parts[len(parts)-2],
		Name:  parts[len(parts)-1],
	}, nil
}
