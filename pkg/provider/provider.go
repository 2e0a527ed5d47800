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
	"strings"

	"github.com/walteh/ghcomplete/pkg/config"
	"github.com/walteh/ghcomplete/pkg/fetch"
	"github.com/walteh/ghcomplete/pkg/item"
	"gitlab.com/tozd/go/errors"
)

// DefaultHost is assumed when a repository is given as owner/name
const DefaultHost = "github.com"

// 📍 Repo identifies a repository on a code host
type Repo struct {
	Host  string `json:"host"`
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// Resolved reports whether owner and name are both known
func (r Repo) Resolved() bool {
	return r.Owner != "" && r.Name != ""
}

// Slug returns owner/name
func (r Repo) Slug() string {
	return r.Owner + "/" + r.Name
}

func (r Repo) String() string {
	if r.Host == "" {
		return r.Slug()
	}
	return r.Host + "/" + r.Slug()
}

// 🔍 ParseRepo parses owner/name or host/owner/name
func ParseRepo(s string) (Repo, error) {
	s = strings.TrimSuffix(strings.Trim(strings.TrimSpace(s), "/"), ".git")
	parts := strings.Split(s, "/")
	for _, p := range parts {
		if p == "" {
			return Repo{}, errors.Errorf("invalid repository format: %q", s)
		}
	}

	switch len(parts) {
	case 2:
		return Repo{Host: DefaultHost, Owner: parts[0], Name: parts[1]}, nil
	case 3:
		return Repo{Host: parts[0], Owner: parts[1], Name: parts[2]}, nil
	default:
		return Repo{}, errors.Errorf("invalid repository format: %q", s)
	}
}

// 📋 Params describe one fetch handed to a backend
type Params struct {
	Kind       item.Kind
	Repo       Repo
	Trigger    string
	Options    config.KindConfig
	Normalizer item.Normalizer
}

// 🔌 Backend builds the fetch strategies for a code host, best first
type Backend interface {
	Name() string

	// Supports reports whether host is served by this backend
	Supports(host string) bool

	// Strategies returns the ordered strategies for one fetch
	Strategies(ctx context.Context, p Params) ([]fetch.Strategy, error)
}

// 🏭 Factory creates a backend from config
type Factory func(ctx context.Context, cfg *config.Config) (Backend, error)

var (
	// 🗺️ backends is a map of backend names to factories
	backends = make(map[string]Factory)
)

// 📝 Register registers a backend factory
func Register(name string, factory Factory) {
	backends[name] = factory
}

// 🎯 Get creates the backend registered under name
func Get(ctx context.Context, name string, cfg *config.Config) (Backend, error) {
	factory, ok := backends[name]
	if !ok {
		return nil, errors.Errorf("unknown backend: %s", name)
	}
	return factory(ctx, cfg)
}
