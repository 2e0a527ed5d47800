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

// Package lsp serves completions to editors over the language server protocol.
// Typing # offers issues and pull requests, @ offers contributors.
package lsp

import (
	"context"
	"net/url"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"
	"github.com/walteh/ghcomplete/pkg/gitremote"
	"github.com/walteh/ghcomplete/pkg/provider"
	"gitlab.com/tozd/go/errors"
)

// DiscoverFunc resolves the repository of a directory
type DiscoverFunc func(ctx context.Context, dir string) (provider.Repo, error)

type discovered struct {
	repo provider.Repo
	err  error
}

// 📝 Handler implements the editor protocol on top of a Coordinator
type Handler struct {
	ctx      context.Context
	coord    *provider.Coordinator
	timeout  time.Duration
	discover DiscoverFunc
	name     string
	version  string

	mu        sync.RWMutex
	documents map[string]string // URI to full text
	repos     map[string]discovered
}

// Option customizes a Handler
type Option func(*Handler)

// WithDiscover replaces repository discovery
func WithDiscover(fn DiscoverFunc) Option {
	return func(h *Handler) { h.discover = fn }
}

// WithServerInfo sets the name and version reported on initialize
func WithServerInfo(name, version string) Option {
	return func(h *Handler) { h.name, h.version = name, version }
}

// 🏭 NewHandler creates a handler. ctx carries the logger and outlives the
// individual requests.
func NewHandler(ctx context.Context, coord *provider.Coordinator, timeout time.Duration, opts ...Option) *Handler {
	h := &Handler{
		ctx:       ctx,
		coord:     coord,
		timeout:   timeout,
		discover:  gitremote.Discover,
		name:      "ghcomplete",
		version:   "dev",
		documents: make(map[string]string),
		repos:     make(map[string]discovered),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Protocol returns the glsp method table
func (h *Handler) Protocol() *protocol.Handler {
	return &protocol.Handler{
		Initialize:             h.Initialize,
		Initialized:            h.Initialized,
		Shutdown:               h.Shutdown,
		SetTrace:               h.SetTrace,
		TextDocumentDidOpen:    h.TextDocumentDidOpen,
		TextDocumentDidChange:  h.TextDocumentDidChange,
		TextDocumentDidClose:   h.TextDocumentDidClose,
		TextDocumentCompletion: h.TextDocumentCompletion,
	}
}

// 🚀 ServeStdio runs the server on stdin and stdout until the client exits
func (h *Handler) ServeStdio() error {
	zerolog.Ctx(h.ctx).Info().Str("server", h.name).Msg("serving language server on stdio")
	return glspserver.NewServer(h.Protocol(), h.name, false).RunStdio()
}

func (h *Handler) Initialize(_ *glsp.Context, params *protocol.InitializeParams) (any, error) {
	if params.ClientInfo != nil {
		zerolog.Ctx(h.ctx).Info().Str("client", params.ClientInfo.Name).Msg("language client initializing")
	}

	syncKind := protocol.TextDocumentSyncKindFull
	openClose := true
	version := h.version

	return protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{"#", "@"},
			},
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: &openClose,
				Change:    &syncKind,
			},
		},
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    h.name,
			Version: &version,
		},
	}, nil
}

func (h *Handler) Initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	return nil
}

func (h *Handler) Shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	zerolog.Ctx(h.ctx).Info().Msg("language client shutting down")
	return nil
}

func (h *Handler) SetTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (h *Handler) TextDocumentDidOpen(_ *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.documents[string(params.TextDocument.URI)] = params.TextDocument.Text
	return nil
}

func (h *Handler) TextDocumentDidChange(_ *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	uri := string(params.TextDocument.URI)
	for _, change := range params.ContentChanges {
		if whole, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			h.documents[uri] = whole.Text
		}
	}
	return nil
}

// TextDocumentDidClose forgets the document and every completion cached for it
func (h *Handler) TextDocumentDidClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := string(params.TextDocument.URI)

	h.mu.Lock()
	delete(h.documents, uri)
	h.mu.Unlock()

	n := h.coord.Cache().Invalidate(uri)
	zerolog.Ctx(h.ctx).Debug().Str("uri", uri).Int("entries", n).Msg("document closed")
	return nil
}

// 🔍 TextDocumentCompletion completes the reference before the cursor. When
// the fetch outlasts the timeout the list is returned empty and incomplete,
// so the client asks again once the cache is warm.
func (h *Handler) TextDocumentCompletion(_ *glsp.Context, params *protocol.CompletionParams) (any, error) {
	logger := zerolog.Ctx(h.ctx)
	uri := string(params.TextDocument.URI)
	empty := &protocol.CompletionList{Items: []protocol.CompletionItem{}}

	h.mu.RLock()
	text, ok := h.documents[uri]
	h.mu.RUnlock()
	if !ok {
		return empty, nil
	}

	trigger, ok := TriggerAt(text, params.Position)
	if !ok {
		return empty, nil
	}

	repo, err := h.repoFor(uri)
	if err != nil {
		logger.Debug().Err(err).Str("uri", uri).Msg("no repository for document")
		return empty, nil
	}

	results := make(chan provider.Result, 1)
	cb := func(r provider.Result) {
		select {
		case results <- r:
		default:
		}
	}
	req := provider.Request{Repo: repo, Trigger: trigger, Scope: uri}

	var started bool
	switch trigger {
	case "#":
		started = h.coord.GetIssuesAndPullRequests(h.ctx, cb, req)
	case "@":
		started = h.coord.GetMentions(h.ctx, cb, req)
	}
	if !started {
		return empty, nil
	}

	select {
	case r := <-results:
		logger.Debug().Str("uri", uri).Int("items", len(r.Items)).Msg("completion")
		return CompletionList(r), nil
	case <-time.After(h.timeout):
		logger.Debug().Str("uri", uri).Dur("timeout", h.timeout).Msg("completion still fetching")
		empty.IsIncomplete = true
		return empty, nil
	}
}

// repoFor discovers the repository of a file URI once per directory
func (h *Handler) repoFor(uri string) (provider.Repo, error) {
	dir, err := uriDir(uri)
	if err != nil {
		return provider.Repo{}, err
	}

	h.mu.RLock()
	d, ok := h.repos[dir]
	h.mu.RUnlock()
	if ok {
		return d.repo, d.err
	}

	repo, err := h.discover(h.ctx, dir)

	h.mu.Lock()
	h.repos[dir] = discovered{repo: repo, err: err}
	h.mu.Unlock()
	return repo, err
}

func uriDir(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", errors.Errorf("parsing document URI: %w", err)
	}
	if u.Scheme != "file" {
		return "", errors.Errorf("unsupported document URI: %s", uri)
	}
	return filepath.Dir(filepath.FromSlash(u.Path)), nil
}
