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

// Package cache stores normalized items per resource kind and scope.
package cache

import (
	"sync"

	"github.com/walteh/ghcomplete/pkg/item"
)

// 📦 Entry is one cached fetch result
type Entry struct {
	Items        []item.Item
	IsIncomplete bool
}

// 🔑 Key identifies an entry
type Key struct {
	Kind  item.Kind
	Scope string
}

// 🗄️ ScopeCache maps (kind, scope) to the last successful fetch. Entries are
// never evicted and only replaced wholesale. The lock protects the map
// itself; callers doing Get then Put get no atomicity, and the last Put wins.
type ScopeCache struct {
	mu      sync.RWMutex
	entries map[Key]Entry
}

// 🏭 New creates an empty cache
func New() *ScopeCache {
	return &ScopeCache{
		entries: make(map[Key]Entry),
	}
}

// Get returns the entry for kind and scope
func (c *ScopeCache) Get(kind item.Kind, scope string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[Key{Kind: kind, Scope: scope}]
	return e, ok
}

// Put replaces the entry for kind and scope
func (c *ScopeCache) Put(kind item.Kind, scope string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[Key{Kind: kind, Scope: scope}] = e
}

// Invalidate drops every kind cached for scope. The coordinator never calls
// this; hosts do, e.g. when a document closes.
func (c *ScopeCache) Invalidate(scope string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.entries {
		if k.Scope == scope {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Len reports the number of entries
func (c *ScopeCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
