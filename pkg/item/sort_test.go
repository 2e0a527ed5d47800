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

package item

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortByUpdatedNewestFirst(t *testing.T) {
	older := SortByUpdated("#", Record{"updatedAt": "2020-01-01T00:00:00Z"})
	newer := SortByUpdated("#", Record{"updated_at": "2024-01-01T00:00:00Z"})
	missing := SortByUpdated("#", Record{})

	assert.Less(t, newer, older, "newer sorts before older")
	assert.Less(t, older, missing, "missing timestamps sort last")
}

func TestSortByNumberHighestFirst(t *testing.T) {
	assert.Less(t, SortByNumber("#", Record{"number": float64(100)}), SortByNumber("#", Record{"number": float64(9)}))
	assert.Equal(t, unsortedKey, SortByNumber("#", Record{}))
}

func TestSortByContributions(t *testing.T) {
	top := SortByContributions("@", Record{"contributions": float64(500)})
	low := SortByContributions("@", Record{"contributions": float64(2)})
	assert.Less(t, top, low)
}

func TestSortFuncByName(t *testing.T) {
	for _, name := range SortNames() {
		fn, ok := SortFuncByName(name)
		require.True(t, ok, "registered name %q resolves", name)
		assert.NotNil(t, fn)
	}

	_, ok := SortFuncByName("nope")
	assert.False(t, ok)
	assert.Equal(t, []string{"contributions", "login", "number", "updated"}, SortNames())
}

func TestDefaultFilter(t *testing.T) {
	assert.Equal(t, "#12 Title", DefaultFilter(KindIssue)("#", Record{"number": float64(12), "title": "Title"}))
	assert.Equal(t, "@bob", DefaultFilter(KindMention)("@", Record{"login": "bob"}))
}
