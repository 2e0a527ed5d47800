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
	"fmt"
	"math"
	"sort"
	"strings"
)

// sortKeyWidth is wide enough for any int64
const sortKeyWidth = 19

// unsortedKey sorts after every numeric key
const unsortedKey = "~"

var (
	// 🗺️ sortFuncs maps config names to sort functions
	sortFuncs = map[string]SortFunc{
		"updated":       SortByUpdated,
		"number":        SortByNumber,
		"login":         SortByLogin,
		"contributions": SortByContributions,
	}
)

// 🎯 SortFuncByName returns the named sort function
func SortFuncByName(name string) (SortFunc, bool) {
	fn, ok := sortFuncs[name]
	return fn, ok
}

// SortNames returns the registered sort function names, sorted
func SortNames() []string {
	names := make([]string, 0, len(sortFuncs))
	for k := range sortFuncs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// DefaultSort returns the sort function used when none is configured
func DefaultSort(kind Kind) SortFunc {
	if kind == KindMention {
		return SortByLogin
	}
	return SortByUpdated
}

// DefaultFilter returns the filter function used when none is configured
func DefaultFilter(kind Kind) FilterFunc {
	if kind == KindMention {
		return func(trigger string, rec Record) string {
			return trigger + rec.String("login")
		}
	}
	return func(trigger string, rec Record) string {
		return fmt.Sprintf("%s%s %s", trigger, rec.String("number"), rec.String("title"))
	}
}

// SortByUpdated orders most recently updated first
func SortByUpdated(_ string, rec Record) string {
	t := UpdatedAt(rec)
	if t == nil {
		return unsortedKey
	}
	return descending(t.Unix())
}

// SortByNumber orders highest number first
func SortByNumber(_ string, rec Record) string {
	if !rec.Has("number") {
		return unsortedKey
	}
	return descending(rec.Int("number"))
}

// SortByLogin orders alphabetically, case-insensitive
func SortByLogin(_ string, rec Record) string {
	return strings.ToLower(rec.String("login"))
}

// SortByContributions orders top contributors first
func SortByContributions(_ string, rec Record) string {
	if !rec.Has("contributions") {
		return unsortedKey
	}
	return descending(rec.Int("contributions"))
}

func descending(n int64) string {
	if n < 0 {
		n = 0
	}
	return fmt.Sprintf("%0*d", sortKeyWidth, math.MaxInt64-n)
}
