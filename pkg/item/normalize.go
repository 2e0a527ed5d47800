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
	"strings"
	"time"
)

// 🔀 SortFunc computes the sort key of a record for a trigger
type SortFunc func(trigger string, rec Record) string

// 🔍 FilterFunc computes the fuzzy-match text of a record for a trigger
type FilterFunc func(trigger string, rec Record) string

// 📡 Source is the encoding a record arrived in
type Source int

const (
	// SourceCLI records come from gh --json and use camelCase
	SourceCLI Source = iota
	// SourceHTTP records come from the REST API and use snake_case
	SourceHTTP
)

func (s Source) String() string {
	if s == SourceHTTP {
		return "http"
	}
	return "cli"
}

// updatedAtFields returns the timestamp field names in lookup order for src
func (s Source) updatedAtFields() [2]string {
	if s == SourceHTTP {
		return [2]string{"updated_at", "updatedAt"}
	}
	return [2]string{"updatedAt", "updated_at"}
}

// 🏭 Normalizer converts raw records of one kind into items
type Normalizer struct {
	Kind   Kind
	Sort   SortFunc
	Filter FilterFunc
	Source Source
}

// NewNormalizer returns a normalizer for kind with the default sort and
// filter functions filled in for any nil argument
func NewNormalizer(kind Kind, sort SortFunc, filter FilterFunc) Normalizer {
	if sort == nil {
		sort = DefaultSort(kind)
	}
	if filter == nil {
		filter = DefaultFilter(kind)
	}
	return Normalizer{Kind: kind, Sort: sort, Filter: filter}
}

// From returns a copy of n reading records encoded by src
func (n Normalizer) From(src Source) Normalizer {
	n.Source = src
	return n
}

// 🎯 Normalize builds an item from one record. It never fails: missing or
// null fields degrade to empty strings.
func (n Normalizer) Normalize(trigger string, rec Record) Item {
	it := Item{
		Kind:      n.Kind,
		Raw:       rec,
		UpdatedAt: UpdatedAtFrom(rec, n.Source),
	}

	switch n.Kind {
	case KindMention:
		login := rec.String("login")
		it.Label = "@" + login
		it.InsertText = "@" + login
	default:
		number := rec.String("number")
		title := rec.String("title")
		it.Label = fmt.Sprintf("#%s: %s", number, title)
		it.InsertText = "#" + number
		it.Documentation = &Documentation{
			Kind:  DocumentationMarkdown,
			Value: fmt.Sprintf("# %s\n\n%s", title, Body(rec)),
		}
	}

	if n.Sort != nil {
		it.SortText = n.Sort(trigger, rec)
	}
	if n.Filter != nil {
		it.FilterText = n.Filter(trigger, rec)
	}

	return it
}

// NormalizeAll normalizes every record in order. Records that cannot carry a
// label (a mention without login, an issue without number) are skipped.
func (n Normalizer) NormalizeAll(trigger string, recs []Record) []Item {
	items := make([]Item, 0, len(recs))
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		if n.Kind == KindMention && rec.String("login") == "" {
			continue
		}
		if n.Kind != KindMention && rec.String("number") == "" {
			continue
		}
		items = append(items, n.Normalize(trigger, rec))
	}
	return items
}

// Body returns the record body with carriage returns removed
func Body(rec Record) string {
	return strings.ReplaceAll(rec.String("body"), "\r", "")
}

// UpdatedAt reads the timestamp in the CLI field order
func UpdatedAt(rec Record) *time.Time {
	return UpdatedAtFrom(rec, SourceCLI)
}

// UpdatedAtFrom reads the first present timestamp field in the order of src.
// Only that field is consulted; an unparseable value leaves the timestamp unset.
func UpdatedAtFrom(rec Record, src Source) *time.Time {
	for _, field := range src.updatedAtFields() {
		if !rec.Has(field) {
			continue
		}
		t, err := time.Parse(time.RFC3339, rec.String(field))
		if err != nil {
			return nil
		}
		return &t
	}
	return nil
}
