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

// Package item holds the completion item model and the normalizers that turn
// raw GitHub records (from the gh CLI or the REST API) into items.
package item

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// 🏷️ Kind is the resource kind an item was built from
type Kind string

const (
	KindIssue       Kind = "issues"
	KindPullRequest Kind = "pull_requests"
	KindMention     Kind = "mentions"
)

// String returns the kind name
func (k Kind) String() string {
	return string(k)
}

// 📝 DocumentationKind is the markup of an item's documentation
type DocumentationKind string

const DocumentationMarkdown DocumentationKind = "markdown"

// 📄 Documentation is the detail text shown next to an item
type Documentation struct {
	Kind  DocumentationKind `json:"kind"`
	Value string            `json:"value"`
}

// 🎯 Item is one completion candidate
type Item struct {
	Kind          Kind           `json:"kind"`
	Label         string         `json:"label"`
	InsertText    string         `json:"insert_text"`
	FilterText    string         `json:"filter_text"`
	SortText      string         `json:"sort_text"`
	Documentation *Documentation `json:"documentation,omitempty"`
	UpdatedAt     *time.Time     `json:"updated_at,omitempty"`
	Raw           Record         `json:"-"`
}

// 📦 Record is one raw JSON object as returned by the CLI or the REST API.
// The schema differs by source and by kind.
type Record map[string]any

// String returns the field as text. Absent keys and explicit JSON nulls are
// both the empty string.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// Int returns the field as an integer, zero when absent or not numeric
func (r Record) Int(key string) int64 {
	switch t := r[key].(type) {
	case float64:
		return int64(t)
	case int:
		return int64(t)
	case int64:
		return t
	case json.Number:
		n, _ := t.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	default:
		return 0
	}
}

// Has reports whether the field is present with a non-null value
func (r Record) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}
