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

package lsp

import (
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/walteh/ghcomplete/pkg/item"
	"github.com/walteh/ghcomplete/pkg/provider"
)

// triggers are the characters that start a completion
const triggers = "#@"

// 🎯 TriggerAt returns the trigger character of the reference being typed at
// pos, e.g. "#" for "see #12|". Positions count UTF-16 units.
func TriggerAt(text string, pos protocol.Position) (string, bool) {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return "", false
	}
	line := strings.TrimSuffix(lines[pos.Line], "\r")
	end := byteOffset(line, int(pos.Character))

	start := end
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(line[:start])
		if !isWordRune(r) {
			break
		}
		start -= size
	}
	if start == 0 || !strings.ContainsRune(triggers, rune(line[start-1])) {
		return "", false
	}

	// the trigger must begin a word, so "a#1" is not a reference
	if start > 1 {
		if r, _ := utf8.DecodeLastRuneInString(line[:start-1]); isWordRune(r) {
			return "", false
		}
	}
	return line[start-1 : start], true
}

func byteOffset(line string, units int) int {
	off := 0
	for _, r := range line {
		if units <= 0 {
			break
		}
		units -= utf16.RuneLen(r)
		off += utf8.RuneLen(r)
	}
	return off
}

func isWordRune(r rune) bool {
	return r == '-' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// 📋 CompletionList converts a coordinator result to the protocol shape
func CompletionList(r provider.Result) *protocol.CompletionList {
	items := make([]protocol.CompletionItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, CompletionItem(it))
	}
	return &protocol.CompletionList{IsIncomplete: r.IsIncomplete, Items: items}
}

// CompletionItem converts one item
func CompletionItem(it item.Item) protocol.CompletionItem {
	kind := protocol.CompletionItemKindReference
	if it.Kind == item.KindMention {
		kind = protocol.CompletionItemKindText
	}
	detail := detailFor(it.Kind)

	ci := protocol.CompletionItem{
		Label:      it.Label,
		Kind:       &kind,
		Detail:     &detail,
		InsertText: stringPtrOrNil(it.InsertText),
		FilterText: stringPtrOrNil(it.FilterText),
		SortText:   stringPtrOrNil(it.SortText),
	}
	if it.Documentation != nil {
		ci.Documentation = protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: it.Documentation.Value,
		}
	}
	return ci
}

func detailFor(kind item.Kind) string {
	switch kind {
	case item.KindIssue:
		return "issue"
	case item.KindPullRequest:
		return "pull request"
	case item.KindMention:
		return "contributor"
	}
	return string(kind)
}

func stringPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
