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

// Package log prints completion results for humans while mirroring every
// line to zerolog.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/walteh/ghcomplete/pkg/item"
)

// 🎨 Display configuration
const (
	itemIndent   = 4  // spaces to indent item lines
	labelWidth   = 48 // width of the label column
	kindWidth    = 14 // width of the kind column
	maxLabelRune = labelWidth - 1
)

// 📦 RequestOperation describes one completion request being printed
type RequestOperation struct {
	Repo    string
	Kind    string
	Scope   string
	Trigger string
}

// 🎯 Logger writes completion output to a console and to zerolog
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
	current *RequestOperation
	started time.Time
	items   int
}

// 🏭 New creates a logger printing to console. Structured logs go to stderr.
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

func kindStyle(kind item.Kind) (string, color.Attribute, string) {
	switch kind {
	case item.KindIssue:
		return "●", color.FgGreen, "issue"
	case item.KindPullRequest:
		return "⇄", color.FgBlue, "pull request"
	case item.KindMention:
		return "@", color.FgCyan, "contributor"
	}
	return "-", color.FgYellow, string(kind)
}

// 📝 formatItem formats one completion item for display
func (l *Logger) formatItem(it item.Item) string {
	symbol, symbolColor, kind := kindStyle(it.Kind)

	label := []rune(it.Label)
	if len(label) > maxLabelRune {
		label = append(label[:maxLabelRune-1], '…')
	}

	updated := ""
	if it.UpdatedAt != nil {
		updated = it.UpdatedAt.UTC().Format("2006-01-02")
	}

	return fmt.Sprintf("%*s%s %-*s %s %s",
		itemIndent, "",
		color.New(symbolColor).Sprint(symbol),
		labelWidth, string(label),
		color.New(symbolColor).Sprint(fmt.Sprintf("%-*s", kindWidth, kind)),
		color.New(color.Faint).Sprint(updated))
}

// 📝 LogItem prints one completion item
func (l *Logger) LogItem(ctx context.Context, it item.Item) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items++
	fmt.Fprintln(l.console, l.formatItem(it))

	l.zlog.Debug().
		Str("kind", it.Kind.String()).
		Str("label", it.Label).
		Str("insert", it.InsertText).
		Str("sort", it.SortText).
		Msg("completion item")
}

// 📝 StartRequest prints the header of a request
func (l *Logger) StartRequest(ctx context.Context, op RequestOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.current = &op
	l.started = time.Now()
	l.items = 0

	fmt.Fprintf(l.console, "[completing %s]\n", color.New(color.FgCyan).Sprint(op.Repo))
	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(op.Kind),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(op.Trigger))

	l.zlog.Info().
		Str("repo", op.Repo).
		Str("kind", op.Kind).
		Str("scope", op.Scope).
		Msg("starting completion request")
}

// 📝 EndRequest closes the current request
func (l *Logger) EndRequest(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return
	}

	l.zlog.Info().
		Str("repo", l.current.Repo).
		Str("kind", l.current.Kind).
		Int("items", l.items).
		Dur("elapsed", time.Since(l.started)).
		Msg("completion request complete")

	l.current = nil
	l.items = 0
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("ghcomplete")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

func (l *Logger) line(prefix string, attr color.Attribute, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "%s %s\n", prefix, color.New(attr).Sprint(msg))
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.line("✅", color.FgGreen, msg)
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.line("⚠️ ", color.FgYellow, msg)
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.line("❌", color.FgRed, msg)
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.line("ℹ️ ", color.FgCyan, msg)
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...any) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...any) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...any) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...any) {
	l.Success(fmt.Sprintf(format, args...))
}
