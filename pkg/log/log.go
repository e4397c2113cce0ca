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

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	unitIndent  = 4  // spaces to indent unit entries
	pathWidth   = 40 // width for the source path
	kindWidth   = 6  // width for file/dir
	statusWidth = 9  // width for status text
)

// 🎯 UnitOperation is one finished (or skipped) transfer unit
type UnitOperation struct {
	Path     string // source path relative to the batch root
	IsDir    bool
	Status   string // done, error, skipped
	DestName string // resolved destination name when it differs
	Bytes    int64
	Reason   string // short failure cause
}

// 📦 BatchOperation describes the batch being run
type BatchOperation struct {
	ID          string
	Source      string
	Destination string
	Mode        string
	Units       int
	TotalBytes  int64
}

// 🎯 Logger prints colored console lines and mirrors them to a zerolog logger
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
	current *BatchOperation
	units   []UnitOperation
}

// 🏭 New creates a console logger
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

type contextKey struct{}

// FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

func (l *Logger) formatUnit(op UnitOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	switch op.Status {
	case "done":
		symbol = '✓'
		symbolColor = color.FgGreen
		if op.DestName != "" {
			symbol = '⟳'
			symbolColor = color.FgBlue
		}
	case "error":
		symbol = '✗'
		symbolColor = color.FgRed
	case "skipped":
		symbol = '-'
		symbolColor = color.FgYellow
	default:
		symbol = '•'
		symbolColor = color.FgCyan
	}

	kind := "file"
	kindColor := color.FgBlue
	if op.IsDir {
		kind = "dir"
		kindColor = color.FgCyan
	}

	line := fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", unitIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", pathWidth, op.Path),
		color.New(kindColor).Sprint(fmt.Sprintf("%-*s", kindWidth, kind)),
		fmt.Sprintf("%-*s", statusWidth, op.Status))

	switch {
	case op.Reason != "":
		line += color.New(color.FgRed).Sprint(op.Reason)
	case op.DestName != "":
		line += color.New(color.Faint).Sprint("→ " + op.DestName)
	case !op.IsDir && op.Status == "done":
		line += color.New(color.Faint).Sprint(humanize.Bytes(uint64(max(op.Bytes, 0))))
	}
	return line
}

// 📝 LogUnit prints one unit line
func (l *Logger) LogUnit(ctx context.Context, op UnitOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.units = append(l.units, op)
	fmt.Fprintln(l.console, l.formatUnit(op))

	ev := l.zlog.Info()
	if op.Status == "error" {
		ev = l.zlog.Warn()
	}
	ev.Str("path", op.Path).
		Bool("dir", op.IsDir).
		Str("status", op.Status).
		Str("dest_name", op.DestName).
		Int64("bytes", op.Bytes).
		Str("reason", op.Reason).
		Msg("unit finished")
}

// 📝 StartBatch prints the batch header
func (l *Logger) StartBatch(ctx context.Context, op BatchOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.current = &op
	l.units = nil

	fmt.Fprintf(l.console, "[%s %s]\n", op.Mode, color.New(color.FgCyan).Sprint(op.Destination))

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(op.Source),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprintf("%d units, %s", op.Units, humanize.Bytes(uint64(max(op.TotalBytes, 0)))))

	l.zlog.Info().
		Str("batch", op.ID).
		Str("source", op.Source).
		Str("destination", op.Destination).
		Str("mode", op.Mode).
		Int("units", op.Units).
		Int64("total_bytes", op.TotalBytes).
		Msg("starting batch")
}

// 📝 EndBatch closes the current batch
func (l *Logger) EndBatch(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return
	}

	l.zlog.Info().
		Str("batch", l.current.ID).
		Int("logged_units", len(l.units)).
		Msg("batch complete")

	l.current = nil
	l.units = nil
}

// LogNewline prints an empty line
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// Header prints a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("batchxfer")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// Success prints a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// Warning prints a warning
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// Error prints an error
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// Info prints an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
