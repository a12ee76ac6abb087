/*
 * Copyright 2025 SREDiag Authors
 * Copyright 2023 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package logging is the levelled logger shared by quicklaunch packages.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Level selects which messages are printed.
type Level int32

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelNoPrint
)

// EnvLogLevel overrides the default level at start-up.
const EnvLogLevel = "QUICKLAUNCH_LOG_LEVEL"

var (
	level atomic.Int32

	magenta = string([]byte{27, 91, 57, 53, 109}) // Trace
	green   = string([]byte{27, 91, 57, 50, 109}) // Debug
	blue    = string([]byte{27, 91, 57, 52, 109}) // Info
	yellow  = string([]byte{27, 91, 57, 51, 109}) // Warn
	red     = string([]byte{27, 91, 57, 49, 109}) // Error
	reset   = string([]byte{27, 91, 48, 109})

	colors = []string{
		magenta,
		green,
		blue,
		yellow,
		red,
	}

	levelName = []string{
		"Trace",
		"Debug",
		"Info",
		"Warn",
		"Error",
	}
)

func init() {
	level.Store(int32(LevelWarn))
	if v := os.Getenv(EnvLogLevel); v != "" {
		if l, err := ParseLevel(v); err == nil {
			level.Store(int32(l))
		}
	}
}

// ParseLevel accepts a number (0..5) or a level name such as "info".
func ParseLevel(v string) (Level, error) {
	if n, err := strconv.Atoi(v); err == nil {
		if n < int(LevelTrace) || n > int(LevelNoPrint) {
			return LevelWarn, fmt.Errorf("log level %d out of range", n)
		}
		return Level(n), nil
	}
	for i, name := range levelName {
		if equalFold(name, v) {
			return Level(i), nil
		}
	}
	if equalFold(v, "none") || equalFold(v, "off") {
		return LevelNoPrint, nil
	}
	return LevelWarn, fmt.Errorf("unknown log level %q", v)
}

func equalFold(a, b string) bool {
	return bytes.EqualFold([]byte(a), []byte(b))
}

// SetLevel changes the level of every logger. The default level is Warn;
// the process env QUICKLAUNCH_LOG_LEVEL also sets it.
func SetLevel(l Level) {
	if l >= LevelTrace && l <= LevelNoPrint {
		level.Store(int32(l))
	}
}

// CurrentLevel returns the active level.
func CurrentLevel() Level {
	return Level(level.Load())
}

// Logger writes levelled lines prefixed with time, caller and name.
type Logger struct {
	name      string
	out       io.Writer
	callDepth int
	color     bool
	mu        sync.Mutex
}

// New returns a logger writing to out, or stdout when out is nil.
func New(name string, out io.Writer) *Logger {
	if out == nil {
		out = os.Stdout
	}
	return &Logger{
		name:      name,
		out:       out,
		callDepth: 3,
		color:     out == os.Stdout || out == os.Stderr,
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New("", io.Discard)
}

// OpenFile opens path for appending, creating its directory.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func (l *Logger) enabled(lv Level) bool {
	return l != nil && Level(level.Load()) <= lv
}

func (l *Logger) printf(lv Level, format string, a ...interface{}) {
	line := l.prefix(lv) + fmt.Sprintf(format, a...) + l.suffix() + "\n"
	l.write(line)
}

func (l *Logger) println(lv Level, v interface{}) {
	line := l.prefix(lv) + fmt.Sprint(v) + l.suffix() + "\n"
	l.write(line)
}

func (l *Logger) write(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := io.WriteString(l.out, line); err != nil {
		fmt.Fprintf(os.Stderr, "logger write failed: %v\n", err)
	}
}

func (l *Logger) Errorf(format string, a ...interface{}) {
	if l.enabled(LevelError) {
		l.printf(LevelError, format, a...)
	}
}

func (l *Logger) Error(v interface{}) {
	if l.enabled(LevelError) {
		l.println(LevelError, v)
	}
}

func (l *Logger) Warnf(format string, a ...interface{}) {
	if l.enabled(LevelWarn) {
		l.printf(LevelWarn, format, a...)
	}
}

func (l *Logger) Infof(format string, a ...interface{}) {
	if l.enabled(LevelInfo) {
		l.printf(LevelInfo, format, a...)
	}
}

func (l *Logger) Info(v interface{}) {
	if l.enabled(LevelInfo) {
		l.println(LevelInfo, v)
	}
}

func (l *Logger) Debugf(format string, a ...interface{}) {
	if l.enabled(LevelDebug) {
		l.printf(LevelDebug, format, a...)
	}
}

func (l *Logger) Tracef(format string, a ...interface{}) {
	if l.enabled(LevelTrace) {
		l.printf(LevelTrace, format, a...)
	}
}

func (l *Logger) suffix() string {
	if l.color {
		return reset
	}
	return ""
}

func (l *Logger) prefix(lv Level) string {
	var buffer [64]byte
	buf := bytes.NewBuffer(buffer[:0])
	if l.color {
		_, _ = buf.WriteString(colors[lv])
	}
	_, _ = buf.WriteString(levelName[lv])
	_ = buf.WriteByte(' ')
	_, _ = buf.WriteString(time.Now().Format("2006-01-02 15:04:05.999999"))
	_ = buf.WriteByte(' ')
	_, _ = buf.WriteString(l.location())
	_ = buf.WriteByte(' ')
	if l.name != "" {
		_, _ = buf.WriteString(l.name)
		_ = buf.WriteByte(' ')
	}
	return buf.String()
}

func (l *Logger) location() string {
	// location <- prefix <- printf <- Errorf etc. <- caller
	_, file, line, ok := runtime.Caller(l.callDepth + 1)
	if !ok {
		file = "???"
		line = 0
	}
	file = filepath.Base(file)
	return file + ":" + strconv.Itoa(line)
}
