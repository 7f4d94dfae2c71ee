// Package console holds the lines a guest script prints and the errors the
// execution core reports, tagged with a severity.
package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Line is one console entry.
type Line struct {
	Level log.Level
	Text  string
	At    time.Time
}

// String formats the line the way the shell shows it.
func (l Line) String() string {
	return fmt.Sprintf("%s %s", strings.ToUpper(l.Level.String()), l.Text)
}

// LevelFromInt maps the numeric log_level setting onto a severity:
// 0 debug, 1 info, 2 warn, 3 error. Out-of-range values are clamped.
func LevelFromInt(n int) log.Level {
	switch {
	case n <= 0:
		return log.DebugLevel
	case n == 1:
		return log.InfoLevel
	case n == 2:
		return log.WarnLevel
	default:
		return log.ErrorLevel
	}
}

// IntFromLevel is the inverse of LevelFromInt.
func IntFromLevel(l log.Level) int {
	switch {
	case l <= log.DebugLevel:
		return 0
	case l <= log.InfoLevel:
		return 1
	case l <= log.WarnLevel:
		return 2
	default:
		return 3
	}
}

// Buffer is an ordered, append-only list of lines. Lines below the level
// threshold are discarded on append. When a retention limit is set, the
// oldest lines are dropped once it is exceeded.
type Buffer struct {
	lines  []Line
	level  log.Level
	limit  int
	mirror *log.Logger
	now    func() time.Time
}

// New creates a buffer keeping at most limit lines (0 keeps everything).
// Accepted lines are also written to mirror when it is not nil.
func New(limit int, mirror *log.Logger) *Buffer {
	return &Buffer{
		level:  log.InfoLevel,
		limit:  limit,
		mirror: mirror,
		now:    time.Now,
	}
}

// SetLevel changes the threshold. It affects later appends only.
func (b *Buffer) SetLevel(level log.Level) {
	b.level = level
}

// Level returns the current threshold.
func (b *Buffer) Level() log.Level {
	return b.level
}

// Append adds a line if level passes the threshold and reports whether it
// was kept.
func (b *Buffer) Append(level log.Level, text string) bool {
	if level < b.level {
		return false
	}
	b.lines = append(b.lines, Line{Level: level, Text: text, At: b.now()})
	if b.limit > 0 && len(b.lines) > b.limit {
		drop := len(b.lines) - b.limit
		b.lines = append(b.lines[:0], b.lines[drop:]...)
	}
	if b.mirror != nil {
		b.mirror.Log(level, text)
	}
	return true
}

// Logf appends a formatted line.
func (b *Buffer) Logf(level log.Level, format string, args ...any) bool {
	return b.Append(level, fmt.Sprintf(format, args...))
}

// Lines returns a copy of the buffered lines, oldest first.
func (b *Buffer) Lines() []Line {
	out := make([]Line, len(b.lines))
	copy(out, b.lines)
	return out
}

// Tail returns up to n of the newest lines.
func (b *Buffer) Tail(n int) []Line {
	if n <= 0 {
		return nil
	}
	start := len(b.lines) - n
	if start < 0 {
		start = 0
	}
	out := make([]Line, len(b.lines)-start)
	copy(out, b.lines[start:])
	return out
}

// Count returns how many buffered lines have exactly the given level.
func (b *Buffer) Count(level log.Level) int {
	n := 0
	for _, l := range b.lines {
		if l.Level == level {
			n++
		}
	}
	return n
}

// Len returns the number of buffered lines.
func (b *Buffer) Len() int {
	return len(b.lines)
}

// Clear removes every line. The threshold is kept.
func (b *Buffer) Clear() {
	b.lines = nil
}
