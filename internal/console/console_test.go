package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestAppendRespectsLevel(t *testing.T) {
	b := New(0, nil)
	b.SetLevel(log.WarnLevel)

	if b.Append(log.InfoLevel, "hidden") {
		t.Error("info line kept with warn threshold")
	}
	if !b.Append(log.WarnLevel, "shown") {
		t.Error("warn line dropped with warn threshold")
	}
	if !b.Append(log.ErrorLevel, "boom") {
		t.Error("error line dropped with warn threshold")
	}

	lines := b.Lines()
	if len(lines) != 2 {
		t.Fatalf("Len = %d, expected 2", len(lines))
	}
	if lines[0].Text != "shown" || lines[1].Text != "boom" {
		t.Errorf("lines out of order: %+v", lines)
	}
}

func TestRetentionLimit(t *testing.T) {
	b := New(3, nil)
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		b.Append(log.InfoLevel, s)
	}

	if b.Len() != 3 {
		t.Fatalf("Len() = %d, expected 3", b.Len())
	}
	var got []string
	for _, l := range b.Lines() {
		got = append(got, l.Text)
	}
	if strings.Join(got, "") != "cde" {
		t.Errorf("kept %v, expected the three newest lines", got)
	}
}

func TestClearKeepsLevel(t *testing.T) {
	b := New(0, nil)
	b.SetLevel(log.ErrorLevel)
	b.Append(log.ErrorLevel, "x")
	b.Clear()

	if b.Len() != 0 {
		t.Errorf("Len() after Clear = %d", b.Len())
	}
	if b.Level() != log.ErrorLevel {
		t.Errorf("Level() after Clear = %v", b.Level())
	}
}

func TestTailAndCount(t *testing.T) {
	b := New(0, nil)
	b.Append(log.InfoLevel, "one")
	b.Append(log.ErrorLevel, "two")
	b.Append(log.InfoLevel, "three")

	tail := b.Tail(2)
	if len(tail) != 2 || tail[0].Text != "two" || tail[1].Text != "three" {
		t.Errorf("Tail(2) = %+v", tail)
	}
	if len(b.Tail(10)) != 3 {
		t.Error("Tail larger than buffer should return everything")
	}
	if b.Tail(0) != nil {
		t.Error("Tail(0) should be nil")
	}
	if b.Count(log.ErrorLevel) != 1 || b.Count(log.InfoLevel) != 2 {
		t.Errorf("Count mismatch: error=%d info=%d", b.Count(log.ErrorLevel), b.Count(log.InfoLevel))
	}
}

func TestLinesIsACopy(t *testing.T) {
	b := New(0, nil)
	b.Append(log.InfoLevel, "orig")
	lines := b.Lines()
	lines[0].Text = "mutated"

	if b.Lines()[0].Text != "orig" {
		t.Error("Lines() exposed internal storage")
	}
}

func TestMirror(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)

	b := New(0, logger)
	b.Append(log.InfoLevel, "hello from guest")
	b.SetLevel(log.ErrorLevel)
	b.Append(log.InfoLevel, "filtered")

	out := buf.String()
	if !strings.Contains(out, "hello from guest") {
		t.Errorf("mirror output %q missing line", out)
	}
	if strings.Contains(out, "filtered") {
		t.Errorf("mirror output %q contains a filtered line", out)
	}
}

func TestLevelFromInt(t *testing.T) {
	tests := []struct {
		in       int
		expected log.Level
	}{
		{-3, log.DebugLevel},
		{0, log.DebugLevel},
		{1, log.InfoLevel},
		{2, log.WarnLevel},
		{3, log.ErrorLevel},
		{9, log.ErrorLevel},
	}
	for _, tc := range tests {
		if got := LevelFromInt(tc.in); got != tc.expected {
			t.Errorf("LevelFromInt(%d) = %v, expected %v", tc.in, got, tc.expected)
		}
	}
}

func TestIntFromLevelRoundTrip(t *testing.T) {
	for n := 0; n <= 3; n++ {
		if got := IntFromLevel(LevelFromInt(n)); got != n {
			t.Errorf("IntFromLevel(LevelFromInt(%d)) = %d", n, got)
		}
	}
}
