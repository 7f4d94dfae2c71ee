package engine

import (
	"fmt"
	"testing"

	"github.com/vovakirdan/luads/internal/timing"
)

type memoryLog struct {
	runs []memoryRun
}

type memoryRun struct {
	script, name, outcome, message string
	ticks                          uint64
}

func (m *memoryLog) BeginRun(script, name string) (string, error) {
	m.runs = append(m.runs, memoryRun{script: script, name: name, outcome: "running"})
	return fmt.Sprint(len(m.runs) - 1), nil
}

func (m *memoryLog) FinishRun(id, outcome, message string, ticks uint64) error {
	var i int
	if _, err := fmt.Sscan(id, &i); err != nil {
		return err
	}
	m.runs[i].outcome = outcome
	m.runs[i].message = message
	m.runs[i].ticks = ticks
	return nil
}

func TestRecordLifecycle(t *testing.T) {
	src := scripts{
		"main":  loopScript,
		"crash": `render() render() error("kaput")`,
	}
	e, _ := newTestEngine(t, timing.Unlimited, timing.Unlimited, src)
	rl := &memoryLog{}
	finish := Record(e, rl)

	mustLoad(t, e, "main")
	e.Iterate()
	e.Iterate()
	e.Submit(Restart())
	e.Iterate()

	e.Submit(LoadScript("crash"))
	for i := 0; i < 5; i++ {
		e.Iterate()
	}

	e.Submit(LoadScript("missing"))
	e.Iterate()

	finish()

	expected := []memoryRun{
		{script: "main", name: "main", outcome: "restarted", ticks: 2},
		{script: "main", name: "main", outcome: "restarted", ticks: 1},
		{script: "crash", name: "crash", outcome: "errored", ticks: 3},
	}
	if len(rl.runs) != len(expected) {
		t.Fatalf("recorded %d runs, expected %d: %+v", len(rl.runs), len(expected), rl.runs)
	}
	for i, want := range expected {
		got := rl.runs[i]
		if got.script != want.script || got.outcome != want.outcome || got.ticks != want.ticks {
			t.Errorf("run %d = %+v, expected %+v", i, got, want)
		}
	}
	if rl.runs[2].message == "" {
		t.Error("errored run should carry the error message")
	}
}

func TestRecordQuit(t *testing.T) {
	e, _ := newTestEngine(t, timing.Unlimited, timing.Unlimited, scripts{"main": loopScript})
	rl := &memoryLog{}
	finish := Record(e, rl)

	mustLoad(t, e, "main")
	e.Iterate()
	finish()
	finish()

	if len(rl.runs) != 1 || rl.runs[0].outcome != "quit" || rl.runs[0].ticks != 1 {
		t.Errorf("runs = %+v", rl.runs)
	}
}
