// Copyright 2014-2026 the variableserver authors.
package stdiomirror

import (
	"os/exec"
	"sync"
	"testing"
	"time"
)

type fakeSink struct {
	mu    sync.Mutex
	lines []string
}

func (f *fakeSink) SendStdioLine(line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, line)
	return nil
}

func (f *fakeSink) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.lines))
	copy(out, f.lines)
	return out
}

type fakeRegistry struct {
	sinks []LineSink
}

func (r fakeRegistry) Sinks() []LineSink { return r.sinks }

func TestMirrorFansOutLines(t *testing.T) {
	sink := &fakeSink{}
	reg := fakeRegistry{sinks: []LineSink{sink}}

	cmd := exec.Command("/bin/echo", "hello from the child")
	m, err := Start(cmd, reg)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop()

	deadline := time.After(2 * time.Second)
	for {
		if len(sink.snapshot()) > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for mirrored line")
		case <-time.After(10 * time.Millisecond):
		}
	}

	lines := sink.snapshot()
	if lines[0] != "hello from the child" {
		t.Fatalf("lines[0] = %q, want %q", lines[0], "hello from the child")
	}
}
