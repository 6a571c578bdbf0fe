// Copyright 2014-2026 the variableserver authors.

// Package stdiomirror wraps a child process in a pty and fans its combined
// stdout/stderr out to every subscriber with send_stdio enabled, as
// message-id-5 frames.
package stdiomirror

import (
	"bufio"
	"io"
	"os/exec"
	"sync"

	"github.com/kr/pty"

	"github.com/nasa-trick/variableserver/pkg/vslog"
)

// LineSink receives one captured stdio line. *varserver.Session satisfies
// this through its SendStdioLine method; kept as an interface here so
// stdiomirror doesn't import varserver.
type LineSink interface {
	SendStdioLine(line string) error
}

// SinkRegistry supplies the current set of subscribers. *varserver.Server
// satisfies it via its Sinks method, which returns every registered session.
type SinkRegistry interface {
	Sinks() []LineSink
}

// Mirror owns one child process's pty and mirrors its output line by line.
type Mirror struct {
	cmd *exec.Cmd
	tty io.ReadWriteCloser

	mu   sync.Mutex
	done bool
}

// Start launches cmd under a pty and begins mirroring its combined
// stdout/stderr to reg's current subscribers, one goroutine per Mirror.
// It returns once the child is running; mirroring continues in the
// background until the child exits or Stop is called.
func Start(cmd *exec.Cmd, reg SinkRegistry) (*Mirror, error) {
	tty, err := pty.Start(cmd)
	if err != nil {
		return nil, err
	}

	m := &Mirror{cmd: cmd, tty: tty}
	go m.pump(reg)
	return m, nil
}

func (m *Mirror) pump(reg SinkRegistry) {
	scanner := bufio.NewScanner(m.tty)
	for scanner.Scan() {
		line := scanner.Text()
		for _, sink := range reg.Sinks() {
			if err := sink.SendStdioLine(line); err != nil {
				vslog.Warn("stdiomirror: send to subscriber failed: %v", err)
			}
		}
	}

	m.mu.Lock()
	m.done = true
	m.mu.Unlock()
}

// Stop kills the child process and closes its pty.
func (m *Mirror) Stop() error {
	if m.cmd.Process != nil {
		m.cmd.Process.Kill()
	}
	return m.tty.Close()
}

// Wait blocks until the child process exits.
func (m *Mirror) Wait() error {
	return m.cmd.Wait()
}

// Done reports whether the pump goroutine has observed EOF on the pty.
func (m *Mirror) Done() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}
