// Copyright 2014-2026 the variableserver authors.
package varserver

import (
	"sync"
	"time"

	"github.com/nasa-trick/variableserver/internal/vsconn"
	"github.com/nasa-trick/variableserver/pkg/vslog"
)

// ThreadState is a VariableServerThread's handshake state.
type ThreadState int

const (
	ThreadConnectionPending ThreadState = iota
	ThreadConnectionSuccess
	ThreadConnectionFail
)

// Thread is a VariableServerThread: it brings up the connection, signals
// waiters, runs the session's main loop, and tears down. Grounded in the
// teacher's clientHandler goroutine-per-connection shape, generalized from
// a gob-framed command channel to the variable server's line-oriented
// command/value protocol.
type Thread struct {
	session *Session
	conn    vsconn.Connection

	mu        sync.Mutex
	state     ThreadState
	accepted  chan struct{}
	acceptedOnce sync.Once

	// restartPause preserves the session's pause state across a checkpoint
	// restart: Restart holds this mutex while it revalidates the session's
	// references, per spec.md §4.5.
	restartPause sync.Mutex
}

// NewThread constructs a thread for session over conn. The connection is
// handed down to the session -- "the server surrenders the connection to
// the thread at spawn time" and the thread's session in turn owns it, per
// spec.md §3's ownership note.
func NewThread(session *Session, conn vsconn.Connection) *Thread {
	session.bind(conn)
	return &Thread{
		session:  session,
		conn:     conn,
		state:    ThreadConnectionPending,
		accepted: make(chan struct{}),
	}
}

// State returns the thread's current handshake state.
func (t *Thread) State() ThreadState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Thread) setState(st ThreadState) {
	t.mu.Lock()
	t.state = st
	t.mu.Unlock()
	t.acceptedOnce.Do(func() { close(t.accepted) })
}

// WaitForAccept blocks until the connection handshake resolves to
// CONNECTION_SUCCESS or CONNECTION_FAIL.
func (t *Thread) WaitForAccept() ThreadState {
	<-t.accepted
	return t.State()
}

// Run performs the handshake, then drives the session's main loop until
// exit, then tears down. It is meant to be called in its own goroutine.
func (t *Thread) Run() {
	if err := t.conn.Start(); err != nil {
		vslog.Error("varserver: connection start failed: %v", err)
		t.setState(ThreadConnectionFail)
		t.conn.Disconnect()
		return
	}
	t.setState(ThreadConnectionSuccess)

	clean := t.mainLoop()
	if !clean && t.session.metrics != nil {
		t.session.metrics.ConnectionResets.Inc()
	}

	t.session.setState(StateExiting)
	t.session.disconnectReferences()
	if t.session.logOn {
		t.session.LogOff()
	}
	t.conn.Disconnect()
	t.session.setState(StateClosed)
}

// mainLoop implements the five-step loop from spec.md §4.5. It returns true
// for a clean exit (var_exit or a graceful peer close) and false for an
// abnormal termination (copy/write failure, transport error).
func (t *Thread) mainLoop() bool {
	s := t.session

	for {
		if s.GetExitCmd() {
			return true
		}

		n, err := s.HandleMessage()
		if err != nil {
			return false
		}
		if n == -1 {
			return true
		}

		if s.copyMode == CopyAsync && !s.paused() {
			if err := s.CopyDataAsync(); err != nil {
				vslog.Warn("varserver[%s]: %v", s.ClientTag(), err)
				return false
			}
		}

		if s.writeMode == WriteAsync || (s.writeMode == WriteWhenCopied && s.copyMode == CopyAsync) {
			if !s.paused() {
				if err := s.WriteData(); err != nil {
					vslog.Warn("varserver[%s]: write failed: %v", s.ClientTag(), err)
					return false
				}
			}
		}

		time.Sleep(s.UpdateRate())
	}
}

// Restart acquires restartPause, preserving the session's pause state,
// revalidates every reference, then releases the mutex and restores the
// prior pause -- spec.md §4.5's restart/checkpoint contract.
func (t *Thread) Restart() {
	t.restartPause.Lock()
	defer t.restartPause.Unlock()

	wasPaused := t.session.paused()

	t.session.copyMu.Lock()
	for _, e := range t.session.refs {
		e.ref.Validate()
	}
	t.session.copyMu.Unlock()

	if wasPaused {
		t.session.Pause()
	} else {
		t.session.Unpause()
	}
}
