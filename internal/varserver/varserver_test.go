// Copyright 2014-2026 the variableserver authors.
package varserver

import (
	"encoding/binary"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nasa-trick/variableserver/internal/memmgr"
	"github.com/nasa-trick/variableserver/internal/vsconn"
	"github.com/nasa-trick/variableserver/internal/vsref"
)

func newTestServer(t *testing.T) (*Server, *memmgr.Manager) {
	t.Helper()
	mm := memmgr.New()
	return NewServer(mm), mm
}

func setInt(mm *memmgr.Manager, name string, v int32) {
	mm.Declare(name, vsref.Int(), 1, "")
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(v))
	mm.Set(name, buf)
}

// S1: subscribe/read int.
func TestScenarioSubscribeReadInt(t *testing.T) {
	_, mm := newTestServer(t)
	setInt(mm, "x", 5)

	session := NewSession(mm, "s1")
	conn := vsconn.NewMockConnection(4)
	session.bind(conn)

	if err := session.Add("x"); err != nil {
		t.Fatal(err)
	}
	if err := session.Send(); err != nil {
		t.Fatal(err)
	}

	frame := <-conn.Sent()
	fields := strings.Split(strings.TrimRight(string(frame), "\n"), "\t")
	if len(fields) != 3 {
		t.Fatalf("frame = %q, want 3 fields", frame)
	}
	if fields[0] != "0" {
		t.Fatalf("msg id = %q, want 0", fields[0])
	}
	if fields[2] != "5" {
		t.Fatalf("value = %q, want 5", fields[2])
	}
}

// S2: array.
func TestScenarioArray(t *testing.T) {
	_, mm := newTestServer(t)
	mm.Declare("a", vsref.ArrayOf(vsref.Int()), 5, "")
	buf := make([]byte, 20)
	for i, v := range []int32{1, 2, 3, 4, 5} {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
	}
	mm.Set("a", buf)

	session := NewSession(mm, "s2")
	conn := vsconn.NewMockConnection(4)
	session.bind(conn)

	session.Add("a")
	session.Send()

	frame := <-conn.Sent()
	fields := strings.Split(strings.TrimRight(string(frame), "\n"), "\t")
	if fields[2] != "1,2,3,4,5" {
		t.Fatalf("value = %q, want 1,2,3,4,5", fields[2])
	}
}

// S4: exit removes the session from the registry after one final reply.
func TestScenarioExit(t *testing.T) {
	server, mm := newTestServer(t)
	setInt(mm, "x", 1)

	conn := vsconn.NewMockConnection(4)
	id := server.Accept(conn)

	conn.Feed(`trick.var_add("x")`)
	conn.Feed(`trick.var_exit`)

	select {
	case <-conn.Sent():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a value frame")
	}

	deadline := time.After(2 * time.Second)
	for {
		if _, ok := server.GetSession(id); !ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("session was never removed from the registry")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// S5: handshake failure never registers a session.
func TestScenarioHandshakeFailure(t *testing.T) {
	session := NewSession(memmgr.New(), "s5")
	conn := vsconn.NewMockConnection(1)
	thread := NewThread(session, failingConn{conn})

	go thread.Run()

	if st := thread.WaitForAccept(); st != ThreadConnectionFail {
		t.Fatalf("state = %v, want CONNECTION_FAIL", st)
	}
}

type failingConn struct {
	*vsconn.MockConnection
}

func (f failingConn) Start() error { return errStartFailed }

var errStartFailed = errors.New("start failed")

// Invariant 5: once EXITING, further scheduled copies are no-ops.
func TestInvariantNoopAfterExiting(t *testing.T) {
	_, mm := newTestServer(t)
	setInt(mm, "x", 1)

	session := NewSession(mm, "inv5")
	conn := vsconn.NewMockConnection(4)
	session.bind(conn)
	session.Add("x")
	session.SetCopyMode(CopyScheduled)
	session.SetFrameMultiple(1)

	session.setState(StateExiting)
	session.disconnectReferences()

	session.copyDataScheduled()

	// Staging after disconnect must not resurrect the reference: the value
	// frame it would produce is the zero sentinel, not the live value.
	session.copyMu.Lock()
	ref := session.refs[0].ref
	session.copyMu.Unlock()

	if !ref.IsInvalid() {
		t.Fatal("expected reference to stay invalid after disconnectReferences")
	}
}

// Invariant 1: next_tics never falls behind the current tic for an
// enabled, unpaused session.
func TestInvariantNextTicsNeverBehind(t *testing.T) {
	_, mm := newTestServer(t)
	setInt(mm, "x", 1)

	s := NewSession(mm, "inv1")
	s.bind(vsconn.NewMockConnection(4))
	s.Add("x")
	s.SetCopyMode(CopyScheduled)
	s.SetFrameMultiple(5)

	for tic := uint64(0); tic < 50; tic++ {
		if s.nextTics(false) <= tic {
			s.copyDataScheduled()
		}
		if s.nextTics(false) < tic {
			t.Fatalf("next_tics %d fell behind current tic %d", s.nextTics(false), tic)
		}
	}
}

// Invariant 6: one session's failure doesn't perturb another's scheduling.
func TestInvariantIsolatedFailure(t *testing.T) {
	server, mm := newTestServer(t)
	setInt(mm, "x", 1)
	setInt(mm, "y", 2)

	s1 := NewSession(mm, "a")
	s1.bind(vsconn.NewMockConnection(4))
	s1.Add("x")
	s1.SetCopyMode(CopyScheduled)
	s1.SetFrameMultiple(2)
	s1.enabled = true

	s2 := NewSession(mm, "b")
	s2.bind(vsconn.NewMockConnection(4))
	s2.Add("y")
	s2.SetCopyMode(CopyScheduled)
	s2.SetFrameMultiple(3)
	s2.enabled = true

	server.mu.Lock()
	server.entries["a"] = &entry{session: s1}
	server.entries["b"] = &entry{session: s2}
	server.mu.Unlock()

	before := s2.nextTicsVal

	s1.setState(StateExiting)
	s1.disconnectReferences()

	server.CopyDataScheduled(0)

	if s2.nextTicsVal == before && s2.frameMultiple != 0 {
		// s2 should have advanced independently of s1's failure.
		t.Fatalf("session b's next_tics did not advance: %d", s2.nextTicsVal)
	}
}
