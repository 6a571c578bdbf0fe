// Copyright 2014-2026 the variableserver authors.

// Package varserver implements the variable server core: the session state
// machine, the per-client worker thread, and the process-lifetime registry
// that ties them together: a map-mutex-guarded client registry, a
// goroutine-per-client handler that removes its session from the registry
// once its thread exits.
package varserver

import (
	"sync"

	"github.com/google/uuid"

	"github.com/nasa-trick/variableserver/internal/stdiomirror"
	"github.com/nasa-trick/variableserver/internal/vsconn"
	"github.com/nasa-trick/variableserver/internal/vsmetrics"
	"github.com/nasa-trick/variableserver/internal/vsref"
	"github.com/nasa-trick/variableserver/pkg/vslog"
)

// entry pairs one thread with the session it exclusively owns, the unit the
// registry actually tracks.
type entry struct {
	thread  *Thread
	session *Session
}

// Server is the process-lifetime registry of active variable server
// sessions, mirroring ron.Server's clients map and clientLock.
type Server struct {
	mm vsref.MemoryManager

	mu      sync.Mutex
	entries map[string]*entry

	logOn bool

	metrics *vsmetrics.Registry

	// defaultUpdateRate seeds every new session's update rate; 0 keeps
	// NewSession's own built-in default.
	defaultUpdateRate float64
}

// SetDefaultUpdateRate configures the update rate (in seconds) given to
// every session accepted from this point forward.
func (s *Server) SetDefaultUpdateRate(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultUpdateRate = seconds
}

// SetMetrics wires the registry (and every session it subsequently accepts)
// to a metrics registry. Call once at startup, before Accept is used.
func (s *Server) SetMetrics(m *vsmetrics.Registry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m
}

// NewServer creates an empty registry bound to mm, the memory manager
// collaborator every session's references resolve against.
func NewServer(mm vsref.MemoryManager) *Server {
	return &Server{
		mm:      mm,
		entries: make(map[string]*entry),
	}
}

// MemoryManager returns the registry's bound memory manager.
func (s *Server) MemoryManager() vsref.MemoryManager { return s.mm }

// Accept wires up a new client connection: constructs a Session and a
// Thread, registers them under a unique id and starts the thread's main
// loop in a new goroutine. It returns the session id for callers that want
// to address it later (tests, /status).
func (s *Server) Accept(conn vsconn.Connection) string {
	id := uuid.NewString()

	session := NewSession(s.mm, id)
	thread := NewThread(session, conn)

	s.mu.Lock()
	session.SetMetrics(s.metrics)
	if s.defaultUpdateRate > 0 {
		session.SetUpdateRate(s.defaultUpdateRate)
	}
	s.entries[id] = &entry{thread: thread, session: session}
	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(len(s.entries)))
		s.metrics.ConnectedThreads.Set(float64(len(s.entries)))
	}
	s.mu.Unlock()

	go func() {
		thread.Run()
		s.remove(id)
	}()

	vslog.Info("variable server: accepted client %v", id)
	return id
}

// remove drops an entry from the registry; called by the owning thread when
// its main loop exits (spec.md §4.5: "removes itself from the server map
// under the map mutex").
func (s *Server) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(len(s.entries)))
		s.metrics.ConnectedThreads.Set(float64(len(s.entries)))
	}
}

// GetSession returns the session registered under id, if any.
func (s *Server) GetSession(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	return e.session, true
}

// GetThread returns the thread registered under id, if any.
func (s *Server) GetThread(id string) (*Thread, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	return e.thread, true
}

// Sessions returns a snapshot slice of every currently registered session,
// for the metrics/status surface only -- never on the copy/write hot path.
func (s *Server) Sessions() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Session, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.session)
	}
	return out
}

// Sinks implements stdiomirror.SinkRegistry: every registered session is a
// candidate stdio subscriber, each deciding for itself (via send_stdio)
// whether to actually forward the line.
func (s *Server) Sinks() []stdiomirror.LineSink {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]stdiomirror.LineSink, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.session)
	}
	return out
}

// Snapshot implements vsmetrics.SnapshotSource: a point-in-time view of
// every registered session for the /status endpoint.
func (s *Server) Snapshot() []vsmetrics.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]vsmetrics.SessionSnapshot, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, vsmetrics.SessionSnapshot{
			ID:                e.session.ID(),
			State:             e.session.State().String(),
			CopyMode:          e.session.CopyMode().String(),
			WriteMode:         e.session.WriteMode().String(),
			Paused:            e.session.paused(),
			SubscriptionCount: e.session.SubscriptionCount(),
			ClientTag:         e.session.ClientTag(),
		})
	}
	return out
}

// SessionCount returns the number of currently registered sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// CopyDataScheduled runs copy_data_scheduled on every session whose
// next_tics has come due at tic, holding the map mutex for the duration of
// the tick so the registry can't be mutated mid-broadcast; each session
// still takes its own copy mutex underneath.
func (s *Server) CopyDataScheduled(tic uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.session.nextTics(false) <= tic {
			e.session.copyDataScheduled()
		}
	}
}

// CopyDataFreeze is CopyDataScheduled's freeze-frame counterpart, driven by
// freeze_next_tics instead of next_tics.
func (s *Server) CopyDataFreeze(tic uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.session.nextTics(true) <= tic {
			e.session.copyDataFreeze()
		}
	}
}

// CopyDataTopOfFrame runs copy_data_top_of_frame on every registered
// session, once per major frame, before any scheduled jobs.
func (s *Server) CopyDataTopOfFrame() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		e.session.copyDataTopOfFrame()
	}
}

// GetNextTics returns the minimum next_tics over every enabled session
// (pause state is not consulted), or math.MaxUint64 if none are enabled -- the scheduler coupling
// point spec.md §4.4 calls "the session exposes get_next_tics... when
// disabled both return +inf so the scheduler never picks them."
func (s *Server) GetNextTics() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	min := ^uint64(0)
	for _, e := range s.entries {
		if t := e.session.nextTics(false); t < min {
			min = t
		}
	}
	return min
}

// SetVarServerLogOn toggles structured per-command logging across every
// currently registered session.
func (s *Server) SetVarServerLogOn(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logOn = on
	for _, e := range s.entries {
		e.session.setLogOn(on)
	}
}
