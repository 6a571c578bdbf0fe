// Copyright 2014-2026 the variableserver authors.
package varserver

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/nasa-trick/variableserver/internal/vsconn"
	"github.com/nasa-trick/variableserver/internal/vsmetrics"
	"github.com/nasa-trick/variableserver/internal/vsref"
	"github.com/nasa-trick/variableserver/pkg/vslog"
)

// CopyMode selects when a session's references are staged from their live
// addresses.
type CopyMode int

const (
	CopyAsync CopyMode = iota
	CopyScheduled
	CopyTopOfFrame
)

func (m CopyMode) String() string {
	switch m {
	case CopyAsync:
		return "ASYNC"
	case CopyScheduled:
		return "SCHEDULED"
	case CopyTopOfFrame:
		return "TOP_OF_FRAME"
	}
	return "UNKNOWN"
}

// WriteMode selects when a staged value is promoted to write_ready and sent.
type WriteMode int

const (
	WriteAsync WriteMode = iota
	WriteWhenCopied
	WritePromote
)

func (m WriteMode) String() string {
	switch m {
	case WriteAsync:
		return "ASYNC"
	case WriteWhenCopied:
		return "WHEN_COPIED"
	case WritePromote:
		return "PROMOTE"
	}
	return "UNKNOWN"
}

// State is a VariableServerSession's lifecycle state.
type State int

const (
	StateNew State = iota
	StateReady
	StateRunning
	StatePaused
	StateExiting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateReady:
		return "READY"
	case StateRunning:
		return "RUNNING"
	case StatePaused:
		return "PAUSED"
	case StateExiting:
		return "EXITING"
	case StateClosed:
		return "CLOSED"
	}
	return "UNKNOWN"
}

const infiniteTics = ^uint64(0)

// refEntry pairs a bound reference with the units string reported for it,
// which starts as the memory manager's declared units and can be
// overridden by var_units. The name the client asked for is the
// reference's own Name.
type refEntry struct {
	ref   *vsref.Reference
	units string
}

// Session is a VariableServerSession: the per-client command handler and
// copy/write engine. A Thread drives its methods from its own main loop;
// Session itself never blocks on the network.
type Session struct {
	id string
	mm vsref.MemoryManager

	conn vsconn.Connection

	// copyMu is "the session's copy mutex" from spec.md §5: it serializes
	// any producer (async worker or scheduled sim thread) against the
	// consumer (write_data) and against disconnect_references.
	copyMu sync.Mutex
	refs   []*refEntry
	byName map[string]*refEntry

	stateMu sync.Mutex
	state   State
	exitCmd bool

	copyMode  CopyMode
	writeMode WriteMode

	enabled bool
	tics    uint64 // current scheduler tic, advanced externally by the registry driver

	frameMultiple uint64
	frameOffset   uint64
	nextTicsVal   uint64

	freezeFrameMultiple uint64
	freezeFrameOffset   uint64
	freezeNextTicsVal   uint64

	updateRate time.Duration

	validateAddress bool
	binaryFormat    bool
	binaryNoNames   bool
	byteswap        bool
	sendStdio       bool

	logOn bool

	clientTag string

	// metrics is nil in tests and anywhere the process isn't running a
	// metrics registry; every call site guards it.
	metrics *vsmetrics.Registry
}

// SetMetrics wires the session to a metrics registry so its frame and error
// counters are observable on /metrics. Optional: a nil registry leaves the
// session's counters untouched.
func (s *Session) SetMetrics(m *vsmetrics.Registry) { s.metrics = m }

// NewSession creates a session bound to mm, identified by id. It has no
// connection yet; bind attaches one once the listener accepts a client.
func NewSession(mm vsref.MemoryManager, id string) *Session {
	return &Session{
		id:            id,
		mm:            mm,
		byName:        make(map[string]*refEntry),
		state:         StateNew,
		copyMode:      CopyAsync,
		writeMode:     WriteAsync,
		updateRate:    100 * time.Millisecond,
		frameMultiple: 1,
		nextTicsVal:   infiniteTics,
		freezeNextTicsVal: infiniteTics,
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) bind(conn vsconn.Connection) { s.conn = conn }

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.state = st
}

// ready transitions NEW -> READY, idempotently.
func (s *Session) ready() {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.state == StateNew {
		s.state = StateReady
	}
}

func (s *Session) setLogOn(on bool) { s.logOn = on }

// GetExitCmd reports whether var_exit has been issued.
func (s *Session) GetExitCmd() bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.exitCmd
}

// --- Commands ---------------------------------------------------------

// Add resolves name against the memory manager and appends a Reference to
// the session's variable list. A resolve failure is a ResolveError: it is
// returned to the caller (so the command dispatcher can reply with a
// diagnostic frame) and the variable is not inserted.
func (s *Session) Add(name string) error {
	s.copyMu.Lock()
	defer s.copyMu.Unlock()

	if _, ok := s.byName[name]; ok {
		return nil // already subscribed; matches trick's idempotent var_add
	}

	b, err := s.mm.Resolve(name)
	if err != nil {
		return fmt.Errorf("vsref: variable not found: %v", err)
	}

	ref, err := vsref.NewReference(s.mm, name, b.Type(), b.Count())
	if err != nil {
		return err
	}

	e := &refEntry{ref: ref, units: b.Units()}
	s.refs = append(s.refs, e)
	s.byName[name] = e

	s.ready()
	if s.logOn {
		vslog.Info("varserver[%s]: add %q", s.clientTag, name)
	}
	return nil
}

// Remove drops name from the variable list, if present.
func (s *Session) Remove(name string) {
	s.copyMu.Lock()
	defer s.copyMu.Unlock()

	e, ok := s.byName[name]
	if !ok {
		return
	}
	delete(s.byName, name)

	for i, cand := range s.refs {
		if cand == e {
			s.refs = append(s.refs[:i], s.refs[i+1:]...)
			break
		}
	}
}

// Units overrides the reported engineering units for name. It affects only
// the units string var_list and send_sie_* report; no unit-conversion arithmetic is
// performed on the underlying values. send_sie_* treats units as metadata
// only, so a unit override here never touches the copied bytes.
func (s *Session) Units(name, units string) {
	s.copyMu.Lock()
	defer s.copyMu.Unlock()

	if e, ok := s.byName[name]; ok {
		e.units = units
	}
}

// Exit marks the session for exit; the owning thread observes GetExitCmd on
// its next loop iteration and tears down.
func (s *Session) Exit() {
	s.stateMu.Lock()
	s.exitCmd = true
	s.stateMu.Unlock()
}

// Pause transitions RUNNING -> PAUSED. write_data is skipped while paused.
func (s *Session) Pause() {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.state == StateRunning || s.state == StateReady {
		s.state = StatePaused
	}
}

// Unpause transitions PAUSED -> RUNNING.
func (s *Session) Unpause() {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.state == StatePaused {
		s.state = StateRunning
	}
}

func (s *Session) paused() bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state == StatePaused
}

func (s *Session) SetCopyMode(m CopyMode)   { s.copyMode = m }
func (s *Session) SetWriteMode(m WriteMode) { s.writeMode = m }

// SetFrameMultiple sets the scheduled copy period in tics. A zero multiple
// is clamped to 1 so cycle_tics stays >= 1, per the RateError rule.
func (s *Session) SetFrameMultiple(n uint64) {
	s.copyMu.Lock()
	defer s.copyMu.Unlock()

	if n == 0 {
		n = 1
	}
	s.frameMultiple = n
	s.enabled = true
	s.nextTicsVal = s.frameOffset
}

// SetFrameOffset sets the tic at which the first scheduled copy fires.
func (s *Session) SetFrameOffset(k uint64) {
	s.copyMu.Lock()
	defer s.copyMu.Unlock()

	s.frameOffset = k
	if s.enabled {
		s.nextTicsVal = k
	}
}

func (s *Session) SetFreezeFrameMultiple(n uint64) {
	s.copyMu.Lock()
	defer s.copyMu.Unlock()

	if n == 0 {
		n = 1
	}
	s.freezeFrameMultiple = n
	s.freezeNextTicsVal = s.freezeFrameOffset
}

func (s *Session) SetFreezeFrameOffset(k uint64) {
	s.copyMu.Lock()
	defer s.copyMu.Unlock()

	s.freezeFrameOffset = k
	s.freezeNextTicsVal = k
}

// SetUpdateRate sets the async worker's sleep interval in seconds. A
// non-positive rate is clamped to a small positive duration, the RateError
// rule ensuring cycle_tics stays >= 1.
func (s *Session) SetUpdateRate(seconds float64) {
	if seconds <= 0 {
		seconds = 0.001
	}
	s.updateRate = time.Duration(seconds * float64(time.Second))
}

func (s *Session) UpdateRate() time.Duration { return s.updateRate }

func (s *Session) SetBinaryFormat(on, nonames bool) {
	s.binaryFormat = on
	s.binaryNoNames = nonames
}

func (s *Session) SetByteswap(on bool) { s.byteswap = on }

func (s *Session) SetValidateAddress(on bool) { s.validateAddress = on }

// LogOn registers a dedicated named logger for this session, writing to
// stderr at INFO level, so its entries can be tailed or filtered
// independently of the server's own logging (spec.md §4.4's log_on, and the
// "one named logger per session" expansion in §9.1).
func (s *Session) LogOn() {
	s.logOn = true
	vslog.AddLogger(s.id, os.Stderr, vslog.INFO, true)
}

// LogOff tears down the session's dedicated logger.
func (s *Session) LogOff() {
	s.logOn = false
	vslog.DelLogger(s.id)
}

func (s *Session) SetSendStdio(on bool) { s.sendStdio = on }
func (s *Session) SendStdioEnabled() bool { return s.sendStdio }

func (s *Session) SetClientTag(tag string) {
	s.clientTag = tag
	if s.conn != nil {
		s.conn.SetClientTag(tag)
	}
}

func (s *Session) ClientTag() string { return s.clientTag }

// SubscriptionCount returns the number of variables the session is
// currently subscribed to.
func (s *Session) SubscriptionCount() int {
	s.copyMu.Lock()
	defer s.copyMu.Unlock()
	return len(s.refs)
}

// CopyMode reports the session's configured copy mode.
func (s *Session) CopyMode() CopyMode { return s.copyMode }

// WriteMode reports the session's configured write mode.
func (s *Session) WriteMode() WriteMode { return s.writeMode }

// nextTics returns the next scheduled tic for the normal or freeze cycle.
// A session with frame scheduling never configured returns infiniteTics so
// the registry's driver never picks it; once enabled, the due tic is
// reported regardless of which copy mode the session is currently in, so a
// session switched away from scheduled copy and back still resumes on
// schedule instead of losing its place.
func (s *Session) nextTics(freeze bool) uint64 {
	s.copyMu.Lock()
	defer s.copyMu.Unlock()

	if !s.enabled {
		return infiniteTics
	}
	if freeze {
		return s.freezeNextTicsVal
	}
	return s.nextTicsVal
}
