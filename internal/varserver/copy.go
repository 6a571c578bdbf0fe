// Copyright 2014-2026 the variableserver authors.
package varserver

import "fmt"

// CopyDataAsync stages every reference under the copy mutex. It fails only
// if validate_address is on and a reference has gone invalid -- matching
// spec.md §4.4 exactly: "Fails only if a reference is invalid and address
// validation is on." Without validate_address, an invalid reference still
// stages (as a zero sentinel, per vsref.Reference.StageValue) and the
// session continues.
func (s *Session) CopyDataAsync() error {
	s.copyMu.Lock()
	defer s.copyMu.Unlock()

	for _, e := range s.refs {
		e.ref.StageValue()
		if s.validateAddress && !e.ref.Validate() {
			return fmt.Errorf("varserver: invalid address for %q", e.ref.Name())
		}
	}
	return nil
}

// copyDataScheduled stages every reference and advances next_tics, called
// by the registry's scheduled driver under the session's copy mutex.
func (s *Session) copyDataScheduled() {
	s.copyMu.Lock()
	defer s.copyMu.Unlock()

	for _, e := range s.refs {
		e.ref.StageValue()
	}
	s.nextTicsVal += s.frameMultiple
}

// copyDataFreeze is copyDataScheduled's freeze-frame counterpart.
func (s *Session) copyDataFreeze() {
	s.copyMu.Lock()
	defer s.copyMu.Unlock()

	for _, e := range s.refs {
		e.ref.StageValue()
	}
	s.freezeNextTicsVal += s.freezeFrameMultiple
}

// copyDataTopOfFrame stages every reference once per major frame, ahead of
// any scheduled jobs.
func (s *Session) copyDataTopOfFrame() {
	s.copyMu.Lock()
	defer s.copyMu.Unlock()

	for _, e := range s.refs {
		e.ref.StageValue()
	}
}

// disconnectReferences marks every reference invalid so a concurrent
// scheduled copy can't chase memory the session is about to release. Called
// when the session transitions to EXITING.
func (s *Session) disconnectReferences() {
	s.copyMu.Lock()
	defer s.copyMu.Unlock()

	for _, e := range s.refs {
		e.ref.Invalidate()
	}
	s.enabled = false
}
