// Copyright 2014-2026 the variableserver authors.

// Package memmgr is a concrete, in-module stand-in for the memory manager
// that spec.md treats purely as an external collaborator. It exists so
// internal/vsref and internal/varserver are exercisable and testable
// without a real simulation engine wired in: a name registry in which each
// declared variable has its own []byte storage, with fully-qualified names
// (dotted field paths, constant array subscripts) stored as flat strings,
// plus explicit Invalidate/Replace operations that simulate the
// address churn a checkpoint restart produces in the real system.
package memmgr

import (
	"fmt"
	"sync"

	"github.com/nasa-trick/variableserver/internal/vsref"
)

// entry is one declared variable's storage and metadata.
type entry struct {
	typ   vsref.Type
	count int
	units string
	data  []byte
}

func (e *entry) Type() vsref.Type { return e.typ }
func (e *entry) Count() int       { return e.count }
func (e *entry) Units() string    { return e.units }

func (e *entry) Read(dst []byte) {
	copy(dst, e.data)
}

func (e *entry) Write(src []byte) {
	copy(e.data, src)
}

// Manager is an in-memory name registry implementing vsref.MemoryManager.
// Names are flat strings; dotted field paths and array subscripts (e.g.
// "veh.state.pos[2]") are just names like any other -- callers declare
// whatever fully-qualified strings the simulation would expose, and Manager
// does no path parsing of its own. This mirrors how the real memory manager
// already resolves a fully-qualified name to one address in a single
// lookup; path traversal is its concern, not vsref's.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// New returns an empty Manager.
func New() *Manager {
	return &Manager{entries: make(map[string]*entry)}
}

// Declare registers name as a variable of the given type, element count
// (1 for a scalar) and engineering units. It replaces any prior declaration
// under the same name with fresh storage -- existing Bindings resolved
// before the call keep pointing at the old storage, which is exactly the
// "address changed under a live reference" scenario restart revalidation
// exists to catch.
func (m *Manager) Declare(name string, typ vsref.Type, count int, units string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[name] = &entry{
		typ:   typ,
		count: count,
		units: units,
		data:  make([]byte, typ.ElemSize()*count),
	}
}

// Set writes raw bytes directly into a declared variable's storage, for
// test setup and for a real caller driving simulated state changes.
func (m *Manager) Set(name string, data []byte) error {
	m.mu.RLock()
	e, ok := m.entries[name]
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("memmgr: no such variable %q", name)
	}
	if len(data) != len(e.data) {
		return fmt.Errorf("memmgr: %q expects %d bytes, got %d", name, len(e.data), len(data))
	}

	e.Write(data)
	return nil
}

// Resolve implements vsref.MemoryManager.
func (m *Manager) Resolve(name string) (vsref.Binding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[name]
	if !ok {
		return nil, fmt.Errorf("memmgr: no such variable %q", name)
	}
	return e, nil
}

// Invalidate removes a declaration entirely, simulating a variable that no
// longer exists after a restart (e.g. a dynamically allocated object that
// was freed). Any Reference bound to name will fail its next Validate call.
func (m *Manager) Invalidate(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, name)
}

// Replace simulates a checkpoint restart moving a variable to a new
// address: it re-declares name with fresh storage of the same type/count,
// optionally seeded with data. A Reference's next Validate call succeeds
// since the type and count are unchanged, and its next StageValue reads
// from the new storage.
func (m *Manager) Replace(name string, typ vsref.Type, count int, units string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := &entry{
		typ:   typ,
		count: count,
		units: units,
		data:  make([]byte, typ.ElemSize()*count),
	}
	if data != nil {
		if len(data) != len(e.data) {
			return fmt.Errorf("memmgr: replace %q expects %d bytes, got %d", name, len(e.data), len(data))
		}
		copy(e.data, data)
	}

	m.entries[name] = e
	return nil
}

// Names returns the currently declared variable names, for var_list.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.entries))
	for name := range m.entries {
		out = append(out, name)
	}
	return out
}
