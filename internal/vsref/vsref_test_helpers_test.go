// Copyright 2014-2026 the variableserver authors.
package vsref

import "fmt"

// fakeBinding is a minimal in-memory Binding used across this package's
// tests. It owns its storage directly rather than pointing at a real
// simulation object.
type fakeBinding struct {
	typ   Type
	count int
	units string
	data  []byte
}

func newFakeBinding(t Type, count int, units string) *fakeBinding {
	return &fakeBinding{typ: t, count: count, units: units, data: make([]byte, t.ElemSize()*count)}
}

func (b *fakeBinding) Type() Type     { return b.typ }
func (b *fakeBinding) Count() int     { return b.count }
func (b *fakeBinding) Units() string  { return b.units }
func (b *fakeBinding) Read(dst []byte) {
	copy(dst, b.data)
}
func (b *fakeBinding) Write(src []byte) {
	copy(b.data, src)
}

// fakeMemMgr resolves a fixed set of names to bindings, simulating the
// external memory manager collaborator.
type fakeMemMgr struct {
	bindings map[string]*fakeBinding
}

func newFakeMemMgr() *fakeMemMgr {
	return &fakeMemMgr{bindings: make(map[string]*fakeBinding)}
}

func (m *fakeMemMgr) declare(name string, t Type, count int, units string) *fakeBinding {
	b := newFakeBinding(t, count, units)
	m.bindings[name] = b
	return b
}

func (m *fakeMemMgr) Resolve(name string) (Binding, error) {
	b, ok := m.bindings[name]
	if !ok {
		return nil, fmt.Errorf("vsref: no such variable %q", name)
	}
	return b, nil
}

// forget simulates a checkpoint restart that drops a variable entirely, or
// a redeclaration under a new type/count, depending on how it's called.
func (m *fakeMemMgr) forget(name string) {
	delete(m.bindings, name)
}
