// Copyright 2014-2026 the variableserver authors.
package vsref

import "sync"

// Reference is a bound, typed handle from a textual simulation variable name
// to a live address. A session holds one Reference per variable it has
// added.
//
// The read path is a three-stage pipeline matching the producer/consumer
// split between the copy step and the send step: StageValue copies the live
// value into staging under the caller's copy mutex; PrepareForWrite
// atomically promotes staging into write_ready and clears staging;
// WriteValueAscii/WriteValueBinary format write_ready for the wire. A
// reference that never calls StageValue before PrepareForWrite simply stays
// not-write-ready -- prepareForWrite() is defined as a no-op in that case,
// not an error.
//
// Once a Reference goes invalid -- the name no longer resolves, or
// re-resolves to a different type or element count -- it stays invalid for
// its lifetime; Validate never clears the flag. A checkpoint restart changes
// object addresses but not their declared types, so a genuine type/count
// mismatch means the simulation itself changed shape and the reference is
// dead for good.
type Reference struct {
	name     string
	elemType Type
	count    int

	mm MemoryManager

	mu      sync.Mutex
	binding Binding
	invalid bool

	staged     []byte
	hasStaged  bool
	writeReady []byte
	isWriteRdy bool
}

// NewReference binds name against mm as elemType[count]. count is 1 for a
// scalar. The binding is resolved immediately; a name that doesn't resolve
// returns the memory manager's error and no Reference, so the session can
// report a ResolveError and leave the variable out of its list.
func NewReference(mm MemoryManager, name string, elemType Type, count int) (*Reference, error) {
	r := &Reference{
		name:     name,
		elemType: elemType,
		count:    count,
		mm:       mm,
	}

	b, err := mm.Resolve(name)
	if err != nil {
		return nil, err
	}
	r.binding = b
	return r, nil
}

// Name returns the bound variable name.
func (r *Reference) Name() string { return r.name }

// Type returns the declared element type.
func (r *Reference) Type() Type { return r.elemType }

// Count returns the declared element count (1 for scalars).
func (r *Reference) Count() int { return r.count }

// Units returns the declared engineering units of the bound variable, or
// the empty string if the reference is invalid.
func (r *Reference) Units() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.invalid {
		return ""
	}
	return r.binding.Units()
}

func (r *Reference) byteSize() int { return r.elemType.ElemSize() * r.count }

// Invalidate forcibly tags the reference invalid without consulting the
// memory manager, used when a session disconnects its references ahead of
// tearing down so a concurrent scheduled copy can't chase memory the
// session is about to release.
func (r *Reference) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalid = true
}

// IsInvalid reports whether the reference has been tagged invalid, by
// either Validate or Invalidate.
func (r *Reference) IsInvalid() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.invalid
}

// Validate re-queries the memory manager to confirm the address still maps
// to the same type and element count. It returns true if the reference is
// valid -- either it was already invalid (no second chase of a dropped
// address) or the re-resolve still matches -- and false only on the
// newly-detected-invalid transition.
func (r *Reference) Validate() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.invalid {
		return true
	}

	b, err := r.mm.Resolve(r.name)
	if err != nil {
		r.invalid = true
		return false
	}

	if !b.Type().Equal(r.elemType) || b.Count() != r.count {
		r.invalid = true
		return false
	}

	r.binding = b
	return true
}

// StageValue copies size*count bytes from the live address into the staging
// buffer. Callers hold the owning session's copy mutex. An invalid
// reference stages a zero-filled sentinel of its declared width instead of
// touching the (no longer trustworthy) binding, so downstream formatting
// still produces a value frame rather than silently dropping the variable.
func (r *Reference) StageValue() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cap(r.staged) < r.byteSize() {
		r.staged = make([]byte, r.byteSize())
	}
	r.staged = r.staged[:r.byteSize()]

	if r.invalid {
		for i := range r.staged {
			r.staged[i] = 0
		}
	} else {
		r.binding.Read(r.staged)
	}
	r.hasStaged = true
}

// PrepareForWrite atomically moves the staging buffer into write_ready and
// clears staging. If nothing has been staged since the last
// PrepareForWrite, it is a no-op and IsWriteReady stays false.
func (r *Reference) PrepareForWrite() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.hasStaged {
		return
	}

	r.writeReady = append(r.writeReady[:0], r.staged...)
	r.isWriteRdy = true
	r.hasStaged = false
}

// IsWriteReady reports whether write_ready holds a value not yet consumed
// by WriteValueAscii/WriteValueBinary.
func (r *Reference) IsWriteReady() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isWriteRdy
}
