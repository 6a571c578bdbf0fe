// Copyright 2014-2026 the variableserver authors.
package vsref

// Binding is what the memory manager collaborator hands back for a resolved
// name: a live accessor plus the declared type, element count and units.
// vsref never holds a raw pointer itself -- only this handle -- so that a
// checkpoint restart can swap the underlying storage out from under a
// reference without the reference's identity changing.
type Binding interface {
	Type() Type
	Count() int
	Units() string

	// Read copies Count()*Type().ElemSize() bytes from the live object into
	// dst. Write copies the same number of bytes from src into the live
	// object. Implementations must be safe to call concurrently with other
	// bindings but need not be safe for concurrent use of the same binding;
	// vsref callers always hold the owning session's copy mutex.
	Read(dst []byte)
	Write(src []byte)
}

// MemoryManager is the external collaborator that resolves textual
// variable names -- optionally with dotted field paths and constant array
// subscripts -- to a live Binding. Its implementation (parsing a running
// simulation's symbol table) lives outside this package.
type MemoryManager interface {
	Resolve(name string) (Binding, error)
}
