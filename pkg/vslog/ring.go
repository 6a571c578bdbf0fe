// Copyright 2014-2026 the variableserver authors.
package vslog

import (
	"container/ring"
	"fmt"
	"sync"
	"time"
)

const ringTimeLayout = "2006/01/02 15:04:05 "

// Ring is an in-memory sink holding the last size log lines, for serving
// recent history over a status endpoint without tailing a file.
type Ring struct {
	size int

	mu sync.Mutex
	r  *ring.Ring
}

// NewRing allocates a Ring holding up to size lines.
func NewRing(size int) *Ring {
	return &Ring{
		r:    ring.New(size),
		size: size,
	}
}

// Println timestamps and appends a line, evicting the oldest entry once
// the ring is full.
func (rb *Ring) Println(v ...interface{}) {
	line := time.Now().Format(ringTimeLayout) + fmt.Sprintln(v...)

	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.r = rb.r.Next()
	rb.r.Value = line
}

// Write appends p as one line, so a Ring can be handed to AddLogger as an
// io.Writer (AddLogger wraps it in a *log.Logger, which writes each line in
// a single call and supplies its own timestamp).
func (rb *Ring) Write(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.r = rb.r.Next()
	rb.r.Value = string(p)
	return len(p), nil
}

// Dump returns the buffered lines, oldest first.
func (rb *Ring) Dump() []string {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	out := make([]string, 0, rb.size)
	rb.r.Next().Do(func(v interface{}) {
		if v == nil {
			return
		}
		out = append(out, v.(string))
	})
	return out
}
