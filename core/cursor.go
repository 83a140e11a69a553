package core

import "sync"

// Cursor tracks the next update id to request. It starts unset and only
// moves forward.
type Cursor struct {
	mu   sync.Mutex
	next int64
	set  bool
}

// Current returns the offset for the next fetch. ok is false until the
// first Advance.
func (c *Cursor) Current() (next int64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next, c.set
}

// Advance acknowledges updateID. The cursor moves to updateID+1 only if
// that is beyond its current value.
func (c *Cursor) Advance(updateID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.set && updateID+1 <= c.next {
		return
	}
	c.next = updateID + 1
	c.set = true
}
