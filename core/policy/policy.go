package policy

import (
	"errors"
	"fmt"
	"sync"
)

const (
	maxSeenIDs = 10000
	pruneCount = 1000
)

// ErrDuplicate is returned when an update id was already admitted.
var ErrDuplicate = errors.New("duplicate update")

// Policy admits inbound updates against an optional chat allowlist and
// drops update ids this process has already routed.
type Policy struct {
	mu        sync.Mutex
	allowed   map[int64]bool
	seen      map[int64]bool
	seenOrder []int64
}

// New creates a Policy. An empty chatIDs list admits every chat.
func New(chatIDs []int64) *Policy {
	var allowed map[int64]bool
	if len(chatIDs) > 0 {
		allowed = make(map[int64]bool, len(chatIDs))
		for _, id := range chatIDs {
			allowed[id] = true
		}
	}
	return &Policy{
		allowed: allowed,
		seen:    make(map[int64]bool),
	}
}

// Admit checks whether an update should be routed.
func (p *Policy) Admit(chatID, updateID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.allowed != nil && !p.allowed[chatID] {
		return fmt.Errorf("chat %d not in allowlist", chatID)
	}

	if p.seen[updateID] {
		return fmt.Errorf("%w: %d", ErrDuplicate, updateID)
	}

	if len(p.seen) >= maxSeenIDs {
		for i := 0; i < pruneCount && i < len(p.seenOrder); i++ {
			delete(p.seen, p.seenOrder[i])
		}
		p.seenOrder = p.seenOrder[pruneCount:]
	}

	p.seen[updateID] = true
	p.seenOrder = append(p.seenOrder, updateID)

	return nil
}
