package core

import "time"

// Reply is an outbound message addressed to the chat an update came from.
type Reply struct {
	ID        string
	ChatID    int64
	Text      string
	CreatedAt time.Time
}
