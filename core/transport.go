package core

import (
	"context"
	"time"
)

// Fetcher long-polls the bot API for updates at or after offset.
// A nil offset requests the whole pending backlog.
type Fetcher interface {
	FetchUpdates(ctx context.Context, offset *int64, timeout time.Duration) ([]Update, error)
}

// Sender delivers a reply to its chat.
type Sender interface {
	SendReply(ctx context.Context, r Reply) error
}

// Transport is the full request/response surface the poll loop needs.
type Transport interface {
	Fetcher
	Sender
}
