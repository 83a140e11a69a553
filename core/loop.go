package core

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/Rnaveennithyakalyan/jobshield-telegram-bot/core/ops"
)

const (
	DefaultPollTimeout = 100 * time.Second
	DefaultBackoff     = 2 * time.Second
	DefaultSendTimeout = 10 * time.Second
)

// Router produces the reply for an update. *Dispatcher implements it.
type Router interface {
	Route(ctx context.Context, u Update) (*Reply, error)
}

// LoopConfig tunes the poll loop. Zero values take the defaults.
type LoopConfig struct {
	PollTimeout time.Duration
	Backoff     time.Duration
	SendTimeout time.Duration
	// Workers bounds how many updates of one batch are routed and answered
	// at once. Acknowledgement stays in update id order regardless.
	Workers int
}

// Loop long-polls for updates, routes each one, sends its reply and then
// advances the cursor past it.
type Loop struct {
	transport Transport
	router    Router
	cursor    *Cursor
	cfg       LoopConfig
	logger    *slog.Logger
	sem       chan struct{}

	processed  atomic.Int64
	replied    atomic.Int64
	sendErrors atomic.Int64

	// onAdvance, when set, runs right after the cursor moves past u.
	onAdvance func(u Update)
}

// NewLoop creates a poll loop. cursor carries the starting offset; pass a
// zero Cursor to start from the pending backlog.
func NewLoop(t Transport, r Router, cursor *Cursor, cfg LoopConfig, logger *slog.Logger) *Loop {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = DefaultPollTimeout
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cursor == nil {
		cursor = &Cursor{}
	}
	return &Loop{
		transport: t,
		router:    r,
		cursor:    cursor,
		cfg:       cfg,
		logger:    logger,
		sem:       make(chan struct{}, cfg.Workers),
	}
}

// Run polls until ctx is cancelled, then returns nil. Transport and
// classification failures never end the loop; a failed fetch waits for the
// backoff interval before polling again.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("poll loop started",
		"poll_timeout", l.cfg.PollTimeout.String(),
		"workers", l.cfg.Workers,
	)
	for {
		if ctx.Err() != nil {
			l.logger.Info("poll loop stopped")
			return nil
		}

		if err := l.pollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				l.logger.Info("poll loop stopped")
				return nil
			}
			l.logger.Error("poll error", "error", err, "backoff", l.cfg.Backoff.String())
			select {
			case <-time.After(l.cfg.Backoff):
			case <-ctx.Done():
				l.logger.Info("poll loop stopped")
				return nil
			}
		}
	}
}

// pollOnce performs one fetch and processes the returned batch.
func (l *Loop) pollOnce(ctx context.Context) error {
	var offset *int64
	if next, ok := l.cursor.Current(); ok {
		offset = &next
	}

	updates, err := l.transport.FetchUpdates(ctx, offset, l.cfg.PollTimeout)
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}

	slices.SortFunc(updates, func(a, b Update) int { return cmp.Compare(a.ID, b.ID) })
	l.logger.Debug("batch received", "count", len(updates), "first_id", updates[0].ID)

	// A fetched batch is finished even during shutdown so every update
	// that gets acknowledged also got its reply attempt.
	l.process(context.WithoutCancel(ctx), updates)
	return nil
}

func (l *Loop) process(ctx context.Context, updates []Update) {
	if l.cfg.Workers == 1 {
		for _, u := range updates {
			l.handle(ctx, u)
			l.advance(u)
		}
		return
	}

	done := make([]chan struct{}, len(updates))
	for i := range done {
		done[i] = make(chan struct{})
	}

	go func() {
		for i, u := range updates {
			l.sem <- struct{}{}
			go func() {
				defer close(done[i])
				defer func() { <-l.sem }()
				l.handle(ctx, u)
			}()
		}
	}()

	for i, u := range updates {
		<-done[i]
		l.advance(u)
	}
}

// handle routes one update and makes a single attempt to send its reply.
func (l *Loop) handle(ctx context.Context, u Update) {
	l.processed.Add(1)

	reply, err := l.router.Route(ctx, u)
	if err != nil {
		l.logger.Warn("update not answered", "update_id", u.ID, "chat_id", u.ChatID, "error", err)
	}
	if reply == nil {
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, l.cfg.SendTimeout)
	defer cancel()

	if err := l.transport.SendReply(sendCtx, *reply); err != nil {
		l.sendErrors.Add(1)
		l.logger.Error("failed to send reply", "update_id", u.ID, "chat_id", reply.ChatID, "reply_id", reply.ID, "error", err)
		return
	}
	l.replied.Add(1)
	l.logger.Debug("reply sent", "update_id", u.ID, "chat_id", reply.ChatID, "reply_id", reply.ID)
}

func (l *Loop) advance(u Update) {
	l.cursor.Advance(u.ID)
	if l.onAdvance != nil {
		l.onAdvance(u)
	}
}

// Stats reports loop progress for the /status command.
func (l *Loop) Stats() ops.Stats {
	offset, set := l.cursor.Current()
	return ops.Stats{
		Processed:  l.processed.Load(),
		Replied:    l.replied.Load(),
		SendErrors: l.sendErrors.Load(),
		Offset:     offset,
		OffsetSet:  set,
	}
}
