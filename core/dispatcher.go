package core

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Rnaveennithyakalyan/jobshield-telegram-bot/core/ops"
	"github.com/Rnaveennithyakalyan/jobshield-telegram-bot/core/policy"
)

const opTimeout = 30 * time.Second

// Dispatcher decides what, if anything, to reply to an update: a command's
// output, a classification report, or nothing.
type Dispatcher struct {
	classifier    Classifier
	ops           *ops.Registry
	policy        *policy.Policy
	failureNotice bool
	logger        *slog.Logger
}

// DispatcherOption configures optional Dispatcher behaviour.
type DispatcherOption func(*Dispatcher)

// WithPolicy filters updates through a chat policy before routing.
func WithPolicy(p *policy.Policy) DispatcherOption {
	return func(d *Dispatcher) { d.policy = p }
}

// WithFailureNotice makes classifier and command failures produce a fixed
// notice reply instead of no reply.
func WithFailureNotice(enabled bool) DispatcherOption {
	return func(d *Dispatcher) { d.failureNotice = enabled }
}

// NewDispatcher creates a Dispatcher. reg must hold at least the start
// command; see ops.Build.
func NewDispatcher(classifier Classifier, reg *ops.Registry, logger *slog.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		classifier: classifier,
		ops:        reg,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Route returns the reply for u, or nil when u gets no reply. A non-nil
// error is always a *ClassificationError and never stops the caller.
func (d *Dispatcher) Route(ctx context.Context, u Update) (*Reply, error) {
	text := strings.TrimSpace(u.Text)
	if text == "" {
		return nil, nil
	}

	if d.policy != nil {
		if err := d.policy.Admit(u.ChatID, u.ID); err != nil {
			d.logger.Debug("update rejected by policy", "update_id", u.ID, "chat_id", u.ChatID, "error", err)
			return nil, nil
		}
	}

	// Unregistered commands fall through to classification.
	if op, args, ok := d.ops.Lookup(text); ok {
		return d.runOp(ctx, u, op, args)
	}

	result, err := d.classifier.Classify(ctx, text)
	if err != nil {
		return d.failed(u, err)
	}

	d.logger.Info("message classified",
		"update_id", u.ID,
		"chat_id", u.ChatID,
		"label", result.Label,
		"risk", RiskPercent(result.Probability),
	)
	return newReply(u.ChatID, FormatReport(result)), nil
}

func (d *Dispatcher) runOp(ctx context.Context, u Update, op ops.Op, args string) (*Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	out, err := op.Execute(ctx, args)
	if err != nil {
		d.logger.Error("op failed", "op", op.Name(), "update_id", u.ID, "error", err)
		return d.failed(u, err)
	}
	return newReply(u.ChatID, out), nil
}

func (d *Dispatcher) failed(u Update, err error) (*Reply, error) {
	cerr := &ClassificationError{UpdateID: u.ID, Err: err}
	if !d.failureNotice || errors.Is(err, context.Canceled) {
		return nil, cerr
	}
	d.logger.Warn("sending failure notice", "update_id", u.ID, "chat_id", u.ChatID, "error", err)
	return newReply(u.ChatID, FailureNoticeText), nil
}

func newReply(chatID int64, text string) *Reply {
	return &Reply{
		ID:        uuid.New().String(),
		ChatID:    chatID,
		Text:      text,
		CreatedAt: time.Now(),
	}
}
