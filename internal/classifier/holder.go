package classifier

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/Rnaveennithyakalyan/jobshield-telegram-bot/core"
)

// Holder serves the current pipeline and swaps in a new one when the
// artifacts change on disk.
type Holder struct {
	modelPath      string
	vectorizerPath string
	logger         *slog.Logger
	current        atomic.Pointer[Pipeline]
}

// NewHolder loads the artifacts once. The returned error is a
// *core.ConfigurationError and must stop startup.
func NewHolder(modelPath, vectorizerPath string, logger *slog.Logger) (*Holder, error) {
	p, err := Load(modelPath, vectorizerPath)
	if err != nil {
		return nil, err
	}
	h := &Holder{
		modelPath:      modelPath,
		vectorizerPath: vectorizerPath,
		logger:         logger,
	}
	h.current.Store(p)
	return h, nil
}

// Paths returns the artifact files backing this holder.
func (h *Holder) Paths() []string {
	return []string{h.modelPath, h.vectorizerPath}
}

// Reload re-reads both artifacts. A failed reload keeps serving the
// previous pipeline.
func (h *Holder) Reload(changed string) {
	p, err := Load(h.modelPath, h.vectorizerPath)
	if err != nil {
		h.logger.Error("classifier reload failed, keeping previous artifacts", "changed", changed, "error", err)
		return
	}
	h.current.Store(p)
	h.logger.Info("classifier reloaded", "changed", changed)
}

// Classify implements core.Classifier.
func (h *Holder) Classify(ctx context.Context, text string) (core.Classification, error) {
	return h.current.Load().Classify(ctx, text)
}
