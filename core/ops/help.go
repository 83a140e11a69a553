package ops

import (
	"context"
	"strings"
)

// HelpOp replies with the enabled commands and a reminder that any other
// text is classified.
type HelpOp struct {
	Registry *Registry
}

func (h *HelpOp) Name() string        { return "help" }
func (h *HelpOp) Description() string { return "List available commands" }

func (h *HelpOp) Execute(_ context.Context, _ string) (string, error) {
	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, entry := range h.Registry.List() {
		b.WriteString("  " + entry + "\n")
	}
	b.WriteString("\nAny other message is checked as a job description.")
	return b.String(), nil
}
