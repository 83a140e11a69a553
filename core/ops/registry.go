package ops

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode"
)

// Op is a bot command such as /start. Execute receives the text after the
// command token and returns the reply text.
type Op interface {
	Name() string
	Description() string
	Execute(ctx context.Context, args string) (string, error)
}

// Registry maps command tokens in message text to ops. Names are stored
// case folded; a message addresses an op as /name or /name@botname in any
// case, followed by whitespace or the end of the text.
type Registry struct {
	mu    sync.RWMutex
	byCmd map[string]Op
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{byCmd: make(map[string]Op)}
}

// Register adds op under its case-folded name. The name must be a single
// token without "/" or "@", and must not already be taken.
func (r *Registry) Register(op Op) error {
	name := strings.ToLower(op.Name())
	if name == "" || strings.ContainsAny(name, "/@") || strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("invalid command name %q", op.Name())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byCmd[name]; taken {
		return fmt.Errorf("command /%s already registered", name)
	}
	r.byCmd[name] = op
	return nil
}

// Lookup finds the op addressed by text. It returns the op and the text
// after the command token, or ok=false when text does not start with a
// registered command. "/starter" does not address "start".
func (r *Registry) Lookup(text string) (op Op, args string, ok bool) {
	name, args := splitCommand(text)
	if name == "" {
		return nil, "", false
	}

	r.mu.RLock()
	op, ok = r.byCmd[name]
	r.mu.RUnlock()
	if !ok {
		return nil, "", false
	}
	return op, args, true
}

// List returns one "/name - description" entry per command, sorted by name.
func (r *Registry) List() []string {
	r.mu.RLock()
	entries := make([]string, 0, len(r.byCmd))
	for name, op := range r.byCmd {
		entries = append(entries, fmt.Sprintf("/%s - %s", name, op.Description()))
	}
	r.mu.RUnlock()

	slices.Sort(entries)
	return entries
}

// splitCommand parses the leading command token of text. Arguments may
// start on the next line.
func splitCommand(text string) (name, args string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}

	token := text[1:]
	if sp := strings.IndexFunc(token, unicode.IsSpace); sp != -1 {
		args = strings.TrimSpace(token[sp:])
		token = token[:sp]
	}
	if at := strings.IndexByte(token, '@'); at != -1 {
		token = token[:at]
	}
	return strings.ToLower(token), args
}
