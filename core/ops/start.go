package ops

import "context"

// WelcomeText is the fixed reply to /start.
const WelcomeText = "🛡️ *JobShield AI*\n\n" +
	"Send any job description and I will detect fake job risks."

// StartOp greets the user. Its reply never depends on classifier state.
type StartOp struct{}

func (s *StartOp) Name() string        { return "start" }
func (s *StartOp) Description() string { return "Introduce the bot" }

func (s *StartOp) Execute(_ context.Context, _ string) (string, error) {
	return WelcomeText, nil
}
