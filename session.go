// Package parley drives interactive chat sessions against a locally hosted
// causal language model: template-driven prompt assembly, token-budgeted
// history, and an autoregressive generation loop.
package parley

import (
	"log/slog"

	"github.com/mosswell/parley/chat"
	"github.com/mosswell/parley/generate"
)

// ContextSource supplies optional retrieved context for a prompt.
// Implementations return "" when nothing relevant is available.
type ContextSource interface {
	Context(query string) (string, error)
}

// Session binds a chat template, an optional history, and a generation
// engine into the single entry point the CLI shell drives. A Session is
// owned by exactly one caller; nothing in it is safe for concurrent use.
type Session struct {
	Template     chat.Template
	SystemPrompt string
	// History is mutated at assembly time. nil disables history entirely.
	History *chat.History
	// Recall provides retrieved context to inject before the user turn.
	// nil disables context injection. Recall failures are advisory: the
	// exchange proceeds without context.
	Recall ContextSource
	// RememberReplies records the assistant reply into history after a
	// successful generation, so subsequent turns see both sides of the
	// conversation.
	RememberReplies bool
	Engine          *generate.Engine
}

// Ask runs one exchange: assemble the prompt, generate, and return the
// decoded continuation. The call blocks until EOS or a fatal error.
//
// When history is enabled, the rendered user turn is recorded at assembly
// time, before generation can fail. A generation error therefore leaves
// the just-recorded user turn in history; callers that need to know can
// distinguish "history already updated, generation failed" from "nothing
// happened" by the error being non-nil.
func (s *Session) Ask(userPrompt string) (string, error) {
	context := ""
	if s.Recall != nil {
		ctx, err := s.Recall.Context(userPrompt)
		if err != nil {
			slog.Warn("context recall failed", "error", err)
		} else {
			context = ctx
		}
	}

	var prompt string
	if s.History != nil {
		prompt = chat.AssembleWithHistory(s.Template, s.SystemPrompt, userPrompt, context, s.History)
	} else {
		prompt = chat.AssembleStateless(s.Template, s.SystemPrompt, userPrompt, context)
	}

	res, err := s.Engine.Generate(prompt)
	if err != nil {
		return "", err
	}

	if s.History != nil && s.RememberReplies {
		s.History.Record(s.Template.FormatTurn(chat.RoleAssistant, res.Text))
	}

	return res.Text, nil
}
