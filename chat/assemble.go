package chat

import "strings"

// AssembleWithHistory builds a complete prompt ready for tokenization:
// system turn, replayed history, optional retrieved context rendered as a
// system-role turn, then the new user turn, terminated by the assistant
// generation lead. context == "" means no context.
//
// The rendered user turn is recorded into history as a side effect. The
// eventual assistant reply is not recorded here; callers decide whether to
// remember replies.
func AssembleWithHistory(t Template, systemPrompt, userPrompt, context string, h *History) string {
	var sb strings.Builder
	sb.WriteString(t.FormatTurn(RoleSystem, systemPrompt))
	t.AppendHistory(&sb, h)
	if context != "" {
		sb.WriteString(t.FormatTurn(RoleSystem, context))
	}
	userTurn := t.FormatTurn(RoleUser, userPrompt)
	sb.WriteString(userTurn)
	h.Record(userTurn)
	sb.WriteString(t.GenerationLead())
	return sb.String()
}

// AssembleStateless renders the same prompt without replaying or mutating
// any history, for one-shot invocations.
func AssembleStateless(t Template, systemPrompt, userPrompt, context string) string {
	var sb strings.Builder
	sb.WriteString(t.FormatTurn(RoleSystem, systemPrompt))
	if context != "" {
		sb.WriteString(t.FormatTurn(RoleSystem, context))
	}
	sb.WriteString(t.FormatTurn(RoleUser, userPrompt))
	sb.WriteString(t.GenerationLead())
	return sb.String()
}
