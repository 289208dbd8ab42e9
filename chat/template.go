// Package chat implements the prompt side of a model session: role-tagged
// turn rendering, a token-budgeted history, and prompt assembly.
package chat

import (
	"fmt"
	"strings"
)

// Role identifies the speaker of a chat turn.
type Role int

const (
	RoleSystem Role = iota
	RoleUser
	RoleAssistant
)

// String returns the lowercase role name used inside chat templates.
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return "system"
	}
}

// Template selects the delimiter syntax a model was trained on.
type Template int

const (
	// TemplateChatML wraps every turn in <|im_start|>/<|im_end|> markers.
	TemplateChatML Template = iota
	// TemplateRolePrefix prefixes each turn with an uppercase role label.
	TemplateRolePrefix
)

// ParseTemplate maps a config or flag value to a Template.
func ParseTemplate(name string) (Template, error) {
	switch name {
	case "chatml":
		return TemplateChatML, nil
	case "role-prefix":
		return TemplateRolePrefix, nil
	}
	return 0, fmt.Errorf("unknown chat template %q", name)
}

// String returns the name ParseTemplate accepts.
func (t Template) String() string {
	if t == TemplateRolePrefix {
		return "role-prefix"
	}
	return "chatml"
}

// FormatTurn renders exactly one turn, including the trailing delimiter.
func (t Template) FormatTurn(role Role, text string) string {
	switch t {
	case TemplateRolePrefix:
		return strings.ToUpper(role.String()) + ": " + text + "\n"
	default:
		return "<|im_start|>" + role.String() + "\n" + text + "<|im_end|>\n"
	}
}

// GenerationLead returns the marker appended after the last user turn to
// open the assistant turn the model is asked to continue.
func (t Template) GenerationLead() string {
	switch t {
	case TemplateRolePrefix:
		return "ASSISTANT: "
	default:
		return "<|im_start|>assistant\n"
	}
}

// AppendHistory replays every stored turn, already rendered, in
// chronological order. History stores rendered text so switching templates
// mid-session does not retroactively reformat old turns.
func (t Template) AppendHistory(sb *strings.Builder, h *History) {
	for _, e := range h.entries {
		sb.WriteString(e.text)
	}
}
