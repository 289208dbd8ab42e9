package chat

import (
	"strings"
	"testing"
)

func TestFormatTurnChatML(t *testing.T) {
	got := TemplateChatML.FormatTurn(RoleUser, "hello")
	want := "<|im_start|>user\nhello<|im_end|>\n"
	if got != want {
		t.Errorf("FormatTurn = %q, want %q", got, want)
	}
}

func TestFormatTurnRolePrefix(t *testing.T) {
	got := TemplateRolePrefix.FormatTurn(RoleAssistant, "hi there")
	want := "ASSISTANT: hi there\n"
	if got != want {
		t.Errorf("FormatTurn = %q, want %q", got, want)
	}
}

func TestFormatTurnRolesDistinct(t *testing.T) {
	for _, tmpl := range []Template{TemplateChatML, TemplateRolePrefix} {
		seen := map[string]Role{}
		for _, role := range []Role{RoleSystem, RoleUser, RoleAssistant} {
			turn := tmpl.FormatTurn(role, "same text")
			if prev, dup := seen[turn]; dup {
				t.Errorf("%s: roles %v and %v render identically: %q", tmpl, prev, role, turn)
			}
			seen[turn] = role
		}
	}
}

func TestGenerationLead(t *testing.T) {
	if got := TemplateChatML.GenerationLead(); got != "<|im_start|>assistant\n" {
		t.Errorf("chatml lead = %q", got)
	}
	if got := TemplateRolePrefix.GenerationLead(); got != "ASSISTANT: " {
		t.Errorf("role-prefix lead = %q", got)
	}
}

func TestParseTemplate(t *testing.T) {
	for _, name := range []string{"chatml", "role-prefix"} {
		tmpl, err := ParseTemplate(name)
		if err != nil {
			t.Fatalf("ParseTemplate(%q): %v", name, err)
		}
		if tmpl.String() != name {
			t.Errorf("round trip: %q -> %q", name, tmpl.String())
		}
	}

	if _, err := ParseTemplate("alpaca"); err == nil {
		t.Error("expected error for unknown template name")
	}
}

func TestAppendHistoryReplaysVerbatim(t *testing.T) {
	h := NewHistory(1000)
	first := TemplateChatML.FormatTurn(RoleUser, "one")
	second := TemplateChatML.FormatTurn(RoleAssistant, "two")
	h.Record(first)
	h.Record(second)

	var sb strings.Builder
	TemplateChatML.AppendHistory(&sb, h)
	if got := sb.String(); got != first+second {
		t.Errorf("AppendHistory = %q, want %q", got, first+second)
	}
}

func TestAppendHistoryKeepsOriginalRendering(t *testing.T) {
	// History stores rendered text; replaying under a different template
	// must not reformat old turns.
	h := NewHistory(1000)
	turn := TemplateChatML.FormatTurn(RoleUser, "hello")
	h.Record(turn)

	var sb strings.Builder
	TemplateRolePrefix.AppendHistory(&sb, h)
	if got := sb.String(); got != turn {
		t.Errorf("replay under other template = %q, want %q", got, turn)
	}
}
