package chat

import (
	"strings"
	"testing"
)

func TestAssembleWithHistoryOrder(t *testing.T) {
	h := NewHistory(1000)
	earlier := TemplateChatML.FormatTurn(RoleUser, "earlier question")
	h.Record(earlier)

	prompt := AssembleWithHistory(TemplateChatML, "be helpful", "new question", "relevant context", h)

	system := TemplateChatML.FormatTurn(RoleSystem, "be helpful")
	context := TemplateChatML.FormatTurn(RoleSystem, "relevant context")
	user := TemplateChatML.FormatTurn(RoleUser, "new question")
	lead := TemplateChatML.GenerationLead()

	want := system + earlier + context + user + lead
	if prompt != want {
		t.Errorf("prompt = %q\nwant %q", prompt, want)
	}
}

func TestAssembleWithHistoryRecordsUserTurn(t *testing.T) {
	h := NewHistory(1000)
	AssembleWithHistory(TemplateChatML, "sys", "the question", "", h)

	if h.Len() != 1 {
		t.Fatalf("Len = %d, want 1", h.Len())
	}
	want := TemplateChatML.FormatTurn(RoleUser, "the question")
	if h.Turns()[0] != want {
		t.Errorf("recorded turn = %q, want %q", h.Turns()[0], want)
	}
}

func TestAssembleWithHistoryNoContext(t *testing.T) {
	h := NewHistory(1000)
	prompt := AssembleWithHistory(TemplateRolePrefix, "sys", "hi", "", h)
	if strings.Count(prompt, "SYSTEM: ") != 1 {
		t.Errorf("empty context must not add a system turn: %q", prompt)
	}
}

func TestAssembleStateless(t *testing.T) {
	prompt := AssembleStateless(TemplateRolePrefix, "sys prompt", "ask me", "")
	want := "SYSTEM: sys prompt\nUSER: ask me\nASSISTANT: "
	if prompt != want {
		t.Errorf("prompt = %q, want %q", prompt, want)
	}
}

func TestAssembleStatelessWithContext(t *testing.T) {
	prompt := AssembleStateless(TemplateRolePrefix, "sys", "q", "ctx")
	if !strings.Contains(prompt, "SYSTEM: ctx\n") {
		t.Errorf("context turn missing: %q", prompt)
	}
	if !strings.HasSuffix(prompt, "ASSISTANT: ") {
		t.Errorf("prompt must end with the generation lead: %q", prompt)
	}
}

func TestAssembleTemplatesProduceDistinctPrompts(t *testing.T) {
	a := AssembleStateless(TemplateChatML, "s", "u", "")
	b := AssembleStateless(TemplateRolePrefix, "s", "u", "")
	if a == b {
		t.Error("templates rendered identical prompts")
	}
}
