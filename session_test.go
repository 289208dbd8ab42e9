package parley

import (
	"errors"
	"strings"
	"testing"

	"github.com/mosswell/parley/chat"
	"github.com/mosswell/parley/generate"
)

const sessionEOS = 9

// echoModel emits a scripted token per forward call, one-hot encoded.
type echoModel struct {
	script []int
	step   int
}

func (m *echoModel) Forward(window []int, offset int) ([]float32, error) {
	logits := make([]float32, 16)
	if m.step < len(m.script) {
		logits[m.script[m.step]] = 10
	}
	m.step++
	return logits, nil
}

// wordTokenizer records the last encoded prompt and maps every word to a
// fixed id; generated ids decode to "tok<i>" words.
type wordTokenizer struct {
	lastPrompt string
}

func (t *wordTokenizer) Encode(text string) ([]int, error) {
	t.lastPrompt = text
	ids := make([]int, len(strings.Fields(text)))
	for i := range ids {
		ids[i] = 1
	}
	return ids, nil
}

func (t *wordTokenizer) Decode(ids []int) (string, error) {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = "tok" + string(rune('0'+id))
	}
	return strings.Join(parts, " "), nil
}

type failingModel struct{}

func (failingModel) Forward(window []int, offset int) ([]float32, error) {
	return nil, errors.New("backend gone")
}

func newTestSession(t *testing.T, model generate.Model, tok generate.Tokenizer) *Session {
	t.Helper()
	engine, err := generate.NewEngine(model, tok, generate.NewSampler(1, 0, 0), generate.Params{
		EOS:           sessionEOS,
		RepeatPenalty: 1.0,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return &Session{
		Template:     chat.TemplateRolePrefix,
		SystemPrompt: "be brief",
		Engine:       engine,
	}
}

func TestAskReturnsReply(t *testing.T) {
	tok := &wordTokenizer{}
	s := newTestSession(t, &echoModel{script: []int{5, sessionEOS}}, tok)

	reply, err := s.Ask("hello there")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if reply != "tok5" {
		t.Errorf("reply = %q, want %q", reply, "tok5")
	}
	if !strings.Contains(tok.lastPrompt, "USER: hello there\n") {
		t.Errorf("prompt missing user turn: %q", tok.lastPrompt)
	}
	if !strings.HasSuffix(tok.lastPrompt, "ASSISTANT: ") {
		t.Errorf("prompt missing generation lead: %q", tok.lastPrompt)
	}
}

type staticSource string

func (s staticSource) Context(string) (string, error) { return string(s), nil }

type failingSource struct{}

func (failingSource) Context(string) (string, error) {
	return "", errors.New("embeddings unavailable")
}

func TestAskInjectsRecallContext(t *testing.T) {
	tok := &wordTokenizer{}
	s := newTestSession(t, &echoModel{script: []int{5, sessionEOS}}, tok)
	s.Recall = staticSource("we talked about channels")

	if _, err := s.Ask("more please"); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !strings.Contains(tok.lastPrompt, "SYSTEM: we talked about channels\n") {
		t.Errorf("prompt missing recall context: %q", tok.lastPrompt)
	}
}

func TestAskToleratesRecallFailure(t *testing.T) {
	tok := &wordTokenizer{}
	s := newTestSession(t, &echoModel{script: []int{5, sessionEOS}}, tok)
	s.Recall = failingSource{}

	if _, err := s.Ask("still works"); err != nil {
		t.Fatalf("Ask should proceed without context: %v", err)
	}
}

func TestAskRecordsBothSidesWhenRemembering(t *testing.T) {
	tok := &wordTokenizer{}
	s := newTestSession(t, &echoModel{script: []int{5, sessionEOS}}, tok)
	s.History = chat.NewHistory(1000)
	s.RememberReplies = true

	if _, err := s.Ask("question one"); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	turns := s.History.Turns()
	if len(turns) != 2 {
		t.Fatalf("history has %d turns, want 2", len(turns))
	}
	if !strings.HasPrefix(turns[0], "USER: ") || !strings.HasPrefix(turns[1], "ASSISTANT: ") {
		t.Errorf("unexpected turn order: %q", turns)
	}
}

func TestAskSkipsReplyWhenNotRemembering(t *testing.T) {
	tok := &wordTokenizer{}
	s := newTestSession(t, &echoModel{script: []int{5, sessionEOS}}, tok)
	s.History = chat.NewHistory(1000)
	s.RememberReplies = false

	if _, err := s.Ask("question one"); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if got := s.History.Len(); got != 1 {
		t.Errorf("history has %d turns, want only the user turn", got)
	}
}

func TestAskGenerationFailureKeepsUserTurn(t *testing.T) {
	tok := &wordTokenizer{}
	s := newTestSession(t, failingModel{}, tok)
	s.History = chat.NewHistory(1000)
	s.RememberReplies = true

	_, err := s.Ask("doomed question")
	if err == nil {
		t.Fatal("expected generation error")
	}
	// The user turn is recorded at assembly time, before generation runs.
	if got := s.History.Len(); got != 1 {
		t.Errorf("history has %d turns, want 1", got)
	}
}

func TestAskPriorTurnsAppearInPrompt(t *testing.T) {
	tok := &wordTokenizer{}
	s := newTestSession(t, &echoModel{script: []int{5, sessionEOS, 5, sessionEOS}}, tok)
	s.History = chat.NewHistory(1000)
	s.RememberReplies = true

	if _, err := s.Ask("first question"); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if _, err := s.Ask("second question"); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !strings.Contains(tok.lastPrompt, "USER: first question\n") {
		t.Errorf("second prompt missing first exchange: %q", tok.lastPrompt)
	}
	if !strings.Contains(tok.lastPrompt, "USER: second question\n") {
		t.Errorf("second prompt missing new user turn: %q", tok.lastPrompt)
	}
}
