package recall

import (
	"strings"
	"testing"
	"time"
)

// fakeVectorizer maps texts onto a tiny fixed vector space by topic word,
// so related texts land near each other without a real embedding API.
type fakeVectorizer struct {
	embedCalls int
}

func (f *fakeVectorizer) Embed(text string) ([]float32, error) {
	f.embedCalls++
	return topicVector(text), nil
}

func (f *fakeVectorizer) EmbedBatch(texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		f.embedCalls++
		out[i] = topicVector(t)
	}
	return out, nil
}

func topicVector(text string) []float32 {
	switch {
	case strings.Contains(text, "goroutine"):
		return []float32{1, 0, 0}
	case strings.Contains(text, "channel"):
		return []float32{0.9, 0.1, 0}
	case strings.Contains(text, "pasta"):
		return []float32{0, 0, 1}
	default:
		return []float32{0, 1, 0}
	}
}

func newTestIndex(t *testing.T, v Vectorizer) *Index {
	t.Helper()
	ix := NewIndex(v, 2, time.Minute)
	t.Cleanup(ix.Close)
	return ix
}

func TestContextReturnsRelatedTurns(t *testing.T) {
	ix := newTestIndex(t, &fakeVectorizer{})
	err := ix.AddTurns(
		"what is a goroutine",
		"how do I boil pasta",
	)
	if err != nil {
		t.Fatalf("AddTurns: %v", err)
	}

	got, err := ix.Context("tell me about channel buffering")
	if err != nil {
		t.Fatalf("Context: %v", err)
	}
	if !strings.Contains(got, "goroutine") {
		t.Errorf("context %q does not include the related turn", got)
	}
	if !strings.HasPrefix(got, "Earlier in this conversation:") {
		t.Errorf("context %q missing header", got)
	}
}

func TestContextEmptyIndex(t *testing.T) {
	ix := newTestIndex(t, &fakeVectorizer{})
	got, err := ix.Context("anything")
	if err != nil {
		t.Fatalf("Context: %v", err)
	}
	if got != "" {
		t.Errorf("Context on empty index = %q, want empty", got)
	}
}

func TestContextDisabledWithoutEmbedder(t *testing.T) {
	ix := newTestIndex(t, nil)
	if err := ix.AddTurns("a goroutine question"); err != nil {
		t.Fatalf("AddTurns: %v", err)
	}
	got, err := ix.Context("goroutine")
	if err != nil || got != "" {
		t.Errorf("disabled index returned (%q, %v), want empty", got, err)
	}
}

func TestContextQueryCacheSkipsReembedding(t *testing.T) {
	v := &fakeVectorizer{}
	ix := newTestIndex(t, v)
	if err := ix.AddTurns("what is a goroutine"); err != nil {
		t.Fatal(err)
	}

	if _, err := ix.Context("goroutine basics"); err != nil {
		t.Fatal(err)
	}
	calls := v.embedCalls

	got, err := ix.Context("goroutine basics")
	if err != nil {
		t.Fatal(err)
	}
	if v.embedCalls != calls {
		t.Errorf("repeated query re-embedded: %d calls, want %d", v.embedCalls, calls)
	}
	if got == "" {
		t.Error("cached query returned empty context")
	}
}

func TestAddTurnsDeduplicates(t *testing.T) {
	ix := newTestIndex(t, &fakeVectorizer{})
	if err := ix.AddTurns("what is a goroutine", "what is a goroutine"); err != nil {
		t.Fatal(err)
	}
	if err := ix.AddTurns("what is a goroutine"); err != nil {
		t.Fatal(err)
	}
	if ix.Len() != 1 {
		t.Errorf("Len = %d, want 1", ix.Len())
	}
}

func TestAddTurnsSkipsBlank(t *testing.T) {
	ix := newTestIndex(t, &fakeVectorizer{})
	if err := ix.AddTurns("", "   ", "\n"); err != nil {
		t.Fatal(err)
	}
	if ix.Len() != 0 {
		t.Errorf("Len = %d, want 0", ix.Len())
	}
}
