package chat

import "strings"

// RecordStatus reports what Record had to do to stay within budget.
type RecordStatus int

const (
	// RecordOK means the new entry fit without eviction.
	RecordOK RecordStatus = iota
	// RecordEvicted means one or more oldest entries were dropped.
	RecordEvicted
	// RecordOverBudget means the new entry alone exceeds the budget;
	// everything older was dropped and the entry is kept anyway.
	RecordOverBudget
)

type entry struct {
	tokens int
	text   string
}

// History is a bounded, ordered log of rendered chat turns. The bound is
// an aggregate estimated token count, not an entry count; insertion order
// is chronological order.
type History struct {
	budget  int
	total   int
	entries []entry
}

// NewHistory creates a history capped at roughly budget tokens.
func NewHistory(budget int) *History {
	return &History{budget: budget}
}

// EstimateTokens approximates the token count of a rendered message as
// word count scaled by 4/3. It is a heuristic, not tokenizer output.
func EstimateTokens(message string) int {
	return len(strings.Fields(message)) * 4 / 3
}

// Record appends a rendered turn and evicts oldest turns until the running
// total fits the budget again. The newest entry is never evicted: a single
// message estimated over the whole budget stays, and Record reports
// RecordOverBudget instead of looping on an empty queue.
func (h *History) Record(message string) RecordStatus {
	n := EstimateTokens(message)
	h.entries = append(h.entries, entry{tokens: n, text: message})
	h.total += n

	status := RecordOK
	for h.total > h.budget && len(h.entries) > 1 {
		h.total -= h.entries[0].tokens
		h.entries = h.entries[1:]
		status = RecordEvicted
	}
	if h.total > h.budget {
		status = RecordOverBudget
	}
	return status
}

// Len returns the number of stored turns.
func (h *History) Len() int { return len(h.entries) }

// TotalTokens returns the running estimated token total.
func (h *History) TotalTokens() int { return h.total }

// Budget returns the configured token budget.
func (h *History) Budget() int { return h.budget }

// Turns returns the stored rendered turns in chronological order.
func (h *History) Turns() []string {
	out := make([]string, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.text
	}
	return out
}
