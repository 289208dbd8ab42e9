package generate

// applyRepeatPenalty returns a rescored copy of logits: every token id
// present in the trailing window has its score moved toward "less likely"
// by the penalty factor. Positive logits are divided, negative logits
// multiplied. Each id is penalized once regardless of how often it occurs
// in the window. The input slice is left untouched; the caller skips this
// function entirely at penalty 1.0.
func applyRepeatPenalty(logits []float32, penalty float32, window []int) []float32 {
	scored := make([]float32, len(logits))
	copy(scored, logits)

	seen := make(map[int]struct{}, len(window))
	for _, id := range window {
		if id < 0 || id >= len(scored) {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if scored[id] >= 0 {
			scored[id] /= penalty
		} else {
			scored[id] *= penalty
		}
	}
	return scored
}
