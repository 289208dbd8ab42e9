package generate

import (
	"errors"
	"math/rand"
	"sort"

	"github.com/chewxy/math32"
)

// StdSampler is the default Sampler: temperature-scaled multinomial
// sampling with an optional top-p (nucleus) cutoff, driven by a seeded
// PRNG so a fixed seed reproduces the same token stream. Temperature 0
// degenerates to deterministic argmax.
type StdSampler struct {
	temperature float32
	topP        float32
	rng         *rand.Rand
	scratch     []probIndex // reused across calls by sampleTopP
}

type probIndex struct {
	prob  float32
	index int
}

// NewSampler creates a sampler. A topP outside (0,1) disables nucleus
// truncation; sampling then covers the whole distribution.
func NewSampler(seed int64, temperature, topP float64) *StdSampler {
	return &StdSampler{
		temperature: float32(temperature),
		topP:        float32(topP),
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// Sample picks one token id from logits. The input slice is not modified.
func (s *StdSampler) Sample(logits []float32) (int, error) {
	if len(logits) == 0 {
		return 0, errors.New("empty logits vector")
	}
	if s.temperature <= 0 || len(logits) == 1 {
		return argmax(logits), nil
	}

	probs := make([]float32, len(logits))
	for i, l := range logits {
		probs[i] = l / s.temperature
	}
	softmax(probs)

	coin := s.rng.Float32()
	if s.topP <= 0 || s.topP >= 1 {
		return sampleMultinomial(probs, coin), nil
	}
	return s.sampleTopP(probs, coin), nil
}

func argmax(x []float32) int {
	maxI := 0
	maxV := x[0]
	for i, v := range x[1:] {
		if v > maxV {
			maxV = v
			maxI = i + 1
		}
	}
	return maxI
}

// softmax normalizes x in place, shifted by the max for stability.
func softmax(x []float32) {
	maxVal := x[0]
	for _, v := range x[1:] {
		if v > maxVal {
			maxVal = v
		}
	}
	var sum float32
	for i := range x {
		x[i] = math32.Exp(x[i] - maxVal)
		sum += x[i]
	}
	for i := range x {
		x[i] /= sum
	}
}

func sampleMultinomial(probs []float32, coin float32) int {
	var cdf float32
	for i, p := range probs {
		cdf += p
		if coin < cdf {
			return i
		}
	}
	return len(probs) - 1
}

// sampleTopP samples from the smallest token set whose cumulative
// probability mass reaches topP.
func (s *StdSampler) sampleTopP(probs []float32, coin float32) int {
	if cap(s.scratch) < len(probs) {
		s.scratch = make([]probIndex, 0, len(probs))
	}
	cand := s.scratch[:0]

	// Tokens below this floor cannot be part of any top-p nucleus, so
	// skip them before sorting.
	cutoff := (1 - s.topP) / float32(len(probs)-1)
	for i, p := range probs {
		if p >= cutoff {
			cand = append(cand, probIndex{prob: p, index: i})
		}
	}
	if len(cand) == 0 {
		return argmax(probs)
	}
	sort.Slice(cand, func(i, j int) bool { return cand[i].prob > cand[j].prob })

	var cum float32
	last := len(cand) - 1
	for i, c := range cand {
		cum += c.prob
		if cum > s.topP {
			last = i
			break
		}
	}

	r := coin * cum
	var cdf float32
	for i := 0; i <= last; i++ {
		cdf += cand[i].prob
		if r < cdf {
			return cand[i].index
		}
	}
	return cand[last].index
}
