// Package generate drives the autoregressive token loop against an opaque
// model capability: prefill, per-token decode, repeat-penalty rescoring,
// sampling, and termination detection.
package generate

import (
	"errors"
	"log/slog"
	"time"
)

// Model produces next-token logits for a token window at a position offset.
// It is stateful: it internally remembers everything forwarded at lower
// offsets, so the caller must keep offsets monotonically increasing and
// must not skip positions. A Model belongs to exactly one Engine for the
// duration of a session; its cache state is not safe to share.
type Model interface {
	Forward(window []int, offset int) ([]float32, error)
}

// Tokenizer converts between text and token ids.
type Tokenizer interface {
	Encode(text string) ([]int, error)
	Decode(ids []int) (string, error)
}

// Sampler picks one token id from a logits vector. Implementations must be
// deterministic for a fixed seed and identical logits, and must not modify
// the input slice.
type Sampler interface {
	Sample(logits []float32) (int, error)
}

// Params configures one generation session.
type Params struct {
	// EOS is the token id whose generation terminates the loop.
	EOS int
	// RepeatPenalty rescales logits of recently generated tokens.
	// 1.0 disables rescoring entirely; logits pass through untouched.
	RepeatPenalty float32
	// RepeatLastN is the trailing token window the penalty applies to.
	RepeatLastN int
	// MaxTokens caps the number of generated tokens. 0 means unbounded,
	// trusting the model to emit EOS.
	MaxTokens int
}

// progressEvery is how often the decode loop reports progress at debug level.
const progressEvery = 128

// Engine runs generation sessions against a model/tokenizer/sampler
// triple. It is not safe for concurrent use.
type Engine struct {
	model   Model
	tok     Tokenizer
	sampler Sampler
	params  Params
}

// NewEngine validates the parameters and returns an engine. A negative EOS
// id means none was resolvable, which is fatal before any session starts.
func NewEngine(model Model, tok Tokenizer, sampler Sampler, params Params) (*Engine, error) {
	if params.EOS < 0 {
		return nil, ErrNoEOSToken
	}
	return &Engine{model: model, tok: tok, sampler: sampler, params: params}, nil
}

// Result is a completed generation.
type Result struct {
	// Text is the decoded continuation: the tokens generated after the
	// prompt, excluding the terminating EOS token.
	Text string
	// PromptTokens is the encoded prompt length.
	PromptTokens int
	// GeneratedTokens counts every sampled token, EOS included.
	GeneratedTokens int
	// Truncated is true when MaxTokens stopped the loop before EOS.
	Truncated bool
	// Duration is the wall time of the prefill/decode loop.
	Duration time.Duration
}

// Generate encodes the prompt, prefills the model with it, then decodes
// one token per step until EOS (or the MaxTokens cap). The call blocks
// until termination; there are no internal cancellation points.
func (e *Engine) Generate(prompt string) (*Result, error) {
	tokens, err := e.tok.Encode(prompt)
	if err != nil {
		return nil, &Error{Stage: StageEncode, Err: err}
	}
	if len(tokens) == 0 {
		return nil, &Error{Stage: StageEncode, Err: errors.New("prompt encoded to zero tokens")}
	}
	promptLen := len(tokens)

	start := time.Now()

	// Prefill: forward the entire prompt at offset 0 to prime the model's
	// internal state. Logits for the first decode step come out of this.
	logits, err := e.model.Forward(tokens, 0)
	if err != nil {
		return nil, &Error{Stage: StagePrefill, Err: err}
	}

	generated := 0
	truncated := false
	for {
		scored := logits
		if e.params.RepeatPenalty != 1.0 {
			from := len(tokens) - e.params.RepeatLastN
			if from < 0 {
				from = 0
			}
			scored = applyRepeatPenalty(logits, e.params.RepeatPenalty, tokens[from:])
		}

		next, err := e.sampler.Sample(scored)
		if err != nil {
			return nil, &Error{Stage: StageDecode, Err: err}
		}
		tokens = append(tokens, next)
		generated++

		if generated%progressEvery == 0 {
			slog.Debug("generating", "tokens", generated)
		}

		if next == e.params.EOS {
			break
		}
		if e.params.MaxTokens > 0 && generated >= e.params.MaxTokens {
			truncated = true
			break
		}

		// Decode step: forward only the newest token at its offset and
		// let the model's primed state stand in for the rest of the
		// sequence. Re-forwarding the whole growing window every step
		// would be quadratic.
		off := len(tokens) - 1
		logits, err = e.model.Forward(tokens[off:], off)
		if err != nil {
			return nil, &Error{Stage: StageDecode, Err: err}
		}
	}

	// The prompt/continuation boundary is tracked in token space. Slicing
	// the decoded string at the prompt's character length breaks whenever
	// decoding is not byte-aligned with the input text.
	out := tokens[promptLen:]
	if !truncated {
		out = out[:len(out)-1] // drop the terminating EOS
	}
	text, err := e.tok.Decode(out)
	if err != nil {
		return nil, &Error{Stage: StageDecodeOutput, Err: err}
	}

	elapsed := time.Since(start)
	slog.Debug("generation finished", "tokens", generated, "elapsed", elapsed, "truncated", truncated)

	return &Result{
		Text:            text,
		PromptTokens:    promptLen,
		GeneratedTokens: generated,
		Truncated:       truncated,
		Duration:        elapsed,
	}, nil
}
