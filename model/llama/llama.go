// Package llama provides the binding to a locally hosted llama.cpp
// model and its tokenizer.
package llama

import "fmt"

// Model wraps a GGUF model loaded through llama.cpp.
type Model struct {
	modelPath string
	eosToken  int
	hasEOS    bool
}

// LoadModel opens the GGUF model file at path.
func LoadModel(path string) (*Model, error) {
	// TODO: load via cgo bindings once the llama.cpp wrapper lands
	return nil, fmt.Errorf("llama.cpp binding not built for this platform (model: %s)", path)
}

// EOSToken returns the end-of-sequence token id from the model metadata,
// if the model declares one.
func (m *Model) EOSToken() (int, bool) {
	return m.eosToken, m.hasEOS
}

// Forward runs the model on a window of token ids starting at the given
// logical offset and returns the logits for the last position.
func (m *Model) Forward(window []int, offset int) ([]float32, error) {
	return nil, fmt.Errorf("llama.cpp binding not built for this platform")
}

// Close releases model resources.
func (m *Model) Close() {}

// Tokenizer wraps the tokenizer configuration that ships alongside a model.
type Tokenizer struct {
	path string
}

// LoadTokenizer opens a tokenizer definition file.
func LoadTokenizer(path string) (*Tokenizer, error) {
	// TODO: parse tokenizer.json vocab + merges
	return nil, fmt.Errorf("tokenizer loading not built for this platform (tokenizer: %s)", path)
}

// Encode converts text to token ids.
func (t *Tokenizer) Encode(text string) ([]int, error) {
	return nil, fmt.Errorf("tokenizer not loaded")
}

// Decode converts token ids back to text.
func (t *Tokenizer) Decode(tokens []int) (string, error) {
	return "", fmt.Errorf("tokenizer not loaded")
}
