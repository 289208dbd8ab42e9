package recall

import (
	"encoding/json"
	"os"

	"github.com/coder/hnsw"
)

type cacheFile struct {
	Model   string       `json:"model"`
	Entries []cacheEntry `json:"entries"`
}

type cacheEntry struct {
	Hash      string    `json:"hash"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// SaveCache writes the indexed turns and their embeddings to disk so the
// next session does not re-embed them.
func (ix *Index) SaveCache(path string, model string) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	entries := make([]cacheEntry, 0, len(ix.turns))
	for hash, text := range ix.turns {
		vec, ok := ix.graph.Lookup(hash)
		if !ok {
			continue
		}
		entries = append(entries, cacheEntry{
			Hash:      hash,
			Text:      text,
			Embedding: vec,
		})
	}

	data, err := json.Marshal(cacheFile{Model: model, Entries: entries})
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// LoadCache loads a previously saved index from disk.
// If the embedding model doesn't match, the cache is silently skipped.
func (ix *Index) LoadCache(path string, model string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var cf cacheFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return err
	}

	if cf.Model != model {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	nodes := make([]hnsw.Node[string], 0, len(cf.Entries))
	for _, e := range cf.Entries {
		nodes = append(nodes, hnsw.MakeNode(e.Hash, e.Embedding))
		ix.turns[e.Hash] = e.Text
	}

	if len(nodes) > 0 {
		ix.graph.Add(nodes...)
	}

	return nil
}
