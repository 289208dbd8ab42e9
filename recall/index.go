// Package recall retrieves previously seen conversation turns that are
// semantically related to a new prompt, so they can be injected as
// additional context even after the token-budgeted chat history has
// evicted them.
package recall

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coder/hnsw"
	"github.com/jellydator/ttlcache/v3"
)

const embedBatchSize = 32

// Vectorizer is the embedding capability the index depends on.
type Vectorizer interface {
	Embed(text string) ([]float32, error)
	EmbedBatch(texts []string) ([][]float32, error)
}

// Index stores embedded conversation turns in an HNSW graph and answers
// nearest-neighbor queries with a rendered context block. Retrieved
// context is cached per query for a TTL window, since a user re-asking
// the same thing within minutes should not cost another embedding call.
type Index struct {
	embedder Vectorizer
	topK     int

	mu    sync.RWMutex
	graph *hnsw.Graph[string] // keyed by turn hash
	turns map[string]string   // hash -> turn text

	queries *ttlcache.Cache[string, string] // query hash -> context block
}

// NewIndex creates a recall index. If embedder is nil, recall is disabled
// and every query returns empty context.
func NewIndex(embedder Vectorizer, topK int, queryTTL time.Duration) *Index {
	c := ttlcache.New[string, string](
		ttlcache.WithTTL[string, string](queryTTL),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	go c.Start()
	return &Index{
		embedder: embedder,
		topK:     topK,
		graph:    hnsw.NewGraph[string](),
		turns:    make(map[string]string),
		queries:  c,
	}
}

// Close stops the query cache expiration loop.
func (ix *Index) Close() {
	ix.queries.Stop()
}

// Len returns the number of indexed turns.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.graph.Len()
}

// AddTurns embeds and indexes turns that have not been seen before.
// Duplicate turns hash to the same key and are skipped.
func (ix *Index) AddTurns(turns ...string) error {
	if ix.embedder == nil {
		return nil
	}

	ix.mu.RLock()
	var toEmbed []string
	var hashes []string
	for _, turn := range turns {
		turn = strings.TrimSpace(turn)
		if turn == "" {
			continue
		}
		h := hashTurn(turn)
		if _, exists := ix.graph.Lookup(h); exists {
			continue
		}
		toEmbed = append(toEmbed, turn)
		hashes = append(hashes, h)
	}
	ix.mu.RUnlock()

	if len(toEmbed) == 0 {
		return nil
	}

	var nodes []hnsw.Node[string]
	added := make(map[string]string, len(toEmbed))

	for i := 0; i < len(toEmbed); i += embedBatchSize {
		end := i + embedBatchSize
		if end > len(toEmbed) {
			end = len(toEmbed)
		}
		vectors, err := ix.embedder.EmbedBatch(toEmbed[i:end])
		if err != nil {
			return err
		}
		for j := i; j < end; j++ {
			nodes = append(nodes, hnsw.MakeNode(hashes[j], vectors[j-i]))
			added[hashes[j]] = toEmbed[j]
		}
	}

	ix.mu.Lock()
	ix.graph.Add(nodes...)
	for k, v := range added {
		ix.turns[k] = v
	}
	ix.mu.Unlock()

	return nil
}

// Context returns up to topK stored turns relevant to query, rendered as a
// single block suitable for a system-role context turn. Returns "" when
// the index is empty or recall is disabled.
func (ix *Index) Context(query string) (string, error) {
	if ix.embedder == nil {
		return "", nil
	}

	key := hashTurn(query)
	if item := ix.queries.Get(key); item != nil {
		return item.Value(), nil
	}

	ix.mu.RLock()
	empty := ix.graph.Len() == 0
	ix.mu.RUnlock()
	if empty {
		return "", nil
	}

	vec, err := ix.embedder.Embed(query)
	if err != nil {
		return "", err
	}

	ix.mu.RLock()
	neighbors := ix.graph.Search(vec, ix.topK)
	lines := make([]string, 0, len(neighbors))
	for _, n := range neighbors {
		if t := ix.turns[n.Key]; t != "" {
			lines = append(lines, "- "+t)
		}
	}
	ix.mu.RUnlock()

	if len(lines) == 0 {
		return "", nil
	}

	context := "Earlier in this conversation:\n" + strings.Join(lines, "\n")
	ix.queries.Set(key, context, ttlcache.DefaultTTL)
	return context, nil
}

func hashTurn(turn string) string {
	h := sha256.Sum256([]byte(turn))
	return fmt.Sprintf("%x", h)
}
