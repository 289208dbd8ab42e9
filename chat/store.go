package chat

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/renameio"
)

// storedTurn is one line of the history file.
type storedTurn struct {
	Tokens int    `json:"tokens"`
	Text   string `json:"text"`
}

// LoadHistory reads a line-delimited history file into a History with the
// given budget. A missing file yields an empty history. Turns beyond the
// budget are evicted oldest-first during replay, same as Record.
func LoadHistory(path string, budget int) (*History, error) {
	h := NewHistory(budget)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return h, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var st storedTurn
		if err := json.Unmarshal(line, &st); err != nil {
			return nil, fmt.Errorf("history file %s: %w", path, err)
		}
		h.Record(st.Text)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return h, nil
}

// SaveHistory writes the history as one JSON object per line. The file is
// replaced atomically so an interrupted save cannot truncate it.
func SaveHistory(path string, h *History) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range h.entries {
		if err := enc.Encode(storedTurn{Tokens: e.tokens, Text: e.text}); err != nil {
			return err
		}
	}
	return renameio.WriteFile(path, buf.Bytes(), 0644)
}
