// Command parley-repl is an interactive chat session against a locally
// hosted model. It uses raw terminal input with line editing and input
// history, and persists chat history across sessions.
//
// Usage:
//
//	./parley-repl              # interactive session
//	./parley-repl -incognito   # keep history in memory only
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	parley "github.com/mosswell/parley"
	"github.com/mosswell/parley/chat"
	"github.com/mosswell/parley/generate"
	"github.com/mosswell/parley/model/llama"
	"github.com/mosswell/parley/recall"
)

const prompt = "> "

func main() {
	verbose := flag.Bool("verbose", false, "enable debug logging")
	incognito := flag.Bool("incognito", false, "keep history in memory only, never save it")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := parley.LoadConfig()
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		cfg = parley.DefaultConfig()
	}
	for _, w := range parley.ValidateConfig(cfg) {
		slog.Warn(w)
	}

	session, cleanup, err := buildSession(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	var history *chat.History
	if !cfg.History.Disabled {
		histPath := parley.HistoryPath(cfg)
		history, err = chat.LoadHistory(histPath, cfg.History.Budget)
		if err != nil {
			slog.Warn("failed to load history, starting empty", "error", err)
			history = chat.NewHistory(cfg.History.Budget)
		}
		if !*incognito && !cfg.History.Incognito {
			defer func() {
				if err := chat.SaveHistory(histPath, history); err != nil {
					slog.Warn("failed to save history", "error", err)
				}
			}()
		}
		session.History = history
	}

	var index *recall.Index
	if parley.RecallEnabled(cfg) {
		embedder := recall.NewEmbedder(
			parley.ResolveRecallBaseURL(cfg),
			parley.ResolveRecallAPIKey(cfg),
			cfg.Recall.Model,
		)
		index = recall.NewIndex(embedder, cfg.Recall.TopK, time.Duration(cfg.Recall.TTLMinutes)*time.Minute)
		defer index.Close()

		cachePath := parley.RecallCachePath()
		if err := index.LoadCache(cachePath, cfg.Recall.Model); err != nil {
			slog.Debug("no recall cache loaded", "error", err)
		}
		defer func() {
			if err := index.SaveCache(cachePath, cfg.Recall.Model); err != nil {
				slog.Warn("failed to save recall cache", "error", err)
			}
		}()

		// Seed the index with turns carried over from the last session.
		if history != nil {
			if err := index.AddTurns(history.Turns()...); err != nil {
				slog.Warn("failed to index loaded history", "error", err)
			}
		}
		session.Recall = index
	}

	editor, err := NewEditor()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer editor.Close()

	tty := editor.Tty()
	fmt.Fprintf(tty, "parley repl\r\n")
	if history != nil {
		fmt.Fprintf(tty, "history: %d turns (~%d tokens)\r\n", history.Len(), history.TotalTokens())
	}
	fmt.Fprintf(tty, "\r\ncommands:\r\n")
	fmt.Fprintf(tty, "  :history     show stored turn count\r\n")
	fmt.Fprintf(tty, "  :quit        exit\r\n\r\n")

	for {
		text, err := editor.ReadLine(prompt)
		if err == io.EOF || err == ErrInterrupt {
			break
		}
		if err != nil {
			fmt.Fprintf(tty, "read error: %v\r\n", err)
			break
		}

		if text == "" {
			continue
		}

		if text == ":quit" || text == ":q" {
			break
		}

		if text == ":history" {
			if history == nil {
				fmt.Fprintf(tty, "history is disabled\r\n\r\n")
			} else {
				fmt.Fprintf(tty, "%d turns, ~%d/%d tokens\r\n\r\n",
					history.Len(), history.TotalTokens(), history.Budget())
			}
			continue
		}

		reply, err := session.Ask(text)
		if err != nil {
			fmt.Fprintf(tty, "error: %v\r\n\r\n", err)
			continue
		}

		// Raw mode needs explicit carriage returns.
		fmt.Fprintf(tty, "%s\r\n\r\n", strings.ReplaceAll(reply, "\n", "\r\n"))

		if index != nil {
			if err := index.AddTurns(text, reply); err != nil {
				slog.Debug("failed to index exchange", "error", err)
			}
		}
	}
}

// buildSession wires model, tokenizer, sampler, and engine from config.
// The returned cleanup releases model resources.
func buildSession(cfg *parley.Config) (*parley.Session, func(), error) {
	modelPath := parley.ResolveModelPath(cfg)
	if modelPath == "" {
		return nil, nil, fmt.Errorf("no model configured; set model_path in %s or PARLEY_MODEL_PATH", parley.ConfigPath())
	}

	model, err := llama.LoadModel(modelPath)
	if err != nil {
		return nil, nil, err
	}

	tok, err := llama.LoadTokenizer(parley.ResolveTokenizerPath(cfg))
	if err != nil {
		model.Close()
		return nil, nil, err
	}

	eos := parley.EOSToken(cfg)
	if eos < 0 {
		if id, ok := model.EOSToken(); ok {
			eos = id
		}
	}

	tmpl, err := chat.ParseTemplate(cfg.Generation.Template)
	if err != nil {
		model.Close()
		return nil, nil, err
	}

	sampler := generate.NewSampler(cfg.Generation.Seed, parley.Temperature(cfg), cfg.Generation.TopP)
	engine, err := generate.NewEngine(model, tok, sampler, generate.Params{
		EOS:           eos,
		RepeatPenalty: float32(cfg.Generation.RepeatPenalty),
		RepeatLastN:   cfg.Generation.RepeatLastN,
		MaxTokens:     cfg.Generation.MaxTokens,
	})
	if err != nil {
		model.Close()
		return nil, nil, err
	}

	return &parley.Session{
		Template:        tmpl,
		SystemPrompt:    parley.SystemPrompt(cfg),
		RememberReplies: parley.RememberReplies(cfg),
		Engine:          engine,
	}, model.Close, nil
}
