// Command parley runs a single stateless prompt against a locally hosted
// model and prints the continuation to stdout. Flags default to the
// config file values so the command line only needs to name what differs.
//
// Usage:
//
//	./parley -prompt "explain goroutines"
//	./parley -prompt "..." -temperature 0 -template role-prefix
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	parley "github.com/mosswell/parley"
	"github.com/mosswell/parley/chat"
	"github.com/mosswell/parley/generate"
	"github.com/mosswell/parley/model/llama"
)

const version = "0.2.0"

func main() {
	cfg, err := parley.LoadConfig()
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		cfg = parley.DefaultConfig()
	}

	var (
		modelPath     = flag.String("model", parley.ResolveModelPath(cfg), "path to GGUF model file")
		tokenizerPath = flag.String("tokenizer", parley.ResolveTokenizerPath(cfg), "path to tokenizer file")
		promptText    = flag.String("prompt", "", "user prompt (required)")
		templateName  = flag.String("template", cfg.Generation.Template, "chat template: chatml or role-prefix")
		seed          = flag.Int64("seed", cfg.Generation.Seed, "sampler PRNG seed")
		temperature   = flag.Float64("temperature", parley.Temperature(cfg), "sampling temperature; 0 = greedy")
		topP          = flag.Float64("top-p", cfg.Generation.TopP, "nucleus sampling mass; outside (0,1) disables")
		repeatPenalty = flag.Float64("repeat-penalty", cfg.Generation.RepeatPenalty, "repeat penalty factor; 1.0 disables")
		repeatLastN   = flag.Int("repeat-last-n", cfg.Generation.RepeatLastN, "trailing token window the penalty applies to")
		eosFlag       = flag.Int("eos", parley.EOSToken(cfg), "EOS token id; -1 = resolve from model metadata")
		maxTokens     = flag.Int("max-tokens", cfg.Generation.MaxTokens, "generation length cap; 0 = unbounded")
		contextText   = flag.String("context", "", "extra context injected as a system turn")
		verbose       = flag.Bool("verbose", false, "enable debug logging")
		showVersion   = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("parley", version)
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	for _, w := range parley.ValidateConfig(cfg) {
		slog.Warn(w)
	}

	if *promptText == "" {
		fmt.Fprintln(os.Stderr, "error: -prompt is required")
		flag.Usage()
		os.Exit(2)
	}
	if *modelPath == "" {
		fmt.Fprintf(os.Stderr, "error: no model configured; use -model, set model_path in %s, or PARLEY_MODEL_PATH\n", parley.ConfigPath())
		os.Exit(2)
	}

	tmpl, err := chat.ParseTemplate(*templateName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	model, err := llama.LoadModel(*modelPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer model.Close()

	tok, err := llama.LoadTokenizer(*tokenizerPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	eos := *eosFlag
	if eos < 0 {
		if id, ok := model.EOSToken(); ok {
			eos = id
		}
	}

	sampler := generate.NewSampler(*seed, *temperature, *topP)
	engine, err := generate.NewEngine(model, tok, sampler, generate.Params{
		EOS:           eos,
		RepeatPenalty: float32(*repeatPenalty),
		RepeatLastN:   *repeatLastN,
		MaxTokens:     *maxTokens,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	session := &parley.Session{
		Template:     tmpl,
		SystemPrompt: parley.SystemPrompt(cfg),
		Engine:       engine,
	}
	if *contextText != "" {
		session.Recall = staticContext(*contextText)
	}

	reply, err := session.Ask(*promptText)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(reply)
}

// staticContext satisfies the session's context source with a fixed string.
type staticContext string

func (s staticContext) Context(string) (string, error) { return string(s), nil }
