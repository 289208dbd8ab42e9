// Package defaults provides embedded default assets (system prompt and config).
package defaults

import _ "embed"

//go:embed default_prompt.md
var DefaultSystemPrompt string

//go:embed default_config.toml
var DefaultConfigTOML []byte
