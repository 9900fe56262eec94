package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/careercraft/internal/ai"
	"github.com/spigell/careercraft/internal/ai/gemini"
	"github.com/spigell/careercraft/internal/secrets"

	"go.uber.org/zap"
)

func newCompleter(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Completer, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != gemini.Provider {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set GEMINI_API_KEY, GEMINI_API_KEY_FILE or ai.gemini.api-key-file)", err)
	}

	genLogger := logger.With(zap.Int("ai_max_attempts", cfg.Gemini.MaxAttempts))

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxAttempts, genLogger)
	if err != nil {
		return nil, err
	}
	generator.SetMaxLogLength(cfg.Gemini.MaxLogLength)

	return generator, nil
}

// redacted returns a copy of config that is safe to log.
func redacted(config *Config) Config {
	out := *config
	if config.AI != nil && config.AI.Gemini != nil {
		aiCfg := *config.AI
		g := *config.AI.Gemini
		g.APIKey = secrets.Redact(g.APIKey)
		aiCfg.Gemini = &g
		out.AI = &aiCfg
	}
	return out
}
