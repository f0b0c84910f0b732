package provider

import (
	"context"

	einoClaude "github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino/components/model"

	"github.com/jarvisrun/jarvis/internal/jarvis/service/llm/entity"
)

const ClaudeEnvKey = "ANTHROPIC_API_KEY"

// NewClaude registers the Anthropic Claude provider when ANTHROPIC_API_KEY
// is present in the environment.
func NewClaude() *entity.Provider {
	return newCloudProvider("claude", ClaudeEnvKey, "claude-3-5-sonnet-20241022",
		entity.PriceTable{InputPerThousand: 0.003, OutputPerThousand: 0.015},
		func(ctx context.Context, apiKey, baseURL, modelName string) (model.BaseChatModel, error) {
			cfg := &einoClaude.Config{APIKey: apiKey, Model: modelName, MaxTokens: 4096}
			if baseURL != "" {
				cfg.BaseURL = &baseURL
			}
			return einoClaude.NewChatModel(ctx, cfg)
		})
}
