package provider

import (
	"context"

	einoOpenAI "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/jarvisrun/jarvis/internal/jarvis/service/llm/entity"
)

const OpenAIEnvKey = "OPENAI_API_KEY"

// NewOpenAI registers the OpenAI provider when OPENAI_API_KEY is present.
func NewOpenAI() *entity.Provider {
	return newCloudProvider("openai", OpenAIEnvKey, "gpt-4o",
		entity.PriceTable{InputPerThousand: 0.0025, OutputPerThousand: 0.01},
		func(ctx context.Context, apiKey, baseURL, modelName string) (model.BaseChatModel, error) {
			cfg := &einoOpenAI.ChatModelConfig{APIKey: apiKey, Model: modelName}
			if baseURL != "" {
				cfg.BaseURL = baseURL
			}
			return einoOpenAI.NewChatModel(ctx, cfg)
		})
}
