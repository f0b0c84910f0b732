package provider

import (
	"context"

	einoDeepseek "github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino/components/model"

	"github.com/jarvisrun/jarvis/internal/jarvis/service/llm/entity"
)

const DeepSeekEnvKey = "DEEPSEEK_API_KEY"

// NewDeepSeek registers the DeepSeek provider when DEEPSEEK_API_KEY is
// present.
func NewDeepSeek() *entity.Provider {
	return newCloudProvider("deepseek", DeepSeekEnvKey, "deepseek-chat",
		entity.PriceTable{InputPerThousand: 0.00027, OutputPerThousand: 0.0011},
		func(ctx context.Context, apiKey, baseURL, modelName string) (model.BaseChatModel, error) {
			cfg := &einoDeepseek.ChatModelConfig{APIKey: apiKey, Model: modelName}
			if baseURL != "" {
				cfg.BaseURL = baseURL
			}
			return einoDeepseek.NewChatModel(ctx, cfg)
		})
}
