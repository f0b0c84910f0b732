package provider

import (
	"context"

	einoQwen "github.com/cloudwego/eino-ext/components/model/qwen"
	"github.com/cloudwego/eino/components/model"

	"github.com/jarvisrun/jarvis/internal/jarvis/service/llm/entity"
)

const QwenEnvKey = "DASHSCOPE_API_KEY"

// NewQwen registers the Alibaba Qwen provider when DASHSCOPE_API_KEY is
// present.
func NewQwen() *entity.Provider {
	return newCloudProvider("qwen", QwenEnvKey, "qwen-plus",
		entity.PriceTable{InputPerThousand: 0.0008, OutputPerThousand: 0.002},
		func(ctx context.Context, apiKey, baseURL, modelName string) (model.BaseChatModel, error) {
			cfg := &einoQwen.ChatModelConfig{APIKey: apiKey, Model: modelName}
			if baseURL != "" {
				cfg.BaseURL = baseURL
			}
			return einoQwen.NewChatModel(ctx, cfg)
		})
}
