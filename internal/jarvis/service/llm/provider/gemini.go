package provider

import (
	"context"

	einoGemini "github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/jarvisrun/jarvis/internal/jarvis/service/llm/entity"
)

const GeminiEnvKey = "GEMINI_API_KEY"

// NewGemini registers the Google Gemini provider when GEMINI_API_KEY is
// present.
func NewGemini() *entity.Provider {
	return newCloudProvider("gemini", GeminiEnvKey, "gemini-1.5-pro",
		entity.PriceTable{InputPerThousand: 0.00125, OutputPerThousand: 0.005},
		func(ctx context.Context, apiKey, baseURL, modelName string) (model.BaseChatModel, error) {
			client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
			if err != nil {
				return nil, err
			}
			return einoGemini.NewChatModel(ctx, &einoGemini.Config{Client: client, Model: modelName})
		})
}
