package provider

import (
	"context"

	einoOllama "github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino/components/model"

	"github.com/jarvisrun/jarvis/internal/jarvis/service/llm/entity"
)

// NewOllama registers a local Ollama provider. Unlike the cloud providers it
// has no API key; AutoRegister adds it whenever OllamaReachable reports true.
func NewOllama() *entity.Provider {
	return newCloudProvider("ollama", "", "llama3", entity.PriceTable{},
		func(ctx context.Context, apiKey, baseURL, modelName string) (model.BaseChatModel, error) {
			if baseURL == "" {
				baseURL = "http://127.0.0.1:11434/v1"
			}
			cfg := &einoOllama.ChatModelConfig{
				BaseURL: baseURL,
				Model:   modelName,
				Options: &einoOllama.Options{},
			}
			return einoOllama.NewChatModel(ctx, cfg)
		})
}

// OllamaReachable decides, for the registry's auto-registration pass, whether
// the Ollama provider is enabled: it reports true when OLLAMA_HOST or
// JARVIS_ENABLE_OLLAMA is set. It does not contact the daemon, and baseURL
// does not affect the result.
func OllamaReachable(baseURL string) bool {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:11434"
	}
	// Best-effort: treat presence of OLLAMA_HOST as an explicit opt-in since
	// dialing out during provider registration would make startup latency
	// depend on an optional local daemon.
	return CredentialsPresent("OLLAMA_HOST") || CredentialsPresent("JARVIS_ENABLE_OLLAMA")
}
