package provider

// AutoRegister builds a registry containing every provider whose
// credentials are present in the environment, plus the always-present mock
// provider.
func AutoRegister() *Registry {
	reg := NewRegistry()
	reg.MustRegister(NewMock())

	if CredentialsPresent(ClaudeEnvKey) {
		reg.MustRegister(NewClaude())
	}
	if CredentialsPresent(OpenAIEnvKey) {
		reg.MustRegister(NewOpenAI())
	}
	if CredentialsPresent(GeminiEnvKey) {
		reg.MustRegister(NewGemini())
	}
	if CredentialsPresent(DeepSeekEnvKey) {
		reg.MustRegister(NewDeepSeek())
	}
	if CredentialsPresent(QwenEnvKey) {
		reg.MustRegister(NewQwen())
	}
	if OllamaReachable("") {
		reg.MustRegister(NewOllama())
	}

	return reg
}

// cloudPrecedence is the fixed order used to pick the default provider when
// none is configured explicitly: first cloud provider present, else mock.
var cloudPrecedence = []string{"claude", "openai", "gemini", "deepseek", "qwen", "ollama"}

// ChooseDefault returns the configured provider name if it is registered,
// otherwise the first cloud provider present in cloudPrecedence order,
// otherwise "mock".
func ChooseDefault(reg *Registry, configured string) string {
	if configured != "" {
		if _, ok := reg.Get(configured); ok {
			return configured
		}
	}
	for _, name := range cloudPrecedence {
		if _, ok := reg.Get(name); ok {
			return name
		}
	}
	return "mock"
}

// ChooseDefaultModel returns the default model for the chosen provider.
func ChooseDefaultModel(reg *Registry, providerName, configured string) string {
	if configured != "" {
		return configured
	}
	if p, ok := reg.Get(providerName); ok {
		return p.DefaultModel
	}
	return ""
}
