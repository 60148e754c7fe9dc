package models

// ProviderConfig describes one language-model provider from providers.json.
// APIType selects the client implementation: "openai" and "deepseek" speak
// the OpenAI-compatible chat completions API, "azure" uses deployment URLs
// and api-key headers.
type ProviderConfig struct {
	Name    string `json:"name"`
	APIType string `json:"api_type"`
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
	Enabled bool   `json:"enabled"`
}

// ProvidersConfig is the providers.json file structure.
type ProvidersConfig struct {
	Providers []ProviderConfig `json:"providers"`
}

// ChatRequest is the OpenAI-compatible chat completions request body.
type ChatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []ChatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature,omitempty"`
}

// ChatMessage is a single role/content pair.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
