// Package llm talks to the external language-model provider. The rest of
// the system only sees the Generator interface: one prompt in, free text
// out. Provider selection happens once at construction time from the
// providers file, never by string comparison inside interpretation logic.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"liuyao/internal/models"
)

// Generator produces free text for a prompt. Implementations must be safe
// for concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

const requestTimeout = 60 * time.Second

// providerRate caps outbound calls at 2 req/s with a small burst — one slow
// provider must not absorb every worker.
const providerRate = 2

// NewGenerator selects a client for the first enabled provider in cfg.
func NewGenerator(cfg *models.ProvidersConfig) (Generator, error) {
	for _, p := range cfg.Providers {
		if !p.Enabled {
			continue
		}
		switch p.APIType {
		case "openai", "deepseek", "":
			return newOpenAIClient(p), nil
		case "azure":
			return newAzureClient(p), nil
		default:
			return nil, fmt.Errorf("unsupported api_type %q for provider %s", p.APIType, p.Name)
		}
	}
	return nil, fmt.Errorf("no enabled provider in providers config")
}

// openAIClient speaks the OpenAI-compatible chat completions API, which
// also covers DeepSeek and most self-hosted gateways.
type openAIClient struct {
	name    string
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	limiter *rate.Limiter
}

func newOpenAIClient(p models.ProviderConfig) *openAIClient {
	baseURL := strings.TrimSuffix(p.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &openAIClient{
		name:    p.Name,
		baseURL: baseURL,
		apiKey:  p.APIKey,
		model:   p.Model,
		http:    &http.Client{Timeout: requestTimeout},
		limiter: rate.NewLimiter(providerRate, providerRate*2),
	}
}

func (c *openAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	chatReq := models.ChatRequest{
		Model:       c.model,
		Messages:    []models.ChatMessage{{Role: "user", Content: prompt}},
		Stream:      false,
		Temperature: 0.7,
	}
	reqBody, err := json.Marshal(chatReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	return doChatRequest(c.http, req, c.name)
}

// azureClient uses Azure OpenAI deployment URLs and api-key headers. The
// model field names the deployment.
type azureClient struct {
	name       string
	baseURL    string
	apiKey     string
	deployment string
	http       *http.Client
	limiter    *rate.Limiter
}

func newAzureClient(p models.ProviderConfig) *azureClient {
	return &azureClient{
		name:       p.Name,
		baseURL:    strings.TrimSuffix(p.BaseURL, "/"),
		apiKey:     p.APIKey,
		deployment: p.Model,
		http:       &http.Client{Timeout: requestTimeout},
		limiter:    rate.NewLimiter(providerRate, providerRate*2),
	}
}

func (c *azureClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	if !strings.HasPrefix(c.baseURL, "https://") {
		return "", fmt.Errorf("azure provider %s requires a full https base URL", c.name)
	}

	chatReq := models.ChatRequest{
		Messages:    []models.ChatMessage{{Role: "user", Content: prompt}},
		Stream:      false,
		Temperature: 0.7,
	}
	reqBody, err := json.Marshal(chatReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=2023-05-15", c.baseURL, c.deployment)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	return doChatRequest(c.http, req, c.name)
}

// doChatRequest executes a chat completions request and extracts the first
// choice's content.
func doChatRequest(client *http.Client, req *http.Request, provider string) (string, error) {
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request to %s failed: %w", provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Printf("❌ [LLM] %s returned status %d: %s", provider, resp.StatusCode, truncate(string(body), 300))
		return "", fmt.Errorf("%s API error (status %d)", provider, resp.StatusCode)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode %s response: %w", provider, err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%s response had no choices", provider)
	}

	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
