package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// ChatCompletionsProvider speaks the OpenAI-compatible /chat/completions
// protocol used by DeepSeek and Qwen (DashScope compatible mode).
type ChatCompletionsProvider struct {
	ProviderName string
	BaseURL      string // e.g. "https://api.deepseek.com"
	APIKeyEnv    string // e.g. "DEEPSEEK_API_KEY"
	APIKey       string // Optional; overrides APIKeyEnv
	DefaultModel string
	HTTPClient   *http.Client
}

var _ Provider = (*ChatCompletionsProvider)(nil)

// NewDeepSeekProvider returns the DeepSeek chat provider.
func NewDeepSeekProvider() *ChatCompletionsProvider {
	return &ChatCompletionsProvider{
		ProviderName: "deepseek",
		BaseURL:      "https://api.deepseek.com",
		APIKeyEnv:    "DEEPSEEK_API_KEY",
		DefaultModel: "deepseek-chat",
	}
}

// NewQwenProvider returns the Qwen provider on DashScope's compatible endpoint.
func NewQwenProvider() *ChatCompletionsProvider {
	return &ChatCompletionsProvider{
		ProviderName: "qwen",
		BaseURL:      "https://dashscope.aliyuncs.com/compatible-mode/v1",
		APIKeyEnv:    "DASHSCOPE_API_KEY",
		DefaultModel: "qwen-plus",
	}
}

type Message struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
	Stream      bool      `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *ChatCompletionsProvider) Name() string { return p.ProviderName }

func (p *ChatCompletionsProvider) tag() string {
	return strings.ToUpper(p.ProviderName)
}

func (p *ChatCompletionsProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	apiKey := p.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(p.APIKeyEnv)
	}
	apiKey = stringOption(options, OptionAPIKey, apiKey)
	if apiKey == "" {
		return "", fmt.Errorf("%s_API_KEY_MISSING: Please set %s env var", p.tag(), p.APIKeyEnv)
	}

	messages := make([]Message, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, Message{Content: systemPrompt, Role: "system"})
	}
	messages = append(messages, Message{Content: prompt, Role: "user"})

	reqBody := chatRequest{
		Model:       stringOption(options, OptionModel, p.DefaultModel),
		Messages:    messages,
		MaxTokens:   intOption(options, OptionMaxTokens, 4096),
		Temperature: floatOption(options, OptionTemperature, 0.4),
	}

	jsonBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%s_MARSHAL_ERROR: %v", p.tag(), err)
	}

	url := strings.TrimSuffix(p.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBytes))
	if err != nil {
		return "", fmt.Errorf("%s_REQ_CREATE_ERROR: %v", p.tag(), err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	client := p.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	res, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s_API_CALL_ERROR: %w", p.tag(), err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("%s_READ_BODY_ERROR: %v", p.tag(), err)
	}

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s_API_ERROR: status=%d found=%s", p.tag(), res.StatusCode, string(body))
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("%s_UNMARSHAL_ERROR: %v", p.tag(), err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("%s_NO_CHOICES: %s", p.tag(), string(body))
	}

	return response.Choices[0].Message.Content, nil
}

func (p *ChatCompletionsProvider) AdaptInstructions(raw string) string {
	return raw
}
