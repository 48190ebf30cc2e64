// Package provider implements the chat-completion clients used by phrasekit:
// OpenAI-compatible chat/completions (OpenAI, Groq, Ollama, custom endpoints),
// Google AI (Gemini) generateContent and Anthropic messages.
//
// A Client sends one system message and one user message and returns the text
// of the first reply. It never retries; timeouts come from the HTTP client.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Provider IDs
// ---------------------------------------------------------------------------

const (
	ProviderOpenAI       = "openai"
	ProviderGoogle       = "google"
	ProviderAnthropic    = "anthropic"
	ProviderGroq         = "groq"
	ProviderOllama       = "ollama"
	ProviderCustomOpenAI = "custom-openai"
)

// ---------------------------------------------------------------------------
// Provider configuration
// ---------------------------------------------------------------------------

// Provider holds the configuration for a chat-completion service.
type Provider struct {
	// ID is the provider identifier (openai, google, groq, etc.).
	ID string
	// Name is the display name.
	Name string
	// BaseURL is the API base URL.
	BaseURL string
	// APIKey is the authentication key (empty for local services).
	APIKey string
	// Model is the default model identifier.
	Model string
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Timeout is the request timeout.
	Timeout time.Duration
}

// DefaultProviders returns the pre-configured provider definitions.
func DefaultProviders() map[string]Provider {
	return map[string]Provider{
		ProviderOpenAI: {
			ID:      ProviderOpenAI,
			Name:    "OpenAI",
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o",
			Timeout: 120 * time.Second,
		},
		ProviderGoogle: {
			ID:      ProviderGoogle,
			Name:    "Google AI (Gemini)",
			BaseURL: "https://generativelanguage.googleapis.com",
			Model:   "gemini-2.5-flash",
			Timeout: 120 * time.Second,
		},
		ProviderAnthropic: {
			ID:      ProviderAnthropic,
			Name:    "Anthropic",
			BaseURL: "https://api.anthropic.com/v1",
			Model:   "",
			Timeout: 120 * time.Second,
		},
		ProviderGroq: {
			ID:      ProviderGroq,
			Name:    "Groq",
			BaseURL: "https://api.groq.com/openai/v1",
			Model:   "",
			Timeout: 60 * time.Second,
		},
		ProviderOllama: {
			ID:      ProviderOllama,
			Name:    "Ollama",
			BaseURL: "http://localhost:11434/v1",
			Model:   "",
			Timeout: 120 * time.Second,
		},
		ProviderCustomOpenAI: {
			ID:      ProviderCustomOpenAI,
			Name:    "Custom OpenAI",
			Model:   "",
			Timeout: 60 * time.Second,
		},
	}
}

// Overrides carries user-supplied values that replace provider defaults.
// Zero values keep the default.
type Overrides struct {
	BaseURL string
	APIKey  string
	Model   string
	Proxy   string
	Timeout time.Duration
}

// Resolve returns the provider definition for id with overrides applied.
// Unknown IDs are treated as custom OpenAI-compatible endpoints.
func Resolve(id string, o Overrides) Provider {
	defaults := DefaultProviders()

	prov, ok := defaults[strings.ToLower(id)]
	if !ok {
		prov = defaults[ProviderCustomOpenAI]
		prov.Name = id
	}

	if o.BaseURL != "" {
		prov.BaseURL = o.BaseURL
	}
	if o.APIKey != "" {
		prov.APIKey = o.APIKey
	}
	if o.Model != "" {
		prov.Model = o.Model
	}
	if o.Proxy != "" {
		prov.Proxy = o.Proxy
	}
	if o.Timeout > 0 {
		prov.Timeout = o.Timeout
	}
	return prov
}

// Validate reports whether the provider has what it needs to make a call.
func Validate(prov Provider) error {
	if prov.Model == "" {
		return fmt.Errorf("a model is required for provider '%s' (use --model)", prov.ID)
	}
	if prov.BaseURL == "" {
		return fmt.Errorf("provider '%s' requires an endpoint URL (use --base-url)", prov.ID)
	}
	switch prov.ID {
	case ProviderOllama, ProviderCustomOpenAI:
		// Local and self-hosted endpoints may run without a key.
	default:
		if prov.APIKey == "" {
			return fmt.Errorf("provider '%s' requires an API key\n\n"+
				"Option 1: Store your API key:\n"+
				"  phrasekit auth login --provider %s\n\n"+
				"Option 2: Pass key directly:\n"+
				"  --api-key YOUR_KEY or export PHRASEKIT_API_KEY=YOUR_KEY", prov.ID, prov.ID)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// API format types
// ---------------------------------------------------------------------------

type apiFormat int

const (
	formatOpenAIChat   apiFormat = iota // OpenAI chat/completions
	formatGeminiNative                  // Google Gemini generateContent
	formatAnthropic                     // Anthropic messages
)

func formatFor(id string) apiFormat {
	switch id {
	case ProviderGoogle:
		return formatGeminiNative
	case ProviderAnthropic:
		return formatAnthropic
	default:
		return formatOpenAIChat
	}
}

// ---------------------------------------------------------------------------
// Client
// ---------------------------------------------------------------------------

// Client sends chat-completion requests to a single provider.
type Client struct {
	prov        Provider
	format      apiFormat
	http        *http.Client
	temperature float64
}

// New returns a client for prov. The HTTP client honours prov.Proxy (or the
// HTTP_PROXY/HTTPS_PROXY environment) and prov.Timeout.
func New(prov Provider) *Client {
	return &Client{
		prov:        prov,
		format:      formatFor(prov.ID),
		http:        makeHTTPClient(prov.Proxy, prov.Timeout),
		temperature: 0.3,
	}
}

// Provider returns the provider definition the client was built with.
func (c *Client) Provider() Provider {
	return c.prov
}

// Complete sends the system and user messages and returns the reply text.
// An empty model falls back to the provider's default model.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt, model string) (string, error) {
	if model == "" {
		model = c.prov.Model
	}

	endpoint, headers, body, err := c.buildHTTPRequest(systemPrompt, userPrompt, model)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode, Body: truncate(string(respBody), 500)}
	}

	return extractResponseText(respBody)
}

// StatusError is returned when the API answers with a non-200 status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.Code, e.Body)
}

// ---------------------------------------------------------------------------
// HTTP client with proxy support
// ---------------------------------------------------------------------------

func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// ---------------------------------------------------------------------------
// Request builders for each API format
// ---------------------------------------------------------------------------

// buildHTTPRequest constructs the endpoint, headers, and body for the provider.
func (c *Client) buildHTTPRequest(systemPrompt, userPrompt, model string) (string, map[string]string, []byte, error) {
	headers := map[string]string{
		"Content-Type": "application/json",
	}
	baseURL := strings.TrimRight(c.prov.BaseURL, "/")

	var endpoint string
	var body []byte
	var err error

	switch c.format {
	case formatGeminiNative:
		endpoint = fmt.Sprintf("%s/v1beta/models/%s:generateContent", baseURL, model)
		if c.prov.APIKey != "" {
			headers["x-goog-api-key"] = c.prov.APIKey
		}
		body, err = buildGeminiRequest(systemPrompt, userPrompt, c.temperature)

	case formatAnthropic:
		endpoint = baseURL + "/messages"
		if c.prov.APIKey != "" {
			headers["x-api-key"] = c.prov.APIKey
		}
		headers["anthropic-version"] = "2023-06-01"
		body, err = buildAnthropicRequest(model, systemPrompt, userPrompt)

	default: // formatOpenAIChat
		if strings.HasSuffix(baseURL, "/chat/completions") {
			endpoint = baseURL
		} else {
			endpoint = baseURL + "/chat/completions"
		}
		if c.prov.APIKey != "" {
			headers["Authorization"] = "Bearer " + c.prov.APIKey
		}
		body, err = buildOpenAIChatRequest(model, systemPrompt, userPrompt, c.temperature)
	}

	if err != nil {
		return "", nil, nil, err
	}
	return endpoint, headers, body, nil
}

func buildOpenAIChatRequest(model, systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	req := struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature"`
		Stream      bool    `json:"stream"`
	}{
		Model: model,
		Messages: []msg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
		Stream:      false,
	}
	return json.Marshal(req)
}

func buildGeminiRequest(systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type part struct {
		Text string `json:"text"`
	}
	type content struct {
		Role  string `json:"role,omitempty"`
		Parts []part `json:"parts"`
	}
	type genConfig struct {
		Temperature float64 `json:"temperature"`
	}
	req := struct {
		Contents          []content `json:"contents"`
		GenerationConfig  genConfig `json:"generationConfig"`
		SystemInstruction *content  `json:"systemInstruction,omitempty"`
	}{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: userPrompt}}},
		},
		GenerationConfig: genConfig{Temperature: temperature},
	}
	if systemPrompt != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: systemPrompt}}}
	}
	return json.Marshal(req)
}

func buildAnthropicRequest(model, systemPrompt, userPrompt string) ([]byte, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	req := struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		System    string `json:"system,omitempty"`
		Messages  []msg  `json:"messages"`
	}{
		Model:     model,
		MaxTokens: 4096,
		System:    systemPrompt,
		Messages: []msg{
			{Role: "user", Content: userPrompt},
		},
	}
	return json.Marshal(req)
}

// ---------------------------------------------------------------------------
// Response parsing (multi-format)
// ---------------------------------------------------------------------------

// extractResponseText tries all known response formats and returns the text.
func extractResponseText(body []byte) (string, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("invalid JSON response: %w", err)
	}

	if errObj, ok := raw["error"]; ok && errObj != nil {
		if errMap, ok := errObj.(map[string]any); ok {
			if msg, ok := errMap["message"].(string); ok {
				return "", fmt.Errorf("API error: %s", msg)
			}
		}
		return "", fmt.Errorf("API error: %v", errObj)
	}

	// 1. OpenAI chat format: choices[0].message.content
	if choices, ok := raw["choices"].([]any); ok {
		if len(choices) == 0 {
			return "", fmt.Errorf("response contains no choices")
		}
		if choice, ok := choices[0].(map[string]any); ok {
			if message, ok := choice["message"].(map[string]any); ok {
				if content, ok := message["content"].(string); ok {
					return content, nil
				}
			}
		}
		return "", fmt.Errorf("first choice has no message content")
	}

	// 2. Gemini format: candidates[0].content.parts[0].text
	if candidates, ok := raw["candidates"].([]any); ok && len(candidates) > 0 {
		if candidate, ok := candidates[0].(map[string]any); ok {
			if content, ok := candidate["content"].(map[string]any); ok {
				if parts, ok := content["parts"].([]any); ok && len(parts) > 0 {
					if part, ok := parts[0].(map[string]any); ok {
						if text, ok := part["text"].(string); ok {
							return text, nil
						}
					}
				}
			}
		}
	}

	// 3. Anthropic format: content[].type=="text" -> .text
	if contentArr, ok := raw["content"].([]any); ok {
		for _, c := range contentArr {
			if block, ok := c.(map[string]any); ok && block["type"] == "text" {
				if text, ok := block["text"].(string); ok {
					return text, nil
				}
			}
		}
	}

	return "", fmt.Errorf("could not extract text from response: %s", truncate(string(body), 500))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
