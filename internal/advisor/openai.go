package advisor

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/Billy-Davies-2/draftboard/internal/logger"
)

var ErrNoAPIKey = errors.New("OpenAI API key not configured")

// Completer turns a prompt into completion text
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OpenAIConfig configures the OpenAI client
type OpenAIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	// MinInterval spaces requests; Burst allows short runs above it
	MinInterval time.Duration
	Burst       int
	// CacheTTL keeps identical prompts from being sent twice; 0 disables caching
	CacheTTL time.Duration
}

// DefaultOpenAIConfig returns the chat-completions settings the board uses
func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		BaseURL:     "https://api.openai.com",
		Model:       "gpt-4o",
		Temperature: 0.7,
		MaxTokens:   500,
		Timeout:     30 * time.Second,
		MinInterval: 2 * time.Second,
		Burst:       2,
		CacheTTL:    10 * time.Minute,
	}
}

// APIError is a non-2xx response from the completion service
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("OpenAI API error: %d", e.StatusCode)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// OpenAIClient calls the chat completions endpoint
type OpenAIClient struct {
	config     OpenAIConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *gocache.Cache
}

// NewOpenAIClient creates a client authenticated with cfg.APIKey
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	def := DefaultOpenAIConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}

	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(context.Background(), src)
	httpClient.Timeout = cfg.Timeout

	c := &OpenAIClient{
		config:     cfg,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, cfg.Burst),
	}
	if cfg.CacheTTL > 0 {
		c.cache = gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return c, nil
}

// Complete sends prompt as a single user message and returns the reply text
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	key := promptKey(prompt)
	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			logger.Debug("Advisor: completion cache hit", "key", key[:12])
			return v.(string), nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Model:          c.config.Model,
		Messages:       []chatMessage{{Role: "user", Content: prompt}},
		Temperature:    c.config.Temperature,
		MaxTokens:      c.config.MaxTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read completion: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	var out chatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("completion has no choices")
	}

	text := out.Choices[0].Message.Content
	logger.Debug("Advisor: completion received", "model", c.config.Model, "duration_ms", time.Since(start).Milliseconds())
	if c.cache != nil {
		c.cache.SetDefault(key, text)
	}
	return text, nil
}

func promptKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
