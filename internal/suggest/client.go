package suggest

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultModel       = "gpt-4o-mini"
	defaultVisionModel = "gpt-4o"
	defaultTimeout     = 60 * time.Second
	defaultMaxMarkup   = 80_000
)

// Client asks an OpenAI-compatible chat completions endpoint for locator
// candidates. It implements Provider.
type Client struct {
	baseURL        string
	apiKey         string
	model          string
	visionModel    string
	maxMarkupBytes int
	httpClient     *http.Client
	logger         *slog.Logger
}

// Option configures the Client during construction.
type Option func(*clientConfig) error

type clientConfig struct {
	model          string
	visionModel    string
	maxMarkupBytes int
	httpClient     *http.Client
	logger         *slog.Logger
	timeout        time.Duration
}

// New creates a Client for the given OpenAI-compatible endpoint. The apiKey
// is sent as an Authorization header on every request. A hung endpoint is
// bounded by a 60s client timeout unless WithTimeout overrides it.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("suggest: baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	cfg := &clientConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.timeout > 0 {
		httpClient.Timeout = cfg.timeout
	} else if httpClient.Timeout == 0 {
		httpClient.Timeout = defaultTimeout
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	model := cfg.model
	if model == "" {
		model = defaultModel
	}
	visionModel := cfg.visionModel
	if visionModel == "" {
		visionModel = defaultVisionModel
	}
	maxMarkup := cfg.maxMarkupBytes
	if maxMarkup <= 0 {
		maxMarkup = defaultMaxMarkup
	}

	return &Client{
		baseURL:        baseURL,
		apiKey:         apiKey,
		model:          model,
		visionModel:    visionModel,
		maxMarkupBytes: maxMarkup,
		httpClient:     httpClient,
		logger:         logger,
	}, nil
}

// WithModel sets the model used for markup suggestions.
func WithModel(m string) Option {
	return func(cfg *clientConfig) error {
		cfg.model = m
		return nil
	}
}

// WithVisionModel sets the model used for screenshot suggestions.
func WithVisionModel(m string) Option {
	return func(cfg *clientConfig) error {
		cfg.visionModel = m
		return nil
	}
}

// WithMaxMarkupBytes caps how much cleaned page markup is sent per request.
func WithMaxMarkupBytes(n int) Option {
	return func(cfg *clientConfig) error {
		cfg.maxMarkupBytes = n
		return nil
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *clientConfig) error {
		cfg.httpClient = c
		return nil
	}
}

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *clientConfig) error {
		cfg.logger = l
		return nil
	}
}

// WithTimeout sets a timeout on the HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cfg *clientConfig) error {
		cfg.timeout = d
		return nil
	}
}

// Chat completions wire types. Content is either a plain string or a list
// of typed parts when an image rides along.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// SuggestFromMarkup proposes candidates from the serialized page DOM.
func (c *Client) SuggestFromMarkup(ctx context.Context, originalLocator, errorMessage, markup string) ([]string, error) {
	prompt := markupPrompt(originalLocator, errorMessage, markup, c.maxMarkupBytes)
	content, err := c.complete(ctx, c.model, chatMessage{Role: "user", Content: prompt}, "suggest from markup")
	if err != nil {
		return nil, err
	}
	return parseCandidates(content), nil
}

// SuggestFromImage proposes candidates from a PNG screenshot of the page.
func (c *Client) SuggestFromImage(ctx context.Context, originalLocator, errorMessage string, screenshot []byte) ([]string, error) {
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(screenshot)
	msg := chatMessage{
		Role: "user",
		Content: []contentPart{
			{Type: "text", Text: imagePrompt(originalLocator, errorMessage)},
			{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
		},
	}
	content, err := c.complete(ctx, c.visionModel, msg, "suggest from image")
	if err != nil {
		return nil, err
	}
	return parseCandidates(content), nil
}

// complete executes one chat completion and returns the first choice's text.
// Error-status responses are surfaced as *APIError.
func (c *Client) complete(ctx context.Context, model string, msg chatMessage, operation string) (string, error) {
	reqBody, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    []chatMessage{msg},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("%s: encode request: %w", operation, err)
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("%s: create request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logger.InfoContext(ctx, "model request", "operation", operation, "model", model, "url", url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: do request: %w", operation, err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "model response", "operation", operation, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		var errRS errorResponse
		if json.Unmarshal(respBody, &errRS) == nil && errRS.Error.Message != "" {
			return "", newAPIError(operation, resp.StatusCode, errRS.Error.Type, errRS.Error.Message)
		}
		msg := string(respBody)
		if msg == "" {
			msg = resp.Status
		}
		return "", newAPIError(operation, resp.StatusCode, "", msg)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", operation, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%s: response has no choices", operation)
	}
	return out.Choices[0].Message.Content, nil
}
