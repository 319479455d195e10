package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/fiddyhq/autopublisher/pkg/domain"
	"github.com/fiddyhq/autopublisher/pkg/logger"
	"github.com/fiddyhq/autopublisher/pkg/models"
)

// DefaultTitleCount is how many title candidates a batch request asks for
// when the caller does not say otherwise.
const DefaultTitleCount = 5

// Client wraps the OpenAI API for text and image generation
type Client struct {
	client      *openai.Client
	model       string
	imageModel  string
	temperature float32
	maxTokens   int
	limiter     *rate.Limiter
	logger      logger.Logger
}

// Config for the generation client
type Config struct {
	APIKey            string
	Model             string  // default: gpt-4o
	ImageModel        string  // default: dall-e-3
	Temperature       float32 // default: 0.7
	MaxTokens         int     // default: 2000
	RequestsPerMinute int     // provider-side budget; default: 60
}

// New creates a new generation client
func New(cfg Config, log logger.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = "dall-e-3"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2000
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if log == nil {
		log = logger.Default()
	}

	var client *openai.Client
	if cfg.APIKey != "" {
		client = openai.NewClient(cfg.APIKey)
	}

	// One process-wide outbound limiter. Concurrent campaign runs share the
	// provider account, so the budget is enforced here rather than per call
	// site.
	rps := float64(cfg.RequestsPerMinute) / 60.0
	limiter := rate.NewLimiter(rate.Limit(rps), cfg.RequestsPerMinute)

	return &Client{
		client:      client,
		model:       cfg.Model,
		imageModel:  cfg.ImageModel,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		limiter:     limiter,
		logger:      log,
	}
}

// Configured reports whether the client has provider credentials.
func (c *Client) Configured() bool {
	return c.client != nil
}

// Options selects per-item inputs for a content generation call.
type Options struct {
	// Title pins the post title instead of letting the model choose one,
	// used when generating from an approved title queue item.
	Title string
	// ContentType picks the template; empty means rotate from the campaign.
	ContentType string
}

// Result is one generated post ready for humanization and publishing.
type Result struct {
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	Keywords    []string `json:"keywords"`
	ImagePrompt string   `json:"image_prompt"`
}

// GenerateTitles asks the provider for a batch of title candidates for the
// campaign's topic. Entries that do not look like real titles are dropped
// during parsing.
func (c *Client) GenerateTitles(ctx context.Context, campaign *models.Campaign, count int) ([]string, error) {
	if !c.Configured() {
		return nil, domain.NewProviderNotConfiguredError("openai")
	}
	if count <= 0 {
		count = DefaultTitleCount
	}

	system, user := buildTitlesPrompt(campaign, count)
	raw, err := c.complete(ctx, system, user)
	if err != nil {
		return nil, err
	}

	titles := parseTitleList(raw, count)
	if len(titles) == 0 {
		return nil, domain.NewGenerationFailedError(fmt.Errorf("no usable titles in response"))
	}
	return titles, nil
}

// GenerateContent produces a full post for the campaign: title, body,
// keywords and an image prompt. Keyword extraction is best-effort and never
// fails the call.
func (c *Client) GenerateContent(ctx context.Context, campaign *models.Campaign, opts Options) (*Result, error) {
	if !c.Configured() {
		return nil, domain.NewProviderNotConfiguredError("openai")
	}
	if opts.ContentType == "" {
		opts.ContentType = campaign.RotateContentType()
	}

	system, user := buildContentPrompt(campaign, opts)
	raw, err := c.complete(ctx, system, user)
	if err != nil {
		return nil, err
	}

	title, body := splitTitleBody(raw)
	if opts.Title != "" {
		title = opts.Title
	}
	if body == "" {
		return nil, domain.NewGenerationFailedError(fmt.Errorf("empty body in response"))
	}

	return &Result{
		Title:       title,
		Body:        body,
		Keywords:    c.GenerateKeywords(ctx, campaign.Topic, title),
		ImagePrompt: buildImagePrompt(campaign, title),
	}, nil
}

// GenerateKeywords extracts SEO keywords for a post. On any provider failure
// it falls back to a deterministic set derived from the topic, so content
// generation is never blocked by keyword extraction.
func (c *Client) GenerateKeywords(ctx context.Context, topic, title string) []string {
	if !c.Configured() {
		return fallbackKeywords(topic)
	}

	system, user := buildKeywordsPrompt(topic, title)
	raw, err := c.complete(ctx, system, user)
	if err != nil {
		c.logger.Warn("keyword generation failed, using topic fallback", "topic", topic, "error", err)
		return fallbackKeywords(topic)
	}

	keywords := parseKeywordList(raw)
	if len(keywords) == 0 {
		return fallbackKeywords(topic)
	}
	return keywords
}

// GenerateImage renders a featured image for the given prompt and returns
// its URL. Callers treat failures as "no image" rather than fatal.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", domain.NewProviderNotConfiguredError("openai")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", domain.NewGenerationFailedError(err)
	}

	start := time.Now()
	resp, err := c.client.CreateImage(ctx, openai.ImageRequest{
		Model:          c.imageModel,
		Prompt:         prompt,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("image generation failed", "model", c.imageModel, "duration", duration, "error", err)
		return "", mapProviderError(err)
	}
	if len(resp.Data) == 0 {
		return "", domain.NewGenerationFailedError(errors.New("no image in response"))
	}

	c.logger.Debug("image generation finished", "model", c.imageModel, "duration", duration)
	return resp.Data[0].URL, nil
}

// complete sends a single system+user chat exchange and returns the text.
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", domain.NewGenerationFailedError(err)
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("chat completion failed", "model", c.model, "duration", duration, "error", err)
		return "", mapProviderError(err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.NewGenerationFailedError(errors.New("empty response from provider"))
	}

	c.logger.Debug("chat completion finished",
		"model", c.model,
		"tokens", resp.Usage.TotalTokens,
		"duration", duration,
	)
	return resp.Choices[0].Message.Content, nil
}

// mapProviderError translates OpenAI API failures into the domain error
// taxonomy so the scheduler can tell a bad key from a billing problem from
// a transient rate limit.
func mapProviderError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return domain.NewProviderNotConfiguredError("openai")
		case http.StatusTooManyRequests:
			if code, ok := apiErr.Code.(string); ok && code == "insufficient_quota" {
				return domain.NewProviderQuotaError(err)
			}
			if apiErr.Type == "insufficient_quota" {
				return domain.NewProviderQuotaError(err)
			}
			return domain.NewProviderRateLimitedError(err)
		}
	}
	return domain.NewGenerationFailedError(err)
}
