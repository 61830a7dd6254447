package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	openai "github.com/sashabaranov/go-openai"

	bcimaging "github.com/ironsheep/bowlcheck/internal/imaging"
	"github.com/ironsheep/bowlcheck/internal/remote"
)

// ServiceName identifies this collaborator in errors and logs.
const ServiceName = "vision"

// Config selects the model endpoint.
type Config struct {
	APIKey      string
	BaseURL     string // empty for the public OpenAI endpoint
	Model       string
	MaxTokens   int
	Temperature float32

	// MaxImageSize caps the longer side of the uploaded bowl crop.
	MaxImageSize int

	// JPEGQuality is the quality of the uploaded crop (1-100).
	JPEGQuality int
}

func (c *Config) applyDefaults() {
	if c.Model == "" {
		c.Model = openai.GPT4o
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 1000
	}
	if c.MaxImageSize <= 0 {
		c.MaxImageSize = 1024
	}
	if c.JPEGQuality <= 0 || c.JPEGQuality > 100 {
		c.JPEGQuality = 85
	}
}

// OpenAI classifies bowl images through a chat-completions endpoint.
type OpenAI struct {
	client *openai.Client
	cfg    Config
}

// NewOpenAI builds a client. A missing API key yields an ErrUnavailable
// service error so callers can fall back without trying a request.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, remote.Unavailable(ServiceName, errors.New("no API key configured"))
	}
	cfg.applyDefaults()

	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &OpenAI{client: openai.NewClientWithConfig(cc), cfg: cfg}, nil
}

// Model returns the model name requests are sent to.
func (o *OpenAI) Model() string { return o.cfg.Model }

// Classify asks the model which vocabulary ingredients are visible in img.
func (o *OpenAI) Classify(ctx context.Context, img image.Image, vocabulary, reference []string) (*Classification, error) {
	if bcimaging.IsEmpty(img) {
		return nil, remote.Malformed(ServiceName, errors.New("empty image"))
	}

	fitted := imaging.Fit(img, o.cfg.MaxImageSize, o.cfg.MaxImageSize, imaging.Lanczos)
	data, err := bcimaging.EncodeJPEG(fitted, o.cfg.JPEGQuality)
	if err != nil {
		return nil, fmt.Errorf("vision: %w", err)
	}
	dataURI := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)

	req := openai.ChatCompletionRequest{
		Model:       o.cfg.Model,
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: BuildPrompt(vocabulary, reference)},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
						URL:    dataURI,
						Detail: openai.ImageURLDetailHigh,
					}},
				},
			},
		},
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, classifyError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return nil, remote.Malformed(ServiceName, errors.New("reply has no choices"))
	}

	c, err := ParseClassification(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, remote.Malformed(ServiceName, err)
	}
	return c, nil
}

// classifyError maps a client failure onto a remote error kind.
func classifyError(ctx context.Context, err error) error {
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return err
	}

	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == 0:
		// No HTTP status: timeouts, refused connections, resets.
		return remote.Transient(ServiceName, err)
	case status == http.StatusTooManyRequests, status == http.StatusRequestTimeout, status >= 500:
		return remote.Transient(ServiceName, err)
	default:
		return remote.Unavailable(ServiceName, err)
	}
}
