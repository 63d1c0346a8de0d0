package summarizer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"journalsummarizer/internal/prompt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const DefaultModel = "gpt-4o-mini"

// OpenAIConfig contains configuration for the OpenAI-backed summarizer.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	Temperature float64
	// BaseURL overrides the API endpoint, e.g. for a proxy.
	BaseURL string
	// Timeout bounds a single request. Zero leaves it to the caller's context.
	Timeout time.Duration
}

// OpenAISummarizer calls OpenAI's Chat Completions API to produce summaries.
type OpenAISummarizer struct {
	client      openai.Client
	model       string
	temperature float64
}

// NewOpenAISummarizer builds a new summarizer instance.
func NewOpenAISummarizer(cfg OpenAIConfig) (*OpenAISummarizer, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &OpenAISummarizer{
		client:      openai.NewClient(opts...),
		model:       model,
		temperature: cfg.Temperature,
	}, nil
}

func (s *OpenAISummarizer) Model() string {
	return s.model
}

// Summarize sends a single chat completion request. It never retries.
func (s *OpenAISummarizer) Summarize(
	ctx context.Context,
	msgs prompt.Messages,
) (string, error) {
	capture := &responseCapture{}

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(msgs.System),
			openai.UserMessage(msgs.User),
		},
		Temperature: openai.Float(s.temperature),
	}, option.WithMiddleware(capture.middleware))
	if err != nil {
		return "", capture.upstreamError(err)
	}

	if len(resp.Choices) == 0 {
		return NoSummary, nil
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return NoSummary, nil
	}

	return summary, nil
}

// responseCapture keeps the raw upstream status and body so failures can be
// reported with the exact text the API sent.
type responseCapture struct {
	received bool
	status   int
	body     []byte
}

func (c *responseCapture) middleware(
	req *http.Request,
	next option.MiddlewareNext,
) (*http.Response, error) {
	res, err := next(req)
	if err != nil || res == nil {
		return res, err
	}

	body, readErr := io.ReadAll(res.Body)
	_ = res.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("read response body: %w", readErr)
	}
	res.Body = io.NopCloser(bytes.NewReader(body))

	c.received = true
	c.status = res.StatusCode
	c.body = body

	return res, nil
}

func (c *responseCapture) upstreamError(err error) *UpstreamError {
	if !c.received {
		return &UpstreamError{Err: err}
	}

	body := string(c.body)
	if c.status >= http.StatusOK && c.status < http.StatusMultipleChoices {
		return &UpstreamError{
			StatusCode:  c.status,
			Body:        body,
			Unparseable: true,
			Err:         err,
		}
	}

	return &UpstreamError{
		StatusCode: c.status,
		Body:       body,
		Err:        err,
	}
}
