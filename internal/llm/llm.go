// Package llm wraps the chat completion provider behind a small interface
// and applies the retry policy: at most one retry, transient errors only.
package llm

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"alcyxob/plan-engine/internal/config"
	"alcyxob/plan-engine/internal/logger"
)

// Message is one chat turn. Role is "system", "user" or "assistant".
type Message struct {
	Role    string
	Content string
}

// Tool is a function the model may call.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

type Request struct {
	Model       string
	Messages    []Message
	Tools       []Tool
	Temperature float64
}

type ToolCall struct {
	Name      string
	Arguments string
}

type Completion struct {
	Content   string
	ToolCalls []ToolCall
}

// Completer is implemented by Client and by test fakes.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
}

type Client struct {
	api       openai.Client
	retryWait time.Duration
	log       *logger.Logger
}

// NewClient builds a provider client. Provider-side retries are disabled; the
// retry policy lives in Complete.
func NewClient(cfg config.OpenAIConfig, retryWait time.Duration, log *logger.Logger) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{api: openai.NewClient(opts...), retryWait: retryWait, log: log}
}

// Complete sends one chat completion, retrying once on transient errors.
func (c *Client) Complete(ctx context.Context, req Request) (*Completion, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(req.Model),
		Messages:    toMessages(req.Messages),
		Temperature: openai.Float(req.Temperature),
	}
	for _, t := range req.Tools {
		params.Tools = append(params.Tools, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  openai.FunctionParameters(t.Parameters),
			},
		})
	}

	resp, err := Retry(ctx, c.retryWait, func() (*openai.ChatCompletion, error) {
		r, err := c.api.Chat.Completions.New(ctx, params)
		if err != nil && Transient(err) {
			c.log.Warn("completion attempt failed", "model", req.Model, "error", err)
		}
		return r, err
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("completion returned no choices")
	}
	msg := resp.Choices[0].Message
	out := &Completion{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{Name: tc.Function.Name, Arguments: tc.Function.Arguments})
	}
	return out, nil
}

func toMessages(in []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(in))
	for _, m := range in {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// Retry runs op and retries it once after wait when it fails transiently.
func Retry[T any](ctx context.Context, wait time.Duration, op func() (T, error)) (T, error) {
	return backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err != nil && !Transient(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(wait)),
		backoff.WithMaxTries(2),
	)
}

// Transient reports whether err is a transport failure worth one retry:
// connection errors, 429 and 5xx responses. Deadlines are not retried.
func Transient(err error) bool {
	if err == nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}
