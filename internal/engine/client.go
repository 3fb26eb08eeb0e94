/*
PURPOSE:
  Core client for OpenAI-compatible chat completion endpoints.
  One instance per role: the target model and the evaluator (judge) model.

REQUIREMENTS:
  User-specified:
  - Single-turn chat: one user message, configured model and key.
  - Return the first choice's content, or "" if the provider returns none.

  Implementation-discovered:
  - A call that never resolves must not stall the run: per-call timeout.
  - Transient failures (429, 5xx, network) get a bounded retry with
    exponential backoff; everything else fails immediately.
  - The SDK's own retries are disabled so the configured policy is the only one.
  - Some providers enforce request quotas; optional client-side rate limit.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (generator, evaluator), internal/cli (list-models)
  - Uses: internal/config, internal/output
  - Dependencies: github.com/openai/openai-go, github.com/cenkalti/backoff/v5,
    golang.org/x/time/rate

ERROR HANDLING:
  - Errors that survive the retry policy are returned wrapped with the model name.
  - Cancellation of the parent context stops retries at once.

IMPLEMENTATION RULES:
  - Safe for concurrent use; holds no mutable state besides the limiter.

USAGE:
  c := engine.NewModelClient(cfg.Target, cfg)
  text, err := c.Complete(ctx, prompt)

SELF-HEALING INSTRUCTIONS:
  - If a provider needs extra headers, add option.RequestOption values in NewModelClient.

RELATED FILES:
  - internal/engine/backoff.go
  - internal/config/config.go

MAINTENANCE:
  - Update when bumping openai-go.
*/

package engine

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"

	"github.com/daryltucker/judge-runner/internal/config"
	"github.com/daryltucker/judge-runner/internal/output"
)

// Completer produces a single-turn completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ModelClient talks to one configured model endpoint.
type ModelClient struct {
	client   openai.Client
	endpoint string
	model    string
	timeout  time.Duration
	retry    config.RetryConfig
	limiter  *rate.Limiter
}

// NewModelClient creates a client for ep using the run-wide timeout and retry settings.
func NewModelClient(ep config.Endpoint, cfg *config.Config) *ModelClient {
	// ResponseHeaderTimeout bounds the wait for the first byte, which is
	// where slow self-hosted models spend most of their time.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = cfg.RequestTimeout

	opts := []option.RequestOption{
		option.WithBaseURL(ep.APIEndpoint),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Transport: transport}),
	}
	if ep.APIKey != "" {
		opts = append(opts, option.WithAPIKey(ep.APIKey))
	}

	c := &ModelClient{
		client:   openai.NewClient(opts...),
		endpoint: ep.APIEndpoint,
		model:    ep.ModelName,
		timeout:  cfg.RequestTimeout,
		retry:    cfg.Retry,
	}
	if ep.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(ep.RequestsPerMinute/60), max(1, cfg.Concurrency))
	}
	return c
}

// Model returns the configured model name.
func (c *ModelClient) Model() string { return c.model }

// Complete sends prompt as a single user message and returns the reply text.
// Retryable failures are retried with exponential backoff up to
// Retry.MaxAttempts calls in total.
func (c *ModelClient) Complete(ctx context.Context, prompt string) (string, error) {
	attempts := max(1, c.retry.MaxAttempts)

	var (
		tries     int
		permanent bool
	)
	text, err := backoff.Retry(ctx, func() (string, error) {
		tries++
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				permanent = true
				return "", backoff.Permanent(err)
			}
		}

		text, err := c.complete(ctx, prompt)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			permanent = true
			return "", backoff.Permanent(ctx.Err())
		}
		if !isRetryable(err) {
			permanent = true
			return "", backoff.Permanent(fmt.Errorf("model %s: %w", c.model, err))
		}
		return "", err
	},
		backoff.WithBackOff(newBackOff(c.retry)),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithNotify(func(err error, delay time.Duration) {
			output.Logger.Warn("Retrying completion...", "model", c.model, "attempt", tries+1, "delay", delay, "error", err)
		}),
	)
	if err == nil {
		return text, nil
	}
	if permanent || ctx.Err() != nil {
		return "", err
	}
	return "", fmt.Errorf("model %s: giving up after %d attempts: %w", c.model, tries, err)
}

func (c *ModelClient) complete(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		output.Logger.Debug("Completion returned no choices", "model", c.model)
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// ListModels returns the model IDs served at the endpoint.
func (c *ModelClient) ListModels(ctx context.Context) ([]string, error) {
	iter := c.client.Models.ListAutoPaging(ctx)

	var names []string
	for iter.Next() {
		names = append(names, iter.Current().ID)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list models at %s: %w", c.endpoint, err)
	}
	return names, nil
}
