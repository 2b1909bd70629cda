// Package evaluator sends analysis requests to an LLM provider and reconciles
// the reply into the canonical result shape.
package evaluator

import (
	"context"
	"log/slog"
	"strings"

	"github.com/muhammadolammi/jobmatch/internal/jobmatch"
	"github.com/muhammadolammi/jobmatch/internal/prompt"
)

// Completer performs one chat completion against a provider. credential is
// the caller-supplied API key for this call.
type Completer interface {
	Name() string
	Complete(ctx context.Context, credential, system, user string) (string, error)
}

type Client struct {
	completer Completer
	logger    *slog.Logger
}

func NewClient(completer Completer, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		completer: completer,
		logger:    logger.With("component", "evaluator", "provider", completer.Name()),
	}
}

// Evaluate issues exactly one provider request for jobs. Transport and parse
// failures are returned as is; there are no retries.
func (c *Client) Evaluate(ctx context.Context, credential string, prefs jobmatch.PreferenceSet, resume string, jobs []jobmatch.ScrapedJobRecord) (*jobmatch.EvaluationResult, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, ErrMissingCredential
	}

	userPrompt, err := prompt.Build(prefs, resume, jobs)
	if err != nil {
		return nil, err
	}

	c.logger.Info("requesting evaluation", "jobs", len(jobs), "resume_chars", len(resume))

	raw, err := c.completer.Complete(ctx, credential, prompt.System(), userPrompt)
	if err != nil {
		return nil, &ProviderError{Provider: c.completer.Name(), Err: err}
	}
	if strings.TrimSpace(raw) == "" {
		return nil, &ProviderError{Provider: c.completer.Name(), Err: ErrEmptyReply}
	}

	doc, err := normalizeDocument(raw)
	if err != nil {
		return nil, err
	}

	violations, err := jobmatch.ValidateResultShape(doc)
	if err != nil {
		c.logger.Warn("result schema check unavailable", "error", err)
	}
	if len(violations) > 0 {
		c.logger.Warn("evaluation reply deviates from result schema", "violations", violations)
	}

	result, err := decode(doc)
	if err != nil {
		return nil, err
	}
	c.logger.Info("evaluation received", "evaluations", len(result.Evaluations))
	return result, nil
}
