// Package generate produces grounded answers: it renders the retrieved chunks into a prompt
// and calls a text-generation service once.
package generate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hyperjump/kotae/internal/failure"
	"go.uber.org/zap"
)

// Completer is a text-generation capability: prompt in, response text out.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Generator answers a query from supporting chunks.
type Generator struct {
	completer Completer
	template  string
	timeout   time.Duration
	logPrompt bool
	logger    *zap.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithTimeout bounds each completion call. Zero means only the caller's deadline applies.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) { g.timeout = d }
}

// WithTemplate replaces DefaultTemplate.
func WithTemplate(tmpl string) Option {
	return func(g *Generator) {
		if tmpl != "" {
			g.template = tmpl
		}
	}
}

// WithPromptLogging logs every rendered prompt at info level.
func WithPromptLogging(enabled bool) Option {
	return func(g *Generator) { g.logPrompt = enabled }
}

// New creates a generator over completer.
func New(completer Completer, opts ...Option) *Generator {
	g := &Generator{
		completer: completer,
		template:  DefaultTemplate,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// BuildPrompt renders the generator's template for query and chunks.
func (g *Generator) BuildPrompt(query string, chunks []string) string {
	return BuildPrompt(g.template, query, chunks)
}

// Generate calls the completer exactly once and returns its response unmodified.
// Zero chunks is valid; the prompt then asks the model to say it cannot answer.
// Failures, including an expired deadline, are upstream errors.
func (g *Generator) Generate(ctx context.Context, query string, chunks []string) (string, error) {
	prompt := g.BuildPrompt(query, chunks)
	if g.logPrompt {
		g.logger.Info("generation prompt", zap.String("prompt", prompt))
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	answer, err := g.completer.Complete(ctx, prompt)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		g.logger.Warn("generation failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return "", failure.Upstream(failure.StageAnswered, fmt.Errorf("failed to generate answer: %w", err))
	}
	g.logger.Debug("answer generated",
		zap.Int("chunks", len(chunks)),
		zap.Int("answer_len", len(answer)),
		zap.Duration("elapsed", time.Since(start)))
	return answer, nil
}
