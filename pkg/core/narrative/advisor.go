// Package narrative turns computed ROI figures into an executive narrative by
// calling a text-generation provider. It performs no financial computation.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"roi_advisor/pkg/core/llm"
	"roi_advisor/pkg/core/prompt"
	"roi_advisor/pkg/core/utils"
)

// AgentName is the agent key looked up in models.yaml.
const AgentName = "roi_advisor"

// DefaultContext is the business context the advisor form starts with.
const DefaultContext = "Consulting firm implementing AI agents to assist analysts with research and drafting."

var (
	ErrEmptyResponse    = errors.New("provider returned an empty analysis")
	ErrGenerationFailed = errors.New("analysis generation failed")
)

// User-facing messages shown instead of raw provider errors.
const (
	MsgEmptyResponse   = "Unable to generate analysis at this time."
	MsgGenerationError = "Error generating analysis. Please ensure your API key is configured correctly."
)

// UserMessage maps an Analyze error to the message shown to end users.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyResponse):
		return MsgEmptyResponse
	default:
		return MsgGenerationError
	}
}

// ProviderSource resolves the provider and model for an agent in one step; *agent.Manager satisfies it.
type ProviderSource interface {
	Resolve(agentType string) (llm.Provider, string)
}

// Report is the generated analysis. Markdown is the provider text with outer fences removed.
type Report struct {
	ID          string    `json:"id"`
	Markdown    string    `json:"markdown"`
	HTML        string    `json:"html,omitempty"`
	Sections    []Section `json:"sections,omitempty"`
	Provider    string    `json:"provider"`
	Model       string    `json:"model,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	Cached      bool      `json:"cached"`
}

type Advisor struct {
	source   ProviderSource
	cache    Cache
	registry *prompt.Registry
	logger   *zap.Logger

	// Temperature passed to the provider.
	Temperature float64
}

// NewAdvisor builds an advisor. cache may be nil; logger defaults to a no-op.
func NewAdvisor(source ProviderSource, cache Cache, logger *zap.Logger) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{
		source:      source,
		cache:       cache,
		registry:    prompt.Get(),
		logger:      logger,
		Temperature: 0.4,
	}
}

// WithRegistry swaps the prompt registry (tests use a private one).
func (a *Advisor) WithRegistry(r *prompt.Registry) *Advisor {
	a.registry = r
	return a
}

// Analyze issues exactly one generation request, unless the cache already holds
// a report for the same scenario, context, drivers, provider and model.
func (a *Advisor) Analyze(ctx context.Context, req Request) (*Report, error) {
	provider, model := a.source.Resolve(AgentName)
	if provider == nil {
		return nil, fmt.Errorf("%w: no provider configured", ErrGenerationFailed)
	}
	key := Fingerprint(req.Scenario, req.Context, provider.Name(), model, req.Drivers)

	if a.cache != nil {
		cached, ok, err := a.cache.Get(ctx, key)
		if err != nil {
			a.logger.Warn("narrative cache read failed", zap.Error(err))
		} else if ok {
			a.logger.Debug("narrative cache hit", zap.String("key", key[:12]))
			hit := *cached
			hit.Cached = true
			return &hit, nil
		}
	}

	system, user, err := BuildPrompt(a.registry, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	options := map[string]interface{}{llm.OptionTemperature: a.Temperature}
	if model != "" {
		options[llm.OptionModel] = model
	}

	start := time.Now()
	text, err := provider.GenerateResponse(ctx, user, provider.AdaptInstructions(system), options)
	if err != nil {
		a.logger.Error("narrative generation failed",
			zap.String("provider", provider.Name()), zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	markdown := utils.CleanMarkdown(text)
	if markdown == "" {
		return nil, ErrEmptyResponse
	}

	report := &Report{
		ID:          uuid.NewString(),
		Markdown:    markdown,
		Provider:    provider.Name(),
		Model:       model,
		GeneratedAt: time.Now().UTC(),
	}
	if sections, html, perr := ParseSections(markdown); perr != nil {
		a.logger.Warn("narrative section parsing failed", zap.Error(perr))
	} else {
		report.Sections, report.HTML = sections, html
	}

	a.logger.Info("narrative generated",
		zap.String("id", report.ID), zap.String("provider", report.Provider),
		zap.Int("sections", len(report.Sections)), zap.Duration("elapsed", time.Since(start)))

	if a.cache != nil {
		if err := a.cache.Put(ctx, key, report); err != nil {
			a.logger.Warn("narrative cache write failed", zap.Error(err))
		}
	}
	return report, nil
}
