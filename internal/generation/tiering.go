package generation

import (
	"context"
	"errors"
	"time"

	"alcyxob/plan-engine/internal/domain"
	"alcyxob/plan-engine/internal/logger"
)

// Strategy is the first tier a request is allowed to try.
type Strategy int

const (
	StrategyPersonalized Strategy = iota + 1
	StrategyTemplate
	StrategyKeepExisting
)

func (s Strategy) String() string {
	switch s {
	case StrategyPersonalized:
		return "personalized"
	case StrategyTemplate:
		return "template"
	case StrategyKeepExisting:
		return "keep_existing"
	}
	return "unknown"
}

// StrategyFor maps the user's entitlement to the first tier to try.
func StrategyFor(premium bool) Strategy {
	if premium {
		return StrategyPersonalized
	}
	return StrategyTemplate
}

// Outcome is the result of running the tiers. When Strategy is
// StrategyKeepExisting, Meals is the existing content and nothing new was
// produced.
type Outcome struct {
	Strategy Strategy
	Meals    []domain.Meal
	Source   string
	// Cause is the last tier failure, if any.
	Cause error
}

// Regenerated reports whether a generator produced new content.
func (o Outcome) Regenerated() bool {
	return o.Strategy != StrategyKeepExisting
}

// Tiers runs the fallback chain personalized -> template -> keep existing.
type Tiers struct {
	personalized        Generator
	template            Generator
	personalizedTimeout time.Duration
	templateTimeout     time.Duration
	log                 *logger.Logger
}

// NewTiers wires the chain. personalized may be nil when no provider is
// configured; premium requests then start at the template.
func NewTiers(personalized, template Generator, personalizedTimeout, templateTimeout time.Duration, log *logger.Logger) *Tiers {
	return &Tiers{
		personalized:        personalized,
		template:            template,
		personalizedTimeout: personalizedTimeout,
		templateTimeout:     templateTimeout,
		log:                 log,
	}
}

// Diet produces meals starting at the given tier. It never fails: the last
// tier returns the existing meals unchanged.
func (t *Tiers) Diet(ctx context.Context, start Strategy, req Request, existing []domain.Meal) Outcome {
	var cause error
	if start == StrategyPersonalized {
		if t.personalized == nil {
			cause = errors.New("personalized generation not configured")
		} else {
			meals, err := t.run(ctx, t.personalized, t.personalizedTimeout, req)
			if err == nil {
				return Outcome{Strategy: StrategyPersonalized, Meals: meals, Source: domain.SourcePersonalized}
			}
			cause = err
		}
		t.log.Warn("personalized generation failed, using template", "error", cause)
		start = StrategyTemplate
	}
	if start == StrategyTemplate && t.template != nil {
		meals, err := t.run(ctx, t.template, t.templateTimeout, req)
		if err == nil {
			return Outcome{Strategy: StrategyTemplate, Meals: meals, Source: domain.SourceTemplate, Cause: cause}
		}
		cause = err
		t.log.Warn("template generation failed, keeping existing content", "error", cause)
	}
	return Outcome{Strategy: StrategyKeepExisting, Meals: existing, Cause: cause}
}

func (t *Tiers) run(ctx context.Context, g Generator, timeout time.Duration, req Request) ([]domain.Meal, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	plan, err := g.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	meals := Meals(plan)
	if len(meals) == 0 {
		return nil, errMalformed("no meals")
	}
	return meals, nil
}
