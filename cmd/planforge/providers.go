package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Strob0t/PlanForge/internal/adapter/gemini"
	"github.com/Strob0t/PlanForge/internal/adapter/litellm"
	"github.com/Strob0t/PlanForge/internal/config"
	"github.com/Strob0t/PlanForge/internal/port/planner"
	"github.com/Strob0t/PlanForge/internal/resilience"
	"github.com/Strob0t/PlanForge/internal/service"
)

// newGenerator builds the task generator selected by cfg.Provider. A nil
// generator means every plan uses the fallback task list.
func newGenerator(ctx context.Context, cfg config.LLM) (planner.TaskGenerator, func(), error) {
	nop := func() {}

	switch cfg.Provider {
	case "none", "":
		return nil, nop, nil

	case "litellm":
		client := litellm.NewClient(cfg.URL, cfg.APIKey, cfg.Timeout)
		gen := litellm.NewGenerator(client, litellm.GeneratorConfig{
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		})
		return gen, nop, nil

	case "gemini":
		gen, err := gemini.New(ctx, gemini.Config{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		})
		if errors.Is(err, gemini.ErrNoAPIKey) {
			slog.Warn("gemini api key not set, plans will use the fallback task list")
			return nil, nop, nil
		}
		if err != nil {
			return nil, nop, err
		}
		return gen, func() {
			if err := gen.Close(); err != nil {
				slog.Warn("gemini close", "error", err)
			}
		}, nil

	default:
		return nil, nop, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// wireGenerator attaches the configured generator and its circuit breaker
// to svc. The returned func releases the generator.
func wireGenerator(ctx context.Context, svc *service.PlanService, cfg *config.Config) (func(), error) {
	gen, closeGen, err := newGenerator(ctx, cfg.LLM)
	if err != nil {
		return closeGen, err
	}
	if gen == nil {
		slog.Info("task generator disabled", "provider", cfg.LLM.Provider)
		return closeGen, nil
	}

	breaker := resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
	breaker.OnStateChange(func(from, to resilience.State) {
		slog.Warn("task generator breaker state changed",
			"provider", cfg.LLM.Provider, "from", from.String(), "to", to.String())
	})

	svc.SetGenerator(gen, cfg.LLM.Provider, cfg.LLM.Timeout)
	svc.SetBreaker(breaker)
	svc.SetBulkhead(resilience.NewBulkhead(cfg.LLM.MaxConcurrent))
	slog.Info("task generator enabled",
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
		"max_concurrent", cfg.LLM.MaxConcurrent,
	)
	return closeGen, nil
}
