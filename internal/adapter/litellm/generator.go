package litellm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Strob0t/PlanForge/internal/port/planner"
)

// GeneratorConfig tunes the completion request sent per goal.
type GeneratorConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Generator implements planner.TaskGenerator on top of a LiteLLM proxy.
type Generator struct {
	client *Client
	cfg    GeneratorConfig
}

// NewGenerator creates a task generator using client.
func NewGenerator(client *Client, cfg GeneratorConfig) *Generator {
	return &Generator{client: client, cfg: cfg}
}

// Generate asks the model for a task breakdown of goal.
func (g *Generator) Generate(ctx context.Context, goal string) (*planner.Result, error) {
	resp, err := g.client.ChatCompletion(ctx, ChatCompletionRequest{
		Model: g.cfg.Model,
		Messages: []ChatMessage{
			{Role: "user", Content: planner.BuildPrompt(goal)},
		},
		Temperature:    g.cfg.Temperature,
		MaxTokens:      g.cfg.MaxTokens,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, err
	}

	tasks, err := planner.ParseTasks(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("litellm %s: %w", g.cfg.Model, err)
	}

	model := resp.Model
	if model == "" {
		model = g.cfg.Model
	}
	slog.Debug("litellm tasks generated",
		"model", model,
		"tasks", len(tasks),
		"tokens_in", resp.TokensIn,
		"tokens_out", resp.TokensOut,
	)
	return &planner.Result{Tasks: tasks, Model: model}, nil
}
