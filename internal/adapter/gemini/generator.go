// Package gemini implements the task generator on Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/Strob0t/PlanForge/internal/port/planner"
)

// ErrNoAPIKey is returned by New when no API key is configured.
var ErrNoAPIKey = errors.New("gemini: api key is required")

// Config tunes the Gemini model.
type Config struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// contentGenerator is the subset of *genai.GenerativeModel used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Generator implements planner.TaskGenerator.
type Generator struct {
	client *genai.Client
	model  contentGenerator
	name   string
}

// New creates a Gemini-backed generator.
func New(ctx context.Context, cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	m := client.GenerativeModel(cfg.Model)
	m.SetTemperature(float32(cfg.Temperature))
	if cfg.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(cfg.MaxTokens))
	}
	m.ResponseMIMEType = "application/json"

	return &Generator{client: client, model: m, name: cfg.Model}, nil
}

// Generate asks Gemini for a task breakdown of goal.
func (g *Generator) Generate(ctx context.Context, goal string) (*planner.Result, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(planner.BuildPrompt(goal)))
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	tasks, err := planner.ParseTasks(firstText(resp))
	if err != nil {
		return nil, fmt.Errorf("gemini %s: %w", g.name, err)
	}
	return &planner.Result{Tasks: tasks, Model: g.name}, nil
}

// Close releases the underlying client.
func (g *Generator) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// firstText concatenates the text parts of the first candidate.
func firstText(r *genai.GenerateContentResponse) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, part := range c.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}
