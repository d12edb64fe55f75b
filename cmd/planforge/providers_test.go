package main

import (
	"context"
	"testing"

	"github.com/Strob0t/PlanForge/internal/config"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
	"github.com/Strob0t/PlanForge/internal/service"
)

func TestNewGeneratorProviders(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LLM
		wantGen bool
		wantErr bool
	}{
		{"none", config.LLM{Provider: "none"}, false, false},
		{"empty", config.LLM{}, false, false},
		{"litellm", config.LLM{Provider: "litellm", URL: "http://localhost:4000", Model: "m"}, true, false},
		{"gemini without key", config.LLM{Provider: "gemini", Model: "gemini-2.0-flash"}, false, false},
		{"unknown", config.LLM{Provider: "openai"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, closeGen, err := newGenerator(context.Background(), tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if closeGen == nil {
				t.Fatal("close func must never be nil")
			}
			closeGen()
			if (gen != nil) != tt.wantGen {
				t.Fatalf("generator present = %v, want %v", gen != nil, tt.wantGen)
			}
		})
	}
}

func TestWireGeneratorDisabledUsesFallback(t *testing.T) {
	cfg := config.Defaults()
	cfg.LLM.Provider = "none"

	svc := service.NewPlanService(discardStore{}, cfg.Planner)
	closeGen, err := wireGenerator(context.Background(), svc, &cfg)
	if err != nil {
		t.Fatalf("wireGenerator: %v", err)
	}
	defer closeGen()

	days := 14
	p, err := svc.Generate(context.Background(), &plan.GenerateRequest{
		Goal:        "Ship the release",
		HorizonDays: &days,
		StartDate:   "2024-01-01T00:00:00Z",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if p.AIGenerated || len(p.Tasks) != 3 {
		t.Fatalf("expected 3 fallback tasks, got aiGenerated=%v tasks=%d", p.AIGenerated, len(p.Tasks))
	}
	if got := plan.TotalDays(p.Tasks); got != 14 {
		t.Fatalf("expected 14 total days, got %d", got)
	}
}
