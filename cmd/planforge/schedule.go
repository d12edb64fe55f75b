package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Strob0t/PlanForge/internal/config"
	"github.com/Strob0t/PlanForge/internal/domain"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
	"github.com/Strob0t/PlanForge/internal/service"
)

func newScheduleCmd() *cobra.Command {
	var (
		goal    string
		days    int
		start   string
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Generate a plan without a database and print it as JSON",
		Example: `  planforge schedule --goal "Learn Go in two weeks" --days 14
  planforge schedule --goal "Move house" --start 2024-06-01T09:00:00Z --offline`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// stdout carries the plan
			slog.SetDefault(slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn})))

			cfg, _, err := config.LoadWithCLI(cliFlags(cmd))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if offline {
				cfg.LLM.Provider = "none"
			}

			svc := service.NewPlanService(discardStore{}, cfg.Planner)
			closeGen, err := wireGenerator(cmd.Context(), svc, cfg)
			if err != nil {
				return fmt.Errorf("task generator: %w", err)
			}
			defer closeGen()

			req := &plan.GenerateRequest{Goal: goal, StartDate: start}
			if cmd.Flags().Changed("days") {
				req.HorizonDays = &days
			}
			p, err := svc.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		},
	}

	cmd.Flags().StringVar(&goal, "goal", "", "goal to plan for")
	cmd.Flags().IntVar(&days, "days", plan.DefaultHorizonDays, "planning horizon in days")
	cmd.Flags().StringVar(&start, "start", "", "start instant, RFC 3339 (default now)")
	cmd.Flags().BoolVar(&offline, "offline", false, "skip the task generator and use the fallback list")
	_ = cmd.MarkFlagRequired("goal")
	return cmd
}

// discardStore satisfies database.PlanStore for one-shot CLI runs.
type discardStore struct{}

func (discardStore) CreatePlan(context.Context, *plan.Plan) error { return nil }

func (discardStore) ListPlans(context.Context, int) ([]plan.Plan, error) { return nil, nil }

func (discardStore) GetPlan(context.Context, string) (*plan.Plan, error) {
	return nil, domain.ErrNotFound
}

func (discardStore) ReplacePlan(context.Context, *plan.Plan) error { return domain.ErrNotFound }

func (discardStore) DeletePlan(context.Context, string) error { return domain.ErrNotFound }

func (discardStore) Ping(context.Context) error { return nil }
