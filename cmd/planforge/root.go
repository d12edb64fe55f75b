package main

import (
	"github.com/spf13/cobra"

	"github.com/Strob0t/PlanForge/internal/config"
)

// newRootCmd builds the command tree. Running the root command without a
// subcommand serves the HTTP API.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "planforge",
		Short: "Turn a goal into a scheduled task plan",
		Long: `PlanForge breaks a goal into tasks, repairs whatever the task generator
returns and lays the tasks out back to back over a planning horizon.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), cliFlags(cmd))
		},
	}

	pf := root.PersistentFlags()
	pf.StringP("config", "c", "", "path to YAML config file (default "+config.DefaultConfigFile+")")
	pf.StringP("port", "p", "", "HTTP listen port")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("dsn", "", "PostgreSQL connection string")
	pf.String("nats-url", "", "NATS server URL")
	pf.String("llm-provider", "", "task generator: litellm, gemini, none")

	root.AddCommand(newServeCmd(), newMigrateCmd(), newScheduleCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), cliFlags(cmd))
		},
	}
}

// cliFlags collects the persistent flags the user actually set.
func cliFlags(cmd *cobra.Command) config.CLIFlags {
	fs := cmd.Flags()
	get := func(name string) *string {
		if !fs.Changed(name) {
			return nil
		}
		v, err := fs.GetString(name)
		if err != nil {
			return nil
		}
		return &v
	}
	return config.CLIFlags{
		ConfigPath: get("config"),
		Port:       get("port"),
		LogLevel:   get("log-level"),
		DSN:        get("dsn"),
		NatsURL:    get("nats-url"),
		Provider:   get("llm-provider"),
	}
}
