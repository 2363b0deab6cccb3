package main

import (
	"fmt"
	"os"

	"github.com/aretw0/concierge/internal/cli"
	"github.com/aretw0/concierge/internal/config"
	"github.com/spf13/cobra"
)

// env is resolved once per invocation, before any subcommand runs.
var env cli.Env

var rootCmd = &cobra.Command{
	Use:   "concierge",
	Short: "Concierge manages your hotel booking API session",
	Long: `Concierge logs you in to the hotel booking API, keeps the session on disk (or in Redis)
and shares it with other local tools through an optional HTTP agent.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveEnv(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("config", config.DefaultPath, "Path to the configuration file")
	flags.String("base-url", "", "Booking API base URL (overrides config)")
	flags.String("store", "", "Session store backend: file, memory or redis (overrides config)")
	flags.String("store-path", "", "Directory of the file store (overrides config)")
	flags.String("log-level", "", "Log level: debug, info, warn or error (overrides config)")
	flags.Bool("json", false, "Print machine-readable JSON")
	flags.Bool("debug", false, "Log every lifecycle step to stderr")
}

func resolveEnv(cmd *cobra.Command) error {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")

	cfg, err := config.Load(path, flags.Changed("config"))
	if err != nil {
		return err
	}

	overrides := []struct {
		flag   string
		target *string
	}{
		{"base-url", &cfg.BaseURL},
		{"store", &cfg.Store.Backend},
		{"store-path", &cfg.Store.Path},
		{"log-level", &cfg.LogLevel},
	}
	for _, o := range overrides {
		if flags.Changed(o.flag) {
			*o.target, _ = flags.GetString(o.flag)
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	env.Config = cfg
	env.In = cmd.InOrStdin()
	env.Out = cmd.OutOrStdout()
	env.JSON, _ = flags.GetBool("json")
	env.Debug, _ = flags.GetBool("debug")
	return nil
}
