package main

import (
	"context"

	"github.com/aretw0/concierge/internal/cli"
	"github.com/spf13/cobra"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Serve the session to local tools over HTTP",
	Long: `Starts a local HTTP agent exposing the session: status, login, registration, logout,
a server-sent event stream of status changes and Prometheus metrics. The token itself is
never served.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		origin, _ := cmd.Flags().GetString("allow-origin")

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		return cli.RunAgent(sigCtx, env, cli.AgentOptions{Addr: addr, AllowedOrigin: origin})
	},
}

func init() {
	rootCmd.AddCommand(agentCmd)
	agentCmd.Flags().String("addr", "", "Listen address (default from config, 127.0.0.1:7070)")
	agentCmd.Flags().String("allow-origin", "", "Browser origin allowed to call the agent")
}
