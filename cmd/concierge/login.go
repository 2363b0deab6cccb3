package main

import (
	"os"

	"github.com/aretw0/concierge/internal/cli"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Log in with username and password",
	Long: `Exchanges username and password for an API token, stores it and records the role
reported by the server. The password is read from CONCIERGE_PASSWORD or prompted for.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.LoginOptions{Password: os.Getenv("CONCIERGE_PASSWORD")}
		if len(args) > 0 {
			opts.Username = args[0]
		}
		return cli.RunLogin(cmd.Context(), env, opts)
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
