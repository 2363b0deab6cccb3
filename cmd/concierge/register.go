package main

import (
	"os"

	"github.com/aretw0/concierge/internal/cli"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and log in",
}

var registerClientCmd = &cobra.Command{
	Use:   "client [username]",
	Short: "Register as a hotel guest",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := domain.ClientRegistration{Password: os.Getenv("CONCIERGE_PASSWORD")}
		if len(args) > 0 {
			reg.Username = args[0]
		}
		reg.Email, _ = cmd.Flags().GetString("email")
		return cli.RunRegisterClient(cmd.Context(), env, reg)
	},
}

var registerStaffCmd = &cobra.Command{
	Use:   "staff [username]",
	Short: "Register as hotel staff with an invitation code",
	Long: `Registers a cleaner or administrator account. The server decides whether the code
and the requested role are accepted; the role you end up with is the one it reports.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		reg := domain.StaffRegistration{Password: os.Getenv("CONCIERGE_PASSWORD")}
		if len(args) > 0 {
			reg.Username = args[0]
		}
		reg.Email, _ = flags.GetString("email")
		reg.Code, _ = flags.GetString("code")
		reg.HotelID, _ = flags.GetInt64("hotel")
		reg.FullName, _ = flags.GetString("full-name")
		role, _ := flags.GetString("role")
		reg.Role = domain.Role(role)
		return cli.RunRegisterStaff(cmd.Context(), env, reg)
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
	registerCmd.AddCommand(registerClientCmd)
	registerCmd.AddCommand(registerStaffCmd)

	registerClientCmd.Flags().String("email", "", "Contact email")

	registerStaffCmd.Flags().String("email", "", "Contact email")
	registerStaffCmd.Flags().String("code", "", "Staff invitation code (prompted for when empty)")
	registerStaffCmd.Flags().Int64("hotel", 0, "ID of the hotel you work at")
	registerStaffCmd.Flags().String("role", string(domain.RoleCleaner), "Requested role: cleaner or admin")
	registerStaffCmd.Flags().String("full-name", "", "Full name (defaults to the username)")
	_ = registerStaffCmd.MarkFlagRequired("hotel")
}
