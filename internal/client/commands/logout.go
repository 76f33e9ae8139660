package commands

import (
	"github.com/spf13/cobra"

	"github.com/criteo/guestgate/internal/client/auth"
	"github.com/criteo/guestgate/internal/client/exitcode"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored session",
	Long: `Remove the stored session for the current server.

Sessions expire on their own; this only forgets the local copy.
This operation is idempotent - it succeeds even if nothing is stored.`,
	Args: cobra.NoArgs,
	RunE: runLogout,
}

func runLogout(cmd *cobra.Command, args []string) error {
	if err := auth.DeleteCredentials(); err != nil {
		return exitcode.New(exitcode.General, "failed to remove credentials: %w", err)
	}
	return printerFor(cmd).Result(map[string]bool{"logged_out": true}, "Logged out successfully")
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
