package commands

import (
	"github.com/spf13/cobra"

	"github.com/criteo/guestgate/internal/auth"
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload the users directory on the server",
	Long: `Ask the server to fetch its users document again.

On failure the server keeps serving the previous users.
Requires authentication.`,
	Args: cobra.NoArgs,
	RunE: runReload,
}

func runReload(cmd *cobra.Command, args []string) error {
	c, serverURL, err := newAPIClient()
	if err != nil {
		return err
	}

	out := printerFor(cmd)
	if !flagYes && !prompterFor(cmd).Confirm("Reload users", serverURL) {
		out.Warn("Aborted")
		return nil
	}

	var state auth.State
	if err := c.PostJSON("/api/v1/auth/reload", &state); err != nil {
		return apiFailure(err, "reload failed")
	}
	return out.Result(state, "Users reloaded on %s", serverURL)
}

func init() {
	rootCmd.AddCommand(reloadCmd)
}
