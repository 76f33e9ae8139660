package commands

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/criteo/guestgate/internal/client"
	"github.com/criteo/guestgate/internal/client/exitcode"
	"github.com/criteo/guestgate/internal/server/handlers"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show authentication status",
	Long: `Check authentication status by calling the server's /api/v1/whoami endpoint.

Resolves server URL and credentials using normal precedence:
- URL: --url flag > GUESTGATE_URL env var > stored URL
- Credentials: --token flag > GUESTGATE_TOKEN env var > stored session`,
	Args: cobra.NoArgs,
	RunE: runWhoami,
}

func runWhoami(cmd *cobra.Command, args []string) error {
	c, serverURL, err := newAPIClient()
	if err != nil {
		return err
	}

	var resp handlers.WhoamiResponse
	err = c.GetJSON("/api/v1/whoami", &resp)

	var apiErr *client.APIError
	if err != nil && !errors.As(err, &apiErr) {
		return exitcode.New(exitcode.General, "failed to connect to server: %w", err)
	}

	out := printerFor(cmd)
	if err == nil {
		return out.Result(map[string]any{
			"server":        serverURL,
			"authenticated": true,
			"username":      resp.Username,
		}, "Authenticated to %s as %s", serverURL, resp.Username)
	}

	if apiErr.StatusCode != http.StatusUnauthorized {
		return exitcode.ForStatus(apiErr.StatusCode, err)
	}

	// not being signed in is an answer, not a failure to report
	if out.JSON {
		if err := out.Result(map[string]any{
			"server":        serverURL,
			"authenticated": false,
			"username":      "",
		}, ""); err != nil {
			return err
		}
	} else {
		out.Warn("Not authenticated to %s", serverURL)
		out.Warn("Run 'guestgatectl login' to authenticate")
	}
	return exitcode.Silent(exitcode.Auth)
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
