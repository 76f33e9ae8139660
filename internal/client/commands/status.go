package commands

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/criteo/guestgate/internal/auth"
	"github.com/criteo/guestgate/internal/client"
	"github.com/criteo/guestgate/internal/client/exitcode"
	"github.com/criteo/guestgate/internal/server/handlers"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server health and authentication state",
	Long: `Show the server health checks and the authentication subsystem state
(initialized, loading, and the current session user).

Exits with a non-zero code while the server is still loading users.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

type statusResult struct {
	Server string                  `json:"server"`
	Health handlers.HealthResponse `json:"health"`
	State  auth.State              `json:"state"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	c, serverURL, err := newAPIClient()
	if err != nil {
		return err
	}

	result := statusResult{Server: serverURL}

	// health answers 503 until the first users load completes
	if err := c.GetJSON("/api/v1/health", &result.Health); err != nil {
		var apiErr *client.APIError
		if !errors.As(err, &apiErr) {
			return exitcode.New(exitcode.General, "failed to connect to server: %w", err)
		}
		result.Health.Status = "starting"
	}

	if err := c.GetJSON("/api/v1/auth/state", &result.State); err != nil {
		return apiFailure(err, "failed to get auth state")
	}

	out := printerFor(cmd)
	if out.JSON {
		err = out.Result(result, "")
	} else {
		user := "-"
		if result.State.User != nil {
			user = result.State.User.Username
		}
		err = out.Table([]string{"FIELD", "VALUE"}, [][]string{
			{"server", serverURL},
			{"health", result.Health.Status},
			{"initialized", strconv.FormatBool(result.State.Initialized)},
			{"loading", strconv.FormatBool(result.State.Loading)},
			{"user", user},
		})
	}
	if err != nil {
		return err
	}

	if !result.State.Ready() {
		return exitcode.New(exitcode.Unavailable, "server is still loading users")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
