package commands

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/criteo/guestgate/internal/client"
	"github.com/criteo/guestgate/internal/client/auth"
	"github.com/criteo/guestgate/internal/client/config"
	"github.com/criteo/guestgate/internal/client/exitcode"
)

var loginCmd = &cobra.Command{
	Use:   "login [server-url]",
	Short: "Sign in to a guestgate server",
	Long: `Sign in through the server's login form and store the issued session.

Server URL can be provided as an argument or via GUESTGATE_URL environment variable.
If both are provided, the argument takes precedence.

The password is never stored. The session cookie is stored:
- macOS, Windows: session in the OS keyring, URL in config file
- other platforms: both in config file with 0600 permissions

Only one server's session is stored at a time. Logging into a new server
replaces the existing one.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	var serverURL string
	if len(args) > 0 {
		serverURL = config.NormalizeURL(args[0])
	} else {
		var err error
		serverURL, err = config.ResolveURL("")
		if err != nil {
			return exitcode.New(exitcode.InvalidArguments, "no server URL specified. Provide server URL as argument or set GUESTGATE_URL environment variable")
		}
	}

	p := prompterFor(cmd)
	username, err := p.Line("Username")
	if err != nil {
		return exitcode.New(exitcode.InvalidArguments, "failed to read username: %w", err)
	}
	password, err := p.Secret("Password")
	if err != nil {
		return exitcode.New(exitcode.InvalidArguments, "failed to read password: %w", err)
	}

	c := client.NewClient(serverURL, auth.Credential{}, flagTimeout, flagVerbose)
	session, err := c.Login(username, password)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.StatusCode {
			case http.StatusUnauthorized:
				return exitcode.New(exitcode.Auth, "authentication failed: invalid credentials")
			case http.StatusNotImplemented:
				return exitcode.New(exitcode.General, "login is disabled on this server")
			}
		}
		return apiFailure(err, "login failed")
	}

	if err := auth.SaveCredentials(serverURL, session); err != nil {
		return exitcode.New(exitcode.General, "failed to save credentials: %w", err)
	}

	return printerFor(cmd).Result(map[string]string{
		"server": serverURL,
		"user":   username,
	}, "Logged in to %s as %s", serverURL, username)
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
