package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/criteo/guestgate/internal/client"
	"github.com/criteo/guestgate/internal/client/auth"
	"github.com/criteo/guestgate/internal/client/config"
	"github.com/criteo/guestgate/internal/client/exitcode"
	"github.com/criteo/guestgate/internal/client/output"
	"github.com/criteo/guestgate/internal/client/prompts"
)

var (
	// Global flags
	flagURL     string
	flagToken   string
	flagJSON    bool
	flagVerbose bool
	flagTimeout time.Duration
	flagYes     bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "guestgatectl",
	Short: "guestgate CLI client",
	Long: `guestgatectl is a command-line client for a guestgate server.

It signs in, reports the authentication subsystem state, and triggers users
reloads via the REST API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. The returned error carries the exit code,
// see exitcode.Report.
func Execute(version string) error {
	rootCmd.Version = version
	err := rootCmd.Execute()

	// commands always return an exitcode.Error; anything else is a flag or
	// argument error raised by cobra
	var coded *exitcode.Error
	if err != nil && !errors.As(err, &coded) {
		return &exitcode.Error{Code: exitcode.InvalidArguments, Err: err}
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagURL, "url", "", "Server URL (or use GUESTGATE_URL env var)")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "Credentials in 'user:password' format (or use GUESTGATE_TOKEN env var)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 30*time.Second, "HTTP request timeout")
	rootCmd.PersistentFlags().BoolVarP(&flagYes, "yes", "y", false, "Skip confirmation prompts")
}

func printerFor(cmd *cobra.Command) output.Printer {
	return output.Printer{Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr(), JSON: flagJSON}
}

func prompterFor(cmd *cobra.Command) *prompts.Prompter {
	return prompts.New(cmd.InOrStdin(), cmd.ErrOrStderr())
}

// newAPIClient resolves URL and credentials and builds a client
func newAPIClient() (*client.Client, string, error) {
	serverURL, err := config.ResolveURL(flagURL)
	if err != nil {
		return nil, "", &exitcode.Error{Code: exitcode.InvalidArguments, Err: err}
	}

	cred, err := auth.ResolveCredential(flagToken)
	if err != nil {
		return nil, "", exitcode.New(exitcode.InvalidArguments, "failed to resolve credentials: %w", err)
	}

	return client.NewClient(serverURL, cred, flagTimeout, flagVerbose), serverURL, nil
}

// apiFailure attaches the exit code of an API error, or the general code
// for transport failures
func apiFailure(err error, message string) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return exitcode.ForStatus(apiErr.StatusCode, fmt.Errorf("%s: %w", message, err))
	}
	return exitcode.New(exitcode.General, "%s: %w", message, err)
}
