package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/criteo/guestgate/internal/cli"
)

var version = "1.0.0"

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "guestgate",
	Short: "Guest-only page guard server",
	Long: `guestgate serves login pages that only visitors without a session may see.

Requests to guest-only pages wait briefly for the users directory to finish
loading, then signed-in users are redirected to the home page.`,
	Version: version,
}

func init() {
	cli.Version = version

	rootCmd.AddCommand(cli.ServerCmd)
	rootCmd.AddCommand(cli.AuthCmd)

	rootCmd.SetVersionTemplate(`{{.Version}}
`)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
