package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/criteo/guestgate/internal/auth"
	"github.com/criteo/guestgate/internal/config"
	"github.com/criteo/guestgate/internal/server"
	"github.com/criteo/guestgate/internal/storage"
)

// AuthCmd represents the auth command
var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication utilities",
	Long:  `Utilities for managing authentication credentials.`,
}

// HashPasswordCmd represents the hash-password command
var HashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Generate bcrypt hash for a password",
	Long: `Generate a bcrypt hash for a password to use in users.yaml file.

The password is prompted for with hidden input, or read from the first
line of stdin when stdin is not a terminal.`,
	RunE: runHashPassword,
}

// CheckUsersCmd represents the check-users command
var CheckUsersCmd = &cobra.Command{
	Use:   "check-users <users-uri>",
	Short: "Fetch and validate a users document",
	Long: `Fetch a users document from file://, s3://, s3+http:// or oci:// storage
and validate it the same way the server does on load.

Use GUESTGATE_AUTH_USERS_TOKEN to pass credentials for remote storage.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheckUsers,
}

var checkUsersTimeout time.Duration

func init() {
	CheckUsersCmd.Flags().DurationVar(&checkUsersTimeout, "timeout", 60*time.Second, "Fetch timeout")

	AuthCmd.AddCommand(HashPasswordCmd)
	AuthCmd.AddCommand(CheckUsersCmd)
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}
	if len(password) == 0 {
		return fmt.Errorf("password cannot be empty")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nBcrypt hash (use this in users.yaml):")
	fmt.Fprintln(out, hash)

	return nil
}

func readPassword(cmd *cobra.Command) (string, error) {
	stdinFd := int(os.Stdin.Fd())
	if !term.IsTerminal(stdinFd) {
		return readFirstLine(cmd.InOrStdin())
	}

	fmt.Fprint(cmd.OutOrStdout(), "Enter password: ")
	passwordBytes, err := term.ReadPassword(stdinFd)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return string(passwordBytes), nil
}

func readFirstLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runCheckUsers(cmd *cobra.Command, args []string) error {
	uri, err := storage.ParseStorageURI(args[0])
	if err != nil {
		return fmt.Errorf("invalid users URI: %w", err)
	}

	logger, err := server.NewLogger(os.Stderr, config.LoggingConfig{Level: "warn", Format: "text"})
	if err != nil {
		return err
	}
	source, err := storage.NewSource(uri, os.Getenv("GUESTGATE_AUTH_USERS_TOKEN"), logger)
	if err != nil {
		return err
	}
	defer source.Close()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, checkUsersTimeout)
	defer cancel()

	data, err := source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch users from %s: %w", source, err)
	}

	dir, err := auth.ParseUsers(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d user(s) OK\n", source, dir.Len())
	return nil
}
