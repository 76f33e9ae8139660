package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/criteo/guestgate/internal/auth"
	"github.com/criteo/guestgate/internal/config"
	"github.com/criteo/guestgate/internal/metrics"
	"github.com/criteo/guestgate/internal/server"
	"github.com/criteo/guestgate/internal/server/handlers"
	"github.com/criteo/guestgate/internal/session"
	"github.com/criteo/guestgate/internal/storage"
)

// Version is reported by /api/v1/version; set from main
var Version = "dev"

var configFile string

// ServerCmd represents the server command
var ServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the guestgate HTTP server",
	Long: `Start the HTTP server that serves the login pages behind the guest guard.

Signed-in users visiting a guest-only page are redirected home once the
users directory has finished loading.`,
	RunE: runServer,
}

// serverFlags maps flag names to config keys
var serverFlags = map[string]string{
	"host":                "server.host",
	"port":                "server.port",
	"auth-type":           "auth.type",
	"users-uri":           "auth.users_uri",
	"guard-timeout":       "guard.timeout",
	"guard-poll-interval": "guard.poll_interval",
	"home-path":           "guard.home_path",
	"log-level":           "logging.level",
	"log-format":          "logging.format",
}

func init() {
	flags := ServerCmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "Path to configuration file (optional, can also use GUESTGATE_CONFIG_FILE env var)")
	flags.String("host", "0.0.0.0", "Listen address")
	flags.Int("port", 8080, "Listen port")
	flags.String("auth-type", "none", "Authentication type: none or basic")
	flags.String("users-uri", "file://./users.yaml", "Users document URI (file://, s3://, s3+http://, oci://)")
	flags.Duration("guard-timeout", 0, "Upper bound on the guest guard readiness wait")
	flags.Duration("guard-poll-interval", 0, "Guest guard readiness polling period")
	flags.String("home-path", "/", "Redirect target for signed-in users")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-format", "json", "Log format: json or text")
}

// bindServerFlags binds explicitly set flags over file and env values
func bindServerFlags(cmd *cobra.Command, v *viper.Viper) error {
	for name, key := range serverFlags {
		if !cmd.Flags().Changed(name) {
			continue
		}
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

func runServer(cmd *cobra.Command, args []string) error {
	// Check for config file from environment variable if not provided via flag
	if configFile == "" {
		configFile = os.Getenv("GUESTGATE_CONFIG_FILE")
	}

	v := config.NewViper(configFile)
	if err := bindServerFlags(cmd, v); err != nil {
		return err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := server.NewLogger(os.Stdout, cfg.Logging)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Info("Server starting",
		"version", Version,
		"port", cfg.Server.Port,
		"config_file", configFile,
		"auth_type", cfg.Auth.Type,
		"users_uri", cfg.Auth.UsersURI,
		"users_token", cfg.MaskToken())

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		authService auth.Service
		source      storage.Source
	)
	switch cfg.Auth.Type {
	case "none":
		authService = auth.NewNoAuth()
		logger.Info("Authentication disabled (auth.type=none)")
	case "basic":
		usersURI, err := cfg.GetParsedUsersURI()
		if err != nil {
			return fmt.Errorf("invalid users URI: %w", err)
		}

		source, err = storage.NewSource(usersURI, cfg.Auth.UsersToken, logger)
		if err != nil {
			logger.Error("Failed to initialize users source",
				"error", err,
				"users_uri", cfg.Auth.UsersURI)
			return fmt.Errorf("failed to initialize users source: %w", err)
		}

		codec, err := session.NewCodec(session.Config{
			Secret:     cfg.Session.Secret,
			TTL:        cfg.Session.TTL,
			CookieName: cfg.Session.CookieName,
			Secure:     cfg.Session.Secure,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize sessions: %w", err)
		}

		subsystem := auth.NewSubsystem(source, codec, logger, metrics.NewAuthMetrics(reg))
		subsystem.Start(ctx)
		go subsystem.Run(ctx, cfg.Auth.ReloadInterval, cfg.Auth.Watch)
		authService = subsystem
	default:
		return fmt.Errorf("unsupported auth type: %s", cfg.Auth.Type)
	}

	srv := server.NewServer(cfg, logger, authService, source, reg)

	pageHandler := handlers.NewPageHandler(authService, cfg.Auth.Type != "none", cfg.Guard.HomePath, logger)
	authHandler := handlers.NewAuthHandler(authService, logger)
	healthHandler := handlers.NewHealthHandler(authService, logger)
	whoamiHandler := handlers.NewWhoamiHandler(authService, logger)

	srv.SetHandlers(server.HandlerSet{
		Home:        pageHandler.GetHome,
		LoginForm:   pageHandler.GetLogin,
		LoginSubmit: pageHandler.PostLogin,
		Logout:      pageHandler.PostLogout,
		Health:      healthHandler.GetHealth,
		Whoami:      whoamiHandler.GetWhoami,
		AuthState:   authHandler.GetState,
		AuthReload:  authHandler.PostReload,
		Version:     handlers.GetVersion(Version),
	})

	logger.Info("Server ready to accept connections",
		"address", fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port))

	if err := srv.Start(); err != nil {
		logger.Error("Server stopped with error", "error", err)
		return err
	}

	return nil
}
