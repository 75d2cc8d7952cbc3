package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"dscatalog/internal/app"
	"dscatalog/internal/config"
	"dscatalog/internal/database"
	"dscatalog/internal/logger"
	"dscatalog/internal/security/password"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg *config.Config

	loadConfig := func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		log, err := logger.New(os.Stdout, loaded.LogFormat, loaded.LogLevel)
		if err != nil {
			return err
		}
		slog.SetDefault(log)

		cfg = loaded
		return nil
	}

	serve := func(cmd *cobra.Command, _ []string) error {
		application, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		return application.Run(cmd.Context())
	}

	root := &cobra.Command{
		Use:           "dscatalog",
		Short:         "Catalog API with OAuth2 password-grant authentication",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE:       loadConfig,
		RunE:          serve,
	}

	root.AddCommand(
		&cobra.Command{
			Use:     "serve",
			Short:   "Run the API and admin listeners",
			PreRunE: loadConfig,
			RunE:    serve,
		},
		&cobra.Command{
			Use:     "migrate",
			Short:   "Apply the embedded database schema",
			PreRunE: loadConfig,
			RunE: func(cmd *cobra.Command, _ []string) error {
				db, err := openDatabase(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				defer db.Close()

				if err := db.EnsureSchema(cmd.Context()); err != nil {
					return fmt.Errorf("failed to ensure database schema: %w", err)
				}
				slog.Info("schema up to date")
				return nil
			},
		},
		&cobra.Command{
			Use:     "seed",
			Short:   "Insert demo roles, users and catalog data",
			PreRunE: loadConfig,
			RunE: func(cmd *cobra.Command, _ []string) error {
				db, err := openDatabase(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				defer db.Close()

				hasher, err := password.NewHasher(cfg.BcryptCost)
				if err != nil {
					return err
				}
				if err := db.EnsureSchema(cmd.Context()); err != nil {
					return fmt.Errorf("failed to ensure database schema: %w", err)
				}
				if err := db.Seed(cmd.Context(), hasher); err != nil {
					return fmt.Errorf("failed to seed database: %w", err)
				}
				slog.Info("demo data seeded")
				return nil
			},
		},
		newHashSecretCmd(),
	)

	return root
}

// newHashSecretCmd prints a digest for OAUTH_CLIENT_SECRET_HASH. It needs no
// database, so it skips config loading.
func newHashSecretCmd() *cobra.Command {
	cost := envInt("BCRYPT_COST", 10)

	cmd := &cobra.Command{
		Use:   "hash-secret <secret>",
		Short: "Print a bcrypt digest of a client secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hasher, err := password.NewHasher(cost)
			if err != nil {
				return err
			}
			digest, err := hasher.Hash(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), digest)
			return err
		},
	}
	cmd.Flags().IntVar(&cost, "cost", cost, "bcrypt cost factor (env BCRYPT_COST)")
	return cmd
}

func openDatabase(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := database.Open(ctx, database.Options{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
