package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/didlink-dev/didlink/internal/config"
	"github.com/didlink-dev/didlink/pkg/did"
	"github.com/didlink-dev/didlink/pkg/server"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		listen     string
		admin      string
		storeKind  string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the didlink server",
		Long: `Start the line-protocol listener and the admin HTTP server.

Configuration comes from a TOML file when --config is given; flags
override file values.

Examples:
  didlink serve
  didlink serve --config didlink.toml
  didlink serve --listen :7323 --store memory`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if listen != "" {
				cfg.Listen = listen
			}
			if cmd.Flags().Changed("admin") {
				cfg.Admin = admin
			}
			if storeKind != "" {
				cfg.Store.Kind = storeKind
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to didlink.toml")
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Line protocol listen address")
	cmd.Flags().StringVar(&admin, "admin", "", "Admin HTTP address (empty disables)")
	cmd.Flags().StringVar(&storeKind, "store", "", "Document store: memory, postgres, or s3")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, or error")

	return cmd
}

func runServe(cfg *config.Config) error {
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	srv := server.New(&server.Config{
		Address:         cfg.Listen,
		AdminAddress:    cfg.Admin,
		MaxConns:        cfg.MaxConns,
		ShutdownTimeout: cfg.ShutdownTimeout.Duration,
	}, store, logger,
		server.WithMetrics(server.NewPromMetrics(prometheus.DefaultRegisterer)))

	logger.Info("starting", "version", version, "store", cfg.Store.Kind)
	return srv.Run(ctx)
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// buildStore constructs the document store the config selects.
func buildStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (did.Store, error) {
	switch cfg.Store.Kind {
	case config.StoreMemory:
		return did.NewMemoryStore(), nil

	case config.StorePostgres:
		pg := cfg.Store.Postgres
		store, err := did.NewPostgresStore(&did.PostgresConfig{
			Host:     pg.Host,
			Port:     pg.Port,
			User:     pg.User,
			Password: pg.Password,
			Database: pg.Database,
			SSLMode:  pg.SSLMode,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		logger.Info("using postgres store", "host", pg.Host, "database", pg.Database)
		return store, nil

	case config.StoreS3:
		opts := []func(*awsconfig.LoadOptions) error{}
		if cfg.Store.S3.Region != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.Store.S3.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("loading aws config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg)
		logger.Info("using s3 store", "bucket", cfg.Store.S3.Bucket, "prefix", cfg.Store.S3.Prefix)
		return did.NewS3Store(client, cfg.Store.S3.Bucket, cfg.Store.S3.Prefix), nil

	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
	}
}
