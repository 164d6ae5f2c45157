package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"stickers_bot/internal/bot"
	"stickers_bot/internal/config"
	"stickers_bot/internal/pkg/http_client"
	"stickers_bot/internal/pkg/pack/repository"
	"stickers_bot/internal/pkg/session/redis_storage"
	"stickers_bot/internal/pkg/session/sql_storage"
	"stickers_bot/internal/pkg/session/usecase"
	"stickers_bot/internal/pkg/telegram"
	"stickers_bot/internal/pkg/web_server/web_server_service"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           "stickersbot",
		Short:         "Telegram bot to create and manage sticker packs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if path, _ := cmd.Flags().GetString("config"); path != "" {
				v.SetConfigFile(path)
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "path to a config file")
	flags.String("database-driver", "", "registry database driver (postgres or sqlite)")
	flags.String("database-url", "", "registry database connection string")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.Int("workers", 0, "number of update workers")
	for _, key := range []string{"database-driver", "database-url", "log-level", "workers"} {
		_ = v.BindPFlag(strings.ReplaceAll(key, "-", "_"), flags.Lookup(key))
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Poll for updates and serve the bot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			return migrate(cmd.Context(), cfg)
		},
	}

	root.AddCommand(runCmd, migrateCmd)
	root.RunE = runCmd.RunE
	return root
}

func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg, err := config.Load(v)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, err
	}
	slog.SetDefault(config.NewLogger(cfg, os.Stderr))
	return cfg, nil
}

func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := repository.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(ctx, db, cfg.DatabaseDriver); err != nil {
		db.Close()
		return nil, err
	}
	if cfg.SessionStore == config.SessionStoreSQL {
		if err := sql_storage.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

func migrate(ctx context.Context, cfg *config.Config) error {
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		slog.Error("migration failed", "error", err)
		return err
	}
	defer db.Close()

	slog.Info("database is up to date", "driver", cfg.DatabaseDriver)
	return nil
}

func openSessions(ctx context.Context, cfg *config.Config, db *sql.DB) (usecase.Storage, func(), error) {
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		return redis_storage.NewRedisStorage(client), func() { client.Close() }, nil
	case config.SessionStoreSQL:
		return sql_storage.NewSQLStorage(db), func() {}, nil
	default:
		return usecase.NewMemoryStorage(), func() {}, nil
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		return err
	}
	defer db.Close()

	sessions, closeSessions, err := openSessions(ctx, cfg, db)
	if err != nil {
		slog.Error("failed to open session store", "error", err)
		return err
	}
	defer closeSessions()

	// the client timeout must outlive a long poll
	httpClient := http_client.NewLoggedClient(time.Duration(cfg.PollTimeout)*time.Second+30*time.Second, cfg.TelegramToken)
	client, err := telegram.New(cfg.TelegramToken, httpClient, cfg.APIRateLimit)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		return err
	}
	slog.Info("authorized", "username", client.Username())

	packs := repository.NewPackStorage(db)
	b := bot.New(client, packs, sessions, bot.Settings{
		ConversationTimeout: cfg.ConversationTimeout,
		Workers:             cfg.Workers,
		PollTimeout:         cfg.PollTimeout,
		PlaceholderPath:     cfg.PlaceholderPath,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.Run(gctx, client)
	})
	if cfg.WebPort != "" {
		webServer := web_server_service.NewWebServer(packs, sessions, cfg.WebPort)
		g.Go(func() error {
			return webServer.Start(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		slog.Error("bot stopped with an error", "error", err)
		return err
	}
	return nil
}
