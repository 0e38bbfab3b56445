package environment

import (
	"context"
	"log/slog"
	"time"

	"plandesk-bot/internal/adminapi"
	"plandesk-bot/internal/config"
	"plandesk-bot/internal/infra/sqlite3"
	"plandesk-bot/internal/infra/telegram"
)

type Clients struct {
	SQLiteDB    *sqlite3.DB
	TelegramBot *telegram.Client
	AdminAPI    *adminapi.Client
}

func newClients(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Clients, error) {
	sqliteDB, err := provideSQLiteDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	telegramBot, err := telegram.NewClient(cfg.Telegram.BotToken, logger)
	if err != nil {
		return nil, err
	}

	return &Clients{
		SQLiteDB:    sqliteDB,
		TelegramBot: telegramBot,
		AdminAPI:    provideAdminAPI(cfg, logger),
	}, nil
}

func provideSQLiteDB(ctx context.Context, cfg config.Config) (*sqlite3.DB, error) {
	maxLifetimeStr := cfg.DB.MaxLifetime
	if maxLifetimeStr == "" {
		maxLifetimeStr = "5m"
	}
	maxLifetime, err := time.ParseDuration(maxLifetimeStr)
	if err != nil {
		return nil, err
	}

	opts := []sqlite3.Option{
		sqlite3.WithDSN(cfg.DB.Path),
		sqlite3.WithMaxOpenConns(cfg.DB.MaxOpenConns),
		sqlite3.WithMaxIdleConns(cfg.DB.MaxIdleConns),
		sqlite3.WithConnMaxLifetime(maxLifetime),
	}

	return sqlite3.New(ctx, opts...)
}

func provideAdminAPI(cfg config.Config, logger *slog.Logger) *adminapi.Client {
	return adminapi.NewClient(
		cfg.AdminAPI.ADDR(),
		cfg.AdminAPI.Token,
		logger,
		adminapi.WithTimeout(cfg.AdminAPI.Timeout),
		adminapi.WithRetries(cfg.AdminAPI.MaxRetries, cfg.AdminAPI.RetryInterval),
		adminapi.WithRateLimit(cfg.AdminAPI.RateLimit.RPS, cfg.AdminAPI.RateLimit.Burst),
	)
}
