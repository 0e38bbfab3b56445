package config

import (
	"fmt"
	"time"
)

type Config struct {
	Env              string                  `env:"ENV,default=local"`
	Logger           LoggerConfig            `env:",prefix=LOGGER_"`
	Observability    ObservabilityHTTPConfig `env:",prefix=OBSERVABILITY_"`
	ShutdownDuration time.Duration           `env:"SHUTDOWN_DURATION,default=30s"`
	DB               SQLiteConfig            `env:",prefix=DB_"`
	Telegram         TelegramConfig          `env:",prefix=TELEGRAM_"`
	AdminAPI         AdminAPIConfig          `env:",prefix=ADMIN_API_"`
	Digest           DigestConfig            `env:",prefix=DIGEST_"`
}

type TelegramConfig struct {
	BotToken     string        `env:"BOT_TOKEN,required"`
	Timeout      time.Duration `env:"TIMEOUT,default=30s"`
	AdminIDs     []int64       `env:"ADMIN_IDS"`
	AssistantIDs []int64       `env:"ASSISTANT_IDS"`
}

// AdminAPIConfig points at the billing backend's /admin surface.
type AdminAPIConfig struct {
	Scheme        string        `env:"SCHEME,default=https"`
	Host          string        `env:"HOST,default=127.0.0.1"`
	Port          uint16        `env:"PORT,default=443"`
	Token         string        `env:"TOKEN,required"`
	Timeout       time.Duration `env:"TIMEOUT,default=30s"`
	MaxRetries    int           `env:"MAX_RETRIES,default=3"`
	RetryInterval time.Duration `env:"RETRY_INTERVAL,default=2s"`
	RateLimit     struct {
		Burst int     `env:"BURST,default=5"`
		RPS   float64 `env:"RPS,default=20.0"`
	} `env:",prefix=RATE_LIMIT_"`
}

func (c AdminAPIConfig) ADDR() string {
	return fmt.Sprintf("%s://%s:%d", c.Scheme, c.Host, c.Port)
}

// DigestConfig drives the scheduled pending-action summaries for admins.
type DigestConfig struct {
	Enabled       bool   `env:"ENABLED,default=true"`
	Schedule      string `env:"SCHEDULE,default=0 9 * * *"`
	StuckSchedule string `env:"STUCK_SCHEDULE,default=0 * * * *"`
	Language      string `env:"LANGUAGE,default=en"`
}

type LoggerConfig struct {
	Level string `env:"LEVEL,default=debug"`
}

type ObservabilityHTTPConfig struct {
	Host         string        `env:"HOST,default=127.0.0.1"`
	Port         uint16        `env:"PORT,default=8383"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT,default=30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT,default=30s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT,default=1m"`
}

func (a ObservabilityHTTPConfig) ADDR() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

type SQLiteConfig struct {
	Path         string `env:"PATH,default=./data/plandesk.db"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS,default=25"`
	MaxIdleConns int    `env:"MAX_IDLE_CONNS,default=5"`
	MaxLifetime  string `env:"MAX_LIFETIME,default=5m"`
}
