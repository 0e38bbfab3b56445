package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// Client wraps the bot API with long polling and send-side rate limiting.
type Client struct {
	api     *tgbotapi.BotAPI
	logger  *slog.Logger
	limiter *rate.Limiter
	updates <-chan tgbotapi.Update
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewClient(token string, logger *slog.Logger) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	// Telegram allows ~30 messages per second per bot.
	limiter := rate.NewLimiter(30, 1)

	return &Client{
		api:     bot,
		logger:  logger,
		limiter: limiter,
	}, nil
}

// Start begins long polling for updates.
func (c *Client) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	c.updates = c.api.GetUpdatesChan(u)

	c.logger.Info("telegram bot started", slog.String("username", c.api.Self.UserName))
	return nil
}

func (c *Client) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.api.StopReceivingUpdates()
	c.logger.Info("telegram bot stopped")
}

func (c *Client) GetUpdates() <-chan tgbotapi.Update {
	return c.updates
}

func (c *Client) GetBotAPI() *tgbotapi.BotAPI {
	return c.api
}

// Send delivers any chattable with rate limiting applied.
func (c *Client) Send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := c.limiter.Wait(c.ctx); err != nil {
		return tgbotapi.Message{}, fmt.Errorf("rate limiting: %w", err)
	}
	return c.api.Send(msg)
}

// Request answers callbacks and other requests that produce no message.
func (c *Client) Request(msg tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if err := c.limiter.Wait(c.ctx); err != nil {
		return nil, fmt.Errorf("rate limiting: %w", err)
	}
	return c.api.Request(msg)
}

// SendMessage is a convenience wrapper for plain text.
func (c *Client) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := c.Send(msg); err != nil {
		c.logger.Error("send message failed",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()))
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
