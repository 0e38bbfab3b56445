package cmds

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"plandesk-bot/internal/stories/audit"
)

type AuditService interface {
	ListRecent(ctx context.Context, limit int) ([]*audit.Entry, error)
}

// AuditCommand shows the recent admin action trail.
type AuditCommand struct {
	bot          *tgbotapi.BotAPI
	auditService AuditService
	logger       *slog.Logger
}

func NewAuditCommand(bot *tgbotapi.BotAPI, auditService AuditService, logger *slog.Logger) *AuditCommand {
	return &AuditCommand{
		bot:          bot,
		auditService: auditService,
		logger:       logger,
	}
}

func (c *AuditCommand) Execute(ctx context.Context, chatID int64) error {
	entries, err := c.auditService.ListRecent(ctx, 0)
	if err != nil {
		c.logger.Error("list audit entries failed", slog.Any("error", err))
		_, _ = c.bot.Send(tgbotapi.NewMessage(chatID, "❌ Could not load the audit log"))
		return err
	}

	if len(entries) == 0 {
		_, err = c.bot.Send(tgbotapi.NewMessage(chatID, "📭 No admin actions recorded yet"))
		return err
	}

	var b strings.Builder
	b.WriteString("📜 *Recent admin actions*\n\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "%s `%d` %s %s/%s",
			e.CreatedAt.Format("01-02 15:04"), e.ActorID, e.Action, e.TargetType, e.TargetID)
		if e.Reason != "" {
			fmt.Fprintf(&b, " (%s)", e.Reason)
		}
		if e.Outcome == audit.OutcomeError {
			b.WriteString(" ❌")
		}
		b.WriteString("\n")
	}

	msg := tgbotapi.NewMessage(chatID, b.String())
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err = c.bot.Send(msg)
	return err
}
