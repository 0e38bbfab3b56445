package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"plandesk-bot/internal/telegram/cmds"
	"plandesk-bot/internal/telegram/flows/declineitem"
	"plandesk-bot/internal/telegram/messages"
	"plandesk-bot/internal/telegram/states"
)

type Router struct {
	bot          *tgbotapi.BotAPI
	stateManager stateManager
	adminChecker adminChecker

	// Handlers
	declineHandler *declineitem.Handler
	inboxCommand   *cmds.InboxCommand
	auditCommand   *cmds.AuditCommand
}

type stateManager interface {
	GetState(chatID int64) states.State
	Clear(chatID int64)
}

type adminChecker interface {
	IsAdmin(telegramID int64) bool
	IsAllowedUser(telegramID int64) bool
}

func NewRouter(
	bot *tgbotapi.BotAPI,
	stateManager stateManager,
	adminChecker adminChecker,
	declineHandler *declineitem.Handler,
	inboxCommand *cmds.InboxCommand,
	auditCommand *cmds.AuditCommand,
) *Router {
	return &Router{
		bot:            bot,
		stateManager:   stateManager,
		adminChecker:   adminChecker,
		declineHandler: declineHandler,
		inboxCommand:   inboxCommand,
		auditCommand:   auditCommand,
	}
}

func (r *Router) Route(update *tgbotapi.Update) error {
	ctx := context.Background()

	telegramID := extractUserID(update)
	if telegramID == 0 {
		return nil
	}

	if !r.adminChecker.IsAllowedUser(telegramID) {
		return r.sendAccessDenied(extractChatID(update))
	}

	// Commands take priority and cancel any running flow.
	if update.Message != nil && update.Message.IsCommand() {
		r.stateManager.Clear(telegramID)
		return r.handleCommand(ctx, update, telegramID)
	}

	if update.CallbackQuery != nil {
		callbackData := update.CallbackQuery.Data
		switch {
		case strings.HasPrefix(callbackData, "dcl_"):
			// Declines open a reason dialog, admins only.
			if !r.adminChecker.IsAdmin(telegramID) {
				return r.answerNoRights(update.CallbackQuery.ID)
			}
			return r.declineHandler.HandleCallback(ctx, update.CallbackQuery)
		case strings.HasPrefix(callbackData, "inb_"):
			if r.isMutatingCallback(callbackData) && !r.adminChecker.IsAdmin(telegramID) {
				return r.answerNoRights(update.CallbackQuery.ID)
			}
			return r.inboxCommand.HandleCallback(ctx, update.CallbackQuery)
		}
	}

	state := r.stateManager.GetState(telegramID)

	if strings.HasPrefix(string(state), "adc_") {
		return r.declineHandler.Handle(update, state)
	}

	if state == states.AdminInboxWaitQuery {
		return r.inboxCommand.HandleSearchInput(ctx, update)
	}

	return r.sendHelp(extractChatID(update))
}

func (r *Router) handleCommand(ctx context.Context, update *tgbotapi.Update, telegramID int64) error {
	chatID := update.Message.Chat.ID

	switch update.Message.Command() {
	case "start":
		return r.sendWelcome(chatID)
	case "inbox":
		return r.inboxCommand.Execute(ctx, chatID)
	case "audit":
		if !r.adminChecker.IsAdmin(telegramID) {
			_, _ = r.bot.Send(tgbotapi.NewMessage(chatID, messages.ReadOnly))
			return r.sendHelp(chatID)
		}
		return r.auditCommand.Execute(ctx, chatID)
	default:
		return r.sendHelp(chatID)
	}
}

// isMutatingCallback reports whether the inbox callback would change backend
// state. Refresh and search stay available to read-only assistants.
func (r *Router) isMutatingCallback(data string) bool {
	switch {
	case strings.HasPrefix(data, "inb_apv"),
		strings.HasPrefix(data, "inb_act"),
		strings.HasPrefix(data, "inb_due"),
		strings.HasPrefix(data, "inb_chg"),
		strings.HasPrefix(data, "inb_cfm_"):
		return true
	}
	return false
}

func (r *Router) answerNoRights(callbackID string) error {
	_, err := r.bot.Request(tgbotapi.NewCallback(callbackID, messages.ReadOnly))
	return err
}

func (r *Router) sendWelcome(chatID int64) error {
	text := "Welcome to PlanDesk!\n\n" +
		"This bot surfaces every pending admin action across subscriptions and bills.\n\n" +
		"/inbox — Pending admin actions"
	if r.adminChecker.IsAdmin(chatID) {
		text += "\n/audit — Recent admin actions"
	}

	_, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (r *Router) sendHelp(chatID int64) error {
	if chatID == 0 {
		return nil
	}
	text := "Available commands:\n\n" +
		"/start — About this bot\n" +
		"/inbox — Pending admin actions"
	if r.adminChecker.IsAdmin(chatID) {
		text += "\n/audit — Recent admin actions"
	}

	_, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (r *Router) sendAccessDenied(chatID int64) error {
	if chatID == 0 {
		return nil
	}
	_, err := r.bot.Send(tgbotapi.NewMessage(chatID, messages.AccessDenied))
	return err
}

// SetupBotCommands registers the command menu.
func (r *Router) SetupBotCommands() error {
	commands := []tgbotapi.BotCommand{
		{
			Command:     "start",
			Description: "About this bot",
		},
		{
			Command:     "inbox",
			Description: "Pending admin actions",
		},
		{
			Command:     "audit",
			Description: "Recent admin actions",
		},
	}

	setCommandsConfig := tgbotapi.NewSetMyCommands(commands...)
	_, err := r.bot.Request(setCommandsConfig)
	return err
}

func extractUserID(update *tgbotapi.Update) int64 {
	if update.Message != nil {
		return update.Message.From.ID
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.ID
	}
	return 0
}

func extractChatID(update *tgbotapi.Update) int64 {
	if update.Message != nil {
		return update.Message.Chat.ID
	}
	if update.CallbackQuery != nil && update.CallbackQuery.Message != nil {
		return update.CallbackQuery.Message.Chat.ID
	}
	return 0
}
