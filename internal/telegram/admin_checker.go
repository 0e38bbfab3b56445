package telegram

import (
	"slices"

	"plandesk-bot/internal/config"
)

// AdminChecker decides who may use the bot and who may mutate. Admins get the
// full action set, assistants get a read-only view of the inbox.
type AdminChecker struct {
	adminIDs     []int64
	assistantIDs []int64
}

func NewAdminChecker(cfg *config.TelegramConfig) *AdminChecker {
	return &AdminChecker{
		adminIDs:     cfg.AdminIDs,
		assistantIDs: cfg.AssistantIDs,
	}
}

func (a *AdminChecker) IsAdmin(telegramID int64) bool {
	return slices.Contains(a.adminIDs, telegramID)
}

func (a *AdminChecker) IsAllowedUser(telegramID int64) bool {
	return a.IsAdmin(telegramID) || slices.Contains(a.assistantIDs, telegramID)
}
