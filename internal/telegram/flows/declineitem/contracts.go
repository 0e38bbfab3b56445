package declineitem

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"plandesk-bot/internal/stories/inbox"
	"plandesk-bot/internal/telegram/flows"
	"plandesk-bot/internal/telegram/states"
)

type botApi interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type stateManager interface {
	SetState(chatID int64, state states.State, data any)
	Clear(chatID int64)
	GetDeclineData(chatID int64) (*flows.DeclineFlowData, error)
}

type inboxService interface {
	OpenDeclineDialog(st *inbox.State, target inbox.DeclineTarget)
	CloseDeclineDialog(st *inbox.State)
	DeclineItem(ctx context.Context, st *inbox.State, target inbox.DeclineTarget, reason string) error
}

// inboxView is the inbox screen the flow starts from and returns to.
type inboxView interface {
	Session(chatID int64) (*inbox.State, bool)
	Rerender(ctx context.Context, chatID int64) error
}
