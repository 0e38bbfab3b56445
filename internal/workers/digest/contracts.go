package digest

import (
	"context"

	"plandesk-bot/internal/stories/actions"
)

type DataSource interface {
	ListPendingSubscriptions(ctx context.Context) ([]*actions.Subscription, error)
	ListBills(ctx context.Context) ([]*actions.Bill, error)
}

type Sender interface {
	SendMessage(chatID int64, text string) error
}

type Localizer interface {
	Get(lang, key string, params map[string]interface{}) string
}
