package inbox

import (
	"context"

	"plandesk-bot/internal/stories/actions"
	"plandesk-bot/internal/stories/audit"
)

type AdminAPI interface {
	ListPendingSubscriptions(ctx context.Context) ([]*actions.Subscription, error)
	ListBills(ctx context.Context) ([]*actions.Bill, error)
	ApproveVerification(ctx context.Context, subscriptionID string) error
	ActivateSubscription(ctx context.Context, subscriptionID string) error
	MarkBillDue(ctx context.Context, billID string) error
	ApprovePlanChange(ctx context.Context, subscriptionID string, scheduleForRenewal bool) error
	DeclineSubscription(ctx context.Context, subscriptionID, reason string) error
	DeclineBill(ctx context.Context, billID, reason string) error
}

type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

type Metrics interface {
	ObserveFetch(err error)
	ObserveAction(action string, err error)
}
