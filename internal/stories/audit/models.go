package audit

import "time"

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

const (
	TargetSubscription = "subscription"
	TargetBill         = "bill"
)

// Entry is one admin mutation recorded locally, success or failure.
type Entry struct {
	ID         int64
	ActorID    int64
	Action     string
	TargetType string
	TargetID   string
	Reason     string
	Outcome    string
	Error      string
	CreatedAt  time.Time
}

type ListCriteria struct {
	ActorIDs []int64
	Actions  []string
	Limit    int
}
