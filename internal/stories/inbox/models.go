package inbox

import (
	"errors"

	"plandesk-bot/internal/stories/actions"
)

// Action names, used for audit entries and metrics labels.
const (
	ActionApproveVerification = "approve_verification"
	ActionActivate            = "activate"
	ActionMarkDue             = "mark_due"
	ActionApproveChange       = "approve_change"
	ActionDecline             = "decline"
)

// ErrEmptyDeclineReason rejects a decline before any network call is made.
var ErrEmptyDeclineReason = errors.New("decline reason must not be empty")

// State is one admin's inbox session. It is created fresh when the screen is
// opened and every operation reads and writes it explicitly; nothing here is
// shared between sessions.
type State struct {
	ActorID int64

	Master   []*actions.ActionGroup
	Filtered []*actions.ActionGroup
	Query    string

	Loading    bool
	Refreshing bool

	Decline DeclineDialog
}

func NewState(actorID int64) *State {
	return &State{ActorID: actorID}
}

// DeclineDialog is the transient reason-entry dialog. It stays open on
// validation failure and closes as soon as a valid decline is submitted,
// before the network result is known.
type DeclineDialog struct {
	Visible bool
	Reason  string
	Target  DeclineTarget
}

// DeclineTarget holds the item being declined; exactly one field is set.
type DeclineTarget struct {
	Subscription *actions.Subscription
	Bill         *actions.Bill
}

func (t DeclineTarget) IsZero() bool {
	return t.Subscription == nil && t.Bill == nil
}

// ID returns the target's backend id.
func (t DeclineTarget) ID() string {
	if t.Subscription != nil {
		return t.Subscription.ID
	}
	if t.Bill != nil {
		return t.Bill.ID
	}
	return ""
}
