package flows

import "plandesk-bot/internal/stories/inbox"

// DeclineFlowData carries the decline dialog between the starting callback
// and the reason message. Session points at the admin's live inbox session so
// the decline lands on the same state the screen is rendered from.
type DeclineFlowData struct {
	Session *inbox.State
	Target  inbox.DeclineTarget
}
