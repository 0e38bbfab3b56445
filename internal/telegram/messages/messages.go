package messages

import (
	"fmt"
	"strings"

	"plandesk-bot/internal/stories/actions"
	"plandesk-bot/internal/stories/inbox"
)

// General
const (
	Error        = "❌ Something went wrong. Please try again later."
	AccessDenied = "⛔ This bot is for PlanDesk staff only."
	ReadOnly     = "👁 Your access is read-only, ask an administrator to perform this action."
	Cancelled    = "Cancelled"
)

// Buttons
const (
	ButtonRefresh         = "🔄 Refresh"
	ButtonSearch          = "🔍 Search"
	ButtonClearSearch     = "❌ Clear filter"
	ButtonCancel          = "❌ Cancel"
	ButtonConfirm         = "✅ Confirm"
	ButtonApprove         = "✅ Approve"
	ButtonActivate        = "🔌 Activate"
	ButtonMarkDue         = "📮 Mark due"
	ButtonDecline         = "🚫 Decline"
	ButtonChangeNow       = "⚡ Apply now"
	ButtonChangeAtRenewal = "📆 At next renewal"
)

// Inbox screen
const (
	InboxLoading     = "⏳ Loading inbox…"
	InboxRefreshing  = "🔄 Refreshing…"
	InboxEmpty       = "✅ Inbox is clear — no pending admin actions."
	InboxFetchFailed = "❌ Could not load the inbox. Showing the last known data."
	InboxNoMatches   = "🔍 No users match the current filter."
	ItemGone         = "This item is no longer pending, refreshing…"
)

// Search
const (
	SearchPrompt  = "🔍 Send a name or email to filter the inbox by:"
	SearchCleared = "Filter cleared"
)

// Decline dialog
const (
	DeclinePrompt         = "📝 Send the reason for declining:"
	DeclineReasonRequired = "⚠️ A decline reason is required. Send a non-empty reason or cancel."
	DeclineDone           = "✅ Declined."
)

// Success notices
const (
	ApproveVerificationDone = "✅ Application approved."
	ActivateDone            = "✅ Subscription activated."
	MarkDueDone             = "✅ Bill marked as due."
	ApproveChangeDone       = "✅ Plan change approved."
)

// Per-action fallbacks when the server reply carries no message.
const (
	FallbackApproveVerification = "❌ Could not approve the application."
	FallbackActivate            = "❌ Could not activate the subscription."
	FallbackMarkDue             = "❌ Could not mark the bill as due."
	FallbackApproveChange       = "❌ Could not approve the plan change."
	FallbackDecline             = "❌ Could not decline the item."
)

// FallbackFor maps an inbox action name to its generic failure notice.
func FallbackFor(action string) string {
	switch action {
	case inbox.ActionApproveVerification:
		return FallbackApproveVerification
	case inbox.ActionActivate:
		return FallbackActivate
	case inbox.ActionMarkDue:
		return FallbackMarkDue
	case inbox.ActionApproveChange:
		return FallbackApproveChange
	case inbox.ActionDecline:
		return FallbackDecline
	default:
		return Error
	}
}

// FormatInboxHeader summarizes what the screen is showing.
func FormatInboxHeader(visible, total int, query string) string {
	var b strings.Builder
	b.WriteString("🗂 *Action inbox*\n")
	if query != "" {
		fmt.Fprintf(&b, "Filter: `%s` — %d of %d users\n", query, visible, total)
	} else {
		fmt.Fprintf(&b, "%d users waiting for admin action\n", total)
	}
	return b.String()
}

// FormatUserCard renders one user's pending actions in display priority
// order: stuck bills, applications, installations, payment verifications,
// plan changes, unpaid-bills summary.
func FormatUserCard(g *actions.ActionGroup) string {
	var b strings.Builder

	fmt.Fprintf(&b, "👤 *%s*", g.User.Name)
	if g.User.Email != "" {
		fmt.Fprintf(&b, " — %s", g.User.Email)
	}
	b.WriteString("\n")

	for _, a := range g.Actions() {
		switch v := a.(type) {
		case actions.StuckBill:
			fmt.Fprintf(&b, "⚠️ Stuck upcoming bill `%s` (%.2f), was due %s\n",
				v.Bill.ID, v.Bill.Amount, v.Bill.DueDate.Format("2006-01-02"))
		case actions.PendingApplication:
			fmt.Fprintf(&b, "📝 Application `%s` awaiting verification", v.Subscription.ID)
			if v.Subscription.Plan != nil {
				fmt.Fprintf(&b, " — %s", v.Subscription.Plan.Name)
			}
			b.WriteString("\n")
		case actions.PendingInstallation:
			fmt.Fprintf(&b, "🔌 Installation `%s` ready to activate", v.Subscription.ID)
			if v.Subscription.InitialBill != nil {
				fmt.Fprintf(&b, " (initial bill %.2f due %s)",
					v.Subscription.InitialBill.Amount,
					v.Subscription.InitialBill.DueDate.Format("2006-01-02"))
			}
			b.WriteString("\n")
		case actions.PendingPaymentVerification:
			fmt.Fprintf(&b, "🧾 Payment of %.2f on bill `%s` awaiting verification\n",
				v.Bill.Amount, v.Bill.ID)
		case actions.PendingPlanChange:
			fmt.Fprintf(&b, "🔁 Plan change on `%s`", v.Subscription.ID)
			if v.Subscription.Plan != nil && v.Subscription.PendingPlan != nil {
				fmt.Fprintf(&b, ": %s → %s", v.Subscription.Plan.Name, v.Subscription.PendingPlan.Name)
			}
			b.WriteString("\n")
		case actions.UnpaidBillsSummary:
			fmt.Fprintf(&b, "💰 %d unpaid bill(s), %.2f total\n", v.Count, v.Total)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
