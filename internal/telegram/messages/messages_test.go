package messages

import (
	"strings"
	"testing"
	"time"

	"plandesk-bot/internal/stories/actions"
)

func TestFormatUserCard_Order(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	user := &actions.User{ID: "u1", Name: "Dana", Email: "dana@example.com"}

	g := &actions.ActionGroup{
		User: user,
		PendingApplications: []*actions.Subscription{
			{ID: "s1", User: user, Status: actions.SubStatusPendingVerification},
		},
		PendingPlanChanges: []*actions.Subscription{
			{
				ID: "s2", User: user, Status: actions.SubStatusPendingChange,
				Plan:        &actions.Plan{ID: "p1", Name: "Basic"},
				PendingPlan: &actions.Plan{ID: "p2", Name: "Pro"},
			},
		},
		StuckUpcomingBills: []*actions.Bill{
			{ID: "b1", User: user, Status: actions.BillStatusUpcoming, Amount: 50, DueDate: due},
		},
		UnpaidBills: []*actions.Bill{
			{ID: "b2", User: user, Status: actions.BillStatusDue, Amount: 120.5, DueDate: due},
			{ID: "b3", User: user, Status: actions.BillStatusOverdue, Amount: 79.5, DueDate: due},
		},
	}

	card := FormatUserCard(g)

	if !strings.Contains(card, "Dana") || !strings.Contains(card, "dana@example.com") {
		t.Fatalf("card is missing the user header: %q", card)
	}

	// Stuck bills render before applications, plan changes before the
	// unpaid summary.
	stuckIdx := strings.Index(card, "b1")
	appIdx := strings.Index(card, "s1")
	changeIdx := strings.Index(card, "Basic → Pro")
	unpaidIdx := strings.Index(card, "2 unpaid bill(s)")

	for name, idx := range map[string]int{
		"stuck bill": stuckIdx, "application": appIdx, "plan change": changeIdx, "unpaid summary": unpaidIdx,
	} {
		if idx < 0 {
			t.Fatalf("card is missing the %s line: %q", name, card)
		}
	}
	if !(stuckIdx < appIdx && appIdx < changeIdx && changeIdx < unpaidIdx) {
		t.Errorf("card lines out of order: stuck=%d app=%d change=%d unpaid=%d",
			stuckIdx, appIdx, changeIdx, unpaidIdx)
	}

	if !strings.Contains(card, "200.00 total") {
		t.Errorf("unpaid summary should total 200.00, got card %q", card)
	}
}

func TestFormatInboxHeader(t *testing.T) {
	plain := FormatInboxHeader(3, 3, "")
	if !strings.Contains(plain, "3 users waiting") {
		t.Errorf("unexpected header without filter: %q", plain)
	}

	filtered := FormatInboxHeader(1, 3, "dana")
	if !strings.Contains(filtered, "dana") || !strings.Contains(filtered, "1 of 3") {
		t.Errorf("unexpected filtered header: %q", filtered)
	}
}

func TestFallbackFor_UnknownAction(t *testing.T) {
	if got := FallbackFor("rename"); got != Error {
		t.Errorf("FallbackFor(unknown) = %q, want generic error", got)
	}
}
