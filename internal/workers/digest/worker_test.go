package digest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"plandesk-bot/internal/stories/actions"
)

// fakeLocalizer echoes the key with its params so tests can assert which
// lines were chosen without coupling to translation text.
type fakeLocalizer struct{}

func (fakeLocalizer) Get(lang, key string, params map[string]interface{}) string {
	if len(params) == 0 {
		return key
	}
	parts := make([]string, 0, len(params))
	for _, name := range []string{"count", "total", "user", "bill", "due"} {
		if v, ok := params[name]; ok {
			parts = append(parts, fmt.Sprintf("%s=%v", name, v))
		}
	}
	return key + "[" + strings.Join(parts, " ") + "]"
}

func TestFormatDigest_Empty(t *testing.T) {
	got := FormatDigest(fakeLocalizer{}, "en", nil)
	if got != "digest.empty" {
		t.Errorf("FormatDigest(no groups) = %q, want digest.empty", got)
	}

	// All-empty groups count as an empty inbox too.
	groups := []*actions.ActionGroup{
		{User: &actions.User{ID: "u1", Name: "Dana"}},
	}
	got = FormatDigest(fakeLocalizer{}, "en", groups)
	if got != "digest.empty" {
		t.Errorf("FormatDigest(empty groups) = %q, want digest.empty", got)
	}
}

func TestFormatDigest_CountsAndLines(t *testing.T) {
	u1 := &actions.User{ID: "u1", Name: "Dana"}
	u2 := &actions.User{ID: "u2", Name: "Lee"}

	groups := []*actions.ActionGroup{
		{
			User: u1,
			PendingApplications: []*actions.Subscription{
				{ID: "s1", User: u1, Status: actions.SubStatusPendingVerification},
			},
			UnpaidBills: []*actions.Bill{
				{ID: "b1", User: u1, Status: actions.BillStatusDue, Amount: 60},
			},
		},
		{
			User: u2,
			UnpaidBills: []*actions.Bill{
				{ID: "b2", User: u2, Status: actions.BillStatusOverdue, Amount: 40},
			},
		},
	}

	got := FormatDigest(fakeLocalizer{}, "en", groups)

	for _, want := range []string{
		"digest.header[total=2]",
		"digest.line_applications[count=1]",
		"digest.line_unpaid[count=2 total=100.00]",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("digest is missing %q:\n%s", want, got)
		}
	}

	// Zero-count lines are omitted entirely.
	if strings.Contains(got, "line_installations") || strings.Contains(got, "line_plan_changes") {
		t.Errorf("digest should omit zero-count lines:\n%s", got)
	}
}

func TestFormatStuckAlert(t *testing.T) {
	if got := FormatStuckAlert(fakeLocalizer{}, "en", nil); got != "" {
		t.Errorf("FormatStuckAlert(no groups) = %q, want empty", got)
	}

	due := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	u := &actions.User{ID: "u1", Name: "Dana"}
	groups := []*actions.ActionGroup{
		{
			User: u,
			StuckUpcomingBills: []*actions.Bill{
				{ID: "b1", User: u, Status: actions.BillStatusUpcoming, DueDate: due},
			},
		},
	}

	got := FormatStuckAlert(fakeLocalizer{}, "en", groups)
	if !strings.Contains(got, "stuck.header[count=1]") {
		t.Errorf("alert is missing the header:\n%s", got)
	}
	if !strings.Contains(got, "stuck.line[user=Dana bill=b1 due=2026-02-10]") {
		t.Errorf("alert is missing the bill line:\n%s", got)
	}
}
