package inbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"plandesk-bot/internal/stories/actions"
	"plandesk-bot/internal/stories/audit"
)

type fakeAPI struct {
	subs  []*actions.Subscription
	bills []*actions.Bill

	subsErr  error
	billsErr error

	calls      []string
	mutateErr  error
	lastReason string
	lastFlag   bool
}

func (f *fakeAPI) ListPendingSubscriptions(ctx context.Context) ([]*actions.Subscription, error) {
	f.calls = append(f.calls, "list_subs")
	return f.subs, f.subsErr
}

func (f *fakeAPI) ListBills(ctx context.Context) ([]*actions.Bill, error) {
	f.calls = append(f.calls, "list_bills")
	return f.bills, f.billsErr
}

func (f *fakeAPI) ApproveVerification(ctx context.Context, id string) error {
	f.calls = append(f.calls, "approve_verification:"+id)
	return f.mutateErr
}

func (f *fakeAPI) ActivateSubscription(ctx context.Context, id string) error {
	f.calls = append(f.calls, "activate:"+id)
	return f.mutateErr
}

func (f *fakeAPI) MarkBillDue(ctx context.Context, id string) error {
	f.calls = append(f.calls, "mark_due:"+id)
	return f.mutateErr
}

func (f *fakeAPI) ApprovePlanChange(ctx context.Context, id string, scheduleForRenewal bool) error {
	f.calls = append(f.calls, "approve_change:"+id)
	f.lastFlag = scheduleForRenewal
	return f.mutateErr
}

func (f *fakeAPI) DeclineSubscription(ctx context.Context, id, reason string) error {
	f.calls = append(f.calls, "decline_sub:"+id)
	f.lastReason = reason
	return f.mutateErr
}

func (f *fakeAPI) DeclineBill(ctx context.Context, id, reason string) error {
	f.calls = append(f.calls, "decline_bill:"+id)
	f.lastReason = reason
	return f.mutateErr
}

func (f *fakeAPI) mutationCalls() []string {
	var out []string
	for _, c := range f.calls {
		if c != "list_subs" && c != "list_bills" {
			out = append(out, c)
		}
	}
	return out
}

type fakeAuditor struct {
	entries []audit.Entry
}

func (f *fakeAuditor) Record(ctx context.Context, entry audit.Entry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func newTestService(api *fakeAPI) (*Service, *fakeAuditor) {
	auditor := &fakeAuditor{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(api, auditor, nil, logger), auditor
}

func pendingSub(id, userID string, status actions.SubscriptionStatus) *actions.Subscription {
	return &actions.Subscription{
		ID:     id,
		User:   &actions.User{ID: userID, Name: "User " + userID, Email: userID + "@example.com"},
		Status: status,
	}
}

func TestFetchDataAggregates(t *testing.T) {
	api := &fakeAPI{
		subs: []*actions.Subscription{
			pendingSub("s1", "u1", actions.SubStatusPendingVerification),
		},
	}
	svc, _ := newTestService(api)
	st := NewState(42)

	if err := svc.FetchData(context.Background(), st, true); err != nil {
		t.Fatalf("FetchData: %v", err)
	}

	if len(st.Master) != 1 || len(st.Filtered) != 1 {
		t.Fatalf("master=%d filtered=%d, want 1/1", len(st.Master), len(st.Filtered))
	}
	if st.Loading || st.Refreshing {
		t.Error("loading flags must be reset after fetch")
	}
}

func TestFetchDataFailureKeepsPriorData(t *testing.T) {
	api := &fakeAPI{
		subs: []*actions.Subscription{
			pendingSub("s1", "u1", actions.SubStatusPendingVerification),
		},
	}
	svc, _ := newTestService(api)
	st := NewState(42)

	if err := svc.FetchData(context.Background(), st, true); err != nil {
		t.Fatalf("initial fetch: %v", err)
	}

	// Either source failing fails the cycle as a unit.
	api.billsErr = errors.New("boom")
	api.subs = nil

	if err := svc.FetchData(context.Background(), st, false); err == nil {
		t.Fatal("expected fetch error")
	}
	if len(st.Master) != 1 {
		t.Errorf("prior data was discarded, master=%d", len(st.Master))
	}
}

func TestSetQueryFilters(t *testing.T) {
	api := &fakeAPI{
		subs: []*actions.Subscription{
			pendingSub("s1", "u1", actions.SubStatusPendingVerification),
			pendingSub("s2", "u2", actions.SubStatusPendingVerification),
		},
	}
	svc, _ := newTestService(api)
	st := NewState(42)

	if err := svc.FetchData(context.Background(), st, true); err != nil {
		t.Fatalf("FetchData: %v", err)
	}

	svc.SetQuery(st, "u1@example")
	if len(st.Filtered) != 1 || st.Filtered[0].User.ID != "u1" {
		t.Errorf("filtered = %v, want only u1", st.Filtered)
	}

	svc.SetQuery(st, "")
	if len(st.Filtered) != 2 {
		t.Errorf("empty query must pass everything, got %d", len(st.Filtered))
	}
}

func TestApproveVerification(t *testing.T) {
	api := &fakeAPI{}
	svc, auditor := newTestService(api)
	st := NewState(42)

	sub := pendingSub("s1", "u1", actions.SubStatusPendingVerification)
	if err := svc.ApproveVerification(context.Background(), st, sub); err != nil {
		t.Fatalf("ApproveVerification: %v", err)
	}

	want := []string{"approve_verification:s1"}
	got := api.mutationCalls()
	if len(got) != 1 || got[0] != want[0] {
		t.Errorf("mutation calls = %v, want %v", got, want)
	}

	// Success triggers a silent re-fetch of both listings.
	if len(api.calls) != 3 {
		t.Errorf("total calls = %v, want mutation followed by both fetches", api.calls)
	}

	if len(auditor.entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(auditor.entries))
	}
	e := auditor.entries[0]
	if e.ActorID != 42 || e.Action != ActionApproveVerification || e.Outcome != audit.OutcomeOK {
		t.Errorf("audit entry = %+v", e)
	}
}

func TestApproveVerificationPrecondition(t *testing.T) {
	api := &fakeAPI{}
	svc, _ := newTestService(api)
	st := NewState(42)

	sub := pendingSub("s1", "u1", actions.SubStatusActive)
	if err := svc.ApproveVerification(context.Background(), st, sub); err == nil {
		t.Fatal("expected precondition error")
	}
	if len(api.calls) != 0 {
		t.Errorf("no network call expected, got %v", api.calls)
	}
}

func TestActivatePrecondition(t *testing.T) {
	api := &fakeAPI{}
	svc, _ := newTestService(api)
	st := NewState(42)

	if err := svc.ActivateSubscription(context.Background(), st, pendingSub("s1", "u1", actions.SubStatusPendingInstallation)); err != nil {
		t.Fatalf("ActivateSubscription: %v", err)
	}
	if err := svc.ActivateSubscription(context.Background(), st, pendingSub("s2", "u1", actions.SubStatusPendingChange)); err == nil {
		t.Fatal("expected precondition error for wrong status")
	}
}

func TestMarkBillAsDueRequiresStuckBill(t *testing.T) {
	api := &fakeAPI{}
	svc, _ := newTestService(api)
	st := NewState(42)

	now := svc.now()
	stuck := &actions.Bill{
		ID:      "b1",
		User:    &actions.User{ID: "u1"},
		Status:  actions.BillStatusUpcoming,
		DueDate: now.Add(-48 * time.Hour),
	}
	if err := svc.MarkBillAsDue(context.Background(), st, stuck); err != nil {
		t.Fatalf("MarkBillAsDue: %v", err)
	}

	notStuck := &actions.Bill{
		ID:      "b2",
		User:    &actions.User{ID: "u1"},
		Status:  actions.BillStatusDue,
		DueDate: now.Add(-48 * time.Hour),
	}
	if err := svc.MarkBillAsDue(context.Background(), st, notStuck); err == nil {
		t.Fatal("expected precondition error for non-stuck bill")
	}
}

func TestApprovePlanChangeFlag(t *testing.T) {
	for _, schedule := range []bool{true, false} {
		api := &fakeAPI{}
		svc, _ := newTestService(api)
		st := NewState(42)

		sub := pendingSub("s3", "u1", actions.SubStatusPendingChange)
		if err := svc.ApprovePlanChange(context.Background(), st, sub, schedule); err != nil {
			t.Fatalf("ApprovePlanChange(%v): %v", schedule, err)
		}
		if api.lastFlag != schedule {
			t.Errorf("scheduleForRenewal = %v, want %v", api.lastFlag, schedule)
		}
	}
}

func TestDeclineItemEmptyReason(t *testing.T) {
	api := &fakeAPI{}
	svc, auditor := newTestService(api)
	st := NewState(42)

	target := DeclineTarget{Subscription: pendingSub("s1", "u1", actions.SubStatusPendingVerification)}
	svc.OpenDeclineDialog(st, target)

	err := svc.DeclineItem(context.Background(), st, target, "   \t ")
	if !errors.Is(err, ErrEmptyDeclineReason) {
		t.Fatalf("err = %v, want ErrEmptyDeclineReason", err)
	}
	if len(api.calls) != 0 {
		t.Errorf("whitespace-only reason must issue zero network calls, got %v", api.calls)
	}
	if !st.Decline.Visible {
		t.Error("dialog must stay open on validation failure")
	}
	if len(auditor.entries) != 0 {
		t.Errorf("no audit entry expected, got %d", len(auditor.entries))
	}
}

func TestDeclineItemSelectsEndpointByType(t *testing.T) {
	t.Run("subscription", func(t *testing.T) {
		api := &fakeAPI{}
		svc, _ := newTestService(api)
		st := NewState(42)

		target := DeclineTarget{Subscription: pendingSub("s1", "u1", actions.SubStatusPendingVerification)}
		if err := svc.DeclineItem(context.Background(), st, target, " not eligible "); err != nil {
			t.Fatalf("DeclineItem: %v", err)
		}
		if got := api.mutationCalls(); len(got) != 1 || got[0] != "decline_sub:s1" {
			t.Errorf("calls = %v, want decline_sub:s1", got)
		}
		if api.lastReason != "not eligible" {
			t.Errorf("reason = %q, want trimmed", api.lastReason)
		}
	})

	t.Run("bill", func(t *testing.T) {
		api := &fakeAPI{}
		svc, _ := newTestService(api)
		st := NewState(42)

		target := DeclineTarget{Bill: &actions.Bill{ID: "b9", User: &actions.User{ID: "u1"}}}
		if err := svc.DeclineItem(context.Background(), st, target, "duplicate"); err != nil {
			t.Fatalf("DeclineItem: %v", err)
		}
		if got := api.mutationCalls(); len(got) != 1 || got[0] != "decline_bill:b9" {
			t.Errorf("calls = %v, want decline_bill:b9", got)
		}
	})
}

func TestDeclineClosesDialogBeforeNetworkResult(t *testing.T) {
	api := &fakeAPI{mutateErr: errors.New("server down")}
	svc, _ := newTestService(api)
	st := NewState(42)

	target := DeclineTarget{Subscription: pendingSub("s1", "u1", actions.SubStatusPendingVerification)}
	svc.OpenDeclineDialog(st, target)

	if err := svc.DeclineItem(context.Background(), st, target, "reason"); err == nil {
		t.Fatal("expected mutation error")
	}
	if st.Decline.Visible {
		t.Error("dialog must close on submit even when the call fails")
	}
}

func TestMutationFailureSkipsRefetchAndRecordsAudit(t *testing.T) {
	api := &fakeAPI{mutateErr: errors.New("rejected")}
	svc, auditor := newTestService(api)
	st := NewState(42)

	sub := pendingSub("s1", "u1", actions.SubStatusPendingVerification)
	if err := svc.ApproveVerification(context.Background(), st, sub); err == nil {
		t.Fatal("expected error")
	}

	// Only the mutation itself: no re-fetch after failure.
	if len(api.calls) != 1 {
		t.Errorf("calls = %v, want mutation only", api.calls)
	}

	if len(auditor.entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(auditor.entries))
	}
	if auditor.entries[0].Outcome != audit.OutcomeError {
		t.Errorf("outcome = %q, want error", auditor.entries[0].Outcome)
	}
}

type messagedError struct{ msg string }

func (e *messagedError) Error() string       { return "api: " + e.msg }
func (e *messagedError) UserMessage() string { return e.msg }

func TestUserMessage(t *testing.T) {
	withMsg := &messagedError{msg: "subscription already active"}
	if got := UserMessage(withMsg, "fallback"); got != "subscription already active" {
		t.Errorf("UserMessage = %q, want server text", got)
	}

	if got := UserMessage(errors.New("plain"), "fallback"); got != "fallback" {
		t.Errorf("UserMessage = %q, want fallback", got)
	}

	if got := UserMessage(&messagedError{}, "fallback"); got != "fallback" {
		t.Errorf("empty server message must fall back, got %q", got)
	}
}
