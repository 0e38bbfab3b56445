package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"plandesk-bot/internal/stories/actions"
	"plandesk-bot/internal/stories/audit"
)

// Service orchestrates the admin inbox: fetch → aggregate → command →
// mutate → silent re-fetch. Audit and metrics collaborators are optional.
type Service struct {
	api     AdminAPI
	auditor AuditRecorder
	metrics Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(api AdminAPI, auditor AuditRecorder, metrics Metrics, logger *slog.Logger) *Service {
	return &Service{
		api:     api,
		auditor: auditor,
		metrics: metrics,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// FetchData loads both admin listings concurrently and replaces the session's
// aggregate. Either listing failing fails the cycle as a unit; the previous
// data stays in place so the screen keeps showing stale-but-available state.
func (s *Service) FetchData(ctx context.Context, st *State, showLoader bool) error {
	if showLoader {
		st.Loading = true
	} else {
		st.Refreshing = true
	}
	defer func() {
		st.Loading = false
		st.Refreshing = false
	}()

	var (
		wg       sync.WaitGroup
		subs     []*actions.Subscription
		bills    []*actions.Bill
		subsErr  error
		billsErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		subs, subsErr = s.api.ListPendingSubscriptions(ctx)
	}()
	go func() {
		defer wg.Done()
		bills, billsErr = s.api.ListBills(ctx)
	}()
	wg.Wait()

	err := errors.Join(subsErr, billsErr)
	if s.metrics != nil {
		s.metrics.ObserveFetch(err)
	}
	if err != nil {
		s.logger.Error("inbox fetch failed", slog.Any("error", err))
		return fmt.Errorf("fetch inbox data: %w", err)
	}

	st.Master = actions.Aggregate(subs, bills, s.now())
	s.applyFilter(st)
	return nil
}

// SetQuery updates the search filter and recomputes the visible groups.
func (s *Service) SetQuery(st *State, query string) {
	st.Query = query
	s.applyFilter(st)
}

func (s *Service) applyFilter(st *State) {
	st.Filtered = actions.Filter(st.Master, st.Query)
}

func (s *Service) ApproveVerification(ctx context.Context, st *State, sub *actions.Subscription) error {
	if sub.Status != actions.SubStatusPendingVerification {
		return fmt.Errorf("subscription %s is not pending verification", sub.ID)
	}

	return s.mutate(ctx, st, mutation{
		action:     ActionApproveVerification,
		targetType: audit.TargetSubscription,
		targetID:   sub.ID,
		call: func(ctx context.Context) error {
			return s.api.ApproveVerification(ctx, sub.ID)
		},
	})
}

func (s *Service) ActivateSubscription(ctx context.Context, st *State, sub *actions.Subscription) error {
	if sub.Status != actions.SubStatusPendingInstallation {
		return fmt.Errorf("subscription %s is not pending installation", sub.ID)
	}

	return s.mutate(ctx, st, mutation{
		action:     ActionActivate,
		targetType: audit.TargetSubscription,
		targetID:   sub.ID,
		call: func(ctx context.Context) error {
			return s.api.ActivateSubscription(ctx, sub.ID)
		},
	})
}

func (s *Service) MarkBillAsDue(ctx context.Context, st *State, bill *actions.Bill) error {
	if !bill.IsStuck(s.now()) {
		return fmt.Errorf("bill %s is not a stuck upcoming bill", bill.ID)
	}

	return s.mutate(ctx, st, mutation{
		action:     ActionMarkDue,
		targetType: audit.TargetBill,
		targetID:   bill.ID,
		call: func(ctx context.Context) error {
			return s.api.MarkBillDue(ctx, bill.ID)
		},
	})
}

func (s *Service) ApprovePlanChange(ctx context.Context, st *State, sub *actions.Subscription, scheduleForRenewal bool) error {
	if sub.Status != actions.SubStatusPendingChange {
		return fmt.Errorf("subscription %s has no pending plan change", sub.ID)
	}

	return s.mutate(ctx, st, mutation{
		action:     ActionApproveChange,
		targetType: audit.TargetSubscription,
		targetID:   sub.ID,
		call: func(ctx context.Context) error {
			return s.api.ApprovePlanChange(ctx, sub.ID, scheduleForRenewal)
		},
	})
}

// DeclineItem declines a subscription or a bill, selected by the target type.
// An empty reason is rejected locally, the dialog stays open and no network
// call is made. A valid submit closes the dialog immediately.
func (s *Service) DeclineItem(ctx context.Context, st *State, target DeclineTarget, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrEmptyDeclineReason
	}
	if target.IsZero() {
		return fmt.Errorf("decline target is empty")
	}

	s.CloseDeclineDialog(st)

	targetType := audit.TargetSubscription
	call := func(ctx context.Context) error {
		return s.api.DeclineSubscription(ctx, target.ID(), reason)
	}
	if target.Bill != nil {
		targetType = audit.TargetBill
		call = func(ctx context.Context) error {
			return s.api.DeclineBill(ctx, target.ID(), reason)
		}
	}

	return s.mutate(ctx, st, mutation{
		action:     ActionDecline,
		targetType: targetType,
		targetID:   target.ID(),
		reason:     reason,
		call:       call,
	})
}

func (s *Service) OpenDeclineDialog(st *State, target DeclineTarget) {
	st.Decline = DeclineDialog{Visible: true, Target: target}
}

func (s *Service) CloseDeclineDialog(st *State) {
	st.Decline = DeclineDialog{}
}

type mutation struct {
	action     string
	targetType string
	targetID   string
	reason     string
	call       func(ctx context.Context) error
}

func (s *Service) mutate(ctx context.Context, st *State, m mutation) error {
	err := m.call(ctx)

	if s.metrics != nil {
		s.metrics.ObserveAction(m.action, err)
	}
	s.recordAudit(ctx, st, m, err)

	if err != nil {
		s.logger.Error("admin action failed",
			slog.String("action", m.action),
			slog.String("target", m.targetID),
			slog.Any("error", err))
		return err
	}

	// Silent re-fetch; a failure here keeps the previous data visible and
	// must not turn a successful mutation into an error.
	if err := s.FetchData(ctx, st, false); err != nil {
		s.logger.Warn("post-mutation refresh failed", slog.Any("error", err))
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, st *State, m mutation, callErr error) {
	if s.auditor == nil {
		return
	}

	entry := audit.Entry{
		ActorID:    st.ActorID,
		Action:     m.action,
		TargetType: m.targetType,
		TargetID:   m.targetID,
		Reason:     m.reason,
		Outcome:    audit.OutcomeOK,
		CreatedAt:  s.now(),
	}
	if callErr != nil {
		entry.Outcome = audit.OutcomeError
		entry.Error = callErr.Error()
	}

	if err := s.auditor.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record failed", slog.Any("error", err))
	}
}

// serverMessenger is implemented by API errors that carry a server-provided
// user-facing message.
type serverMessenger interface {
	UserMessage() string
}

// UserMessage extracts the server's message from err, falling back to the
// given per-action text.
func UserMessage(err error, fallback string) string {
	var m serverMessenger
	if errors.As(err, &m) && m.UserMessage() != "" {
		return m.UserMessage()
	}
	return fallback
}
