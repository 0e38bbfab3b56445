package digest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"plandesk-bot/internal/config"
	"plandesk-bot/internal/stories/actions"
)

// Worker sends admins a scheduled digest of everything waiting in the inbox
// and a separate, more frequent alert when upcoming bills get stuck.
type Worker struct {
	api       DataSource
	sender    Sender
	localizer Localizer
	cfg       config.DigestConfig
	adminIDs  []int64
	logger    *slog.Logger
	cron      *cron.Cron
	now       func() time.Time
}

func NewWorker(
	api DataSource,
	sender Sender,
	localizer Localizer,
	cfg config.DigestConfig,
	adminIDs []int64,
	logger *slog.Logger,
) *Worker {
	return &Worker{
		api:       api,
		sender:    sender,
		localizer: localizer,
		cfg:       cfg,
		adminIDs:  adminIDs,
		logger:    logger,
		cron:      cron.New(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (w *Worker) Name() string {
	return "digest"
}

func (w *Worker) Start() error {
	if _, err := w.cron.AddFunc(w.cfg.Schedule, func() {
		if err := w.runDigest(context.Background()); err != nil {
			w.logger.Error("digest run failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule digest: %w", err)
	}

	if _, err := w.cron.AddFunc(w.cfg.StuckSchedule, func() {
		if err := w.runStuckCheck(context.Background()); err != nil {
			w.logger.Error("stuck bill check failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule stuck bill check: %w", err)
	}

	w.cron.Start()
	return nil
}

func (w *Worker) Stop() {
	w.cron.Stop()
}

func (w *Worker) runDigest(ctx context.Context) error {
	groups, err := w.aggregate(ctx)
	if err != nil {
		return err
	}

	text := FormatDigest(w.localizer, w.cfg.Language, groups)
	w.broadcast(text)
	return nil
}

// runStuckCheck alerts only when stuck bills exist; a quiet hour sends
// nothing.
func (w *Worker) runStuckCheck(ctx context.Context) error {
	groups, err := w.aggregate(ctx)
	if err != nil {
		return err
	}

	text := FormatStuckAlert(w.localizer, w.cfg.Language, groups)
	if text == "" {
		return nil
	}
	w.broadcast(text)
	return nil
}

func (w *Worker) aggregate(ctx context.Context) ([]*actions.ActionGroup, error) {
	subs, err := w.api.ListPendingSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending subscriptions: %w", err)
	}
	bills, err := w.api.ListBills(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	return actions.Aggregate(subs, bills, w.now()), nil
}

func (w *Worker) broadcast(text string) {
	for _, adminID := range w.adminIDs {
		if err := w.sender.SendMessage(adminID, text); err != nil {
			w.logger.Error("send digest failed", "admin_id", adminID, "error", err)
		}
	}
}

// FormatDigest renders the daily summary of pending work across all users.
func FormatDigest(loc Localizer, lang string, groups []*actions.ActionGroup) string {
	var users, applications, installations int
	var planChanges, paymentChecks, unpaid int
	var unpaidTotal float64

	for _, g := range groups {
		if g.IsEmpty() {
			continue
		}
		users++
		applications += len(g.PendingApplications)
		installations += len(g.PendingInstallations)
		planChanges += len(g.PendingPlanChanges)
		paymentChecks += len(g.PendingPaymentVerifications)
		unpaid += len(g.UnpaidBills)
		unpaidTotal += g.UnpaidTotal()
	}

	if users == 0 {
		return loc.Get(lang, "digest.empty", nil)
	}

	lines := []string{
		loc.Get(lang, "digest.header", map[string]interface{}{"total": users}),
	}
	if applications > 0 {
		lines = append(lines, loc.Get(lang, "digest.line_applications", map[string]interface{}{"count": applications}))
	}
	if installations > 0 {
		lines = append(lines, loc.Get(lang, "digest.line_installations", map[string]interface{}{"count": installations}))
	}
	if planChanges > 0 {
		lines = append(lines, loc.Get(lang, "digest.line_plan_changes", map[string]interface{}{"count": planChanges}))
	}
	if paymentChecks > 0 {
		lines = append(lines, loc.Get(lang, "digest.line_payment_verifications", map[string]interface{}{"count": paymentChecks}))
	}
	if unpaid > 0 {
		lines = append(lines, loc.Get(lang, "digest.line_unpaid", map[string]interface{}{
			"count": unpaid,
			"total": fmt.Sprintf("%.2f", unpaidTotal),
		}))
	}

	return strings.Join(lines, "\n")
}

// FormatStuckAlert renders the stuck-bill alert, or "" when nothing is stuck.
func FormatStuckAlert(loc Localizer, lang string, groups []*actions.ActionGroup) string {
	var lines []string
	for _, g := range groups {
		for _, bill := range g.StuckUpcomingBills {
			lines = append(lines, loc.Get(lang, "stuck.line", map[string]interface{}{
				"user": g.User.Name,
				"bill": bill.ID,
				"due":  bill.DueDate.Format("2006-01-02"),
			}))
		}
	}

	if len(lines) == 0 {
		return ""
	}

	header := loc.Get(lang, "stuck.header", map[string]interface{}{"count": len(lines)})
	return header + "\n" + strings.Join(lines, "\n")
}
