package declineitem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"plandesk-bot/internal/stories/actions"
	"plandesk-bot/internal/stories/inbox"
	"plandesk-bot/internal/telegram/flows"
	"plandesk-bot/internal/telegram/messages"
	"plandesk-bot/internal/telegram/states"
)

// Handler runs the decline dialog: a dcl_s/dcl_b callback opens it, the next
// text message is the reason. An empty reason keeps the dialog open; cancel
// or a valid submit closes it.
type Handler struct {
	bot          botApi
	stateManager stateManager
	inboxService inboxService
	inboxView    inboxView
	logger       *slog.Logger
}

func NewHandler(
	bot botApi,
	sm stateManager,
	is inboxService,
	view inboxView,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		bot:          bot,
		stateManager: sm,
		inboxService: is,
		inboxView:    view,
		logger:       logger,
	}
}

// HandleCallback dispatches dcl_* callbacks.
func (h *Handler) HandleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	chatID := cb.Message.Chat.ID
	action, id, _ := strings.Cut(cb.Data, ":")

	switch action {
	case "dcl_s", "dcl_b":
		return h.start(ctx, cb, chatID, action == "dcl_b", id)
	case "dcl_cancel":
		return h.cancel(cb, chatID)
	default:
		_, err := h.bot.Request(tgbotapi.NewCallback(cb.ID, "Unknown action"))
		return err
	}
}

// Handle consumes the reason message while the dialog is open.
func (h *Handler) Handle(update *tgbotapi.Update, state states.State) error {
	ctx := context.Background()

	switch state {
	case states.AdminDeclineWaitReason:
		return h.handleReason(ctx, update)
	default:
		return fmt.Errorf("unknown decline state: %s", state)
	}
}

func (h *Handler) start(ctx context.Context, cb *tgbotapi.CallbackQuery, chatID int64, isBill bool, id string) error {
	st, ok := h.inboxView.Session(chatID)
	if !ok {
		_, _ = h.bot.Request(tgbotapi.NewCallback(cb.ID, messages.ItemGone))
		return h.inboxView.Rerender(ctx, chatID)
	}

	target := findTarget(st, isBill, id)
	if target.IsZero() {
		_, _ = h.bot.Request(tgbotapi.NewCallback(cb.ID, messages.ItemGone))
		return h.inboxView.Rerender(ctx, chatID)
	}

	h.inboxService.OpenDeclineDialog(st, target)
	h.stateManager.SetState(chatID, states.AdminDeclineWaitReason, &flows.DeclineFlowData{
		Session: st,
		Target:  target,
	})

	_, _ = h.bot.Request(tgbotapi.NewCallback(cb.ID, ""))

	msg := tgbotapi.NewMessage(chatID, messages.DeclinePrompt)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(messages.ButtonCancel, "dcl_cancel"),
		),
	)
	_, err := h.bot.Send(msg)
	return err
}

func (h *Handler) handleReason(ctx context.Context, update *tgbotapi.Update) error {
	if update.Message == nil {
		return nil
	}
	chatID := update.Message.Chat.ID

	data, err := h.stateManager.GetDeclineData(chatID)
	if err != nil {
		h.stateManager.Clear(chatID)
		return h.inboxView.Rerender(ctx, chatID)
	}

	err = h.inboxService.DeclineItem(ctx, data.Session, data.Target, update.Message.Text)
	if errors.Is(err, inbox.ErrEmptyDeclineReason) {
		// Dialog stays open, ask again.
		msg := tgbotapi.NewMessage(chatID, messages.DeclineReasonRequired)
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(messages.ButtonCancel, "dcl_cancel"),
			),
		)
		_, sendErr := h.bot.Send(msg)
		return sendErr
	}

	h.stateManager.Clear(chatID)

	if err != nil {
		h.logger.Error("decline failed",
			slog.String("target", data.Target.ID()),
			slog.Any("error", err))
		if _, sendErr := h.bot.Send(tgbotapi.NewMessage(chatID, inbox.UserMessage(err, messages.FallbackDecline))); sendErr != nil {
			return sendErr
		}
		return h.inboxView.Rerender(ctx, chatID)
	}

	if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, messages.DeclineDone)); err != nil {
		return err
	}
	return h.inboxView.Rerender(ctx, chatID)
}

func (h *Handler) cancel(cb *tgbotapi.CallbackQuery, chatID int64) error {
	if data, err := h.stateManager.GetDeclineData(chatID); err == nil {
		h.inboxService.CloseDeclineDialog(data.Session)
	}
	h.stateManager.Clear(chatID)

	_, _ = h.bot.Request(tgbotapi.NewCallback(cb.ID, messages.Cancelled))

	edit := tgbotapi.NewEditMessageText(chatID, cb.Message.MessageID, messages.Cancelled)
	_, err := h.bot.Send(edit)
	return err
}

func findTarget(st *inbox.State, isBill bool, id string) inbox.DeclineTarget {
	for _, g := range st.Master {
		if isBill {
			for _, list := range [][]*actions.Bill{
				g.StuckUpcomingBills, g.PendingPaymentVerifications, g.UnpaidBills,
			} {
				for _, bill := range list {
					if bill.ID == id {
						return inbox.DeclineTarget{Bill: bill}
					}
				}
			}
			continue
		}
		for _, list := range [][]*actions.Subscription{
			g.PendingApplications, g.PendingInstallations, g.PendingPlanChanges,
		} {
			for _, sub := range list {
				if sub.ID == id {
					return inbox.DeclineTarget{Subscription: sub}
				}
			}
		}
	}
	return inbox.DeclineTarget{}
}
