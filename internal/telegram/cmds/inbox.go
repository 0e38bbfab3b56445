package cmds

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"plandesk-bot/internal/stories/actions"
	"plandesk-bot/internal/stories/inbox"
	"plandesk-bot/internal/telegram/messages"
	"plandesk-bot/internal/telegram/states"
)

// maxCards caps how many user cards one render sends; the rest is reachable
// through the search filter.
const maxCards = 15

type InboxService interface {
	FetchData(ctx context.Context, st *inbox.State, showLoader bool) error
	SetQuery(st *inbox.State, query string)
	ApproveVerification(ctx context.Context, st *inbox.State, sub *actions.Subscription) error
	ActivateSubscription(ctx context.Context, st *inbox.State, sub *actions.Subscription) error
	MarkBillAsDue(ctx context.Context, st *inbox.State, bill *actions.Bill) error
	ApprovePlanChange(ctx context.Context, st *inbox.State, sub *actions.Subscription, scheduleForRenewal bool) error
}

type InboxStateManager interface {
	SetState(chatID int64, state states.State, data any)
	Clear(chatID int64)
}

type InboxAdminChecker interface {
	IsAdmin(telegramID int64) bool
}

// InboxCommand owns the inbox screen: one in-memory session per chat, created
// fresh on /inbox and mutated through callbacks until the next /inbox.
type InboxCommand struct {
	bot          *tgbotapi.BotAPI
	inboxService InboxService
	stateManager InboxStateManager
	adminChecker InboxAdminChecker
	logger       *slog.Logger

	mu       sync.Mutex
	sessions map[int64]*inbox.State
}

func NewInboxCommand(
	bot *tgbotapi.BotAPI,
	inboxService InboxService,
	stateManager InboxStateManager,
	adminChecker InboxAdminChecker,
	logger *slog.Logger,
) *InboxCommand {
	return &InboxCommand{
		bot:          bot,
		inboxService: inboxService,
		stateManager: stateManager,
		adminChecker: adminChecker,
		logger:       logger,
		sessions:     make(map[int64]*inbox.State),
	}
}

// Execute opens the inbox: resets the chat's session and loads fresh data
// behind a loading indicator.
func (c *InboxCommand) Execute(ctx context.Context, chatID int64) error {
	st := inbox.NewState(chatID)

	c.mu.Lock()
	c.sessions[chatID] = st
	c.mu.Unlock()

	loading, err := c.bot.Send(tgbotapi.NewMessage(chatID, messages.InboxLoading))
	if err != nil {
		return err
	}

	if err := c.inboxService.FetchData(ctx, st, true); err != nil {
		edit := tgbotapi.NewEditMessageText(chatID, loading.MessageID, messages.InboxFetchFailed)
		markup := refreshKeyboard()
		edit.ReplyMarkup = &markup
		_, sendErr := c.bot.Send(edit)
		return sendErr
	}

	return c.render(ctx, chatID, st, loading.MessageID)
}

// Session returns the chat's live inbox session, if one exists.
func (c *InboxCommand) Session(chatID int64) (*inbox.State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.sessions[chatID]
	return st, ok
}

// Rerender sends a fresh view of the chat's current session.
func (c *InboxCommand) Rerender(ctx context.Context, chatID int64) error {
	st, ok := c.Session(chatID)
	if !ok {
		return c.Execute(ctx, chatID)
	}
	return c.render(ctx, chatID, st, 0)
}

// HandleCallback dispatches inb_* callbacks except the decline ones, which
// the router hands to the decline flow.
func (c *InboxCommand) HandleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	chatID := cb.Message.Chat.ID

	st, ok := c.Session(chatID)
	if !ok {
		_ = c.answerCallback(cb.ID, "")
		return c.Execute(ctx, chatID)
	}

	action, id := splitCallback(cb.Data)

	switch action {
	case "inb_refresh":
		_ = c.answerCallback(cb.ID, messages.InboxRefreshing)
		if err := c.inboxService.FetchData(ctx, st, false); err != nil {
			return c.sendText(chatID, messages.InboxFetchFailed)
		}
		return c.render(ctx, chatID, st, 0)

	case "inb_search":
		_ = c.answerCallback(cb.ID, "")
		c.stateManager.SetState(chatID, states.AdminInboxWaitQuery, nil)
		msg := tgbotapi.NewMessage(chatID, messages.SearchPrompt)
		msg.ReplyMarkup = cancelKeyboard()
		_, err := c.bot.Send(msg)
		return err

	case "inb_clear":
		_ = c.answerCallback(cb.ID, messages.SearchCleared)
		c.inboxService.SetQuery(st, "")
		return c.render(ctx, chatID, st, 0)

	case "inb_cancel":
		_ = c.answerCallback(cb.ID, messages.Cancelled)
		c.stateManager.Clear(chatID)
		edit := tgbotapi.NewEditMessageText(chatID, cb.Message.MessageID, messages.Cancelled)
		_, err := c.bot.Send(edit)
		return err

	case "inb_apv":
		return c.confirm(cb, "Approve this application?", "inb_cfm_apv:"+id)
	case "inb_act":
		return c.confirm(cb, "Activate this subscription?", "inb_cfm_act:"+id)
	case "inb_due":
		return c.confirm(cb, "Mark this stuck bill as due?", "inb_cfm_due:"+id)
	case "inb_chg":
		return c.planChangeChoice(cb, id)

	case "inb_cfm_apv":
		sub := c.findSubscription(st, id)
		if sub == nil {
			return c.itemGone(ctx, cb, chatID)
		}
		return c.runMutation(ctx, cb, st, messages.ApproveVerificationDone, messages.FallbackApproveVerification,
			func(ctx context.Context) error {
				return c.inboxService.ApproveVerification(ctx, st, sub)
			})

	case "inb_cfm_act":
		sub := c.findSubscription(st, id)
		if sub == nil {
			return c.itemGone(ctx, cb, chatID)
		}
		return c.runMutation(ctx, cb, st, messages.ActivateDone, messages.FallbackActivate,
			func(ctx context.Context) error {
				return c.inboxService.ActivateSubscription(ctx, st, sub)
			})

	case "inb_cfm_due":
		bill := c.findBill(st, id)
		if bill == nil {
			return c.itemGone(ctx, cb, chatID)
		}
		return c.runMutation(ctx, cb, st, messages.MarkDueDone, messages.FallbackMarkDue,
			func(ctx context.Context) error {
				return c.inboxService.MarkBillAsDue(ctx, st, bill)
			})

	case "inb_chg_now", "inb_chg_ren":
		sub := c.findSubscription(st, id)
		if sub == nil {
			return c.itemGone(ctx, cb, chatID)
		}
		scheduleForRenewal := action == "inb_chg_ren"
		return c.runMutation(ctx, cb, st, messages.ApproveChangeDone, messages.FallbackApproveChange,
			func(ctx context.Context) error {
				return c.inboxService.ApprovePlanChange(ctx, st, sub, scheduleForRenewal)
			})

	default:
		return c.answerCallback(cb.ID, "Unknown action")
	}
}

// HandleSearchInput consumes the text message sent while the chat waits for a
// search query.
func (c *InboxCommand) HandleSearchInput(ctx context.Context, update *tgbotapi.Update) error {
	if update.Message == nil {
		return nil
	}
	chatID := update.Message.Chat.ID

	st, ok := c.Session(chatID)
	if !ok {
		c.stateManager.Clear(chatID)
		return c.Execute(ctx, chatID)
	}

	c.inboxService.SetQuery(st, strings.TrimSpace(update.Message.Text))
	c.stateManager.Clear(chatID)

	return c.render(ctx, chatID, st, 0)
}

// render shows the header plus one card per non-empty visible group. When
// editMessageID is set the header replaces that message, otherwise it is sent
// as a new one.
func (c *InboxCommand) render(ctx context.Context, chatID int64, st *inbox.State, editMessageID int) error {
	groups := visibleGroups(st.Filtered)
	total := len(visibleGroups(st.Master))

	header := messages.FormatInboxHeader(len(groups), total, st.Query)
	if total == 0 {
		header = messages.InboxEmpty
	} else if len(groups) == 0 {
		header = messages.InboxNoMatches
	}

	markup := headerKeyboard(st.Query)
	if editMessageID != 0 {
		edit := tgbotapi.NewEditMessageText(chatID, editMessageID, header)
		edit.ParseMode = tgbotapi.ModeMarkdown
		edit.ReplyMarkup = &markup
		if _, err := c.bot.Send(edit); err != nil {
			return err
		}
	} else {
		msg := tgbotapi.NewMessage(chatID, header)
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.ReplyMarkup = markup
		if _, err := c.bot.Send(msg); err != nil {
			return err
		}
	}

	isAdmin := c.adminChecker.IsAdmin(chatID)

	shown := groups
	if len(shown) > maxCards {
		shown = shown[:maxCards]
	}
	for _, g := range shown {
		msg := tgbotapi.NewMessage(chatID, messages.FormatUserCard(g))
		msg.ParseMode = tgbotapi.ModeMarkdown
		if isAdmin {
			if kb, ok := cardKeyboard(g); ok {
				msg.ReplyMarkup = kb
			}
		}
		if _, err := c.bot.Send(msg); err != nil {
			c.logger.Error("send inbox card failed",
				slog.Int64("chat_id", chatID),
				slog.String("error", err.Error()))
			return err
		}
	}

	if rest := len(groups) - len(shown); rest > 0 {
		return c.sendText(chatID, fmt.Sprintf("…and %d more users. Narrow the list with 🔍 Search.", rest))
	}
	return nil
}

func (c *InboxCommand) confirm(cb *tgbotapi.CallbackQuery, text, confirmData string) error {
	_ = c.answerCallback(cb.ID, "")

	msg := tgbotapi.NewMessage(cb.Message.Chat.ID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(messages.ButtonConfirm, confirmData),
			tgbotapi.NewInlineKeyboardButtonData(messages.ButtonCancel, "inb_cancel"),
		),
	)
	_, err := c.bot.Send(msg)
	return err
}

func (c *InboxCommand) planChangeChoice(cb *tgbotapi.CallbackQuery, subID string) error {
	_ = c.answerCallback(cb.ID, "")

	msg := tgbotapi.NewMessage(cb.Message.Chat.ID, "Apply the plan change immediately or at the next renewal?")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(messages.ButtonChangeNow, "inb_chg_now:"+subID),
			tgbotapi.NewInlineKeyboardButtonData(messages.ButtonChangeAtRenewal, "inb_chg_ren:"+subID),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(messages.ButtonCancel, "inb_cancel"),
		),
	)
	_, err := c.bot.Send(msg)
	return err
}

// runMutation executes one admin action and refreshes the screen. The
// service already re-fetched silently on success, so only rendering is left.
func (c *InboxCommand) runMutation(
	ctx context.Context,
	cb *tgbotapi.CallbackQuery,
	st *inbox.State,
	successText, fallback string,
	call func(ctx context.Context) error,
) error {
	chatID := cb.Message.Chat.ID

	if err := call(ctx); err != nil {
		_ = c.answerCallback(cb.ID, "")
		return c.sendText(chatID, inbox.UserMessage(err, fallback))
	}

	_ = c.answerCallback(cb.ID, successText)
	edit := tgbotapi.NewEditMessageText(chatID, cb.Message.MessageID, successText)
	if _, err := c.bot.Send(edit); err != nil {
		c.logger.Error("edit confirmation failed", slog.String("error", err.Error()))
	}

	return c.render(ctx, chatID, st, 0)
}

// itemGone handles actions on items that disappeared from the aggregate
// since the card was rendered.
func (c *InboxCommand) itemGone(ctx context.Context, cb *tgbotapi.CallbackQuery, chatID int64) error {
	_ = c.answerCallback(cb.ID, messages.ItemGone)

	st, ok := c.Session(chatID)
	if !ok {
		return c.Execute(ctx, chatID)
	}
	if err := c.inboxService.FetchData(ctx, st, false); err != nil {
		return c.sendText(chatID, messages.InboxFetchFailed)
	}
	return c.render(ctx, chatID, st, 0)
}

func (c *InboxCommand) findSubscription(st *inbox.State, id string) *actions.Subscription {
	for _, g := range st.Master {
		for _, list := range [][]*actions.Subscription{
			g.PendingApplications, g.PendingInstallations, g.PendingPlanChanges,
		} {
			for _, sub := range list {
				if sub.ID == id {
					return sub
				}
			}
		}
	}
	return nil
}

func (c *InboxCommand) findBill(st *inbox.State, id string) *actions.Bill {
	for _, g := range st.Master {
		for _, list := range [][]*actions.Bill{
			g.StuckUpcomingBills, g.PendingPaymentVerifications, g.UnpaidBills,
		} {
			for _, bill := range list {
				if bill.ID == id {
					return bill
				}
			}
		}
	}
	return nil
}

func (c *InboxCommand) answerCallback(callbackID, text string) error {
	_, err := c.bot.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

func (c *InboxCommand) sendText(chatID int64, text string) error {
	_, err := c.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func visibleGroups(groups []*actions.ActionGroup) []*actions.ActionGroup {
	out := make([]*actions.ActionGroup, 0, len(groups))
	for _, g := range groups {
		if !g.IsEmpty() {
			out = append(out, g)
		}
	}
	return out
}

func splitCallback(data string) (action, id string) {
	action, id, _ = strings.Cut(data, ":")
	return action, id
}

func headerKeyboard(query string) tgbotapi.InlineKeyboardMarkup {
	row := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData(messages.ButtonRefresh, "inb_refresh"),
		tgbotapi.NewInlineKeyboardButtonData(messages.ButtonSearch, "inb_search"),
	}
	if query != "" {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(messages.ButtonClearSearch, "inb_clear"))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func refreshKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(messages.ButtonRefresh, "inb_refresh"),
		),
	)
}

func cancelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(messages.ButtonCancel, "inb_cancel"),
		),
	)
}

// cardKeyboard builds one button row per actionable item, in the card's
// display order. Read-only items contribute no rows.
func cardKeyboard(g *actions.ActionGroup) (*tgbotapi.InlineKeyboardMarkup, bool) {
	var rows [][]tgbotapi.InlineKeyboardButton

	for _, a := range g.Actions() {
		switch v := a.(type) {
		case actions.StuckBill:
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(messages.ButtonMarkDue, "inb_due:"+v.Bill.ID),
				tgbotapi.NewInlineKeyboardButtonData(messages.ButtonDecline, "dcl_b:"+v.Bill.ID),
			))
		case actions.PendingApplication:
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(messages.ButtonApprove, "inb_apv:"+v.Subscription.ID),
				tgbotapi.NewInlineKeyboardButtonData(messages.ButtonDecline, "dcl_s:"+v.Subscription.ID),
			))
		case actions.PendingInstallation:
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(messages.ButtonActivate, "inb_act:"+v.Subscription.ID),
				tgbotapi.NewInlineKeyboardButtonData(messages.ButtonDecline, "dcl_s:"+v.Subscription.ID),
			))
		case actions.PendingPaymentVerification:
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(messages.ButtonDecline, "dcl_b:"+v.Bill.ID),
			))
		case actions.PendingPlanChange:
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(messages.ButtonApprove, "inb_chg:"+v.Subscription.ID),
				tgbotapi.NewInlineKeyboardButtonData(messages.ButtonDecline, "dcl_s:"+v.Subscription.ID),
			))
		}
	}

	if len(rows) == 0 {
		return nil, false
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb, true
}
