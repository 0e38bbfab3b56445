package actions

// Action is a single renderable entry on a user's card. One case per kind,
// so rendering and command dispatch can type-switch exhaustively.
type Action interface {
	isAction()
}

type StuckBill struct {
	Bill *Bill
}

type PendingApplication struct {
	Subscription *Subscription
}

type PendingInstallation struct {
	Subscription *Subscription
}

type PendingPaymentVerification struct {
	Bill *Bill
}

type PendingPlanChange struct {
	Subscription *Subscription
}

// UnpaidBillsSummary is the single synthetic entry standing in for all of a
// user's Due/Overdue bills.
type UnpaidBillsSummary struct {
	Total float64
	Count int
}

func (StuckBill) isAction()                  {}
func (PendingApplication) isAction()         {}
func (PendingInstallation) isAction()        {}
func (PendingPaymentVerification) isAction() {}
func (PendingPlanChange) isAction()          {}
func (UnpaidBillsSummary) isAction()         {}

// Actions flattens the group into display order: stuck bills first, then
// applications, installations, payment verifications, plan changes, and the
// unpaid-bills summary last.
func (g *ActionGroup) Actions() []Action {
	var out []Action

	for _, b := range g.StuckUpcomingBills {
		out = append(out, StuckBill{Bill: b})
	}
	for _, s := range g.PendingApplications {
		out = append(out, PendingApplication{Subscription: s})
	}
	for _, s := range g.PendingInstallations {
		out = append(out, PendingInstallation{Subscription: s})
	}
	for _, b := range g.PendingPaymentVerifications {
		out = append(out, PendingPaymentVerification{Bill: b})
	}
	for _, s := range g.PendingPlanChanges {
		out = append(out, PendingPlanChange{Subscription: s})
	}
	if len(g.UnpaidBills) > 0 {
		out = append(out, UnpaidBillsSummary{
			Total: g.UnpaidTotal(),
			Count: len(g.UnpaidBills),
		})
	}

	return out
}
