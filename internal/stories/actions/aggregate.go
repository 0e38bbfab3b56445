package actions

import (
	"strings"
	"time"

	"github.com/samber/lo"
)

// Aggregate joins the two flat admin listings into per-user action groups.
//
// Groups are created lazily in first-encounter order, subscriptions scanned
// before bills. Records without a user reference cannot be attributed and are
// dropped silently. The inputs are never mutated: a pending installation that
// gets its initial bill attached is classified as a copy.
func Aggregate(subscriptions []*Subscription, bills []*Bill, now time.Time) []*ActionGroup {
	byUser := make(map[string]*ActionGroup)
	var groups []*ActionGroup

	resolve := func(u *User) *ActionGroup {
		if u == nil || u.ID == "" {
			return nil
		}
		g, ok := byUser[u.ID]
		if !ok {
			g = &ActionGroup{User: u}
			byUser[u.ID] = g
			groups = append(groups, g)
		}
		return g
	}

	for _, sub := range subscriptions {
		if sub == nil {
			continue
		}
		g := resolve(sub.User)
		if g == nil {
			continue
		}

		switch sub.Status {
		case SubStatusPendingVerification:
			g.PendingApplications = append(g.PendingApplications, sub)
		case SubStatusPendingInstallation:
			withBill := *sub
			withBill.InitialBill = firstUpcomingBill(bills, sub.ID)
			g.PendingInstallations = append(g.PendingInstallations, &withBill)
		case SubStatusPendingChange:
			g.PendingPlanChanges = append(g.PendingPlanChanges, sub)
		}
	}

	for _, bill := range bills {
		if bill == nil {
			continue
		}
		g := resolve(bill.User)
		if g == nil {
			continue
		}

		// Stuck check runs independently of the primary classification.
		if bill.IsStuck(now) {
			g.StuckUpcomingBills = append(g.StuckUpcomingBills, bill)
		}

		switch bill.Status {
		case BillStatusPendingVerification:
			g.PendingPaymentVerifications = append(g.PendingPaymentVerifications, bill)
		case BillStatusDue, BillStatusOverdue:
			g.UnpaidBills = append(g.UnpaidBills, bill)
		}
	}

	return groups
}

// firstUpcomingBill returns the first bill (in input order) that belongs to
// the subscription and is still Upcoming, or nil.
func firstUpcomingBill(bills []*Bill, subscriptionID string) *Bill {
	for _, b := range bills {
		if b == nil {
			continue
		}
		if b.SubscriptionID == subscriptionID && b.Status == BillStatusUpcoming {
			return b
		}
	}
	return nil
}

// Filter narrows groups to users whose display name or email contains the
// query, case-insensitively. An empty query passes everything through.
func Filter(groups []*ActionGroup, query string) []*ActionGroup {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return groups
	}

	return lo.Filter(groups, func(g *ActionGroup, _ int) bool {
		if g.User == nil {
			return false
		}
		return strings.Contains(strings.ToLower(g.User.Name), q) ||
			strings.Contains(strings.ToLower(g.User.Email), q)
	})
}
