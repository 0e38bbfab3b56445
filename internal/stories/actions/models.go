package actions

import (
	"time"
)

type SubscriptionStatus string

const (
	SubStatusPendingVerification SubscriptionStatus = "pending_verification"
	SubStatusPendingInstallation SubscriptionStatus = "pending_installation"
	SubStatusPendingChange       SubscriptionStatus = "pending_change"
	SubStatusActive              SubscriptionStatus = "active"
	SubStatusDeclined            SubscriptionStatus = "declined"
)

type BillStatus string

const (
	BillStatusUpcoming            BillStatus = "Upcoming"
	BillStatusDue                 BillStatus = "Due"
	BillStatusOverdue             BillStatus = "Overdue"
	BillStatusPendingVerification BillStatus = "Pending Verification"
	BillStatusPaid                BillStatus = "Paid"
)

type User struct {
	ID       string
	Name     string
	Email    string
	PhotoURL string
}

type Plan struct {
	ID    string
	Name  string
	Price float64
}

type Subscription struct {
	ID     string
	User   *User
	Status SubscriptionStatus
	Plan   *Plan
	// PendingPlan is the target plan of a pending change request.
	PendingPlan *Plan
	// InitialBill is attached during aggregation for pending installations
	// whose first Upcoming bill is already known. Never set by the backend.
	InitialBill *Bill
	CreatedAt   time.Time
}

type Bill struct {
	ID             string
	User           *User
	SubscriptionID string
	Status         BillStatus
	Amount         float64
	DueDate        time.Time
}

// IsStuck reports whether the bill is still Upcoming past its due date,
// which indicates a backend processing gap.
func (b *Bill) IsStuck(now time.Time) bool {
	return b.Status == BillStatusUpcoming && b.DueDate.Before(now)
}

// ActionGroup collects every pending administrative action for one user.
type ActionGroup struct {
	User *User

	PendingApplications         []*Subscription
	PendingInstallations        []*Subscription
	PendingPlanChanges          []*Subscription
	PendingPaymentVerifications []*Bill
	UnpaidBills                 []*Bill
	StuckUpcomingBills          []*Bill
}

// IsEmpty reports whether the group carries no actions at all. Groups are
// created as soon as a user is first seen, so all-empty groups can exist.
func (g *ActionGroup) IsEmpty() bool {
	return len(g.PendingApplications) == 0 &&
		len(g.PendingInstallations) == 0 &&
		len(g.PendingPlanChanges) == 0 &&
		len(g.PendingPaymentVerifications) == 0 &&
		len(g.UnpaidBills) == 0 &&
		len(g.StuckUpcomingBills) == 0
}

// UnpaidTotal sums the amounts of all Due/Overdue bills in the group.
func (g *ActionGroup) UnpaidTotal() float64 {
	var total float64
	for _, b := range g.UnpaidBills {
		total += b.Amount
	}
	return total
}
