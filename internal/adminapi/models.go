package adminapi

import (
	"time"

	"plandesk-bot/internal/stories/actions"
)

// Wire shapes of the backend admin API. The backend denormalizes references:
// userId / planId / pendingPlanId arrive as embedded objects, not ids.

type userRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	PhotoURL string `json:"photoUrl"`
}

func (u *userRef) ToModel() *actions.User {
	if u == nil || u.ID == "" {
		return nil
	}
	return &actions.User{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		PhotoURL: u.PhotoURL,
	}
}

type planRef struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func (p *planRef) ToModel() *actions.Plan {
	if p == nil || p.ID == "" {
		return nil
	}
	return &actions.Plan{
		ID:    p.ID,
		Name:  p.Name,
		Price: p.Price,
	}
}

type subscriptionResponse struct {
	ID            string    `json:"id"`
	UserID        *userRef  `json:"userId"`
	Status        string    `json:"status"`
	PlanID        *planRef  `json:"planId"`
	PendingPlanID *planRef  `json:"pendingPlanId"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (s subscriptionResponse) ToModel() *actions.Subscription {
	return &actions.Subscription{
		ID:          s.ID,
		User:        s.UserID.ToModel(),
		Status:      actions.SubscriptionStatus(s.Status),
		Plan:        s.PlanID.ToModel(),
		PendingPlan: s.PendingPlanID.ToModel(),
		CreatedAt:   s.CreatedAt,
	}
}

type billResponse struct {
	ID             string    `json:"id"`
	UserID         *userRef  `json:"userId"`
	SubscriptionID string    `json:"subscriptionId"`
	Status         string    `json:"status"`
	Amount         float64   `json:"amount"`
	DueDate        time.Time `json:"dueDate"`
}

func (b billResponse) ToModel() *actions.Bill {
	return &actions.Bill{
		ID:             b.ID,
		User:           b.UserID.ToModel(),
		SubscriptionID: b.SubscriptionID,
		Status:         actions.BillStatus(b.Status),
		Amount:         b.Amount,
		DueDate:        b.DueDate,
	}
}

type approveChangeRequest struct {
	ScheduleForRenewal bool `json:"scheduleForRenewal"`
}

type declineRequest struct {
	Reason string `json:"reason"`
}

type errorResponse struct {
	Message string `json:"message"`
}
