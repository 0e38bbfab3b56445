package adminapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(srv.URL, "test-token", logger,
		WithRetries(2, 10*time.Millisecond),
		WithRateLimit(1000, 100),
	)
}

func TestListPendingSubscriptions(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/subscriptions/pending" {
			t.Errorf("path = %q, want /admin/subscriptions/pending", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		_, _ = w.Write([]byte(`[
			{"id":"s1","userId":{"id":"u1","name":"Alice","email":"alice@example.com"},"status":"pending_verification"},
			{"id":"s2","userId":{"id":"u2","name":"Bob"},"status":"pending_change","pendingPlanId":{"id":"p2","name":"Fiber 100","price":49.9}}
		]`))
	})

	subs, err := client.ListPendingSubscriptions(context.Background())
	if err != nil {
		t.Fatalf("ListPendingSubscriptions: %v", err)
	}

	if len(subs) != 2 {
		t.Fatalf("got %d subscriptions, want 2", len(subs))
	}
	if subs[0].ID != "s1" || subs[0].User == nil || subs[0].User.ID != "u1" {
		t.Errorf("subs[0] = %+v, want s1 owned by u1", subs[0])
	}
	if subs[1].PendingPlan == nil || subs[1].PendingPlan.Name != "Fiber 100" {
		t.Errorf("subs[1].PendingPlan = %+v, want Fiber 100", subs[1].PendingPlan)
	}
}

func TestListBills(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/bills" {
			t.Errorf("path = %q, want /admin/bills", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[
			{"id":"b1","userId":{"id":"u1"},"subscriptionId":"s1","status":"Due","amount":19.5,"dueDate":"2025-06-01T00:00:00Z"}
		]`))
	})

	bills, err := client.ListBills(context.Background())
	if err != nil {
		t.Fatalf("ListBills: %v", err)
	}

	if len(bills) != 1 {
		t.Fatalf("got %d bills, want 1", len(bills))
	}
	b := bills[0]
	if b.ID != "b1" || b.SubscriptionID != "s1" || b.Amount != 19.5 {
		t.Errorf("bill = %+v", b)
	}
}

func TestMutationEndpoints(t *testing.T) {
	tests := []struct {
		name     string
		call     func(*Client) error
		wantPath string
		wantBody map[string]any
	}{
		{
			name: "approve verification",
			call: func(c *Client) error {
				return c.ApproveVerification(context.Background(), "s1")
			},
			wantPath: "/admin/subscriptions/s1/approve-verification",
		},
		{
			name: "activate",
			call: func(c *Client) error {
				return c.ActivateSubscription(context.Background(), "s2")
			},
			wantPath: "/admin/subscriptions/s2/activate",
		},
		{
			name: "mark bill due",
			call: func(c *Client) error {
				return c.MarkBillDue(context.Background(), "b1")
			},
			wantPath: "/admin/bills/b1/mark-due",
		},
		{
			name: "approve change immediate",
			call: func(c *Client) error {
				return c.ApprovePlanChange(context.Background(), "s3", false)
			},
			wantPath: "/admin/subscriptions/s3/approve-change",
			wantBody: map[string]any{"scheduleForRenewal": false},
		},
		{
			name: "approve change scheduled",
			call: func(c *Client) error {
				return c.ApprovePlanChange(context.Background(), "s3", true)
			},
			wantPath: "/admin/subscriptions/s3/approve-change",
			wantBody: map[string]any{"scheduleForRenewal": true},
		},
		{
			name: "decline subscription",
			call: func(c *Client) error {
				return c.DeclineSubscription(context.Background(), "s4", "incomplete documents")
			},
			wantPath: "/admin/subscriptions/s4/decline",
			wantBody: map[string]any{"reason": "incomplete documents"},
		},
		{
			name: "decline bill",
			call: func(c *Client) error {
				return c.DeclineBill(context.Background(), "b2", "duplicate payment")
			},
			wantPath: "/admin/bills/b2/decline",
			wantBody: map[string]any{"reason": "duplicate payment"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath, gotMethod, gotKey string
			var gotBody []byte

			client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotMethod = r.Method
				gotKey = r.Header.Get("Idempotence-Key")
				gotBody, _ = io.ReadAll(r.Body)
				w.WriteHeader(http.StatusOK)
			})

			if err := tt.call(client); err != nil {
				t.Fatalf("call failed: %v", err)
			}

			if gotMethod != http.MethodPost {
				t.Errorf("method = %q, want POST", gotMethod)
			}
			if gotPath != tt.wantPath {
				t.Errorf("path = %q, want %q", gotPath, tt.wantPath)
			}
			if gotKey == "" {
				t.Error("mutation request is missing Idempotence-Key header")
			}

			if tt.wantBody != nil {
				var body map[string]any
				if err := json.Unmarshal(gotBody, &body); err != nil {
					t.Fatalf("decode request body: %v", err)
				}
				for k, want := range tt.wantBody {
					if body[k] != want {
						t.Errorf("body[%q] = %v, want %v", k, body[k], want)
					}
				}
			}
		})
	}
}

func TestServerMessageSurfacedOnError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"subscription is no longer pending"}`))
	})

	err := client.ApproveVerification(context.Background(), "s1")
	if err == nil {
		t.Fatal("expected error")
	}

	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("error is %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusConflict {
		t.Errorf("StatusCode = %d, want 409", apiErr.StatusCode)
	}
	if apiErr.Message != "subscription is no longer pending" {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestErrorWithoutMessageBody(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	err := client.ActivateSubscription(context.Background(), "s1")
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("error is %T, want *APIError", err)
	}
	if apiErr.Message != "" {
		t.Errorf("Message = %q, want empty", apiErr.Message)
	}
}

func TestRetriesOnServerError(t *testing.T) {
	var calls int
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	if _, err := client.ListBills(context.Background()); err != nil {
		t.Fatalf("ListBills after retries: %v", err)
	}
	if calls != 3 {
		t.Errorf("server saw %d calls, want 3", calls)
	}
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var calls int
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"bad id"}`))
	})

	if err := client.MarkBillDue(context.Background(), "nope"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("server saw %d calls, want 1", calls)
	}
}
