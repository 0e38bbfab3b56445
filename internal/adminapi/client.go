package adminapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"plandesk-bot/internal/stories/actions"
)

// APIError is a non-2xx reply from the backend. Message carries the
// server-provided text verbatim when the body had one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("admin api: %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("admin api: %d", e.StatusCode)
}

// UserMessage returns the server's text for user-facing notices.
func (e *APIError) UserMessage() string {
	return e.Message
}

var (
	defaultTimeout       = 30 * time.Second
	defaultMaxRetries    = 3
	defaultRetryInterval = 2 * time.Second
	defaultRPS           = 20.0
	defaultBurst         = 5
)

type config struct {
	Timeout       time.Duration
	MaxRetries    int
	RetryInterval time.Duration
	RPS           float64
	Burst         int
}

type Option func(*config)

func WithTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.Timeout = timeout
	}
}

func WithRetries(maxRetries int, interval time.Duration) Option {
	return func(c *config) {
		c.MaxRetries = maxRetries
		c.RetryInterval = interval
	}
}

func WithRateLimit(rps float64, burst int) Option {
	return func(c *config) {
		c.RPS = rps
		c.Burst = burst
	}
}

// Client talks to the billing backend's /admin surface.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	token         string
	limiter       *rate.Limiter
	maxRetries    int
	retryInterval time.Duration
	logger        *slog.Logger
}

func NewClient(baseURL, token string, logger *slog.Logger, opts ...Option) *Client {
	cfg := &config{
		Timeout:       defaultTimeout,
		MaxRetries:    defaultMaxRetries,
		RetryInterval: defaultRetryInterval,
		RPS:           defaultRPS,
		Burst:         defaultBurst,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Client{
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		token:         token,
		limiter:       rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		maxRetries:    cfg.MaxRetries,
		retryInterval: cfg.RetryInterval,
		logger:        logger,
	}
}

// ListPendingSubscriptions fetches all subscriptions awaiting admin action.
func (c *Client) ListPendingSubscriptions(ctx context.Context) ([]*actions.Subscription, error) {
	var rows []subscriptionResponse
	if err := c.get(ctx, "/admin/subscriptions/pending", &rows); err != nil {
		return nil, fmt.Errorf("list pending subscriptions: %w", err)
	}

	subs := make([]*actions.Subscription, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, row.ToModel())
	}
	return subs, nil
}

// ListBills fetches the full bill listing.
func (c *Client) ListBills(ctx context.Context) ([]*actions.Bill, error) {
	var rows []billResponse
	if err := c.get(ctx, "/admin/bills", &rows); err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}

	bills := make([]*actions.Bill, 0, len(rows))
	for _, row := range rows {
		bills = append(bills, row.ToModel())
	}
	return bills, nil
}

func (c *Client) ApproveVerification(ctx context.Context, subscriptionID string) error {
	return c.post(ctx, "/admin/subscriptions/"+subscriptionID+"/approve-verification", nil)
}

func (c *Client) ActivateSubscription(ctx context.Context, subscriptionID string) error {
	return c.post(ctx, "/admin/subscriptions/"+subscriptionID+"/activate", nil)
}

func (c *Client) MarkBillDue(ctx context.Context, billID string) error {
	return c.post(ctx, "/admin/bills/"+billID+"/mark-due", nil)
}

func (c *Client) ApprovePlanChange(ctx context.Context, subscriptionID string, scheduleForRenewal bool) error {
	body := approveChangeRequest{ScheduleForRenewal: scheduleForRenewal}
	return c.post(ctx, "/admin/subscriptions/"+subscriptionID+"/approve-change", body)
}

func (c *Client) DeclineSubscription(ctx context.Context, subscriptionID, reason string) error {
	return c.post(ctx, "/admin/subscriptions/"+subscriptionID+"/decline", declineRequest{Reason: reason})
}

func (c *Client) DeclineBill(ctx context.Context, billID, reason string) error {
	return c.post(ctx, "/admin/bills/"+billID+"/decline", declineRequest{Reason: reason})
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	resp, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// do issues the request with rate limiting and bounded retries. Mutations
// carry an idempotency key so a retried POST is applied at most once.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	idempotenceKey := ""
	if method == http.MethodPost {
		idempotenceKey = fmt.Sprintf("%s_%d", uuid.New().String(), time.Now().Unix())
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryInterval):
			}
			c.logger.Debug("retrying admin api request",
				slog.String("method", method),
				slog.String("path", path),
				slog.Int("attempt", attempt))
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiting: %w", err)
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		if idempotenceKey != "" {
			req.Header.Set("Idempotence-Key", idempotenceKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("do request: %w", err)
			continue
		}

		// Retry server-side failures, return everything else as-is.
		if resp.StatusCode >= 500 {
			lastErr = decodeError(resp)
			resp.Body.Close()
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Message = body.Message
	}
	return apiErr
}
