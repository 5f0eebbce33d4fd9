// Package mailrelay delivers reminders through an HTTP mail relay.
package mailrelay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	domainErrors "github.com/polkiloo/receiptwatch/internal/domain/errors"
	"github.com/polkiloo/receiptwatch/internal/reminder"
)

// TooManyRequestsError represents rate limiting signal from the relay.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

var _ reminder.RetryHinter = TooManyRequestsError{}

// RetryDelay exposes the relay's Retry-After to the dispatcher.
func (e TooManyRequestsError) RetryDelay() time.Duration {
	return e.RetryAfter
}

// Unwrap marks throttling as a transient failure.
func (e TooManyRequestsError) Unwrap() error {
	return domainErrors.ErrNotifierTransient
}

// Client implements reminder.Notifier via the relay HTTP API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// request mirrors JSON payload accepted by the relay.
type request struct {
	NotificationID int64  `json:"notification_id"`
	OrderID        int64  `json:"order_id"`
	Milestone      string `json:"milestone"`
	To             string `json:"to"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
}

// NewClient creates relay client limited to perSecond sends.
func NewClient(baseURL string, perSecond float64, logger *slog.Logger) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse mail relay url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("mail relay url must be absolute")
	}
	limit := rate.Inf
	burst := 1
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
		burst = max(1, int(perSecond))
	}
	return &Client{
		baseURL: parsed,
		logger:  logger,
		limiter: rate.NewLimiter(limit, burst),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// Send posts msg to the relay. 4xx answers other than 408 and 429 are permanent.
func (c *Client) Send(ctx context.Context, msg reminder.Message) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limit: %v", domainErrors.ErrNotifierTransient, err)
	}

	payload, err := json.Marshal(request{
		NotificationID: msg.NotificationID,
		OrderID:        msg.OrderID,
		Milestone:      string(msg.Milestone),
		To:             msg.Recipient,
		Subject:        msg.Subject,
		Body:           msg.Body,
	})
	if err != nil {
		return fmt.Errorf("%w: encode message: %v", domainErrors.ErrNotifierPermanent, err)
	}

	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/api/messages")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domainErrors.ErrNotifierPermanent, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", "notification-"+strconv.FormatInt(msg.NotificationID, 10))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domainErrors.ErrNotifierTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return TooManyRequestsError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	case resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode >= 500:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("mail relay unavailable", slog.Int("status", resp.StatusCode), slog.String("body", string(body)))
		return fmt.Errorf("%w: mail relay: %s", domainErrors.ErrNotifierTransient, resp.Status)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("mail relay rejected message",
			slog.Int("status", resp.StatusCode),
			slog.Int64("notification_id", msg.NotificationID),
			slog.String("body", string(body)),
		)
		return fmt.Errorf("%w: mail relay: %s", domainErrors.ErrNotifierPermanent, resp.Status)
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 5 * time.Second
}
