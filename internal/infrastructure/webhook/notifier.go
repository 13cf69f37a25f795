// Package webhook delivers reassignment notifications to outgoing webhooks.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/retry"

	"github.com/felixgeelhaar/teampulse/pkg/application"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = time.Second
	signatureHeader   = "X-Teampulse-Signature"
)

// Payload is the JSON body sent to FormatJSON endpoints.
type Payload struct {
	Action    string         `json:"action"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// Notifier posts reassignment outcomes to the configured endpoints.
// Deliveries run in the background; Wait blocks until they finish.
type Notifier struct {
	endpoints  []Endpoint
	client     *http.Client
	deadLetter *DeadLetterStore
	logger     *slog.Logger
	clock      func() time.Time
	wg         sync.WaitGroup
}

func NewNotifier(endpoints []Endpoint, deadLetter *DeadLetterStore, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		endpoints:  endpoints,
		client:     &http.Client{Timeout: 10 * time.Second},
		deadLetter: deadLetter,
		logger:     logger,
		clock:      time.Now,
	}
}

// Notify implements application.Notifier.
func (n *Notifier) Notify(ctx context.Context, action string, data map[string]any) {
	payload := Payload{Action: action, Timestamp: n.clock().UTC(), Data: data}

	// The caller's request may end before delivery does.
	ctx = context.WithoutCancel(ctx)
	for _, ep := range n.endpoints {
		if !ep.accepts(action) {
			continue
		}
		body, err := encode(ep, payload)
		if err != nil {
			n.logger.Warn("webhook payload", "endpoint", ep.Name, "error", err)
			continue
		}
		n.wg.Add(1)
		go func(ep Endpoint) {
			defer n.wg.Done()
			n.deliver(ctx, ep, action, body)
		}(ep)
	}
}

// Wait blocks until every pending delivery has finished or was dead-lettered.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) deliver(ctx context.Context, ep Endpoint, action string, body []byte) {
	attempts := ep.MaxRetries
	if attempts <= 0 {
		attempts = defaultMaxRetries
	}
	delay := ep.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	r := retry.New[struct{}](retry.Config{
		MaxAttempts:   attempts,
		InitialDelay:  delay,
		BackoffPolicy: retry.BackoffExponential,
	})
	_, err := r.Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, n.send(ctx, ep, body)
	})
	if err == nil {
		n.logger.Debug("webhook delivered", "endpoint", ep.Name, "action", action)
		return
	}

	n.logger.Warn("webhook delivery failed", "endpoint", ep.Name, "action", action, "attempts", attempts, "error", err)
	if n.deadLetter == nil {
		return
	}
	dl := DeadLetter{
		Timestamp: n.clock(),
		Endpoint:  ep.Name,
		URL:       ep.URL,
		Action:    action,
		Payload:   string(body),
		Error:     err.Error(),
		Attempts:  attempts,
	}
	if err := n.deadLetter.Append(dl); err != nil {
		n.logger.Error("dead letter append failed", "endpoint", ep.Name, "error", err)
	}
}

func (n *Notifier) send(ctx context.Context, ep Endpoint, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Teampulse-Webhook/1.0")
	if ep.Secret != "" {
		req.Header.Set(signatureHeader, sign(body, ep.Secret))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func encode(ep Endpoint, p Payload) ([]byte, error) {
	if ep.Format == FormatSlack {
		return json.Marshal(slackMessage(p))
	}
	return json.Marshal(p)
}

// sign computes the HMAC-SHA256 of the body.
func sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

var _ application.Notifier = (*Notifier)(nil)
