// Package notify posts run results to the caller-supplied evaluation URL.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"deployer/internals/schemas"
	"deployer/internals/timeouts"
)

const defaultMaxAttempts = 6

type Notifier struct {
	MaxAttempts int
	BackoffBase time.Duration
	client      *http.Client
	logger      *slog.Logger
}

func NewNotifier(maxAttempts int, logger *slog.Logger) *Notifier {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		MaxAttempts: maxAttempts,
		BackoffBase: time.Second,
		client:      &http.Client{Timeout: timeouts.NotifyRequest},
		logger:      logger,
	}
}

// Notify POSTs the payload as JSON. Success is strictly HTTP 200; every other
// status and every transport error consumes an attempt and is retried after an
// exponentially growing delay (base, 2x base, 4x base, ...). All non-200
// outcomes retry identically, including client errors that can never succeed.
func (n *Notifier) Notify(ctx context.Context, evaluationURL string, payload schemas.NotificationPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode notification payload: %w", err)
	}

	attempt := 0
	backoff := retry.WithMaxRetries(uint64(n.MaxAttempts-1), retry.NewExponential(n.BackoffBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, evaluationURL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.client.Do(req)
		if err != nil {
			n.logger.Warn("notify attempt failed", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		n.logger.Info("notify attempt", "attempt", attempt, "status", resp.StatusCode)
		if resp.StatusCode != http.StatusOK {
			return retry.RetryableError(fmt.Errorf("unexpected status %d", resp.StatusCode))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("all %d notification attempts failed: %w", attempt, err)
	}
	return nil
}
