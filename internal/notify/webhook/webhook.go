// Package webhook delivers emergency alerts to a configured HTTP endpoint
// (e.g. a Zapier catch hook) as a JSON POST.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/earshotlabs/earshot/internal/event"
)

const httpTimeout = 10 * time.Second

// Notifier posts emergency alerts to a webhook URL.
type Notifier struct {
	webhookURL string
	client     *http.Client
	logger     log.Logger
}

// New creates a webhook notifier. The caller is expected to pass a non-empty
// URL; an unconfigured notification channel is represented by not constructing
// a Notifier at all.
func New(webhookURL string, logger log.Logger) *Notifier {
	if logger == nil {
		logger = log.Nop()
	}
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
		logger:     logger,
	}
}

// Send posts the alert payload to the configured webhook. One attempt, no
// retries; the router treats any returned error as a terminal delivery
// failure. The failure class (timeout vs transport vs unexpected status) is
// logged for operators but collapsed into a single error for the caller.
func (n *Notifier) Send(ctx context.Context, alert *event.EmergencyAlert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("webhook: marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		n.logger.Error(ctx, err, "alert delivery failed",
			"reason", failureReason(err),
			"severity", alert.SeverityScore,
		)
		return fmt.Errorf("webhook: post alert: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		n.logger.Error(ctx, nil, "alert delivery rejected",
			"status_code", resp.StatusCode,
			"severity", alert.SeverityScore,
		)
		return fmt.Errorf("webhook: endpoint returned %d: %s", resp.StatusCode, string(respBody))
	}

	n.logger.Info(ctx, "alert delivered",
		"status_code", resp.StatusCode,
		"severity", alert.SeverityScore,
	)
	return nil
}

// failureReason classifies a delivery error for log detail only.
func failureReason(err error) string {
	var netErr net.Error
	switch {
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "transport"
	}
}
