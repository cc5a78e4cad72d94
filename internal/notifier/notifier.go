package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/crewforge/content-orchestrator/pkg/metrics"
)

const defaultBackoffBase = 500 * time.Millisecond

// Payload is the JSON body posted to a webhook target. It always carries
// job_id, status and a timestamp; state-specific fields are added by the
// caller.
type Payload map[string]any

// Notifier delivers best-effort webhook notifications. Delivery failures are
// logged and swallowed; they never influence job state.
type Notifier struct {
	client      *http.Client
	maxAttempts uint64
}

func New(timeout time.Duration, maxAttempts uint64) *Notifier {
	if maxAttempts == 0 {
		maxAttempts = 1
	}
	return &Notifier{
		client:      &http.Client{Timeout: timeout},
		maxAttempts: maxAttempts,
	}
}

// Notify posts the payload to url, retrying transient failures with jittered
// exponential backoff before giving up. It blocks until delivered or
// exhausted; callers run it off the state-transition path.
func (n *Notifier) Notify(ctx context.Context, url string, payload Payload) {
	if url == "" {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		zap.S().Named("notifier").Errorw("failed to encode webhook payload", "url", url, "error", err)
		metrics.IncreaseWebhookDeliveriesTotalMetric(metrics.WebhookFailed)
		return
	}

	backoff := retry.WithMaxRetries(n.maxAttempts-1, retry.WithJitterPercent(20, retry.NewExponential(defaultBackoffBase)))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		return n.post(ctx, url, body)
	})
	if err != nil {
		zap.S().Named("notifier").Errorw("webhook delivery given up", "url", url, "job_id", payload["job_id"], "error", err)
		metrics.IncreaseWebhookDeliveriesTotalMetric(metrics.WebhookFailed)
		return
	}

	zap.S().Named("notifier").Infow("webhook notification sent", "url", url, "job_id", payload["job_id"], "status", payload["status"])
	metrics.IncreaseWebhookDeliveriesTotalMetric(metrics.WebhookDelivered)
}

func (n *Notifier) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		// Network errors and timeouts are worth another attempt.
		return retry.RetryableError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500:
		return retry.RetryableError(fmt.Errorf("webhook returned status %d", resp.StatusCode))
	default:
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
}
