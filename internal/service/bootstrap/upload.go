package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/oshokin/node-bootstrap/internal/logger"
)

// Aggregator endpoints relative to UPLOAD_URL.
const (
	addSubscriptionsPath = "/api/add-subscriptions"
	addAccessURLPath     = "/api/add-url"
)

// registerUpstream pushes the subscription URL to the aggregator and, when
// auto-access is enabled, registers the project URL for keep-alive visits.
// Both calls are best-effort: failures are logged, never fatal, and nothing
// is retried.
func (r *runner) registerUpstream(ctx context.Context) {
	if r.cfg.UploadURL == "" || r.cfg.ProjectURL == "" {
		logger.Debug(ctx, "No aggregator configured, skipping upstream registration")
		return
	}

	subscriptionURL := fmt.Sprintf("%s/%s", r.cfg.ProjectURL, r.cfg.SubPath)

	err := r.postJSON(ctx, r.cfg.UploadURL+addSubscriptionsPath,
		map[string][]string{"subscription": {subscriptionURL}})
	if err != nil {
		logger.WarnKV(ctx, "Subscription upload failed", "error", err)
	} else {
		logger.InfoKV(ctx, "Subscription uploaded", "url", subscriptionURL)
	}

	if !r.cfg.AutoAccess {
		return
	}

	err = r.postJSON(ctx, r.cfg.UploadURL+addAccessURLPath,
		map[string]string{"url": r.cfg.ProjectURL})
	if err != nil {
		logger.WarnKV(ctx, "Auto-access registration failed", "error", err)
	} else {
		logger.InfoKV(ctx, "Auto-access registered", "url", r.cfg.ProjectURL)
	}
}

// postJSON sends one JSON document and treats any non-2xx answer as failure.
func (r *runner) postJSON(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request for %s: %w", url, err)
	}

	req.Header.Set("Content-Type", "application/json")

	response, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post to %s: %w", url, err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%s answered %s", url, response.Status)
	}

	return nil
}
