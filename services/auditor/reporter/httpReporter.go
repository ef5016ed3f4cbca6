package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/iulianpascalau/newrelic-audits/services/auditor/common"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("reporter")

type httpReporter struct {
	endpoint  string
	apiKey    string
	auditorID string
	client    *http.Client
}

// NewHTTPReporter creates a new reporter that pushes the audit results to the configured ReportEndpoint
func NewHTTPReporter(endpoint, apiKey, auditorID string, timeout time.Duration) *httpReporter {
	return &httpReporter{
		endpoint:  endpoint,
		apiKey:    apiKey,
		auditorID: auditorID,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Report sends the results of one run to the reports service
func (r *httpReporter) Report(ctx context.Context, results []common.AuditResult) error {
	payload := common.ReportPayload{
		Auditor: r.auditorID,
		Results: results,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal report payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create report request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("network error sending report: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server rejected report with status code: %d", resp.StatusCode)
	}

	log.Debug("successfully sent audit report", "endpoint", r.endpoint, "results_count", len(results))

	return nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (r *httpReporter) IsInterfaceNil() bool {
	return r == nil
}
