package reporter

import (
	"context"
	"encoding/json"

	"github.com/iulianpascalau/newrelic-audits/services/auditor/common"
)

type logReporter struct{}

// NewLogReporter creates a reporter that writes every audit result to the log
func NewLogReporter() *logReporter {
	return &logReporter{}
}

// Report logs the results
func (r *logReporter) Report(_ context.Context, results []common.AuditResult) error {
	for _, result := range results {
		params, err := json.Marshal(result.Parameters)
		if err != nil {
			return err
		}

		switch result.Outcome {
		case common.OutcomeFailure:
			log.Warn("audit result", "audit", result.Audit, "target", result.Target,
				"outcome", result.Outcome, "error", result.Error)
		default:
			log.Info("audit result", "audit", result.Audit, "target", result.Target,
				"outcome", result.Outcome, "parameters", string(params))
		}
	}

	return nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (r *logReporter) IsInterfaceNil() bool {
	return r == nil
}
