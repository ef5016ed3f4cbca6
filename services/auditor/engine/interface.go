package engine

import (
	"context"

	"github.com/iulianpascalau/newrelic-audits/services/auditor/common"
)

// Gatherer defines a single audit check
type Gatherer interface {
	// Name returns the audit name used in the report
	Name() string

	// Gather collects the audit's output parameters for the provided target.
	// A not applicable audit returns audits.ErrNotApplicable.
	Gather(ctx context.Context, target common.AuditTarget) (common.Parameters, error)

	IsInterfaceNil() bool
}

// Reporter defines the interface for publishing the audit results
type Reporter interface {
	// Report publishes the results of one engine run.
	// Reporting failures are logged by the engine and not retried.
	Report(ctx context.Context, results []common.AuditResult) error

	IsInterfaceNil() bool
}
