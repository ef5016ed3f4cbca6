package testsCommon

import (
	"context"

	"github.com/iulianpascalau/newrelic-audits/services/auditor/common"
)

// ReporterStub -
type ReporterStub struct {
	ReportHandler func(ctx context.Context, results []common.AuditResult) error
}

// Report -
func (stub *ReporterStub) Report(ctx context.Context, results []common.AuditResult) error {
	if stub.ReportHandler != nil {
		return stub.ReportHandler(ctx, results)
	}

	return nil
}

// IsInterfaceNil -
func (stub *ReporterStub) IsInterfaceNil() bool {
	return stub == nil
}
