package audits

import (
	"errors"
)

// ErrNotApplicable is returned by audits that can not run because the New Relic credentials are missing
var ErrNotApplicable = errors.New("audit not applicable: missing New Relic credentials")

var errNilClientFactory = errors.New("nil client factory")
var errEmptyAuditName = errors.New("empty audit name")
var errEmptyTransactionPrefix = errors.New("empty transaction prefix")

// ReportableAuditError wraps a failure that should be rendered as a failed audit instead of stopping the run
type ReportableAuditError struct {
	Audit string
	Err   error
}

// Error returns the original error message
func (e *ReportableAuditError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the original error
func (e *ReportableAuditError) Unwrap() error {
	return e.Err
}

func newReportableAuditError(audit string, err error) *ReportableAuditError {
	return &ReportableAuditError{
		Audit: audit,
		Err:   err,
	}
}
