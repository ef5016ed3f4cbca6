package testsCommon

import (
	"context"

	"github.com/iulianpascalau/newrelic-audits/services/reports/common"
)

// StoreStub -
type StoreStub struct {
	SaveResultHandler       func(ctx context.Context, auditor string, result common.AuditResult, recordedAt int64) error
	GetLatestResultsHandler func(ctx context.Context) ([]common.StoredResult, error)
	GetResultHistoryHandler func(ctx context.Context, audit string, target string) (*common.ResultHistory, error)
	DeleteResultsHandler    func(ctx context.Context, audit string, target string) error
	CloseHandler            func() error
}

// SaveResult -
func (stub *StoreStub) SaveResult(ctx context.Context, auditor string, result common.AuditResult, recordedAt int64) error {
	if stub.SaveResultHandler != nil {
		return stub.SaveResultHandler(ctx, auditor, result, recordedAt)
	}

	return nil
}

// GetLatestResults -
func (stub *StoreStub) GetLatestResults(ctx context.Context) ([]common.StoredResult, error) {
	if stub.GetLatestResultsHandler != nil {
		return stub.GetLatestResultsHandler(ctx)
	}

	return make([]common.StoredResult, 0), nil
}

// GetResultHistory -
func (stub *StoreStub) GetResultHistory(ctx context.Context, audit string, target string) (*common.ResultHistory, error) {
	if stub.GetResultHistoryHandler != nil {
		return stub.GetResultHistoryHandler(ctx, audit, target)
	}

	return &common.ResultHistory{}, nil
}

// DeleteResults -
func (stub *StoreStub) DeleteResults(ctx context.Context, audit string, target string) error {
	if stub.DeleteResultsHandler != nil {
		return stub.DeleteResultsHandler(ctx, audit, target)
	}

	return nil
}

// Close -
func (stub *StoreStub) Close() error {
	if stub.CloseHandler != nil {
		return stub.CloseHandler()
	}

	return nil
}

// IsInterfaceNil -
func (stub *StoreStub) IsInterfaceNil() bool {
	return stub == nil
}
