package testsCommon

import (
	"context"

	"github.com/iulianpascalau/newrelic-audits/services/auditor/common"
)

// GathererStub -
type GathererStub struct {
	NameValue     string
	GatherHandler func(ctx context.Context, target common.AuditTarget) (common.Parameters, error)
}

// Name -
func (stub *GathererStub) Name() string {
	return stub.NameValue
}

// Gather -
func (stub *GathererStub) Gather(ctx context.Context, target common.AuditTarget) (common.Parameters, error) {
	if stub.GatherHandler != nil {
		return stub.GatherHandler(ctx, target)
	}

	return make(common.Parameters), nil
}

// IsInterfaceNil -
func (stub *GathererStub) IsInterfaceNil() bool {
	return stub == nil
}
