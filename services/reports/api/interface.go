package api

import (
	"context"

	"github.com/iulianpascalau/newrelic-audits/services/reports/common"
)

// Storage defines the interface for persisting and querying audit results
type Storage interface {
	// SaveResult records the (audit, target) pair and appends a new result, trimming the retained history
	SaveResult(ctx context.Context, auditor string, result common.AuditResult, recordedAt int64) error

	// GetLatestResults returns the latest recorded result for every known (audit, target) pair
	GetLatestResults(ctx context.Context) ([]common.StoredResult, error)

	// GetResultHistory returns all retained results of an audit against a target
	GetResultHistory(ctx context.Context, audit string, target string) (*common.ResultHistory, error)

	// DeleteResults removes an (audit, target) pair and all associated results
	DeleteResults(ctx context.Context, audit string, target string) error

	// Close shuts down the database connection
	Close() error

	IsInterfaceNil() bool
}
