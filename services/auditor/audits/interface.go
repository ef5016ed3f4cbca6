package audits

import (
	"context"
	"net/url"

	"github.com/iulianpascalau/newrelic-audits/services/auditor/common"
	"github.com/tidwall/gjson"
)

// APIClient defines the New Relic API client used by the audits
type APIClient interface {
	Request(ctx context.Context, method string, endpoint string, query url.Values, payload interface{}) (gjson.Result, error)
	IsInterfaceNil() bool
}

// ClientFactory creates a fresh API client for a single audit run
type ClientFactory func(credentials common.Credentials) (APIClient, error)
