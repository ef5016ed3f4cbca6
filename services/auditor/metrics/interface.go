package metrics

import (
	"context"
	"net/url"

	"github.com/tidwall/gjson"
)

// APIClient defines the New Relic API operations used by the metrics fetcher
type APIClient interface {
	// Request issues an authenticated request and returns the JSON-decoded response body
	Request(ctx context.Context, method string, endpoint string, query url.Values, payload interface{}) (gjson.Result, error)

	IsInterfaceNil() bool
}
