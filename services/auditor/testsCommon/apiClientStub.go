package testsCommon

import (
	"context"
	"net/url"

	"github.com/tidwall/gjson"
)

// APIClientStub -
type APIClientStub struct {
	RequestHandler func(ctx context.Context, method string, endpoint string, query url.Values, payload interface{}) (gjson.Result, error)
}

// Request -
func (stub *APIClientStub) Request(ctx context.Context, method string, endpoint string, query url.Values, payload interface{}) (gjson.Result, error) {
	if stub.RequestHandler != nil {
		return stub.RequestHandler(ctx, method, endpoint, query, payload)
	}

	return gjson.Result{}, nil
}

// IsInterfaceNil -
func (stub *APIClientStub) IsInterfaceNil() bool {
	return stub == nil
}
