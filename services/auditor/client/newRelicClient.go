package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gojektech/heimdall"
	"github.com/gojektech/heimdall/httpclient"
	"github.com/iulianpascalau/newrelic-audits/services/auditor/common"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/tidwall/gjson"
)

// DefaultBaseURL is the New Relic REST API v2 applications root
const DefaultBaseURL = "https://api.newrelic.com/v2/applications/"

const apiKeyHeader = "x-api-key"

var log = logger.GetOrCreate("client")

// ArgsNewRelicClient is the DTO used to create a new New Relic API client
type ArgsNewRelicClient struct {
	BaseURL      string
	Credentials  common.Credentials
	Timeout      time.Duration
	RetryCount   int
	RetryBackoff time.Duration
}

type newRelicClient struct {
	baseURL      string
	apiKey       string
	timeout      time.Duration
	retryCount   int
	retryBackoff time.Duration
}

type doResult struct {
	resp *http.Response
	err  error
}

// NewNewRelicClient creates a client bound to one application ID and API key. Transport errors and 5xx
// responses are retried RetryCount times with a linear backoff.
func NewNewRelicClient(args ArgsNewRelicClient) (*newRelicClient, error) {
	if len(args.BaseURL) == 0 {
		return nil, errEmptyBaseURL
	}
	if len(args.Credentials.APIKey) == 0 {
		return nil, errEmptyAPIKey
	}
	if len(args.Credentials.ID()) == 0 {
		return nil, errEmptyApplicationID
	}

	retryCount := args.RetryCount
	if retryCount < 0 {
		retryCount = 0
	}

	return &newRelicClient{
		baseURL:      strings.TrimSuffix(args.BaseURL, "/") + "/" + url.PathEscape(args.Credentials.ID()) + "/",
		apiKey:       args.Credentials.APIKey,
		timeout:      args.Timeout,
		retryCount:   retryCount,
		retryBackoff: args.RetryBackoff,
	}, nil
}

// newHTTPClient builds the retrying client of one request. The backoff drops to zero once the
// request context is done so the remaining attempts fail fast.
func (c *newRelicClient) newHTTPClient(ctx context.Context) *httpclient.Client {
	return httpclient.NewClient(
		httpclient.WithHTTPTimeout(c.timeout),
		httpclient.WithRetryCount(c.retryCount),
		httpclient.WithRetrier(heimdall.NewRetrierFunc(func(retry int) time.Duration {
			if retry <= 0 || ctx.Err() != nil {
				return 0
			}

			return time.Duration(retry) * c.retryBackoff
		})),
	)
}

// send runs the request and its retries, returning as soon as the context is done
func (c *newRelicClient) send(ctx context.Context, req *http.Request) (*http.Response, error) {
	done := make(chan doResult, 1)
	go func() {
		resp, err := c.newHTTPClient(ctx).Do(req)
		done <- doResult{resp: resp, err: err}
	}()

	select {
	case result := <-done:
		return result.resp, result.err
	case <-ctx.Done():
		go func() {
			result := <-done
			if result.resp != nil {
				_ = result.resp.Body.Close()
			}
		}()

		return nil, ctx.Err()
	}
}

// Request issues the request and returns the JSON-decoded body. An empty body (e.g. 204) yields an empty result.
func (c *newRelicClient) Request(ctx context.Context, method string, endpoint string, query url.Values, payload interface{}) (gjson.Result, error) {
	body, err := c.do(ctx, method, endpoint, query, payload)
	if err != nil {
		return gjson.Result{}, err
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return gjson.Result{}, nil
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%w from %s", ErrMalformedResponse, endpoint)
	}

	return gjson.ParseBytes(body), nil
}

// RequestRaw issues the request and returns the body without decoding it
func (c *newRelicClient) RequestRaw(ctx context.Context, method string, endpoint string, query url.Values, payload interface{}) (string, error) {
	body, err := c.do(ctx, method, endpoint, query, payload)
	if err != nil {
		return "", err
	}

	return string(body), nil
}

func (c *newRelicClient) do(ctx context.Context, method string, endpoint string, query url.Values, payload interface{}) ([]byte, error) {
	if ctx == nil {
		return nil, errNilContext
	}

	requestURL := c.baseURL + strings.TrimPrefix(endpoint, "/")
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request payload: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.send(ctx, req)
	if resp == nil {
		return nil, fmt.Errorf("network error calling %s: %w", endpoint, err)
	}
	// a failed attempt followed by a final 5xx returns both, the answered status wins
	if err != nil {
		log.Debug("new relic request had failed attempts", "endpoint", endpoint, "error", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	log.Debug("new relic request", "method", method, "endpoint", endpoint,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return nil, &ErrAPIRequest{
			Method:     method,
			URL:        requestURL,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	return body, nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (c *newRelicClient) IsInterfaceNil() bool {
	return c == nil
}
