package audits

import (
	"sync/atomic"
	"time"

	"github.com/iulianpascalau/newrelic-audits/services/auditor/client"
	"github.com/iulianpascalau/newrelic-audits/services/auditor/common"
)

var testCredentials = common.Credentials{
	AppID:  "12345",
	APIKey: "secret-key",
}

var testTarget = common.AuditTarget{
	URI: "https://example.org/path",
	Window: common.ReportingWindow{
		Start: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
	},
}

// newTestClientFactory returns a factory building real clients against the provided base URL, counting
// how many clients were created
func newTestClientFactory(baseURL string, numCreated *uint32) ClientFactory {
	return func(credentials common.Credentials) (APIClient, error) {
		atomic.AddUint32(numCreated, 1)

		c, err := client.NewNewRelicClient(client.ArgsNewRelicClient{
			BaseURL:     baseURL,
			Credentials: credentials,
			Timeout:     2 * time.Second,
		})
		if err != nil {
			return nil, err
		}

		return c, nil
	}
}
