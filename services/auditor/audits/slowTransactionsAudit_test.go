package audits

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iulianpascalau/newrelic-audits/services/auditor/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNewRelic struct {
	responseTimes     map[string]interface{}
	numNameRequests   uint32
	numDataRequests   uint32
	lastNamesQueryArg string
	lastDataFrom      string
	lastDataTo        string
}

func (f *fakeNewRelic) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		switch r.URL.Path {
		case "/12345/metrics.json":
			atomic.AddUint32(&f.numNameRequests, 1)
			f.lastNamesQueryArg = query.Get("name")

			names := make([]map[string]interface{}, 0, len(f.responseTimes))
			for i := 0; i < len(f.responseTimes); i++ {
				names = append(names, map[string]interface{}{"name": fmt.Sprintf("WebTransaction/Action/Drupal/t%02d", i)})
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"metrics": names})
		case "/12345/metrics/data.json":
			atomic.AddUint32(&f.numDataRequests, 1)
			f.lastDataFrom = query.Get("from")
			f.lastDataTo = query.Get("to")

			metrics := make([]map[string]interface{}, 0)
			for _, name := range query["names[]"] {
				values := map[string]interface{}{"call_count": 1}
				avg, found := f.responseTimes[name]
				if found && avg != nil {
					values["average_response_time"] = avg
				}
				metrics = append(metrics, map[string]interface{}{
					"name":       name,
					"timeslices": []interface{}{map[string]interface{}{"values": values}},
				})
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"metric_data": map[string]interface{}{"metrics": metrics}})
		default:
			assert.Fail(t, "unexpected path "+r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func createSlowTransactionsArgs(baseURL string) ArgsSlowTransactionsAudit {
	return ArgsSlowTransactionsAudit{
		ArgsAudit: ArgsAudit{
			Name:          "slow-transactions",
			Credentials:   testCredentials,
			ClientFactory: newTestClientFactory(baseURL, new(uint32)),
		},
		TransactionPrefix:  DefaultTransactionPrefix,
		MaxNamesPerRequest: 5,
	}
}

func TestNewSlowTransactionsAudit(t *testing.T) {
	t.Parallel()

	t.Run("empty transaction prefix should error", func(t *testing.T) {
		args := createSlowTransactionsArgs("")
		args.TransactionPrefix = " "
		audit, err := NewSlowTransactionsAudit(args)

		assert.Nil(t, audit)
		assert.True(t, audit.IsInterfaceNil())
		assert.Equal(t, errEmptyTransactionPrefix, err)
	})
	t.Run("nil client factory should error", func(t *testing.T) {
		args := createSlowTransactionsArgs("")
		args.ClientFactory = nil
		audit, err := NewSlowTransactionsAudit(args)

		assert.Nil(t, audit)
		assert.Equal(t, errNilClientFactory, err)
	})
	t.Run("should work with default top count", func(t *testing.T) {
		audit, err := NewSlowTransactionsAudit(createSlowTransactionsArgs(""))

		assert.Nil(t, err)
		assert.False(t, audit.IsInterfaceNil())
		assert.Equal(t, DefaultTopCount, audit.topCount)
		assert.Equal(t, "slow-transactions", audit.Name())
	})
}

func TestSlowTransactionsAudit_Gather(t *testing.T) {
	t.Parallel()

	t.Run("missing credentials should not be applicable", func(t *testing.T) {
		fake := &fakeNewRelic{responseTimes: map[string]interface{}{}}
		server := httptest.NewServer(fake.handler(t))
		defer server.Close()

		args := createSlowTransactionsArgs(server.URL)
		args.Credentials = common.Credentials{}
		audit, _ := NewSlowTransactionsAudit(args)

		params, err := audit.Gather(context.Background(), testTarget)
		assert.Equal(t, ErrNotApplicable, err)
		assert.Empty(t, params)
		assert.Equal(t, uint32(0), atomic.LoadUint32(&fake.numNameRequests))
		assert.Equal(t, uint32(0), atomic.LoadUint32(&fake.numDataRequests))
	})
	t.Run("should publish the 9 slowest transactions", func(t *testing.T) {
		fake := &fakeNewRelic{responseTimes: map[string]interface{}{
			"WebTransaction/Action/Drupal/t00": 10.0,
			"WebTransaction/Action/Drupal/t01": 250.5,
			"WebTransaction/Action/Drupal/t02": nil,
			"WebTransaction/Action/Drupal/t03": 40,
			"WebTransaction/Action/Drupal/t04": 40,
			"WebTransaction/Action/Drupal/t05": 5,
			"WebTransaction/Action/Drupal/t06": 300,
			"WebTransaction/Action/Drupal/t07": 1,
			"WebTransaction/Action/Drupal/t08": 0,
			"WebTransaction/Action/Drupal/t09": 70,
			"WebTransaction/Action/Drupal/t10": 2,
			"WebTransaction/Action/Drupal/t11": 3,
			"WebTransaction/Action/Drupal/t12": 4,
		}}
		server := httptest.NewServer(fake.handler(t))
		defer server.Close()

		audit, _ := NewSlowTransactionsAudit(createSlowTransactionsArgs(server.URL))

		params, err := audit.Gather(context.Background(), testTarget)
		require.Nil(t, err)
		assert.Equal(t, "example.org", params[HostParameter])
		assert.Equal(t, DefaultTransactionPrefix, fake.lastNamesQueryArg)
		assert.Equal(t, uint32(1), atomic.LoadUint32(&fake.numNameRequests))
		assert.Equal(t, uint32(3), atomic.LoadUint32(&fake.numDataRequests))

		results, ok := params[ResultsParameter].([]common.MetricRecord)
		require.True(t, ok)
		require.Len(t, results, 9)

		expectedOrder := []string{"t06", "t01", "t09", "t03", "t04", "t00", "t05", "t12", "t11"}
		for i, record := range results {
			assert.Equal(t, "WebTransaction/Action/Drupal/"+expectedOrder[i], record.Name())
			assert.Equal(t, float64(1), record["call_count"])
		}
	})
	t.Run("from and to parameters narrow the window", func(t *testing.T) {
		fake := &fakeNewRelic{responseTimes: map[string]interface{}{
			"WebTransaction/Action/Drupal/t00": 10.0,
		}}
		server := httptest.NewServer(fake.handler(t))
		defer server.Close()

		args := createSlowTransactionsArgs(server.URL)
		args.From = "-12h"
		audit, _ := NewSlowTransactionsAudit(args)
		audit.nowFunc = func() time.Time {
			return testTarget.Window.End
		}

		target := testTarget
		target.Parameters = map[string]string{ToParameter: "-1h"}
		params, err := audit.Gather(context.Background(), target)
		require.Nil(t, err)
		assert.Len(t, params[ResultsParameter], 1)
		assert.Equal(t, "2024-05-01T12:00:00Z", fake.lastDataFrom)
		assert.Equal(t, "2024-05-01T23:00:00Z", fake.lastDataTo)
	})
	t.Run("no transactions should publish an empty ranking", func(t *testing.T) {
		fake := &fakeNewRelic{responseTimes: map[string]interface{}{}}
		server := httptest.NewServer(fake.handler(t))
		defer server.Close()

		audit, _ := NewSlowTransactionsAudit(createSlowTransactionsArgs(server.URL))

		params, err := audit.Gather(context.Background(), testTarget)
		require.Nil(t, err)
		assert.Empty(t, params[ResultsParameter])
		assert.Equal(t, uint32(0), atomic.LoadUint32(&fake.numDataRequests))
	})
	t.Run("invalid window parameter should be reportable", func(t *testing.T) {
		fake := &fakeNewRelic{responseTimes: map[string]interface{}{}}
		server := httptest.NewServer(fake.handler(t))
		defer server.Close()

		audit, _ := NewSlowTransactionsAudit(createSlowTransactionsArgs(server.URL))

		target := testTarget
		target.Parameters = map[string]string{FromParameter: "last week"}
		_, err := audit.Gather(context.Background(), target)

		var reportable *ReportableAuditError
		require.True(t, errors.As(err, &reportable))
		assert.Contains(t, err.Error(), "invalid from parameter")
		assert.Equal(t, uint32(0), atomic.LoadUint32(&fake.numNameRequests))
	})
	t.Run("API error should be reportable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("upstream failure"))
		}))
		defer server.Close()

		audit, _ := NewSlowTransactionsAudit(createSlowTransactionsArgs(server.URL))

		params, err := audit.Gather(context.Background(), testTarget)
		var reportable *ReportableAuditError
		require.True(t, errors.As(err, &reportable))
		assert.Contains(t, err.Error(), "upstream failure")
		_, found := params[ResultsParameter]
		assert.False(t, found)
	})
}

func TestRankTransactions(t *testing.T) {
	t.Parallel()

	records := []common.MetricRecord{
		{"name": "a", "average_response_time": 1.0},
		{"name": "b", "average_response_time": 3.0},
		{"name": "c", "average_response_time": 3.0},
		{"name": "d", "average_response_time": 2.0},
	}

	ranked := RankTransactions(records, 9)
	require.Len(t, ranked, 4)
	assert.Equal(t, []string{"b", "c", "d", "a"}, []string{ranked[0].Name(), ranked[1].Name(), ranked[2].Name(), ranked[3].Name()})
	assert.Equal(t, "a", records[0].Name(), "input should not be reordered")

	ranked = RankTransactions(records, 2)
	require.Len(t, ranked, 2)
	assert.Equal(t, "b", ranked[0].Name())
	assert.Equal(t, "c", ranked[1].Name())

	assert.Empty(t, RankTransactions(nil, 9))
}
