package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/iulianpascalau/newrelic-audits/services/auditor/common"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxNamesPerRequest is the upstream limit of metric names accepted by one data request
	DefaultMaxNamesPerRequest = 30

	// MetricNamesEndpoint lists the metric names of an application
	MetricNamesEndpoint = "metrics.json"
	// MetricDataEndpoint returns the timeslice values of the requested metrics
	MetricDataEndpoint = "metrics/data.json"

	namesParam     = "names[]"
	nameParam      = "name"
	summarizeParam = "summarize"
	fromParam      = "from"
	toParam        = "to"
)

var log = logger.GetOrCreate("metrics")

var errNilAPIClient = errors.New("nil API client")

// ArgsMetricsFetcher is the DTO used to create a new metrics fetcher
type ArgsMetricsFetcher struct {
	Client             APIClient
	MaxNamesPerRequest int
	MaxParallelBatches int
}

type metricsFetcher struct {
	client             APIClient
	maxNamesPerRequest int
	maxParallelBatches int
}

// NewMetricsFetcher creates a component able to resolve metric names and fetch their values
func NewMetricsFetcher(args ArgsMetricsFetcher) (*metricsFetcher, error) {
	if check.IfNil(args.Client) {
		return nil, errNilAPIClient
	}

	maxNames := args.MaxNamesPerRequest
	if maxNames <= 0 {
		maxNames = DefaultMaxNamesPerRequest
	}
	maxParallel := args.MaxParallelBatches
	if maxParallel <= 0 {
		maxParallel = 1
	}

	return &metricsFetcher{
		client:             args.Client,
		maxNamesPerRequest: maxNames,
		maxParallelBatches: maxParallel,
	}, nil
}

// ListMetricNames returns the names of all metrics starting with the provided prefix. An empty list is not an error.
func (f *metricsFetcher) ListMetricNames(ctx context.Context, namePrefix string, window common.ReportingWindow) ([]string, error) {
	query := url.Values{}
	query.Set(nameParam, namePrefix)
	query.Set(fromParam, window.From())
	query.Set(toParam, window.To())

	response, err := f.client.Request(ctx, http.MethodGet, MetricNamesEndpoint, query, nil)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0)
	for _, name := range response.Get("metrics.#.name").Array() {
		if len(name.String()) == 0 {
			continue
		}
		names = append(names, name.String())
	}

	log.Debug("resolved metric names", "prefix", namePrefix, "count", len(names))

	return names, nil
}

// FetchMetricValues fetches the summarized values of the provided metrics, batching the names. Records are
// returned in batch order and, inside a batch, in response order. Metrics without an average_response_time
// value are dropped. The first failing batch aborts the whole fetch.
func (f *metricsFetcher) FetchMetricValues(ctx context.Context, names []string, window common.ReportingWindow) ([]common.MetricRecord, error) {
	batches := splitInBatches(names, f.maxNamesPerRequest)
	batchResults := make([][]common.MetricRecord, len(batches))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(f.maxParallelBatches)
	for idx, batch := range batches {
		idx, batch := idx, batch
		group.Go(func() error {
			if groupCtx.Err() != nil {
				return groupCtx.Err()
			}

			records, err := f.fetchBatch(groupCtx, batch, window)
			if err != nil {
				return err
			}

			batchResults[idx] = records
			return nil
		})
	}

	err := group.Wait()
	if err != nil {
		return nil, err
	}

	results := make([]common.MetricRecord, 0, len(names))
	for _, records := range batchResults {
		results = append(results, records...)
	}

	log.Debug("fetched metric values", "names", len(names), "batches", len(batches), "records", len(results))

	return results, nil
}

func (f *metricsFetcher) fetchBatch(ctx context.Context, names []string, window common.ReportingWindow) ([]common.MetricRecord, error) {
	query := url.Values{}
	for _, name := range names {
		query.Add(namesParam, name)
	}
	query.Set(summarizeParam, strconv.FormatBool(true))
	query.Set(fromParam, window.From())
	query.Set(toParam, window.To())

	response, err := f.client.Request(ctx, http.MethodGet, MetricDataEndpoint, query, nil)
	if err != nil {
		return nil, err
	}

	records := make([]common.MetricRecord, 0, len(names))
	for _, metric := range response.Get("metric_data.metrics").Array() {
		values := metric.Get("timeslices.0.values")
		if isEmptyValue(values.Get(common.AverageResponseTimeField)) {
			continue
		}

		record, ok := values.Value().(map[string]interface{})
		if !ok {
			continue
		}
		record[common.NameField] = metric.Get(common.NameField).String()
		records = append(records, record)
	}

	return records, nil
}

// isEmptyValue treats missing, null, false, zero and empty-string values as empty
func isEmptyValue(value gjson.Result) bool {
	switch value.Type {
	case gjson.Null, gjson.False:
		return true
	case gjson.Number:
		return value.Num == 0
	case gjson.String:
		return len(value.Str) == 0 || value.Str == "0"
	case gjson.JSON:
		return value.IsArray() && len(value.Array()) == 0
	default:
		return false
	}
}

func splitInBatches(names []string, batchSize int) [][]string {
	batches := make([][]string, 0, (len(names)+batchSize-1)/batchSize)
	for start := 0; start < len(names); start += batchSize {
		end := min(start+batchSize, len(names))
		batches = append(batches, names[start:end])
	}

	return batches
}

// IsInterfaceNil returns true if the value under the interface is nil
func (f *metricsFetcher) IsInterfaceNil() bool {
	return f == nil
}
