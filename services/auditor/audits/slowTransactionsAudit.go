package audits

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/iulianpascalau/newrelic-audits/services/auditor/common"
	"github.com/iulianpascalau/newrelic-audits/services/auditor/metrics"
)

const (
	// ResultsParameter is the output holding the slowest transactions
	ResultsParameter = "results"

	// DefaultTransactionPrefix is the metric namespace of the Drupal web transactions
	DefaultTransactionPrefix = "WebTransaction/Action/Drupal"
	// DefaultTopCount is the number of transactions published by default
	DefaultTopCount = 9
)

// ArgsSlowTransactionsAudit holds the arguments of the slow transactions audit
type ArgsSlowTransactionsAudit struct {
	ArgsAudit
	TransactionPrefix  string
	TopCount           int
	From               string
	To                 string
	MaxNamesPerRequest int
	MaxParallelBatches int
}

type slowTransactionsAudit struct {
	*baseAudit
	transactionPrefix  string
	topCount           int
	from               string
	to                 string
	maxNamesPerRequest int
	maxParallelBatches int
	nowFunc            func() time.Time
}

// NewSlowTransactionsAudit creates the audit ranking the transactions under a metric namespace by their
// average response time
func NewSlowTransactionsAudit(args ArgsSlowTransactionsAudit) (*slowTransactionsAudit, error) {
	base, err := newBaseAudit(args.ArgsAudit)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(args.TransactionPrefix)) == 0 {
		return nil, errEmptyTransactionPrefix
	}

	topCount := args.TopCount
	if topCount <= 0 {
		topCount = DefaultTopCount
	}

	return &slowTransactionsAudit{
		baseAudit:          base,
		transactionPrefix:  args.TransactionPrefix,
		topCount:           topCount,
		from:               args.From,
		to:                 args.To,
		maxNamesPerRequest: args.MaxNamesPerRequest,
		maxParallelBatches: args.MaxParallelBatches,
		nowFunc:            time.Now,
	}, nil
}

// Gather resolves the transaction metrics, fetches their values and publishes the slowest ones.
// The from/to target parameters, when set, take precedence over the configured ones.
func (a *slowTransactionsAudit) Gather(ctx context.Context, target common.AuditTarget) (common.Parameters, error) {
	params := make(common.Parameters)
	client, err := a.prepare(target, params)
	if err != nil {
		return params, err
	}

	window, err := target.Window.Narrow(a.override(target, FromParameter, a.from), a.override(target, ToParameter, a.to), a.nowFunc())
	if err != nil {
		return params, newReportableAuditError(a.name, err)
	}

	fetcher, err := metrics.NewMetricsFetcher(metrics.ArgsMetricsFetcher{
		Client:             client,
		MaxNamesPerRequest: a.maxNamesPerRequest,
		MaxParallelBatches: a.maxParallelBatches,
	})
	if err != nil {
		return params, newReportableAuditError(a.name, err)
	}

	log.Info("fetching slow transactions", "audit", a.name, "host", params[HostParameter],
		"prefix", a.transactionPrefix, "from", window.From(), "to", window.To())

	names, err := fetcher.ListMetricNames(ctx, a.transactionPrefix, window)
	if err != nil {
		return params, newReportableAuditError(a.name, err)
	}

	records, err := fetcher.FetchMetricValues(ctx, names, window)
	if err != nil {
		return params, newReportableAuditError(a.name, err)
	}

	params.Set(ResultsParameter, RankTransactions(records, a.topCount))

	return params, nil
}

func (a *slowTransactionsAudit) override(target common.AuditTarget, name string, defaultValue string) string {
	value := target.Parameter(name)
	if len(value) > 0 {
		return value
	}

	return defaultValue
}

// RankTransactions returns, in a new slice, the topCount records with the highest average response time.
// Records with equal times keep their input order.
func RankTransactions(records []common.MetricRecord, topCount int) []common.MetricRecord {
	ranked := make([]common.MetricRecord, len(records))
	copy(ranked, records)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AverageResponseTime() > ranked[j].AverageResponseTime()
	})

	if len(ranked) > topCount {
		ranked = ranked[:topCount]
	}

	return ranked
}

// IsInterfaceNil returns true if the value under the interface is nil
func (a *slowTransactionsAudit) IsInterfaceNil() bool {
	return a == nil
}
