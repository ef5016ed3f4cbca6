package audits

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/iulianpascalau/newrelic-audits/services/auditor/common"
	"github.com/iulianpascalau/newrelic-audits/services/auditor/metrics"
	"github.com/tidwall/gjson"
)

const (
	// ApdexScoreParameter is the output holding the Apdex score
	ApdexScoreParameter = "apdex_score"
	// ApdexThresholdParameter is the output holding the Apdex threshold
	ApdexThresholdParameter = "apdex_threshold"

	apdexMetricName = "Apdex"
	apdexValuesPath = "metric_data.metrics.0.timeslices.0.values"
)

type apdexAudit struct {
	*baseAudit
}

// NewApdexAudit creates the audit publishing the summarized Apdex score and threshold of the reporting window
func NewApdexAudit(args ArgsAudit) (*apdexAudit, error) {
	base, err := newBaseAudit(args)
	if err != nil {
		return nil, err
	}

	return &apdexAudit{
		baseAudit: base,
	}, nil
}

// Gather fetches the Apdex metric. Missing values leave the outputs unset.
func (a *apdexAudit) Gather(ctx context.Context, target common.AuditTarget) (common.Parameters, error) {
	params := make(common.Parameters)
	client, err := a.prepare(target, params)
	if err != nil {
		return params, err
	}

	query := url.Values{}
	query.Add("names[]", apdexMetricName)
	query.Set("summarize", strconv.FormatBool(true))
	query.Set("from", target.Window.From())
	query.Set("to", target.Window.To())

	log.Info("fetching Apdex score", "audit", a.name, "host", params[HostParameter], "from", target.Window.From(), "to", target.Window.To())

	response, err := client.Request(ctx, http.MethodGet, metrics.MetricDataEndpoint, query, nil)
	if err != nil {
		return params, newReportableAuditError(a.name, err)
	}

	values := response.Get(apdexValuesPath)
	setNumber(params, ApdexScoreParameter, values.Get("score"))
	setNumber(params, ApdexThresholdParameter, values.Get("threshold"))

	return params, nil
}

// setNumber publishes the value only if it is a JSON number, null or malformed values leave the output unset
func setNumber(params common.Parameters, name string, value gjson.Result) {
	if value.Type != gjson.Number {
		return
	}

	params.Set(name, value.Num)
}

// IsInterfaceNil returns true if the value under the interface is nil
func (a *apdexAudit) IsInterfaceNil() bool {
	return a == nil
}
