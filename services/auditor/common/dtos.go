package common

import (
	"time"
)

const (
	// NameField is the key under which a metric record keeps its originating metric name
	NameField = "name"
	// AverageResponseTimeField is the timeslice value used to rank transactions
	AverageResponseTimeField = "average_response_time"
)

// Credentials holds the New Relic identifiers and API key used by a single audit run
type Credentials struct {
	AccountID string
	AppID     string
	APIKey    string
}

// ID returns the application identifier used in the API base URL. The app_id field takes precedence
// over the older account_id one.
func (c Credentials) ID() string {
	if len(c.AppID) > 0 {
		return c.AppID
	}

	return c.AccountID
}

// IsSet returns true if the credentials can be used to issue API requests
func (c Credentials) IsSet() bool {
	return len(c.APIKey) > 0 && len(c.ID()) > 0
}

// MetricRecord is the flattened timeslice values of a single metric, annotated with the metric name
type MetricRecord map[string]interface{}

// Name returns the originating metric name
func (r MetricRecord) Name() string {
	name, _ := r[NameField].(string)
	return name
}

// AverageResponseTime returns the average_response_time value as float64, 0 if missing or not numeric
func (r MetricRecord) AverageResponseTime() float64 {
	return toFloat(r[AverageResponseTimeField])
}

// AuditTarget is the input handed to an audit: the audited site, the reporting window and
// optional per-run string parameters (e.g. from/to overrides)
type AuditTarget struct {
	URI        string
	Window     ReportingWindow
	Parameters map[string]string
}

// Parameter returns the named parameter or the empty string
func (t AuditTarget) Parameter(name string) string {
	if t.Parameters == nil {
		return ""
	}

	return t.Parameters[name]
}

// Parameters is the key-value output sink an audit publishes its results into
type Parameters map[string]interface{}

// Set stores a named output value
func (p Parameters) Set(name string, value interface{}) {
	p[name] = value
}

// Outcome is the final state of an audit run
type Outcome string

const (
	// OutcomeSuccess marks an audit that gathered its data
	OutcomeSuccess Outcome = "success"
	// OutcomeNotApplicable marks an audit skipped because it lacked credentials
	OutcomeNotApplicable Outcome = "not_applicable"
	// OutcomeFailure marks an audit that could not gather its data
	OutcomeFailure Outcome = "failure"
)

// AuditResult is the report entry produced for one audit run against one target
type AuditResult struct {
	Audit      string     `json:"audit"`
	Target     string     `json:"target"`
	Outcome    Outcome    `json:"outcome"`
	Parameters Parameters `json:"parameters,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt time.Time  `json:"finishedAt"`
}

// ReportPayload is the payload sent to the reports service
type ReportPayload struct {
	Auditor string        `json:"auditor"`
	Results []AuditResult `json:"results"`
}
