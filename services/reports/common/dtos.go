package common

import (
	"encoding/json"
	"time"
)

// AuditResult is a single audit result as sent by an auditor
type AuditResult struct {
	Audit      string          `json:"audit"`
	Target     string          `json:"target"`
	Outcome    string          `json:"outcome"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
	Error      string          `json:"error,omitempty"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
}

// ReportPayload is the incoming JSON body on /api/report
type ReportPayload struct {
	Auditor string        `json:"auditor"`
	Results []AuditResult `json:"results"`
}

// StoredResult is an audit result together with its reporting metadata
type StoredResult struct {
	AuditResult
	Auditor    string `json:"auditor"`
	RecordedAt int64  `json:"recordedAt"`
}

// ResultHistory encapsulates the retained results of one audit against one target, oldest first
type ResultHistory struct {
	Audit   string         `json:"audit"`
	Target  string         `json:"target"`
	History []StoredResult `json:"history"`
}
