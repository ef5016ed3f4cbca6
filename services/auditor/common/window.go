package common

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const nowKeyword = "now"

// ErrInvalidWindow signals a reporting window whose start is after its end
var ErrInvalidWindow = errors.New("invalid reporting window: start is after end")

// ReportingWindow is the [Start, End] interval the metrics are requested for
type ReportingWindow struct {
	Start time.Time
	End   time.Time
}

// NewReportingWindow creates a window, rejecting inverted intervals
func NewReportingWindow(start time.Time, end time.Time) (ReportingWindow, error) {
	if start.After(end) {
		return ReportingWindow{}, fmt.Errorf("%w: %s > %s", ErrInvalidWindow, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	return ReportingWindow{
		Start: start,
		End:   end,
	}, nil
}

// WindowEndingAt returns the window of the provided length that ends at the provided moment
func WindowEndingAt(end time.Time, length time.Duration) ReportingWindow {
	return ReportingWindow{
		Start: end.Add(-length),
		End:   end,
	}
}

// From returns the window start as an RFC3339 string
func (w ReportingWindow) From() string {
	return w.Start.Format(time.RFC3339)
}

// To returns the window end as an RFC3339 string
func (w ReportingWindow) To() string {
	return w.End.Format(time.RFC3339)
}

// Narrow applies the optional from/to overrides and clamps the result inside the current window.
// Empty overrides keep the matching bound unchanged.
func (w ReportingWindow) Narrow(from string, to string, now time.Time) (ReportingWindow, error) {
	start := w.Start
	end := w.End

	if len(strings.TrimSpace(from)) > 0 {
		t, err := ParseWindowBound(from, now)
		if err != nil {
			return ReportingWindow{}, fmt.Errorf("invalid from parameter: %w", err)
		}
		if t.After(start) {
			start = t
		}
	}
	if len(strings.TrimSpace(to)) > 0 {
		t, err := ParseWindowBound(to, now)
		if err != nil {
			return ReportingWindow{}, fmt.Errorf("invalid to parameter: %w", err)
		}
		if t.Before(end) {
			end = t
		}
	}

	return NewReportingWindow(start, end)
}

// ParseWindowBound parses "now", a signed duration relative to now (e.g. "-24h") or an RFC3339 timestamp
func ParseWindowBound(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, nowKeyword) {
		return now, nil
	}
	if strings.HasPrefix(value, "-") || strings.HasPrefix(value, "+") {
		d, err := time.ParseDuration(value)
		if err != nil {
			return time.Time{}, err
		}

		return now.Add(d), nil
	}

	return time.Parse(time.RFC3339, value)
}
