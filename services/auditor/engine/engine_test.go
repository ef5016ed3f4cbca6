package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iulianpascalau/newrelic-audits/services/auditor/audits"
	"github.com/iulianpascalau/newrelic-audits/services/auditor/common"
	"github.com/iulianpascalau/newrelic-audits/services/auditor/testsCommon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createMockArgs() ArgsAuditEngine {
	return ArgsAuditEngine{
		Targets:         []string{"https://example.org"},
		ReportingPeriod: 24 * time.Hour,
		AuditTimeout:    time.Second,
		Gatherers:       []Gatherer{&testsCommon.GathererStub{NameValue: "apdex"}},
		Reporters:       []Reporter{&testsCommon.ReporterStub{}},
	}
}

func TestNewAuditEngine(t *testing.T) {
	t.Parallel()

	t.Run("no targets should error", func(t *testing.T) {
		args := createMockArgs()
		args.Targets = nil
		engine, err := NewAuditEngine(args)

		assert.Nil(t, engine)
		assert.True(t, engine.IsInterfaceNil())
		assert.Equal(t, errNoTargets, err)
	})
	t.Run("invalid reporting period should error", func(t *testing.T) {
		args := createMockArgs()
		args.ReportingPeriod = 0
		engine, err := NewAuditEngine(args)

		assert.Nil(t, engine)
		assert.Equal(t, errInvalidReportingPeriod, err)
	})
	t.Run("nil gatherer should error", func(t *testing.T) {
		args := createMockArgs()
		args.Gatherers = append(args.Gatherers, nil)
		engine, err := NewAuditEngine(args)

		assert.Nil(t, engine)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "nil gatherer")
	})
	t.Run("nil reporter should error", func(t *testing.T) {
		args := createMockArgs()
		var nilReporter *testsCommon.ReporterStub
		args.Reporters = []Reporter{nilReporter}
		engine, err := NewAuditEngine(args)

		assert.Nil(t, engine)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "nil reporter")
	})
	t.Run("should work", func(t *testing.T) {
		args := createMockArgs()
		args.AuditTimeout = 0
		engine, err := NewAuditEngine(args)

		assert.NotNil(t, engine)
		assert.False(t, engine.IsInterfaceNil())
		assert.Nil(t, err)
		assert.Equal(t, defaultAuditTimeout, engine.auditTimeout)
	})
}

func TestAuditEngine_Process(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	expectedWindow := common.ReportingWindow{
		Start: now.Add(-24 * time.Hour),
		End:   now,
	}

	args := createMockArgs()
	args.Targets = []string{"https://example.org", "example.com"}
	args.Gatherers = []Gatherer{
		&testsCommon.GathererStub{
			NameValue: "apdex",
			GatherHandler: func(ctx context.Context, target common.AuditTarget) (common.Parameters, error) {
				assert.Equal(t, expectedWindow, target.Window)
				_, hasDeadline := ctx.Deadline()
				assert.True(t, hasDeadline)

				return common.Parameters{"host": common.DeriveHost(target.URI), "apdex_score": 0.92}, nil
			},
		},
		&testsCommon.GathererStub{
			NameValue: "skipped",
			GatherHandler: func(ctx context.Context, target common.AuditTarget) (common.Parameters, error) {
				return common.Parameters{}, audits.ErrNotApplicable
			},
		},
		&testsCommon.GathererStub{
			NameValue: "failing",
			GatherHandler: func(ctx context.Context, target common.AuditTarget) (common.Parameters, error) {
				return common.Parameters{"host": "h"}, &audits.ReportableAuditError{Audit: "failing", Err: errors.New("Error: 500")}
			},
		},
	}

	var reported []common.AuditResult
	failingReporterCalled := false
	args.Reporters = []Reporter{
		&testsCommon.ReporterStub{
			ReportHandler: func(ctx context.Context, results []common.AuditResult) error {
				failingReporterCalled = true
				return errors.New("reporter down")
			},
		},
		&testsCommon.ReporterStub{
			ReportHandler: func(ctx context.Context, results []common.AuditResult) error {
				reported = results
				return nil
			},
		},
	}

	engine, err := NewAuditEngine(args)
	require.Nil(t, err)
	engine.nowFunc = func() time.Time {
		return now
	}

	engine.Process(context.Background())

	assert.True(t, failingReporterCalled)
	require.Len(t, reported, 6)

	assert.Equal(t, "apdex", reported[0].Audit)
	assert.Equal(t, "https://example.org", reported[0].Target)
	assert.Equal(t, common.OutcomeSuccess, reported[0].Outcome)
	assert.Equal(t, common.Parameters{"host": "example.org", "apdex_score": 0.92}, reported[0].Parameters)
	assert.Empty(t, reported[0].Error)
	assert.Equal(t, now, reported[0].StartedAt)

	assert.Equal(t, "skipped", reported[1].Audit)
	assert.Equal(t, common.OutcomeNotApplicable, reported[1].Outcome)
	assert.Nil(t, reported[1].Parameters)

	assert.Equal(t, "failing", reported[2].Audit)
	assert.Equal(t, common.OutcomeFailure, reported[2].Outcome)
	assert.Equal(t, "Error: 500", reported[2].Error)
	assert.Equal(t, common.Parameters{"host": "h"}, reported[2].Parameters)

	assert.Equal(t, "example.com", reported[3].Target)
	assert.Equal(t, common.Parameters{"host": "example.com", "apdex_score": 0.92}, reported[3].Parameters)
}

func TestAuditEngine_RunAuditsCancelledContext(t *testing.T) {
	t.Parallel()

	numCalls := 0
	args := createMockArgs()
	args.Gatherers = []Gatherer{
		&testsCommon.GathererStub{
			NameValue: "apdex",
			GatherHandler: func(ctx context.Context, target common.AuditTarget) (common.Parameters, error) {
				numCalls++
				return nil, nil
			},
		},
	}
	engine, _ := NewAuditEngine(args)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := engine.RunAudits(ctx)
	assert.Empty(t, results)
	assert.Equal(t, 0, numCalls)
}
