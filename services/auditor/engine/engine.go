package engine

import (
	"context"
	"errors"
	"time"

	"github.com/iulianpascalau/newrelic-audits/services/auditor/audits"
	"github.com/iulianpascalau/newrelic-audits/services/auditor/common"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

const (
	defaultAuditTimeout  = 60 * time.Second
	defaultReportTimeout = 10 * time.Second
)

var log = logger.GetOrCreate("engine")

var errNilGatherer = errors.New("nil gatherer")
var errNilReporter = errors.New("nil reporter")
var errNoTargets = errors.New("no targets configured")
var errInvalidReportingPeriod = errors.New("invalid reporting period")

// ArgsAuditEngine is the DTO used to create a new audit engine
type ArgsAuditEngine struct {
	Targets         []string
	ReportingPeriod time.Duration
	AuditTimeout    time.Duration
	Gatherers       []Gatherer
	Reporters       []Reporter
}

// auditEngine runs every configured audit against every target and hands the results to the reporters
type auditEngine struct {
	targets         []string
	reportingPeriod time.Duration
	auditTimeout    time.Duration
	gatherers       []Gatherer
	reporters       []Reporter
	nowFunc         func() time.Time
}

// NewAuditEngine creates a new engine instance
func NewAuditEngine(args ArgsAuditEngine) (*auditEngine, error) {
	if len(args.Targets) == 0 {
		return nil, errNoTargets
	}
	if args.ReportingPeriod <= 0 {
		return nil, errInvalidReportingPeriod
	}
	for _, g := range args.Gatherers {
		if check.IfNil(g) {
			return nil, errNilGatherer
		}
	}
	for _, r := range args.Reporters {
		if check.IfNil(r) {
			return nil, errNilReporter
		}
	}

	auditTimeout := args.AuditTimeout
	if auditTimeout <= 0 {
		auditTimeout = defaultAuditTimeout
	}

	return &auditEngine{
		targets:         args.Targets,
		reportingPeriod: args.ReportingPeriod,
		auditTimeout:    auditTimeout,
		gatherers:       args.Gatherers,
		reporters:       args.Reporters,
		nowFunc:         time.Now,
	}, nil
}

// Process runs all audits against all targets, sequentially, and reports the results
func (e *auditEngine) Process(ctx context.Context) {
	log.Debug("waking up to run audits", "targets", len(e.targets), "audits", len(e.gatherers))

	results := e.RunAudits(ctx)

	log.Debug("finished running audits", "results", len(results))

	for _, r := range e.reporters {
		reportCtx, cancelReport := context.WithTimeout(ctx, defaultReportTimeout)
		err := r.Report(reportCtx, results)
		cancelReport()
		if err != nil {
			log.Warn("failed to report audit results, they will be discarded", "error", err)
		}
	}
}

// RunAudits runs all audits against all targets over the reporting period ending now
func (e *auditEngine) RunAudits(ctx context.Context) []common.AuditResult {
	window := common.WindowEndingAt(e.nowFunc().UTC(), e.reportingPeriod)

	results := make([]common.AuditResult, 0, len(e.targets)*len(e.gatherers))
	for _, uri := range e.targets {
		target := common.AuditTarget{
			URI:    uri,
			Window: window,
		}

		for _, g := range e.gatherers {
			if ctx.Err() != nil {
				return results
			}

			results = append(results, e.runAudit(ctx, g, target))
		}
	}

	return results
}

func (e *auditEngine) runAudit(ctx context.Context, g Gatherer, target common.AuditTarget) common.AuditResult {
	auditCtx, cancel := context.WithTimeout(ctx, e.auditTimeout)
	defer cancel()

	result := common.AuditResult{
		Audit:     g.Name(),
		Target:    target.URI,
		StartedAt: e.nowFunc().UTC(),
	}

	params, err := g.Gather(auditCtx, target)
	result.FinishedAt = e.nowFunc().UTC()
	if len(params) > 0 {
		result.Parameters = params
	}

	switch {
	case err == nil:
		result.Outcome = common.OutcomeSuccess
		log.Info("audit finished", "audit", result.Audit, "target", result.Target)
	case errors.Is(err, audits.ErrNotApplicable):
		result.Outcome = common.OutcomeNotApplicable
		log.Info("audit not applicable", "audit", result.Audit, "target", result.Target)
	default:
		result.Outcome = common.OutcomeFailure
		result.Error = err.Error()
		log.Warn("audit failed", "audit", result.Audit, "target", result.Target, "error", err)
	}

	return result
}

// IsInterfaceNil returns true if the value under the interface is nil
func (e *auditEngine) IsInterfaceNil() bool {
	return e == nil
}
