package factory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/iulianpascalau/newrelic-audits/commonGo"
	"github.com/iulianpascalau/newrelic-audits/services/auditor/audits"
	"github.com/iulianpascalau/newrelic-audits/services/auditor/client"
	"github.com/iulianpascalau/newrelic-audits/services/auditor/common"
	"github.com/iulianpascalau/newrelic-audits/services/auditor/config"
	"github.com/iulianpascalau/newrelic-audits/services/auditor/engine"
	"github.com/iulianpascalau/newrelic-audits/services/auditor/reporter"
)

const (
	defaultReportingPeriodInHours = 24
	defaultReportTimeout          = 10 * time.Second
)

type componentsHandler struct {
	gatherers   []engine.Gatherer
	reporters   []engine.Reporter
	engine      Engine
	mutCancel   sync.Mutex
	cancel      func()
	runInterval time.Duration
}

// NewComponentsHandler creates a new components handler
func NewComponentsHandler(
	serviceKeyApi string,
	credentials common.Credentials,
	cfg config.Config,
) (*componentsHandler, error) {
	gatherers, err := createGatherers(cfg, credentials)
	if err != nil {
		return nil, err
	}

	reporters := []engine.Reporter{reporter.NewLogReporter()}
	if len(cfg.ReportEndpoint) > 0 {
		timeout := time.Duration(cfg.ReportTimeoutInSeconds) * time.Second
		if timeout == 0 {
			timeout = defaultReportTimeout
		}
		reporters = append(reporters, reporter.NewHTTPReporter(cfg.ReportEndpoint, serviceKeyApi, cfg.Name, timeout))
	}

	reportingPeriodInHours := cfg.ReportingPeriodInHours
	if reportingPeriodInHours == 0 {
		reportingPeriodInHours = defaultReportingPeriodInHours
	}

	eng, err := engine.NewAuditEngine(engine.ArgsAuditEngine{
		Targets:         cfg.Targets,
		ReportingPeriod: time.Duration(reportingPeriodInHours) * time.Hour,
		AuditTimeout:    time.Duration(cfg.AuditTimeoutInSeconds) * time.Second,
		Gatherers:       gatherers,
		Reporters:       reporters,
	})
	if err != nil {
		return nil, err
	}

	return &componentsHandler{
		gatherers:   gatherers,
		reporters:   reporters,
		engine:      eng,
		runInterval: time.Duration(cfg.RunIntervalInSeconds) * time.Second,
	}, nil
}

func createClientFactory(cfg config.NewRelicConfig) audits.ClientFactory {
	baseURL := cfg.BaseURL
	if len(baseURL) == 0 {
		baseURL = client.DefaultBaseURL
	}

	return func(credentials common.Credentials) (audits.APIClient, error) {
		c, err := client.NewNewRelicClient(client.ArgsNewRelicClient{
			BaseURL:      baseURL,
			Credentials:  credentials,
			Timeout:      time.Duration(cfg.RequestTimeoutInSeconds) * time.Second,
			RetryCount:   cfg.RetryCount,
			RetryBackoff: time.Duration(cfg.RetryBackoffInMilliseconds) * time.Millisecond,
		})
		if err != nil {
			return nil, err
		}

		return c, nil
	}
}

func createGatherers(cfg config.Config, credentials common.Credentials) ([]engine.Gatherer, error) {
	clientFactory := createClientFactory(cfg.NewRelic)

	gatherers := make([]engine.Gatherer, 0, len(cfg.Audits))
	for _, auditCfg := range cfg.Audits {
		name := auditCfg.Name
		if len(name) == 0 {
			name = auditCfg.Type
		}
		argsAudit := audits.ArgsAudit{
			Name:          name,
			Credentials:   credentials,
			ClientFactory: clientFactory,
		}

		switch strings.ToLower(auditCfg.Type) {
		case config.ApdexAuditType:
			audit, err := audits.NewApdexAudit(argsAudit)
			if err != nil {
				return nil, fmt.Errorf("%w for audit %s", err, name)
			}
			gatherers = append(gatherers, audit)
		case config.SlowTransactionsAuditType:
			prefix := auditCfg.TransactionPrefix
			if len(prefix) == 0 {
				prefix = audits.DefaultTransactionPrefix
			}

			audit, err := audits.NewSlowTransactionsAudit(audits.ArgsSlowTransactionsAudit{
				ArgsAudit:          argsAudit,
				TransactionPrefix:  prefix,
				TopCount:           auditCfg.TopCount,
				From:               auditCfg.From,
				To:                 auditCfg.To,
				MaxNamesPerRequest: cfg.NewRelic.MaxNamesPerRequest,
				MaxParallelBatches: cfg.NewRelic.MaxParallelBatches,
			})
			if err != nil {
				return nil, fmt.Errorf("%w for audit %s", err, name)
			}
			gatherers = append(gatherers, audit)
		default:
			return nil, fmt.Errorf("unknown audit type %q for audit %s", auditCfg.Type, name)
		}
	}

	return gatherers, nil
}

// GetGatherers returns the configured audits
func (ch *componentsHandler) GetGatherers() []engine.Gatherer {
	return ch.gatherers
}

// GetReporters returns the reporter components
func (ch *componentsHandler) GetReporters() []engine.Reporter {
	return ch.reporters
}

// GetEngine returns the engine component
func (ch *componentsHandler) GetEngine() Engine {
	return ch.engine
}

// RunOnce runs all the audits a single time, synchronously
func (ch *componentsHandler) RunOnce(ctx context.Context) {
	ch.engine.Process(ctx)
}

// Start starts running the audits periodically. It is a no-op if no run interval was configured.
func (ch *componentsHandler) Start() {
	ch.mutCancel.Lock()
	defer ch.mutCancel.Unlock()

	if ch.cancel != nil || ch.runInterval <= 0 {
		return
	}

	var ctx context.Context
	ctx, ch.cancel = context.WithCancel(context.Background())

	commonGo.CronJobStarter(ctx, ch.engine.Process, ch.runInterval)
}

// IsPeriodic returns true if the audits are configured to run periodically
func (ch *componentsHandler) IsPeriodic() bool {
	return ch.runInterval > 0
}

// Close closes the inner components
func (ch *componentsHandler) Close() {
	ch.mutCancel.Lock()
	defer ch.mutCancel.Unlock()

	if ch.cancel == nil {
		return
	}

	ch.cancel()
	ch.cancel = nil
}
