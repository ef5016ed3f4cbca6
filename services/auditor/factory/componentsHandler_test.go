package factory

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iulianpascalau/newrelic-audits/services/auditor/common"
	"github.com/iulianpascalau/newrelic-audits/services/auditor/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestConfig() config.Config {
	return config.Config{
		Name:                   "auditor-1",
		Targets:                []string{"https://example.org"},
		ReportingPeriodInHours: 24,
		AuditTimeoutInSeconds:  5,
		RunIntervalInSeconds:   1,
		ReportEndpoint:         "/report",
		ReportTimeoutInSeconds: 1,
		NewRelic: config.NewRelicConfig{
			RequestTimeoutInSeconds: 1,
		},
		Audits: []config.AuditConfig{
			{Name: "apdex", Type: config.ApdexAuditType},
			{Type: config.SlowTransactionsAuditType},
		},
	}
}

func TestNewComponentsHandler(t *testing.T) {
	t.Parallel()

	t.Run("unknown audit type should error", func(t *testing.T) {
		cfg := createTestConfig()
		cfg.Audits = append(cfg.Audits, config.AuditConfig{Name: "x", Type: "lighthouse"})

		handler, err := NewComponentsHandler("service-key", common.Credentials{}, cfg)
		assert.Nil(t, handler)
		assert.Contains(t, err.Error(), `unknown audit type "lighthouse"`)
	})
	t.Run("no targets should error", func(t *testing.T) {
		cfg := createTestConfig()
		cfg.Targets = nil

		handler, err := NewComponentsHandler("service-key", common.Credentials{}, cfg)
		assert.Nil(t, handler)
		assert.Error(t, err)
	})
	t.Run("should work", func(t *testing.T) {
		handler, err := NewComponentsHandler("service-key", common.Credentials{}, createTestConfig())

		assert.NotNil(t, handler)
		assert.Nil(t, err)
		assert.True(t, handler.IsPeriodic())

		handler.Close()
	})
}

func TestComponentsHandlerMethods(t *testing.T) {
	t.Parallel()

	handler, _ := NewComponentsHandler("service-key", common.Credentials{}, createTestConfig())

	handler.Start()

	gatherers := handler.GetGatherers()
	require.Len(t, gatherers, 2)
	assert.Equal(t, "*audits.apdexAudit", fmt.Sprintf("%T", gatherers[0]))
	assert.Equal(t, "apdex", gatherers[0].Name())
	assert.Equal(t, "*audits.slowTransactionsAudit", fmt.Sprintf("%T", gatherers[1]))
	assert.Equal(t, config.SlowTransactionsAuditType, gatherers[1].Name())

	reporters := handler.GetReporters()
	require.Len(t, reporters, 2)
	assert.Equal(t, "*reporter.logReporter", fmt.Sprintf("%T", reporters[0]))
	assert.Equal(t, "*reporter.httpReporter", fmt.Sprintf("%T", reporters[1]))

	engine := handler.GetEngine()
	assert.Equal(t, "*engine.auditEngine", fmt.Sprintf("%T", engine))

	handler.Close()
}

func TestComponentsHandler_RunOnceWithoutCredentials(t *testing.T) {
	t.Parallel()

	numRequests := uint32(0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddUint32(&numRequests, 1)
	}))
	defer server.Close()

	cfg := createTestConfig()
	cfg.ReportEndpoint = ""
	cfg.RunIntervalInSeconds = 0
	cfg.NewRelic.BaseURL = server.URL

	handler, err := NewComponentsHandler("", common.Credentials{}, cfg)
	require.Nil(t, err)
	assert.False(t, handler.IsPeriodic())
	require.Len(t, handler.GetReporters(), 1)

	handler.Start()
	handler.RunOnce(context.Background())
	handler.Close()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, uint32(0), atomic.LoadUint32(&numRequests))
}
