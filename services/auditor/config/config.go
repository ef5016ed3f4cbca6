package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

const (
	// ApdexAuditType identifies the Apdex score audit
	ApdexAuditType = "apdex"
	// SlowTransactionsAuditType identifies the slow transactions audit
	SlowTransactionsAuditType = "slow_transactions"
)

// NewRelicConfig defines how the New Relic API is called
type NewRelicConfig struct {
	BaseURL                    string `toml:"BaseURL"`
	RequestTimeoutInSeconds    uint32 `toml:"RequestTimeoutInSeconds"`
	RetryCount                 int    `toml:"RetryCount"`
	RetryBackoffInMilliseconds uint32 `toml:"RetryBackoffInMilliseconds"`
	MaxNamesPerRequest         int    `toml:"MaxNamesPerRequest"`
	MaxParallelBatches         int    `toml:"MaxParallelBatches"`
}

// AuditConfig defines a single audit instance
type AuditConfig struct {
	Name              string `toml:"Name"`
	Type              string `toml:"Type"`
	TransactionPrefix string `toml:"TransactionPrefix"`
	TopCount          int    `toml:"TopCount"`
	From              string `toml:"From"`
	To                string `toml:"To"`
}

// Config maps to the config.toml file for the auditor
type Config struct {
	Name                   string         `toml:"Name"`
	Targets                []string       `toml:"Targets"`
	ReportingPeriodInHours uint32         `toml:"ReportingPeriodInHours"`
	AuditTimeoutInSeconds  uint32         `toml:"AuditTimeoutInSeconds"`
	RunIntervalInSeconds   uint32         `toml:"RunIntervalInSeconds"`
	ReportEndpoint         string         `toml:"ReportEndpoint"`
	ReportTimeoutInSeconds uint32         `toml:"ReportTimeoutInSeconds"`
	NewRelic               NewRelicConfig `toml:"NewRelic"`
	Audits                 []AuditConfig  `toml:"Audits"`
}

// LoadConfig parses a TOML file into the Config struct
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filepath, err)
	}

	var cfg Config
	err = toml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &cfg, nil
}
