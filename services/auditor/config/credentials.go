package config

import (
	"github.com/iulianpascalau/newrelic-audits/commonGo"
	"github.com/iulianpascalau/newrelic-audits/services/auditor/common"
)

const (
	// EnvNewRelicAPIKey holds the New Relic REST API key
	EnvNewRelicAPIKey = "NEWRELIC_API_KEY"
	// EnvNewRelicAppID holds the New Relic application ID
	EnvNewRelicAppID = "NEWRELIC_APP_ID"
	// EnvNewRelicAccountID is the older name of the application ID variable
	EnvNewRelicAccountID = "NEWRELIC_ACCOUNT_ID"
)

// LoadCredentials reads the New Relic credentials from the env file, falling back to the process environment.
// A missing env file or missing variables are not errors: the audits will report themselves as not applicable.
func LoadCredentials(envFile string) (common.Credentials, error) {
	values := map[string]string{
		EnvNewRelicAPIKey:    "",
		EnvNewRelicAppID:     "",
		EnvNewRelicAccountID: "",
	}

	err := commonGo.ReadOptionalEnvFile(envFile, values)
	if err != nil {
		return common.Credentials{}, err
	}

	return common.Credentials{
		AccountID: values[EnvNewRelicAccountID],
		AppID:     values[EnvNewRelicAppID],
		APIKey:    values[EnvNewRelicAPIKey],
	}, nil
}
