package audits

import (
	"github.com/iulianpascalau/newrelic-audits/services/auditor/common"
	logger "github.com/multiversx/mx-chain-logger-go"
)

const (
	// HostParameter is the output holding the audited host
	HostParameter = "host"
	// FromParameter optionally overrides the reporting window start
	FromParameter = "from"
	// ToParameter optionally overrides the reporting window end
	ToParameter = "to"
)

var log = logger.GetOrCreate("audits")

// ArgsAudit holds the arguments shared by all New Relic audits
type ArgsAudit struct {
	Name          string
	Credentials   common.Credentials
	ClientFactory ClientFactory
}

type baseAudit struct {
	name          string
	credentials   common.Credentials
	clientFactory ClientFactory
}

func newBaseAudit(args ArgsAudit) (*baseAudit, error) {
	if len(args.Name) == 0 {
		return nil, errEmptyAuditName
	}
	if args.ClientFactory == nil {
		return nil, errNilClientFactory
	}

	return &baseAudit{
		name:          args.Name,
		credentials:   args.Credentials,
		clientFactory: args.ClientFactory,
	}, nil
}

// Name returns the audit name
func (b *baseAudit) Name() string {
	return b.name
}

// prepare checks the credentials, publishes the host and builds the API client for this run
func (b *baseAudit) prepare(target common.AuditTarget, params common.Parameters) (APIClient, error) {
	if !b.credentials.IsSet() {
		log.Debug("skipping audit, no New Relic credentials", "audit", b.name, "target", target.URI)
		return nil, ErrNotApplicable
	}

	params.Set(HostParameter, common.DeriveHost(target.URI))

	client, err := b.clientFactory(b.credentials)
	if err != nil {
		return nil, newReportableAuditError(b.name, err)
	}

	return client, nil
}
