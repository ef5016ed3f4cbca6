package factory

import (
	"errors"

	"github.com/iulianpascalau/newrelic-audits/services/reports/api"
	"github.com/iulianpascalau/newrelic-audits/services/reports/config"
	"github.com/iulianpascalau/newrelic-audits/services/reports/storage"
	logger "github.com/multiversx/mx-chain-logger-go"
)

const (
	defaultListenAddress    = "127.0.0.1:8080"
	defaultRetentionSeconds = 7 * 24 * 3600
)

var log = logger.GetOrCreate("factory")

var errEmptyServiceKey = errors.New("empty service key")
var errEmptySQLitePath = errors.New("empty sqlite path")

// ArgsComponentsHandler is the DTO used to create the reports service components
type ArgsComponentsHandler struct {
	SQLitePath    string
	ServiceKeyApi string
	Config        config.Config
}

type componentsHandler struct {
	store  api.Storage
	server Server
}

// NewComponentsHandler creates the audit results store and the API serving it. Every route is protected by
// the service key, so an empty key is rejected.
func NewComponentsHandler(args ArgsComponentsHandler) (*componentsHandler, error) {
	if len(args.ServiceKeyApi) == 0 {
		return nil, errEmptyServiceKey
	}
	if len(args.SQLitePath) == 0 {
		return nil, errEmptySQLitePath
	}

	cfg := applyDefaults(args.Config)
	log.Debug("creating reports components", "database", args.SQLitePath, "retention in seconds", cfg.RetentionSeconds,
		"history per audit", cfg.NumHistory)

	store, err := storage.NewSQLiteStorage(args.SQLitePath, cfg.RetentionSeconds, cfg.NumHistory)
	if err != nil {
		return nil, err
	}

	server, err := api.NewServer(api.ArgsWebServer{
		ServiceKeyApi:  args.ServiceKeyApi,
		ListenAddress:  cfg.ListenAddress,
		Storage:        store,
		GeneralHandler: api.CORSMiddleware,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &componentsHandler{
		store:  store,
		server: server,
	}, nil
}

// applyDefaults fills the unset values. NumHistory is defaulted by the store.
func applyDefaults(cfg config.Config) config.Config {
	if len(cfg.ListenAddress) == 0 {
		cfg.ListenAddress = defaultListenAddress
	}
	if cfg.RetentionSeconds <= 0 {
		cfg.RetentionSeconds = defaultRetentionSeconds
	}

	return cfg
}

// GetStore returns the audit results store
func (ch *componentsHandler) GetStore() api.Storage {
	return ch.store
}

// GetServer returns the API server
func (ch *componentsHandler) GetServer() Server {
	return ch.server
}

// Start starts serving the audit results
func (ch *componentsHandler) Start() {
	ch.server.Start()
}

// Close stops the server, which also closes the store
func (ch *componentsHandler) Close() {
	err := ch.server.Close()
	if err != nil {
		log.Warn("failed to close the reports components", "error", err)
	}
}
