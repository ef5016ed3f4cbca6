package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/iulianpascalau/newrelic-audits/commonGo"
	"github.com/iulianpascalau/newrelic-audits/services/auditor/config"
	"github.com/iulianpascalau/newrelic-audits/services/auditor/factory"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/urfave/cli"
)

const (
	defaultLogsPath      = "logs"
	logFilePrefix        = "auditor"
	logFileLifeSpanInSec = 86400 // 24h
	logFileLifeSpanInMB  = 1024  // 1GB
	envServiceKey        = "SERVICE_KEY"
)

// appVersion should be populated at build time using ldflags
// Usage examples:
// Linux/macOS:
//
//	go build -v -ldflags="-X main.appVersion=$(git describe --all | cut -c7-32)
var appVersion = "undefined"
var fileLogging commonGo.FileLoggingHandler

var (
	helpTemplate = `NAME:
   {{.Name}} - {{.Usage}}
USAGE:
   {{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}
   {{if len .Authors}}
AUTHOR:
   {{range .Authors}}{{ . }}{{end}}
   {{end}}{{if .Commands}}
GLOBAL OPTIONS:
   {{range .VisibleFlags}}{{.}}
   {{end}}
VERSION:
   {{.Version}}
   {{end}}
`

	log = logger.GetOrCreate("auditor")

	// logLevel defines the logger level
	logLevel = cli.StringFlag{
		Name: "log-level",
		Usage: "This flag specifies the logger `level(s)`. It can contain multiple comma-separated value. For example" +
			", if set to *:INFO the logs for all packages will have the INFO level. However, if set to *:INFO,client:DEBUG" +
			" the logs for all packages will have the INFO level, excepting the client package which will receive a DEBUG" +
			" log level.",
		Value: "*:" + logger.LogInfo.String(),
	}
	// logFile is used when the log output needs to be logged in a file
	logSaveFile = cli.BoolFlag{
		Name:  "log-save",
		Usage: "Boolean option for enabling log saving. If set, it will automatically save all the logs into a file.",
	}
	// workingDirectory defines a flag for the path for the working directory.
	workingDirectory = cli.StringFlag{
		Name:  "working-directory",
		Usage: "This flag specifies the `directory` where the auditor will store logs.",
		Value: "",
	}
	// configFile defines the path to the TOML configuration
	configFile = cli.StringFlag{
		Name:  "config",
		Usage: "The `filepath` of the TOML configuration file.",
		Value: "./config.toml",
	}
	// envFile defines the path to the .env file holding the New Relic credentials and the service key
	envFile = cli.StringFlag{
		Name:  "env-file",
		Usage: "The `filepath` of the .env file holding NEWRELIC_API_KEY, NEWRELIC_APP_ID (or NEWRELIC_ACCOUNT_ID) and SERVICE_KEY.",
		Value: "./.env",
	}
	// once forces a single run even if a run interval is configured
	once = cli.BoolFlag{
		Name:  "once",
		Usage: "Run all audits a single time and exit, ignoring RunIntervalInSeconds.",
	}
)

func main() {
	app := cli.NewApp()
	cli.AppHelpTemplate = helpTemplate
	app.Name = "New Relic auditor"
	app.Version = fmt.Sprintf("%s/%s/%s-%s", appVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	app.Usage = "This is the entry point for running the New Relic audits (Apdex score, slow transactions) against the configured targets"
	app.Flags = []cli.Flag{
		logLevel,
		logSaveFile,
		workingDirectory,
		configFile,
		envFile,
		once,
	}
	app.Authors = []cli.Author{
		{
			Name:  "Iulian Pascalau",
			Email: "iulian.pascalau@gmail.com",
		},
	}

	app.Action = run

	defer func() {
		if !check.IfNil(fileLogging) {
			_ = fileLogging.Close()
		}
	}()

	err := app.Run(os.Args)
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	err := logger.SetLogLevel(ctx.GlobalString(logLevel.Name))
	if err != nil {
		return err
	}

	fileLogging, err = commonGo.AttachFileLogger(log, commonGo.ArgsFileLogger{
		DefaultLogsPath:   defaultLogsPath,
		LogFilePrefix:     logFilePrefix,
		SaveLogFile:       ctx.GlobalBool(logSaveFile.Name),
		WorkingDir:        ctx.GlobalString(workingDirectory.Name),
		LifeSpanInSeconds: logFileLifeSpanInSec,
		LifeSpanInMB:      logFileLifeSpanInMB,
	})
	if err != nil {
		return err
	}

	log.Info("Starting auditor", "version", appVersion, "pid", os.Getpid())

	cfg, err := config.LoadConfig(ctx.GlobalString(configFile.Name))
	if err != nil {
		return err
	}

	credentials, err := config.LoadCredentials(ctx.GlobalString(envFile.Name))
	if err != nil {
		return err
	}
	if !credentials.IsSet() {
		log.Warn("New Relic credentials are not set, all audits will be reported as not applicable")
	}

	envFileContents := map[string]string{
		envServiceKey: "",
	}
	err = commonGo.ReadOptionalEnvFile(ctx.GlobalString(envFile.Name), envFileContents)
	if err != nil {
		return err
	}
	if len(cfg.ReportEndpoint) > 0 && len(envFileContents[envServiceKey]) == 0 {
		return errors.New(envServiceKey + " is required when a ReportEndpoint is configured")
	}

	components, err := factory.NewComponentsHandler(envFileContents[envServiceKey], credentials, *cfg)
	if err != nil {
		return err
	}

	if ctx.GlobalBool(once.Name) || !components.IsPeriodic() {
		log.Info("Running audits once")
		components.RunOnce(context.Background())
		return nil
	}

	components.Start()

	log.Info("Auditor started", "interval in seconds", cfg.RunIntervalInSeconds)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	<-sigs

	log.Info("Application closing, calling Close on all subcomponents...")

	components.Close()

	return nil
}
