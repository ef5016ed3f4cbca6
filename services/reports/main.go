package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/iulianpascalau/newrelic-audits/commonGo"
	"github.com/iulianpascalau/newrelic-audits/services/reports/config"
	"github.com/iulianpascalau/newrelic-audits/services/reports/factory"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/urfave/cli"
)

const (
	defaultLogsPath      = "logs"
	logFilePrefix        = "reports"
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

	log = logger.GetOrCreate("reports")

	// logLevel defines the logger level
	logLevel = cli.StringFlag{
		Name: "log-level",
		Usage: "This flag specifies the logger `level(s)`. It can contain multiple comma-separated value. For example" +
			", if set to *:INFO the logs for all packages will have the INFO level. However, if set to *:INFO,api:DEBUG" +
			" the logs for all packages will have the INFO level, excepting the api package which will receive a DEBUG" +
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
		Usage: "This flag specifies the `directory` where the service will store databases and logs.",
		Value: "",
	}
	// configFile defines the path to the TOML configuration
	configFile = cli.StringFlag{
		Name:  "config",
		Usage: "The `filepath` of the TOML configuration file.",
		Value: "./config.toml",
	}
	// envFile defines the path to the .env file holding the service key
	envFile = cli.StringFlag{
		Name:  "env-file",
		Usage: "The `filepath` of the .env file holding SERVICE_KEY.",
		Value: "./.env",
	}
	// dbPath defines the sqlite database file, relative to the working directory
	dbPath = cli.StringFlag{
		Name:  "db-path",
		Usage: "The `filepath` of the sqlite database, relative to the working directory.",
		Value: "db/reports.db",
	}
)

func main() {
	app := cli.NewApp()
	cli.AppHelpTemplate = helpTemplate
	app.Name = "Audit reports service"
	app.Version = fmt.Sprintf("%s/%s/%s-%s", appVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	app.Usage = "This is the entry point for starting the service that stores and serves the results sent by the auditors"
	app.Flags = []cli.Flag{
		logLevel,
		logSaveFile,
		workingDirectory,
		configFile,
		envFile,
		dbPath,
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
	workingDir := ctx.GlobalString(workingDirectory.Name)

	err := logger.SetLogLevel(ctx.GlobalString(logLevel.Name))
	if err != nil {
		return err
	}

	fileLogging, err = commonGo.AttachFileLogger(log, commonGo.ArgsFileLogger{
		DefaultLogsPath:   defaultLogsPath,
		LogFilePrefix:     logFilePrefix,
		SaveLogFile:       ctx.GlobalBool(logSaveFile.Name),
		WorkingDir:        workingDir,
		LifeSpanInSeconds: logFileLifeSpanInSec,
		LifeSpanInMB:      logFileLifeSpanInMB,
	})
	if err != nil {
		return err
	}

	log.Info("Starting reports service", "version", appVersion, "pid", os.Getpid())

	envFileContents := map[string]string{
		envServiceKey: "",
	}
	err = commonGo.ReadEnvFile(ctx.GlobalString(envFile.Name), envFileContents)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(ctx.GlobalString(configFile.Name))
	if err != nil {
		return err
	}

	sqlitePath := filepath.Join(workingDir, ctx.GlobalString(dbPath.Name))
	components, err := factory.NewComponentsHandler(factory.ArgsComponentsHandler{
		SQLitePath:    sqlitePath,
		ServiceKeyApi: envFileContents[envServiceKey],
		Config:        *cfg,
	})
	if err != nil {
		return err
	}

	components.Start()

	log.Info("Reports service started", "listen address", components.GetServer().Address(), "database", sqlitePath)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	<-sigs

	log.Info("Application closing, calling Close on all subcomponents...")

	components.Close()

	return nil
}
