package commonGo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/multiversx/mx-chain-logger-go/file"
)

// ArgsFileLogger holds the arguments used when attaching a file logger
type ArgsFileLogger struct {
	DefaultLogsPath   string
	LogFilePrefix     string
	SaveLogFile       bool
	WorkingDir        string
	LifeSpanInSeconds int
	LifeSpanInMB      uint64
}

// AttachFileLogger attaches, if required, a log file with the configured rotation policy.
// Returns a nil handler if no log file was requested.
func AttachFileLogger(log logger.Logger, args ArgsFileLogger) (FileLoggingHandler, error) {
	err := logger.SetDisplayByteSlice(logger.ToHex)
	log.LogIfError(err)

	if !args.SaveLogFile {
		return nil, nil
	}

	argsFileLogging := file.ArgsFileLogging{
		WorkingDir:      args.WorkingDir,
		DefaultLogsPath: args.DefaultLogsPath,
		LogFilePrefix:   args.LogFilePrefix,
	}
	logFile, err := file.NewFileLogging(argsFileLogging)
	if err != nil {
		return nil, fmt.Errorf("%w creating a log file", err)
	}

	if args.LifeSpanInSeconds > 0 {
		err = logFile.ChangeFileLifeSpan(time.Second*time.Duration(args.LifeSpanInSeconds), args.LifeSpanInMB)
		if err != nil {
			_ = logFile.Close()
			return nil, err
		}
	}

	return logFile, nil
}

// ReadEnvFile will read the file contents in the provided map. Every key in the map is required.
func ReadEnvFile(envFile string, m map[string]string) error {
	err := godotenv.Load(envFile)
	if err != nil {
		return err
	}

	for k := range m {
		val := os.Getenv(k)
		if len(val) == 0 {
			return fmt.Errorf("%s is not set in the .env file", k)
		}

		m[k] = val
	}

	return nil
}

// ReadOptionalEnvFile reads the keys from the env file, falling back to the process environment.
// A missing file or missing keys leave the map values empty.
func ReadOptionalEnvFile(envFile string, m map[string]string) error {
	values, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	for k := range m {
		val := values[k]
		if len(val) == 0 {
			val = os.Getenv(k)
		}

		m[k] = val
	}

	return nil
}

// CronJobStarter is able to start a go routine that periodically calls the provided handler. The time between calls is
// provided as timeToCall
func CronJobStarter(ctx context.Context, handler func(ctx context.Context), timeToCall time.Duration) {
	go func() {
		timer := time.NewTimer(timeToCall)
		defer timer.Stop()

		handler(ctx)

		for {
			select {
			case <-timer.C:
				handler(ctx)
				timer.Reset(timeToCall)
			case <-ctx.Done():
				return
			}
		}
	}()
}
