package entrypoint

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/wrouesnel/csrgen/pkg/models"
	"github.com/wrouesnel/csrgen/pkg/toolkit"
	"github.com/wrouesnel/csrgen/version"

	"github.com/alecthomas/kong"
	"go.uber.org/zap/zapcore"

	"go.uber.org/zap"
)

const longHelp = `

Prompts for the server name, the certificate subject and up to 10 DNS
subject alternative names, then runs:

  openssl genrsa -out <server>/<server>.key 2048
  openssl req -new -key <server>/<server>.key -out <server>/<server>.csr -config ./cert-csr.conf

and packs the <server> directory into <server>.tar.gz.

The temporary cert-csr.conf is removed on every exit path. A failed
private key step aborts the run. A failed request step is reported and
the directory is still archived unless --abort-on-request-failure is set.

An answers file may replace the prompts:

  server_name: example.com
  country: US
  state: California
  city: San Francisco
  organization: My Company
  organizational_unit: IT Department
  common_name: example.com
  email: admin@example.com
  alt_names:
    - www.example.com
`

type CLIConfig struct {
	Version kong.VersionFlag `env:"-" help:"Show version number"`
	Logging struct {
		Level  string `default:"info"    help:"logging level"`
		Format string `default:"console" enum:"console,json"  help:"logging format (${enum})"`
	} `embed:"" prefix:"log-"`

	OpenSSL               string                `default:"${openssl}" help:"OpenSSL binary to invoke"                                     name:"openssl"`
	KeyBits               int                   `default:"${keybits}" help:"RSA private key size in bits"`
	Answers               string                `help:"Read the request from a YAML answers file instead of prompting" type:"path"`
	AbortOnRequestFailure bool                  `help:"Stop without archiving when CSR generation fails"`
	NoArchive             bool                  `help:"Don't create the tar.gz archive"`
	Timeout               time.Duration         `default:"0"          help:"Time limit for the OpenSSL commands (0 for none)"`
	FilenameConfig        models.FilenameConfig `embed:""`
}

var CLI CLIConfig //nolint:gochecknoglobals

func Entrypoint(stdOut io.Writer, stdErr io.Writer, stdIn io.ReadCloser) error {
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	deferredLogs := []string{}

	// Command line parsing can now happen
	vars := kong.Vars{"version": version.Version}
	vars["openssl"] = toolkit.DefaultBinary
	vars["keybits"] = strconv.Itoa(toolkit.DefaultKeyBits)
	CLI = CLIConfig{}
	_ = kong.Parse(&CLI,
		kong.Description(version.Description+longHelp),
		kong.DefaultEnvars(version.Name),
		vars)

	// Initialize logging as soon as possible
	logConfig := zap.NewProductionConfig()
	if err := logConfig.Level.UnmarshalText([]byte(CLI.Logging.Level)); err != nil {
		deferredLogs = append(deferredLogs, err.Error())
	}
	logConfig.Encoding = CLI.Logging.Format
	logConfig.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	if CLI.Logging.Format == "console" {
		logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := logConfig.Build()
	if err != nil {
		// Error unhandled since this is a very early failure
		_, _ = io.WriteString(stdErr, "Failure while building logger")
		return err
	}

	logger.Debug("Configuring signal handling")
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)
	sigCtx, cancelFn := context.WithCancel(appCtx)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("Caught signal - exiting", zap.String("signal", sig.String()))
			cancelFn()
			stdIn.Close()
			logger.Warn("Stdin Closed")
		case <-sigCtx.Done():
		}
	}()

	// Install as the global logger
	zap.ReplaceGlobals(logger)

	// Emit deferred logs
	for _, line := range deferredLogs {
		logger.Error(line)
	}

	err = MakeRequest(sigCtx, stdOut, stdErr, stdIn)
	if err != nil {
		logger.Error("Error", zap.Error(err))
	}
	_ = logger.Sync()
	return err
}
