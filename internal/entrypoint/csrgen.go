package entrypoint

import (
	"context"
	"io"

	"github.com/spf13/afero"
	"github.com/wrouesnel/csrgen/pkg/bundle"
	"github.com/wrouesnel/csrgen/pkg/models"
	"github.com/wrouesnel/csrgen/pkg/pipeline"
	"github.com/wrouesnel/csrgen/pkg/prompt"
	"github.com/wrouesnel/csrgen/pkg/toolkit"
	"github.com/yuseferi/zax/v2"
	"go.uber.org/zap"
)

// MakeRequest implements the csrgen command
func MakeRequest(ctx context.Context, stdOut io.Writer, stdErr io.Writer, stdIn io.Reader) error {
	l := zap.L().With(zax.Get(ctx)...)
	fs := afero.NewOsFs()

	var req models.Request
	var err error
	if CLI.Answers != "" {
		l.Debug("Reading answers file", zap.String("answers", CLI.Answers))
		req, err = prompt.LoadAnswers(fs, CLI.Answers)
	} else {
		l.Debug("Reading from stdin")
		req, err = prompt.Collect(ctx, prompt.NewPrompter(stdIn, stdOut))
	}
	if err != nil {
		l.Error("Failed to collect request details", zap.Error(err))
		return err
	}

	l.Info("Collected request", zap.String("server_name", req.ServerName),
		zap.String("common_name", req.Subject.CommonName),
		zap.Int("alt_names", len(req.AlternativeNames)))

	p := &pipeline.Pipeline{
		Fs:                    fs,
		Toolkit:               toolkit.New(CLI.OpenSSL, CLI.KeyBits, toolkit.ExecRunner{Stdout: stdOut, Stderr: stdErr}),
		Files:                 CLI.FilenameConfig,
		AbortOnRequestFailure: CLI.AbortOnRequestFailure,
	}
	if !CLI.NoArchive {
		p.Archiver = bundle.NewTarGzArchiver()
	}

	if CLI.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, CLI.Timeout)
		defer cancel()
	}

	report, err := p.Run(ctx, req)
	if err != nil {
		return err
	}

	if report.RequestErr != nil {
		l.Warn("Finished with a failed CSR step", zap.String("output_dir", report.Bundle.Dir), zap.Error(report.RequestErr))
	}
	if report.ArchiveErr != nil {
		l.Warn("Finished without an archive", zap.String("output_dir", report.Bundle.Dir))
	}
	l.Info("Finished", zap.String("state", report.State.String()), zap.String("output_dir", report.Bundle.Dir))
	return nil
}
