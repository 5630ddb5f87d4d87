package pipeline

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/wrouesnel/csrgen/pkg/bundle"
	"github.com/wrouesnel/csrgen/pkg/models"
	"github.com/wrouesnel/csrgen/pkg/opensslconf"
	"github.com/wrouesnel/csrgen/pkg/storage"
	"github.com/wrouesnel/csrgen/pkg/toolkit"
	"github.com/yuseferi/zax/v2"
	"go.uber.org/zap"
)

var ErrNoServerName = errors.New("server name is required")

const (
	stepOutputDir = "output_dir"
	stepKey       = "private_key"
	stepRequest   = "request"
	stepArchive   = "archive"
)

// StepResult records how a single step ended.
type StepResult struct {
	Name    string
	Outcome Outcome
	Err     error
}

// Report describes a finished run.
type Report struct {
	Bundle models.OutputBundle
	// State is the terminal state, Done or Aborted.
	State  State
	States []State
	Steps  []StepResult

	RequestErr error
	ArchiveErr error
}

func (r *Report) advance(state State) {
	r.State = state
	r.States = append(r.States, state)
}

func (r *Report) record(name string, outcome Outcome, err error) {
	r.Steps = append(r.Steps, StepResult{Name: name, Outcome: outcome, Err: err})
}

// Pipeline turns a collected Request into a key, a CSR and an archive.
type Pipeline struct {
	Fs       afero.Fs
	Toolkit  *toolkit.Toolkit
	Archiver bundle.Archiver
	Files    models.FilenameConfig

	// AbortOnRequestFailure stops before archiving when the CSR step fails.
	// When false a failed request is reported and the bundle is still archived.
	AbortOnRequestFailure bool
}

// Run executes the pipeline. The returned error is non-nil only when the run
// aborted; warnings are available on the Report.
func (p *Pipeline) Run(ctx context.Context, req models.Request) (*Report, error) {
	files := models.NewOutputBundle(p.Files, req.ServerName)
	report := &Report{Bundle: files}
	report.advance(Collecting)

	if req.ServerName == "" {
		report.advance(Aborted)
		return report, ErrNoServerName
	}

	ctx = zax.Set(ctx, []zap.Field{zap.String("server_name", req.ServerName)})
	l := zap.L().With(zax.Get(ctx)...)

	doc, err := storage.WriteConfigDocument(p.Fs, models.ConfigDocumentPath(p.Files),
		opensslconf.RenderWithBits(p.Toolkit.KeyBits, req.Subject, req.AlternativeNames))
	if err != nil {
		report.advance(Aborted)
		return report, err
	}
	// Release is idempotent: this covers every abort path below.
	defer func() { _ = doc.Release() }()
	report.advance(ConfigWritten)

	if err := p.run(ctx, report, stepOutputDir, func() (Outcome, error) { return p.prepareDir(files) }); err != nil {
		return report, err
	}
	report.advance(DirReady)

	if err := p.run(ctx, report, stepKey, func() (Outcome, error) { return p.generateKey(ctx, files) }); err != nil {
		return report, err
	}
	report.advance(KeyGenerated)

	if err := p.run(ctx, report, stepRequest, func() (Outcome, error) { return p.generateRequest(ctx, report, files, doc) }); err != nil {
		return report, err
	}

	if err := doc.Release(); err != nil {
		l.Warn("Temporary configuration file could not be removed", zap.Error(err))
	}
	report.advance(ConfigCleanedUp)

	if err := ctx.Err(); err != nil {
		report.record(stepArchive, AbortEarly, err)
		l.Error("Aborting request generation", zap.String("step", stepArchive), zap.Error(err))
		report.advance(Aborted)
		return report, errors.Wrap(err, "archiving")
	}

	if p.Archiver == nil {
		l.Info("Archiving disabled")
	} else if outcome, err := p.archive(ctx, report, files); outcome == Continue {
		report.record(stepArchive, outcome, nil)
		report.advance(Archived)
	} else {
		report.record(stepArchive, outcome, err)
	}

	report.advance(Done)
	return report, nil
}

// run executes a single step and aborts the report if the step asks for it.
func (p *Pipeline) run(ctx context.Context, report *Report, name string, step func() (Outcome, error)) error {
	l := zap.L().With(zax.Get(ctx)...)
	outcome, err := step()
	report.record(name, outcome, err)
	if outcome != AbortEarly {
		return nil
	}
	l.Error("Aborting request generation", zap.String("step", name), zap.Error(err))
	report.advance(Aborted)
	return err
}

func (p *Pipeline) prepareDir(files models.OutputBundle) (Outcome, error) {
	if err := storage.EnsureOutputDir(p.Fs, files.Dir); err != nil {
		return AbortEarly, err
	}
	return Continue, nil
}

func (p *Pipeline) generateKey(ctx context.Context, files models.OutputBundle) (Outcome, error) {
	l := zap.L().With(zax.Get(ctx)...)
	if err := p.Toolkit.GenerateKey(ctx, files.KeyPath); err != nil {
		l.Error("Error generating private key", zap.Error(err))
		return AbortEarly, errors.Wrap(err, "generating private key")
	}
	l.Info("Successfully generated private key", zap.String("key_path", files.KeyPath))
	return Continue, nil
}

func (p *Pipeline) generateRequest(ctx context.Context, report *Report, files models.OutputBundle, doc *storage.ConfigDocument) (Outcome, error) {
	l := zap.L().With(zax.Get(ctx)...)
	if err := p.Toolkit.GenerateRequest(ctx, files.KeyPath, files.CSRPath, doc.Path()); err != nil {
		err = errors.Wrap(err, "generating CSR")
		report.RequestErr = err
		report.advance(CSRFailed)
		if p.AbortOnRequestFailure || ctx.Err() != nil {
			return AbortEarly, err
		}
		l.Error("Error generating CSR", zap.Error(err))
		return ContinueWithWarning, err
	}
	report.advance(CSRGenerated)

	summary, err := bundle.Describe(p.Fs, files.CSRPath)
	if err != nil {
		l.Warn("Could not read back generated CSR", zap.String("csr_path", files.CSRPath), zap.Error(err))
	} else {
		l.Info("Successfully generated CSR", zap.String("csr_path", files.CSRPath),
			zap.String("common_name", summary.CommonName), zap.Strings("dns_names", summary.DNSNames))
	}
	return Continue, nil
}

// archive failures are reported and swallowed.
func (p *Pipeline) archive(ctx context.Context, report *Report, files models.OutputBundle) (Outcome, error) {
	l := zap.L().With(zax.Get(ctx)...)
	if err := p.Archiver.Archive(ctx, files.Dir, files.ArchivePath); err != nil {
		report.ArchiveErr = err
		l.Error("Error creating archive", zap.String("archive", files.ArchivePath), zap.Error(err))
		return ContinueWithWarning, err
	}
	return Continue, nil
}
