package bundle

import (
	"context"
	"crypto/x509"
	"encoding/pem"

	"github.com/chigopher/pathlib"
	"github.com/mholt/archiver"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/yuseferi/zax/v2"
	"go.uber.org/zap"
)

var ErrNoCSRFound = errors.New("No CSR request found in specified file")

const csrPEMBlockType = "CERTIFICATE REQUEST"

// Archiver packages an output directory into a single file.
type Archiver interface {
	Archive(ctx context.Context, dir string, dest string) error
}

// TarGzArchiver writes gzip-compressed tarballs whose root entry is the base
// name of the archived directory.
type TarGzArchiver struct {
	CompressionLevel int
}

// NewTarGzArchiver returns an archiver using the default gzip level.
func NewTarGzArchiver() *TarGzArchiver {
	return &TarGzArchiver{CompressionLevel: archiver.NewTarGz().CompressionLevel}
}

func (a *TarGzArchiver) Archive(ctx context.Context, dir string, dest string) error {
	l := zap.L().With(zax.Get(ctx)...)
	if err := ctx.Err(); err != nil {
		return err
	}

	tgz := archiver.NewTarGz()
	tgz.CompressionLevel = a.CompressionLevel
	tgz.OverwriteExisting = true

	l.Info("Creating archive", zap.String("archive", dest), zap.String("source", dir))
	if err := tgz.Archive([]string{dir}, dest); err != nil {
		return errors.Wrapf(err, "creating archive %s", dest)
	}
	l.Info("Successfully created archive", zap.String("archive", dest))
	return nil
}

// Summary is the identity found in a generated request.
type Summary struct {
	CommonName string
	DNSNames   []string
}

// Describe parses the PEM request at path.
func Describe(fs afero.Fs, path string) (Summary, error) {
	csrBytes, err := pathlib.NewPath(path, pathlib.PathWithAfero(fs)).ReadFile()
	if err != nil {
		return Summary{}, errors.Wrapf(err, "reading request %s", path)
	}

	for {
		var block *pem.Block
		block, csrBytes = pem.Decode(csrBytes)
		if block == nil {
			return Summary{}, ErrNoCSRFound
		}
		if block.Type != csrPEMBlockType {
			continue
		}
		csr, err := x509.ParseCertificateRequest(block.Bytes)
		if err != nil {
			return Summary{}, errors.Wrapf(err, "parsing request %s", path)
		}
		return Summary{CommonName: csr.Subject.CommonName, DNSNames: csr.DNSNames}, nil
	}
}
