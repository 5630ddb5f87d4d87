package storage

import (
	"os"

	"github.com/chigopher/pathlib"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const DirPermissions = 0755
const ConfigPermissions = 0600

// EnsureOutputDir creates dir and any parents. An existing directory is not an error.
func EnsureOutputDir(fs afero.Fs, dir string) error {
	l := zap.L()
	if err := fs.MkdirAll(dir, os.FileMode(DirPermissions)); err != nil {
		l.Error("Error creating output directory", zap.String("output_dir", dir), zap.Error(err))
		return errors.Wrapf(err, "creating output directory %s", dir)
	}
	l.Info("Created output directory", zap.String("output_dir", dir))
	return nil
}

// ConfigDocument is the temporary OpenSSL configuration file. It exists on
// disk from WriteConfigDocument until Release.
type ConfigDocument struct {
	fs       afero.Fs
	path     *pathlib.Path
	released bool
}

// WriteConfigDocument writes content to path and returns a handle which must be released.
func WriteConfigDocument(fs afero.Fs, path string, content string) (*ConfigDocument, error) {
	l := zap.L()
	configPath := pathlib.NewPath(path, pathlib.PathWithAfero(fs))
	if err := configPath.WriteFileMode([]byte(content), os.FileMode(ConfigPermissions)); err != nil {
		l.Error("Writing configuration file failed", zap.String("config_file", path), zap.Error(err))
		return nil, errors.Wrapf(err, "writing configuration file %s", path)
	}
	l.Info("Created configuration file", zap.String("config_file", configPath.String()))
	return &ConfigDocument{fs: fs, path: configPath}, nil
}

// Path returns the file name of the document.
func (d *ConfigDocument) Path() string {
	return d.path.String()
}

// Release removes the document. It is safe to call more than once; only the
// first call touches the filesystem.
func (d *ConfigDocument) Release() error {
	if d == nil || d.released {
		return nil
	}
	d.released = true

	l := zap.L()
	exists, err := d.path.Exists()
	if err != nil {
		l.Error("Filesystem access error", zap.Error(err))
		return err
	}
	if !exists {
		l.Debug("Configuration file already gone", zap.String("config_file", d.Path()))
		return nil
	}

	if err := d.fs.Remove(d.Path()); err != nil {
		l.Error("Removing configuration file failed", zap.String("config_file", d.Path()), zap.Error(err))
		return errors.Wrapf(err, "removing configuration file %s", d.Path())
	}
	l.Info("Removed temporary configuration file", zap.String("config_file", d.Path()))
	return nil
}
