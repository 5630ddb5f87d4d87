package models

// FilenameConfig carries the filename configuration for emitting request bundles
type FilenameConfig struct {
	OutputRoot string `help:"Directory the server bundle, archive and temporary config are written under" default:"."`

	ConfigFileName string `help:"Name of the temporary OpenSSL configuration file" default:"cert-csr.conf"`

	KeyFileExt     string `help:"File extension to add to private keys" default:"key"`
	RequestFileExt string `help:"Certificate Request file extension" default:"csr"`
	ArchiveFileExt string `help:"Archive file extension. Must be tar.gz or tgz." default:"tar.gz"`
}

// DefaultFilenameConfig returns the filename configuration matching the CLI defaults.
func DefaultFilenameConfig() FilenameConfig {
	return FilenameConfig{
		OutputRoot:     ".",
		ConfigFileName: "cert-csr.conf",
		KeyFileExt:     "key",
		RequestFileExt: "csr",
		ArchiveFileExt: "tar.gz",
	}
}
