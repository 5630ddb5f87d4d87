package models

import (
	"fmt"
	"path/filepath"
)

// MaxAlternativeNames is the number of SAN slots offered to the user.
const MaxAlternativeNames = 10

// SubjectInfo holds the distinguished name fields of a request. Fields are
// free text and may be blank.
type SubjectInfo struct {
	Country            string `yaml:"country"`
	State              string `yaml:"state"`
	City               string `yaml:"city"`
	Organization       string `yaml:"organization"`
	OrganizationalUnit string `yaml:"organizational_unit"`
	CommonName         string `yaml:"common_name"`
	Email              string `yaml:"email"`
}

// AlternativeNames is the ordered list of DNS subject alternative names.
type AlternativeNames []string

// Truncate applies the collection rules to an arbitrary list: it stops at the
// first blank entry and never keeps more than MaxAlternativeNames.
func (a AlternativeNames) Truncate() AlternativeNames {
	out := AlternativeNames{}
	for _, name := range a {
		if name == "" || len(out) == MaxAlternativeNames {
			break
		}
		out = append(out, name)
	}
	return out
}

// Request is everything collected from the user for one server.
type Request struct {
	ServerName       string
	Subject          SubjectInfo
	AlternativeNames AlternativeNames
}

// OutputBundle names the files produced for one server.
type OutputBundle struct {
	Dir         string
	KeyPath     string
	CSRPath     string
	ArchivePath string
}

// NewOutputBundle lays out the bundle for serverName under the configured output root.
func NewOutputBundle(filenameConfig FilenameConfig, serverName string) OutputBundle {
	dir := filepath.Join(filenameConfig.OutputRoot, serverName)
	return OutputBundle{
		Dir:         dir,
		KeyPath:     filepath.Join(dir, fmt.Sprintf("%s.%s", serverName, filenameConfig.KeyFileExt)),
		CSRPath:     filepath.Join(dir, fmt.Sprintf("%s.%s", serverName, filenameConfig.RequestFileExt)),
		ArchivePath: filepath.Join(filenameConfig.OutputRoot, fmt.Sprintf("%s.%s", serverName, filenameConfig.ArchiveFileExt)),
	}
}

// ConfigDocumentPath is where the temporary OpenSSL configuration is written.
func ConfigDocumentPath(filenameConfig FilenameConfig) string {
	return filepath.Join(filenameConfig.OutputRoot, filenameConfig.ConfigFileName)
}
