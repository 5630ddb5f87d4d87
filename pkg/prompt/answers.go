package prompt

import (
	"bytes"

	"github.com/chigopher/pathlib"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/wrouesnel/csrgen/pkg/models"
	"gopkg.in/yaml.v3"
)

// Answers is the on-disk form of a pre-answered request.
type Answers struct {
	ServerName         string `yaml:"server_name"`
	models.SubjectInfo `yaml:",inline"`
	AltNames           []string `yaml:"alt_names"`
}

// LoadAnswers reads a YAML answers file. Alternative names follow the same
// rules as interactive collection.
func LoadAnswers(fs afero.Fs, path string) (models.Request, error) {
	content, err := pathlib.NewPath(path, pathlib.PathWithAfero(fs)).ReadFile()
	if err != nil {
		return models.Request{}, errors.Wrapf(err, "reading answers file %s", path)
	}

	answers := Answers{}
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(&answers); err != nil {
		return models.Request{}, errors.Wrapf(err, "parsing answers file %s", path)
	}

	return models.Request{
		ServerName:       answers.ServerName,
		Subject:          answers.SubjectInfo,
		AlternativeNames: models.AlternativeNames(answers.AltNames).Truncate(),
	}, nil
}
