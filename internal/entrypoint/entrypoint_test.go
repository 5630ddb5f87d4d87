package entrypoint

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/wrouesnel/csrgen/pkg/bundle"

	. "gopkg.in/check.v1"
)

// Hook up gocheck into the "go test" runner.
func Test(t *testing.T) { TestingT(t) }

type FunctionalSuite struct {
	dir string
}

var _ = Suite(&FunctionalSuite{})

const answersFile = `server_name: example.com
country: US
state: California
city: San Francisco
organization: My Company
organizational_unit: IT Department
common_name: example.com
email: admin@example.com
`

func (s *FunctionalSuite) SetUpTest(c *C) {
	s.dir = c.MkDir()
	err := os.Chdir(s.dir)
	c.Assert(err, IsNil)
}

// fakeOpenSSL writes a shell script standing in for openssl. It copies the
// config it is given to captured.conf so tests can inspect it.
func (s *FunctionalSuite) fakeOpenSSL(c *C, failKey bool, failRequest bool) string {
	if _, err := exec.LookPath("sh"); err != nil {
		c.Skip("sh not available")
	}
	script := fmt.Sprintf(`#!/bin/sh
case "$1" in
genrsa)
	%s
	echo KEY > "$3"
	;;
req)
	cp "$8" captured.conf
	%s
	echo CSR > "$6"
	;;
esac
`, lo.Ternary(failKey, "exit 1", ":"), lo.Ternary(failRequest, "exit 2", ":"))

	path := filepath.Join(c.MkDir(), "openssl")
	c.Assert(os.WriteFile(path, []byte(script), 0755), IsNil)
	return path
}

func (s *FunctionalSuite) writeAnswers(c *C, extra string) {
	c.Assert(os.WriteFile("answers.yaml", []byte(answersFile+extra), 0644), IsNil)
}

func (s *FunctionalSuite) dirEntries(c *C) []string {
	dentries, err := os.ReadDir(s.dir)
	c.Assert(err, IsNil)
	return lo.Map(dentries, func(item os.DirEntry, index int) string {
		return item.Name()
	})
}

func exists(c *C, name string) bool {
	found, err := afero.Exists(afero.NewOsFs(), name)
	c.Assert(err, IsNil)
	return found
}

func (s *FunctionalSuite) TestSuccessfulRun(c *C) {
	s.writeAnswers(c, "")
	os.Args = []string{"csrgen", "--openssl=" + s.fakeOpenSSL(c, false, false), "--answers=answers.yaml"}

	err := Entrypoint(&bytes.Buffer{}, &bytes.Buffer{}, io.NopCloser(strings.NewReader("")))
	c.Assert(err, IsNil)

	c.Assert(exists(c, "example.com/example.com.key"), Equals, true)
	c.Assert(exists(c, "example.com/example.com.csr"), Equals, true)
	c.Assert(exists(c, "example.com.tar.gz"), Equals, true)
	c.Assert(exists(c, "cert-csr.conf"), Equals, false)

	captured, err := os.ReadFile("captured.conf")
	c.Assert(err, IsNil)
	c.Assert(strings.Contains(string(captured), "subjectAltName"), Equals, false)

	expectedFileNames := []string{"answers.yaml", "captured.conf", "example.com", "example.com.tar.gz"}
	c.Assert(lo.Without(s.dirEntries(c), expectedFileNames...), HasLen, 0, Commentf("Got extra files after generation"))
}

func (s *FunctionalSuite) TestInteractiveRun(c *C) {
	input := strings.Join([]string{
		"test", "US", "California", "San Francisco", "My Company", "IT Department", "test", "admin@example.com",
		"test.local", "",
	}, "\n") + "\n"
	stdOut := &bytes.Buffer{}
	os.Args = []string{"csrgen", "--openssl=" + s.fakeOpenSSL(c, false, false)}

	err := Entrypoint(stdOut, &bytes.Buffer{}, io.NopCloser(strings.NewReader(input)))
	c.Assert(err, IsNil)
	c.Assert(strings.Contains(stdOut.String(), "Enter Subject Alternative Name 2 (leave blank to skip): "), Equals, true)
	c.Assert(strings.Contains(stdOut.String(), "Subject Alternative Name 3"), Equals, false)

	captured, err := os.ReadFile("captured.conf")
	c.Assert(err, IsNil)
	c.Assert(strings.HasSuffix(string(captured), "[alt_names]\nDNS.1 = test.local\n"), Equals, true)
	c.Assert(exists(c, "test.tar.gz"), Equals, true)
}

func (s *FunctionalSuite) TestInputClosedIsFatal(c *C) {
	os.Args = []string{"csrgen", "--openssl=" + s.fakeOpenSSL(c, false, false)}
	err := Entrypoint(&bytes.Buffer{}, &bytes.Buffer{}, io.NopCloser(strings.NewReader("example.com\nUS\n")))
	c.Assert(err, NotNil)
	c.Assert(exists(c, "cert-csr.conf"), Equals, false)
	c.Assert(exists(c, "example.com"), Equals, false)
}

func (s *FunctionalSuite) TestKeyFailureAborts(c *C) {
	s.writeAnswers(c, "")
	os.Args = []string{"csrgen", "--openssl=" + s.fakeOpenSSL(c, true, false), "--answers=answers.yaml"}

	err := Entrypoint(&bytes.Buffer{}, &bytes.Buffer{}, io.NopCloser(strings.NewReader("")))
	c.Assert(err, NotNil)

	c.Assert(exists(c, "cert-csr.conf"), Equals, false)
	c.Assert(exists(c, "captured.conf"), Equals, false, Commentf("request generation must not run"))
	c.Assert(exists(c, "example.com.tar.gz"), Equals, false)
}

func (s *FunctionalSuite) TestRequestFailureStillArchives(c *C) {
	s.writeAnswers(c, "")
	os.Args = []string{"csrgen", "--openssl=" + s.fakeOpenSSL(c, false, true), "--answers=answers.yaml"}

	err := Entrypoint(&bytes.Buffer{}, &bytes.Buffer{}, io.NopCloser(strings.NewReader("")))
	c.Assert(err, IsNil)

	c.Assert(exists(c, "cert-csr.conf"), Equals, false)
	c.Assert(exists(c, "example.com/example.com.csr"), Equals, false)
	c.Assert(exists(c, "example.com.tar.gz"), Equals, true)
}

func (s *FunctionalSuite) TestRequestFailureAbortsWhenConfigured(c *C) {
	s.writeAnswers(c, "")
	os.Args = []string{"csrgen", "--openssl=" + s.fakeOpenSSL(c, false, true), "--answers=answers.yaml",
		"--abort-on-request-failure"}

	err := Entrypoint(&bytes.Buffer{}, &bytes.Buffer{}, io.NopCloser(strings.NewReader("")))
	c.Assert(err, NotNil)
	c.Assert(exists(c, "cert-csr.conf"), Equals, false)
	c.Assert(exists(c, "example.com.tar.gz"), Equals, false)
}

func (s *FunctionalSuite) TestNoArchive(c *C) {
	s.writeAnswers(c, "")
	os.Args = []string{"csrgen", "--openssl=" + s.fakeOpenSSL(c, false, false), "--answers=answers.yaml", "--no-archive"}

	err := Entrypoint(&bytes.Buffer{}, &bytes.Buffer{}, io.NopCloser(strings.NewReader("")))
	c.Assert(err, IsNil)
	c.Assert(exists(c, "example.com/example.com.key"), Equals, true)
	c.Assert(exists(c, "example.com.tar.gz"), Equals, false)
}

func (s *FunctionalSuite) TestOpenSSLEndToEnd(c *C) {
	if _, err := exec.LookPath("openssl"); err != nil {
		c.Skip("openssl not available")
	}
	s.writeAnswers(c, "")
	os.Args = []string{"csrgen", "--answers=answers.yaml"}

	err := Entrypoint(&bytes.Buffer{}, &bytes.Buffer{}, io.NopCloser(strings.NewReader("")))
	c.Assert(err, IsNil)

	c.Assert(exists(c, "example.com/example.com.key"), Equals, true)
	c.Assert(exists(c, "example.com/example.com.csr"), Equals, true)
	c.Assert(exists(c, "example.com.tar.gz"), Equals, true)
	c.Assert(exists(c, "cert-csr.conf"), Equals, false)

	summary, err := bundle.Describe(afero.NewOsFs(), "example.com/example.com.csr")
	c.Assert(err, IsNil)
	c.Assert(summary.CommonName, Equals, "example.com")
	c.Assert(summary.DNSNames, HasLen, 0)
}

func (s *FunctionalSuite) TestOpenSSLAlternativeNames(c *C) {
	if _, err := exec.LookPath("openssl"); err != nil {
		c.Skip("openssl not available")
	}
	s.writeAnswers(c, "alt_names:\n  - www.example.com\n  - api.example.com\n")
	os.Args = []string{"csrgen", "--answers=answers.yaml", "--no-archive"}

	err := Entrypoint(&bytes.Buffer{}, &bytes.Buffer{}, io.NopCloser(strings.NewReader("")))
	c.Assert(err, IsNil)

	summary, err := bundle.Describe(afero.NewOsFs(), "example.com/example.com.csr")
	c.Assert(err, IsNil)
	c.Assert(summary.DNSNames, DeepEquals, []string{"www.example.com", "api.example.com"})
}
