//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/integralist/go-findroot/find"
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binName = "csrgen"

const versionVar = "github.com/wrouesnel/csrgen/version.Version"

var Default = All //nolint:gochecknoglobals

// chdirRoot moves to the repository root so relative package paths resolve.
func chdirRoot() (string, error) {
	root, err := find.Repo()
	if err != nil {
		return "", err
	}
	return root.Path, os.Chdir(root.Path)
}

func gitVersion() string {
	out, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || out == "" {
		return "development"
	}
	return out
}

// Build compiles the csrgen binary into bin/.
func Build() error {
	root, err := chdirRoot()
	if err != nil {
		return err
	}
	ldflags := fmt.Sprintf("-X %s=%s", versionVar, gitVersion())
	return sh.RunV("go", "build", "-ldflags", ldflags, "-o", filepath.Join(root, "bin", binName), "./cmd/csrgen")
}

// Test runs the package test suites.
func Test() error {
	if _, err := chdirRoot(); err != nil {
		return err
	}
	return sh.RunV("go", "test", "-v", "./...")
}

// Lint runs go vet.
func Lint() error {
	if _, err := chdirRoot(); err != nil {
		return err
	}
	return sh.RunV("go", "vet", "./...")
}

// All lints, tests and builds.
func All() {
	mg.SerialDeps(Lint, Test, Build)
}

// Clean removes build output.
func Clean() error {
	root, err := chdirRoot()
	if err != nil {
		return err
	}
	return sh.Rm(filepath.Join(root, "bin"))
}
