package toolkit

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/yuseferi/zax/v2"
	"go.uber.org/zap"
)

// DefaultBinary is the toolkit executable looked up on PATH.
const DefaultBinary = "openssl"

// DefaultKeyBits is the RSA modulus size passed to genrsa.
const DefaultKeyBits = 2048

// DefaultWaitDelay bounds how long a cancelled command may hold its output
// pipes open after being killed.
const DefaultWaitDelay = 2 * time.Second

// ExitError is returned when the toolkit ran but exited non-zero.
type ExitError struct {
	Command  string
	ExitCode int
	cause    error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
}

// Cause implements the pkg/errors causer interface.
func (e *ExitError) Cause() error { return e.cause }

// Unwrap supports errors.Is and errors.As.
func (e *ExitError) Unwrap() error { return e.cause }

// Runner executes an external command and waits for it to finish.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands as child processes with their output attached
// to the given writers.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
	// WaitDelay overrides DefaultWaitDelay when non-zero.
	WaitDelay time.Duration
}

// Run starts name and waits for it. A cancelled ctx kills the process and is
// reported in place of its exit status.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	l := zap.L().With(zax.Get(ctx)...)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}

	l.Debug("Executing command", zap.String("command", cmd.String()))
	err := cmd.Run()
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Wrapf(ctxErr, "running %s", name)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Command: cmd.String(), ExitCode: exitErr.ExitCode(), cause: err}
	}
	return errors.Wrapf(err, "running %s", name)
}

// Toolkit issues the OpenSSL subcommands needed to produce a key and request.
type Toolkit struct {
	Binary  string
	KeyBits int
	Runner  Runner
}

// New returns a Toolkit using binary. Empty values take the package defaults.
func New(binary string, keyBits int, runner Runner) *Toolkit {
	if binary == "" {
		binary = DefaultBinary
	}
	if keyBits <= 0 {
		keyBits = DefaultKeyBits
	}
	return &Toolkit{Binary: binary, KeyBits: keyBits, Runner: runner}
}

// KeyArgs is the argv (without the binary) for private key generation.
func (t *Toolkit) KeyArgs(keyPath string) []string {
	return []string{"genrsa", "-out", keyPath, strconv.Itoa(t.KeyBits)}
}

// RequestArgs is the argv (without the binary) for request generation.
func (t *Toolkit) RequestArgs(keyPath string, csrPath string, configPath string) []string {
	return []string{"req", "-new", "-key", keyPath, "-out", csrPath, "-config", configPath}
}

// GenerateKey writes a new RSA private key to keyPath.
func (t *Toolkit) GenerateKey(ctx context.Context, keyPath string) error {
	args := t.KeyArgs(keyPath)
	zap.L().With(zax.Get(ctx)...).Info("Generating private key", zap.String("command", t.commandLine(args)))
	return t.Runner.Run(ctx, t.Binary, args...)
}

// GenerateRequest writes a CSR for the key at keyPath using the config at configPath.
func (t *Toolkit) GenerateRequest(ctx context.Context, keyPath string, csrPath string, configPath string) error {
	args := t.RequestArgs(keyPath, csrPath, configPath)
	zap.L().With(zax.Get(ctx)...).Info("Generating CSR", zap.String("command", t.commandLine(args)))
	return t.Runner.Run(ctx, t.Binary, args...)
}

func (t *Toolkit) commandLine(args []string) string {
	return strings.Join(append([]string{t.Binary}, args...), " ")
}
