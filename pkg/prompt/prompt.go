package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/wrouesnel/csrgen/pkg/models"
	"github.com/yuseferi/zax/v2"
	"go.uber.org/zap"
)

// ErrInputClosed is returned when input ends before a question is answered.
var ErrInputClosed = errors.New("input closed before all fields were collected")

// Prompter asks a single free-text question.
type Prompter interface {
	Prompt(label string) (string, error)
}

// LinePrompter reads answers one line at a time. It works with pipes and files.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLinePrompter writes labels to out and reads answers from in.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

// Prompt writes label and returns the next line with surrounding whitespace removed.
func (p *LinePrompter) Prompt(label string) (string, error) {
	if _, err := fmt.Fprintf(p.out, "%s: ", label); err != nil {
		return "", errors.Wrap(err, "writing prompt")
	}
	line, err := p.in.ReadString('\n')
	switch {
	case err == io.EOF && line == "":
		return "", ErrInputClosed
	case err != nil && err != io.EOF:
		return "", errors.Wrap(err, "reading answer")
	}
	return strings.TrimSpace(line), nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// TerminalPrompter renders prompts with promptui. It requires a terminal.
type TerminalPrompter struct {
	Stdin  io.ReadCloser
	Stdout io.WriteCloser
}

func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{Stdin: io.NopCloser(in), Stdout: nopWriteCloser{out}}
}

func (p *TerminalPrompter) Prompt(label string) (string, error) {
	result, err := (&promptui.Prompt{
		Label:  label,
		Stdin:  p.Stdin,
		Stdout: p.Stdout,
	}).Run()
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return "", ErrInputClosed
	}
	if err != nil {
		return "", errors.Wrap(err, "reading answer")
	}
	return strings.TrimSpace(result), nil
}

// NewPrompter picks the terminal prompter when in is a TTY and the line
// prompter otherwise.
func NewPrompter(in io.Reader, out io.Writer) Prompter {
	if f, ok := in.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return NewTerminalPrompter(in, out)
	}
	return NewLinePrompter(in, out)
}

// Collect asks for the server name, the subject fields and up to
// models.MaxAlternativeNames DNS names, stopping at the first blank name.
func Collect(ctx context.Context, p Prompter) (models.Request, error) {
	l := zap.L().With(zax.Get(ctx)...)
	req := models.Request{AlternativeNames: models.AlternativeNames{}}

	ask := func(label string, dst *string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		answer, err := p.Prompt(label)
		if err != nil {
			return err
		}
		*dst = answer
		return nil
	}

	fields := []struct {
		label string
		dst   *string
	}{
		{"Enter the server name (e.g., example.com)", &req.ServerName},
		{"Enter the Country Code (e.g., US)", &req.Subject.Country},
		{"Enter the State or Province (e.g., California)", &req.Subject.State},
		{"Enter the Locality or City (e.g., San Francisco)", &req.Subject.City},
		{"Enter the Organization Name (e.g., My Company)", &req.Subject.Organization},
		{"Enter the Organizational Unit (e.g., IT Department)", &req.Subject.OrganizationalUnit},
	}
	for _, field := range fields {
		if err := ask(field.label, field.dst); err != nil {
			return req, errors.Wrap(err, "collecting subject")
		}
	}

	if err := ask(fmt.Sprintf("Enter the Common Name (e.g., %s)", req.ServerName), &req.Subject.CommonName); err != nil {
		return req, errors.Wrap(err, "collecting subject")
	}
	if err := ask("Enter the Email Address (e.g., admin@example.com)", &req.Subject.Email); err != nil {
		return req, errors.Wrap(err, "collecting subject")
	}

	for i := 1; i <= models.MaxAlternativeNames; i++ {
		var san string
		if err := ask(fmt.Sprintf("Enter Subject Alternative Name %d (leave blank to skip)", i), &san); err != nil {
			return req, errors.Wrap(err, "collecting alternative names")
		}
		if san == "" {
			break
		}
		req.AlternativeNames = append(req.AlternativeNames, san)
	}

	l.Debug("Collected request", zap.String("server_name", req.ServerName),
		zap.Strings("alt_names", req.AlternativeNames))
	return req, nil
}
