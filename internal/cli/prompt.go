package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks for missing command input. Secrets are read without echo on a terminal.
type Prompter struct {
	in    *bufio.Reader
	out   io.Writer
	fd    int
	isTTY bool
}

// NewPrompter reads from in and writes prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
		p.isTTY = true
	}
	return p
}

// Line prompts for a visible value.
func (p *Prompter) Line(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	return p.readLine()
}

// Secret prompts for a value that must not be echoed.
func (p *Prompter) Secret(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	if !p.isTTY {
		return p.readLine()
	}
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return string(b), nil
}

// Fill prompts for *v when it is empty, then sanitizes the result.
func (p *Prompter) Fill(v *string, label string, secret bool) error {
	if *v == "" {
		var err error
		if secret {
			*v, err = p.Secret(label)
		} else {
			*v, err = p.Line(label)
		}
		if err != nil {
			return err
		}
	}

	if secret {
		if err := checkInput(*v); err != nil {
			return fmt.Errorf("invalid %s: %w", strings.ToLower(label), err)
		}
	} else {
		clean, err := SanitizeInput(*v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", strings.ToLower(label), err)
		}
		*v = strings.TrimSpace(clean)
	}

	if *v == "" {
		return fmt.Errorf("%s is required", strings.ToLower(label))
	}
	return nil
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("input error: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
