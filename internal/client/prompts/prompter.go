// Package prompts reads credentials and confirmations from the user
package prompts

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks questions on out and reads answers from in.
// Secrets are read without echo when in is a terminal.
type Prompter struct {
	in     *bufio.Reader
	out    io.Writer
	fd     int
	isTerm bool
}

// New returns a Prompter reading from in
func New(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
		p.isTerm = true
	}
	return p
}

// Line reads one trimmed line; empty answers are rejected
func (p *Prompter) Line(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	answer, err := p.readLine()
	if err != nil {
		return "", err
	}
	if answer == "" {
		return "", fmt.Errorf("%s cannot be empty", strings.ToLower(label))
	}
	return answer, nil
}

// Secret reads a line without echo when possible
func (p *Prompter) Secret(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	if !p.isTerm {
		answer, err := p.readLine()
		if err != nil {
			return "", err
		}
		if answer == "" {
			return "", fmt.Errorf("%s cannot be empty", strings.ToLower(label))
		}
		return answer, nil
	}

	raw, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("%s cannot be empty", strings.ToLower(label))
	}
	return string(raw), nil
}

// Confirm asks before a mutating action; only y and yes accept
func (p *Prompter) Confirm(action, serverURL string) bool {
	fmt.Fprintf(p.out, "%s on %s? [y/N]: ", action, serverURL)
	answer, err := p.readLine()
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", errors.New("no input")
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
