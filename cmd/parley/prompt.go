package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// prompter asks for credentials on the terminal.
type prompter struct {
	in           *bufio.Reader
	out          io.Writer
	readPassword func() (string, error)
}

// newTerminalPrompter reads from stdin and writes prompts to stderr.
// Passwords are read without echo when stdin is a terminal.
func newTerminalPrompter() *prompter {
	p := &prompter{in: bufio.NewReader(os.Stdin), out: os.Stderr}
	fd := int(os.Stdin.Fd())
	p.readPassword = func() (string, error) {
		if !term.IsTerminal(fd) {
			return p.readLine()
		}
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(p.out)
		return string(b), err
	}
	return p
}

func (p *prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	s, err := p.readLine()
	return strings.TrimSpace(s), err
}

func (p *prompter) password(label string) (string, error) {
	fmt.Fprint(p.out, label)
	return p.readPassword()
}
