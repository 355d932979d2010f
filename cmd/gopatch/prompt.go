package main

import (
	"bufio"
	"io"
	"strings"

	"github.com/groboclown/gopatch/patch"
)

// terminalPrompter answers patch.Prompter questions against real
// standard input/output, falling back to each question's documented
// --batch default if the input stream is closed or unreadable (e.g.
// piped-in patch data with no interactive terminal behind it).
type terminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newTerminalPrompter(in io.Reader, out io.Writer) terminalPrompter {
	return terminalPrompter{in: bufio.NewReader(in), out: out}
}

func (p terminalPrompter) Confirm(kind patch.PromptKind, message string) (bool, error) {
	answer, err := p.readLine(message + " [y/n] ")
	if err != nil || answer == "" {
		return kind.BatchDefault(), nil
	}
	switch strings.ToLower(answer)[0] {
	case 'y':
		return true, nil
	case 'n':
		return false, nil
	default:
		return kind.BatchDefault(), nil
	}
}

func (p terminalPrompter) Ask(kind patch.PromptKind, message string) (string, error) {
	answer, err := p.readLine(message + " ")
	if err != nil {
		return "", nil
	}
	return answer, nil
}

func (p terminalPrompter) readLine(prompt string) (string, error) {
	if p.out != nil {
		if _, err := io.WriteString(p.out, prompt); err != nil {
			return "", err
		}
	}
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
