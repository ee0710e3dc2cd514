package shell

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// Prompter asks the user to confirm an action such as overwriting a file.
type Prompter interface {
	Confirm(message string) (bool, error)
}

// InteractivePrompter reads answers line by line from a reader.
type InteractivePrompter struct {
	scanner *bufio.Scanner
	writer  io.Writer
}

// NewInteractivePrompter creates a prompter over r and w.
func NewInteractivePrompter(r io.Reader, w io.Writer) *InteractivePrompter {
	return &InteractivePrompter{scanner: bufio.NewScanner(r), writer: w}
}

// Confirm prints message with " [y/N]: " and reports whether the answer
// was "y" or "yes". EOF counts as no.
func (p *InteractivePrompter) Confirm(message string) (bool, error) {
	fmt.Fprintf(p.writer, "%s [y/N]: ", message)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return false, fmt.Errorf("failed to read confirmation: %w", err)
		}
		return false, nil
	}
	return isYes(p.scanner.Text()), nil
}

func isYes(answer string) bool {
	a := strings.ToLower(strings.TrimSpace(answer))
	return a == "y" || a == "yes"
}

// readlinePrompter asks through the shell's readline instance so the
// answer does not race the line editor for stdin.
type readlinePrompter struct {
	rl     *readline.Instance
	prompt func() string
}

func (p *readlinePrompter) Confirm(message string) (bool, error) {
	p.rl.SetPrompt(message + " [y/N]: ")
	defer p.rl.SetPrompt(p.prompt())

	line, err := p.rl.Readline()
	if err == readline.ErrInterrupt || err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return isYes(line), nil
}

var (
	_ Prompter = (*InteractivePrompter)(nil)
	_ Prompter = (*readlinePrompter)(nil)
)
