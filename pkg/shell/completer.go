package shell

import (
	"strings"

	"github.com/chzyer/readline"
)

// commands is the list of shell commands without the / prefix.
var commands = []string{
	"login",
	"tips",
	"add",
	"list",
	"session",
	"finish",
	"logout",
	"help",
	"quit",
	"exit",
}

// Completer completes command names and, after "/add ", the pending
// TIP names of the open session.
type Completer struct {
	pending func() []string
}

// NewCompleter creates a completer. pending may be nil.
func NewCompleter(pending func() []string) *Completer {
	return &Completer{pending: pending}
}

var _ readline.AutoCompleter = (*Completer)(nil)

// Do implements readline.AutoCompleter. It returns candidate suffixes and
// the rune length of the text they complete.
func (c *Completer) Do(line []rune, pos int) (newLine [][]rune, length int) {
	if len(line) == 0 || pos <= 0 {
		return nil, 0
	}
	if pos > len(line) {
		pos = len(line)
	}
	text := string(line[:pos])

	if rest, ok := strings.CutPrefix(text, "/add "); ok {
		return c.completeTIP(strings.TrimLeft(rest, " "))
	}

	word := text[findWordStart(text):]
	if strings.HasPrefix(word, "/") && word == text {
		return completeCommand(word)
	}
	return nil, 0
}

// findWordStart returns the index after the last space or tab in s.
func findWordStart(s string) int {
	return strings.LastIndexAny(s, " \t") + 1
}

func completeCommand(prefix string) ([][]rune, int) {
	name := strings.TrimPrefix(prefix, "/")
	var matches [][]rune
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, name) {
			matches = append(matches, []rune(cmd[len(name):]+" "))
		}
	}
	return matches, len([]rune(prefix))
}

// completeTIP matches the whole argument so far against pending TIPs,
// which may contain spaces.
func (c *Completer) completeTIP(prefix string) ([][]rune, int) {
	if c.pending == nil {
		return nil, 0
	}
	var matches [][]rune
	for _, tip := range c.pending() {
		if len(tip) >= len(prefix) && strings.EqualFold(tip[:len(prefix)], prefix) {
			matches = append(matches, []rune(tip[len(prefix):]+" "))
		}
	}
	return matches, len([]rune(prefix))
}
