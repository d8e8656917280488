package repl

import (
	"sort"
	"strings"
)

// Built-in REPL commands.
var builtins = []string{"help", "exit", "quit"}

// Completer provides command completion for the REPL.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer over the server command names plus
// the REPL built-ins.
func NewCompleter(names []string) *Completer {
	seen := make(map[string]bool, len(names)+len(builtins))
	cmds := make([]string, 0, len(names)+len(builtins))
	for _, n := range append(append([]string(nil), names...), builtins...) {
		n = strings.ToLower(n)
		if !seen[n] {
			seen[n] = true
			cmds = append(cmds, n)
		}
	}
	sort.Strings(cmds)
	return &Completer{commands: cmds}
}

// Complete returns the commands starting with prefix, ignoring case.
// Suggestions are upper-cased when the prefix is.
func (c *Completer) Complete(prefix string) []string {
	lower := strings.ToLower(prefix)
	upper := prefix != "" && prefix == strings.ToUpper(prefix) && prefix != lower

	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, lower) {
			if upper {
				cmd = strings.ToUpper(cmd)
			}
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}

// Commands returns every completable command.
func (c *Completer) Commands() []string {
	return append([]string(nil), c.commands...)
}
