package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/yndnr/meshkv/internal/cli/output"
	"github.com/yndnr/meshkv/pkg/client"
	"github.com/yndnr/meshkv/pkg/resp"
)

// Executor sends one command to the server.
type Executor interface {
	Do(ctx context.Context, args ...string) (resp.Frame, error)
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	prompt    string
	timeout   time.Duration
	exec      Executor
	formatter output.Formatter
	completer *Completer
	history   *History
}

// Option configures a REPL.
type Option func(*REPL)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.input = in
		r.output = out
	}
}

// WithPrompt sets the prompt, usually the server address.
func WithPrompt(prompt string) Option {
	return func(r *REPL) { r.prompt = prompt }
}

// WithHistory sets the history store.
func WithHistory(h *History) Option {
	return func(r *REPL) { r.history = h }
}

// WithCompleter sets the completer used by help.
func WithCompleter(c *Completer) Option {
	return func(r *REPL) { r.completer = c }
}

// WithTimeout bounds each command. 0 means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *REPL) { r.timeout = d }
}

// New creates a REPL sending commands to exec and printing replies
// with f.
func New(exec Executor, f output.Formatter, opts ...Option) *REPL {
	r := &REPL{
		input:     os.Stdin,
		output:    os.Stdout,
		prompt:    "meshkv",
		exec:      exec,
		formatter: f,
		completer: NewCompleter(nil),
		history:   NewHistory(""),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts the REPL loop. It returns on exit, quit, end of input,
// ctx cancellation or a connection failure.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.history.Load(); err != nil {
		fmt.Fprintf(r.output, "warning: load history: %v\n", err)
	}
	defer func() {
		if err := r.history.Save(); err != nil {
			fmt.Fprintf(r.output, "warning: save history: %v\n", err)
		}
	}()

	reader := bufio.NewReader(r.input)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprintf(r.output, "%s> ", r.prompt)

		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := errors.Is(err, io.EOF)

		line = strings.TrimSpace(line)
		if line == "" {
			if eof {
				fmt.Fprintln(r.output)
				return nil
			}
			continue
		}
		r.history.Add(line)

		done, err := r.execute(ctx, line)
		if err != nil {
			return err
		}
		if done || eof {
			return nil
		}
	}
}

// execute runs one line. It reports whether the loop should stop and
// returns an error only when the connection is no longer usable.
func (r *REPL) execute(ctx context.Context, line string) (bool, error) {
	args, err := SplitArgs(line)
	if err != nil {
		fmt.Fprintf(r.output, "Error: %v\n", err)
		return false, nil
	}

	switch strings.ToLower(args[0]) {
	case "exit", "quit":
		return true, nil
	case "help":
		r.help()
		return false, nil
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	f, err := r.exec.Do(ctx, args...)
	var serr *client.ServerError
	switch {
	case err == nil, errors.As(err, &serr):
	case errors.Is(err, client.ErrClosed):
		return true, err
	default:
		fmt.Fprintf(r.output, "Error: %v\n", err)
		return false, nil
	}
	if err := r.formatter.Format(r.output, f); err != nil {
		fmt.Fprintf(r.output, "Error: %v\n", err)
	}
	return false, nil
}

func (r *REPL) help() {
	fmt.Fprintln(r.output, "Commands:")
	for _, c := range r.completer.Commands() {
		fmt.Fprintf(r.output, "  %s\n", c)
	}
}
