package command

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/meshkv/internal/cli/repl"
	"github.com/yndnr/meshkv/pkg/client"
	"github.com/yndnr/meshkv/pkg/resp"
)

// pipeBatch is the number of commands sent per round trip by pipe.
const pipeBatch = 1000

// ExecCommand returns the exec command.
func ExecCommand() *cli.Command {
	return &cli.Command{
		Name:      "exec",
		Usage:     "Send one command and print the reply",
		ArgsUsage: "COMMAND [ARG...]",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("exec: missing command", 2)
			}
			return runExec(c, c.Args().Slice())
		},
	}
}

// PipeCommand returns the pipe command.
func PipeCommand() *cli.Command {
	return &cli.Command{
		Name:  "pipe",
		Usage: "Read commands from stdin, one per line, and pipeline them",
		Action: func(c *cli.Context) error {
			return runPipe(c)
		},
	}
}

// runExec sends args and prints the reply. An error reply exits with
// status 1.
func runExec(c *cli.Context, args []string) error {
	s := GetSettings(c)
	cl, err := s.Dial(c.Context)
	if err != nil {
		return err
	}
	defer cl.Close()

	f, err := cl.Do(c.Context, args...)
	var serr *client.ServerError
	if err != nil && !errors.As(err, &serr) {
		return err
	}
	if ferr := s.Formatter.Format(stdout(c), f); ferr != nil {
		return ferr
	}
	if serr != nil {
		return cli.Exit("", 1)
	}
	return nil
}

func runPipe(c *cli.Context) error {
	s := GetSettings(c)
	cl, err := s.Dial(c.Context)
	if err != nil {
		return err
	}
	defer cl.Close()

	var (
		batch  [][]string
		failed int
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		replies, err := cl.Pipeline(c.Context, batch)
		if err != nil {
			return err
		}
		for _, f := range replies {
			if f.IsError() {
				failed++
			}
			if err := s.Formatter.Format(stdout(c), f); err != nil {
				return err
			}
		}
		batch = batch[:0]
		return nil
	}

	scanner := bufio.NewScanner(stdin(c))
	scanner.Buffer(make([]byte, 0, 64<<10), resp.DefaultMaxBulkLen)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		args, err := repl.SplitArgs(text)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		batch = append(batch, args)
		if len(batch) >= pipeBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	if err := flush(); err != nil {
		return err
	}
	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d command(s) failed", failed), 1)
	}
	return nil
}
