package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/meshkv/internal/cli/config"
	"github.com/yndnr/meshkv/internal/cli/repl"
	kvcommand "github.com/yndnr/meshkv/internal/core/command"
)

// REPLCommand returns the repl command.
func REPLCommand() *cli.Command {
	return &cli.Command{
		Name:  "repl",
		Usage: "Start interactive mode",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "history",
				Usage: "history file (default ~/.meshkv/history, \"-\" disables)",
			},
		},
		Action: runREPL,
	}
}

func runREPL(c *cli.Context) error {
	s := GetSettings(c)
	cl, err := s.Dial(c.Context)
	if err != nil {
		return err
	}
	defer cl.Close()

	historyFile := s.Config.HistoryFile
	if f := c.String("history"); f != "" {
		historyFile = f
	}
	switch historyFile {
	case "":
		historyFile = config.DefaultHistoryPath()
	case "-":
		historyFile = ""
	}

	r := repl.New(cl, s.Formatter,
		repl.WithIO(stdin(c), stdout(c)),
		repl.WithPrompt(s.Conn.Server),
		repl.WithTimeout(s.Config.Timeout),
		repl.WithHistory(repl.NewHistory(historyFile)),
		repl.WithCompleter(repl.NewCompleter(kvcommand.Names())),
	)
	return r.Run(c.Context)
}
