package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/meshkv/internal/cli/config"
	"github.com/yndnr/meshkv/internal/cli/output"
	"github.com/yndnr/meshkv/internal/infra/buildinfo"
	"github.com/yndnr/meshkv/internal/infra/tlsroots"
	"github.com/yndnr/meshkv/pkg/client"
)

const settingsKey = "settings"

// Settings is the resolved configuration shared by every command.
type Settings struct {
	Config     *config.CLIConfig
	ConfigPath string
	Conn       config.ConnectionConfig
	Format     output.Format
	Formatter  output.Formatter
}

// ClientOptions returns the dial options for the active connection.
func (s *Settings) ClientOptions() ([]client.Option, error) {
	opts := []client.Option{client.WithTimeout(s.Config.Timeout)}
	if s.Conn.TLS {
		var caFiles []string
		if s.Conn.CAFile != "" {
			caFiles = append(caFiles, s.Conn.CAFile)
		}
		tlsCfg, err := tlsroots.ClientConfig(caFiles, s.Conn.InsecureSkipVerify)
		if err != nil {
			return nil, err
		}
		opts = append(opts, client.WithTLS(tlsCfg))
	}
	return opts, nil
}

// Dial connects to the active server.
func (s *Settings) Dial(ctx context.Context) (*client.Client, error) {
	opts, err := s.ClientOptions()
	if err != nil {
		return nil, err
	}
	c, err := client.DialContext(ctx, s.Conn.Server, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", s.Conn.Server, err)
	}
	return c, nil
}

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:      "meshkv-cli",
		Usage:     "meshkv command-line client",
		UsageText: "meshkv-cli [global options] [command [args...]]",
		Version:   buildinfo.String(),
		Flags:     globalFlags(),
		Commands: []*cli.Command{
			ExecCommand(),
			PipeCommand(),
			REPLCommand(),
			BenchCommand(),
		},
		Before: func(c *cli.Context) error {
			s, err := resolveSettings(c)
			if err != nil {
				return err
			}
			c.App.Metadata[settingsKey] = s
			return nil
		},
		// Arguments without a subcommand are sent as one command;
		// no arguments start the REPL.
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				return runExec(c, c.Args().Slice())
			}
			return runREPL(c)
		},
		HideHelpCommand: true,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "CLI config file (default ~/.meshkv/cli.yaml)",
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "server address host:port or unix:/path (env " + config.EnvServer + ")",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: raw, json, yaml (env " + config.EnvOutput + ")",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "per-command timeout (env " + config.EnvTimeout + ")",
		},
		&cli.BoolFlag{
			Name:  "tls",
			Usage: "connect with TLS",
		},
		&cli.StringFlag{
			Name:  "cacert",
			Usage: "PEM file of a CA to trust, implies --tls",
		},
		&cli.BoolFlag{
			Name:  "insecure",
			Usage: "skip TLS certificate verification",
		},
	}
}

func resolveSettings(c *cli.Context) (*Settings, error) {
	path := c.String("config")
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := make(map[string]string, 3)
	for _, name := range []string{"server", "output"} {
		if c.IsSet(name) {
			flags[name] = c.String(name)
		}
	}
	if c.IsSet("timeout") {
		flags["timeout"] = c.Duration("timeout").String()
	}
	cfg, err = config.Merge(cfg, config.Environ(), flags)
	if err != nil {
		return nil, err
	}

	format, err := output.ParseFormat(cfg.DefaultOutput)
	if err != nil {
		return nil, err
	}

	conn := cfg.Active()
	if c.Bool("tls") {
		conn.TLS = true
	}
	if ca := c.String("cacert"); ca != "" {
		conn.TLS = true
		conn.CAFile = ca
	}
	if c.Bool("insecure") {
		conn.InsecureSkipVerify = true
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	return &Settings{
		Config:     cfg,
		ConfigPath: path,
		Conn:       conn,
		Format:     format,
		Formatter:  output.NewFormatter(format),
	}, nil
}

// GetSettings retrieves the resolved settings from context.
func GetSettings(c *cli.Context) *Settings {
	if s, ok := c.App.Metadata[settingsKey].(*Settings); ok {
		return s
	}
	return nil
}

func stdout(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

func stderr(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}

func stdin(c *cli.Context) io.Reader {
	if c.App.Reader != nil {
		return c.App.Reader
	}
	return os.Stdin
}
