// Package command defines the meshkv-cli commands using urfave/cli/v2.
//
//   - root.go: application, global flags and settings resolution
//   - exec.go: one-shot commands and stdin pipelines
//   - repl.go: interactive mode (the default without arguments)
//   - bench.go: load generator over a connection pool
package command
