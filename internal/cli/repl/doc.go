// Package repl provides the interactive mode of meshkv-cli.
//
// Each line is split into arguments the way redis-cli does (double
// quotes with escapes, single quotes verbatim), sent to the server and
// the reply printed with the selected output formatter. The built-ins
// help, exit and quit are handled locally. History persists to
// ~/.meshkv/history.
package repl
