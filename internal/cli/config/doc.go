// Package config provides meshkv-cli configuration.
//
// The file lives at ~/.meshkv/cli.yaml and holds the default server,
// the default output format and named connection profiles. Values are
// resolved in this order, later wins:
//
//   - built-in defaults
//   - the config file
//   - MESHKV_SERVER, MESHKV_OUTPUT and MESHKV_TIMEOUT
//   - command-line flags
package config
