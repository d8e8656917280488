// Package output renders meshkv replies and reports for meshkv-cli.
//
// Formats:
//
//   - raw: redis-cli style, one line per element
//   - json: indented JSON
//   - yaml: YAML
//
// Frames are converted to plain Go values with Value before JSON or YAML
// encoding.
package output
