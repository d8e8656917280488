// Package tlsroots manages TLS material for meshkv.
//
//   - roots.go: client configs trusting the system roots plus custom CAs
//   - watcher.go: server certificate hot reload via fsnotify
package tlsroots
