package tlsroots

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher serves a certificate pair and reloads it when either file
// changes. A failed reload keeps the previous certificate.
type Watcher struct {
	certFile string
	keyFile  string
	cert     atomic.Pointer[tls.Certificate]
	logger   *slog.Logger
	settle   time.Duration
	reloads  atomic.Int64
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets the logger for the watcher.
func WithLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithSettle sets how long the files must stay unchanged before a
// reload, so a cert and key written one after the other load together.
func WithSettle(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.settle = d
	}
}

// NewWatcher loads the key pair and returns a watcher serving it.
func NewWatcher(certFile, keyFile string, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		certFile: certFile,
		keyFile:  keyFile,
		logger:   slog.Default(),
		settle:   500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.Reload(); err != nil {
		return nil, fmt.Errorf("tlsroots: initial load: %w", err)
	}
	return w, nil
}

// ServerConfig returns a server TLS config that always presents the
// current certificate.
func (w *Watcher) ServerConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: w.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
}

// GetCertificate returns the current certificate.
// This implements tls.Config.GetCertificate.
func (w *Watcher) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return w.cert.Load(), nil
}

// Reload reads the key pair from disk.
func (w *Watcher) Reload() error {
	cert, err := tls.LoadX509KeyPair(w.certFile, w.keyFile)
	if err != nil {
		return fmt.Errorf("load key pair: %w", err)
	}
	w.cert.Store(&cert)
	w.reloads.Add(1)
	return nil
}

// Run watches the certificate directories until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tlsroots: create watcher: %w", err)
	}
	defer fsw.Close()

	// Directories, not files, so editors that replace the file by
	// rename keep being observed.
	certDir, keyDir := filepath.Dir(w.certFile), filepath.Dir(w.keyFile)
	if err := fsw.Add(certDir); err != nil {
		return fmt.Errorf("tlsroots: watch %s: %w", certDir, err)
	}
	if keyDir != certDir {
		if err := fsw.Add(keyDir); err != nil {
			return fmt.Errorf("tlsroots: watch %s: %w", keyDir, err)
		}
	}
	w.logger.Info("certificate watcher started", "cert_file", w.certFile, "key_file", w.keyFile)

	certPath, keyPath := filepath.Clean(w.certFile), filepath.Clean(w.keyFile)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			name := filepath.Clean(event.Name)
			if name != certPath && name != keyPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("certificate file changed", "file", event.Name, "op", event.Op.String())
			timer.Reset(w.settle)

		case <-timer.C:
			if err := w.Reload(); err != nil {
				w.logger.Error("certificate reload failed", "error", err, "cert_file", w.certFile)
				continue
			}
			w.logger.Info("certificate reloaded", "cert_file", w.certFile)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("certificate watcher error", "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}
