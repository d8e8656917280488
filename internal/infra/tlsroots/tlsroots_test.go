package tlsroots

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// writeCert writes a self-signed certificate for localhost with the
// given serial number.
func writeCert(t *testing.T, certFile, keyFile string, serial int64) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(serial),
		Subject:               pkix.Name{CommonName: "meshkv test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.IPv4(127, 0, 0, 1)},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	if err := os.WriteFile(keyFile, keyPEM, 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(certFile, certPEM, 0644); err != nil {
		t.Fatal(err)
	}
}

func serialOf(t *testing.T, w *Watcher) int64 {
	t.Helper()
	cert, _ := w.GetCertificate(nil)
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		t.Fatal(err)
	}
	return leaf.SerialNumber.Int64()
}

func TestAppendPEM(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key")
	writeCert(t, certFile, keyFile, 1)

	certPEM, _ := os.ReadFile(certFile)
	keyPEM, _ := os.ReadFile(keyFile)

	if err := AppendPEM(x509.NewCertPool(), append(keyPEM, certPEM...)); err != nil {
		t.Errorf("AppendPEM() error = %v", err)
	}
	if err := AppendPEM(x509.NewCertPool(), keyPEM); !errors.Is(err, ErrNoCertsFound) {
		t.Errorf("AppendPEM(key only) error = %v, want ErrNoCertsFound", err)
	}
	if err := AppendPEM(x509.NewCertPool(), []byte("not pem")); !errors.Is(err, ErrNoCertsFound) {
		t.Errorf("AppendPEM(garbage) error = %v, want ErrNoCertsFound", err)
	}

	bad := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte("junk")})
	if err := AppendPEM(x509.NewCertPool(), bad); err == nil || errors.Is(err, ErrNoCertsFound) {
		t.Errorf("AppendPEM(bad der) error = %v, want parse error", err)
	}
}

func TestClientConfig(t *testing.T) {
	cfg, err := ClientConfig(nil, true)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RootCAs != nil || !cfg.InsecureSkipVerify || cfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("ClientConfig(nil) = %+v", cfg)
	}

	if _, err := ClientConfig([]string{filepath.Join(t.TempDir(), "missing.crt")}, false); err == nil {
		t.Error("ClientConfig() should fail for a missing CA file")
	}
}

func TestNewWatcher_Errors(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key")

	if _, err := NewWatcher(certFile, keyFile); err == nil {
		t.Error("NewWatcher() should fail for missing files")
	}

	_ = os.WriteFile(certFile, []byte("invalid"), 0644)
	_ = os.WriteFile(keyFile, []byte("invalid"), 0600)
	if _, err := NewWatcher(certFile, keyFile); err == nil {
		t.Error("NewWatcher() should fail for invalid files")
	}
}

func TestWatcher_Handshake(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key")
	writeCert(t, certFile, keyFile, 7)

	w, err := NewWatcher(certFile, keyFile, WithLogger(quiet))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	ln, err := tls.Listen("tcp", "127.0.0.1:0", w.ServerConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		_, _ = io.Copy(c, c)
	}()

	clientCfg, err := ClientConfig([]string{certFile}, false)
	if err != nil {
		t.Fatalf("ClientConfig() error = %v", err)
	}
	conn, err := tls.Dial("tcp", ln.Addr().String(), clientCfg)
	if err != nil {
		t.Fatalf("tls.Dial() error = %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("+PING\r\n")); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 7)
	if _, err := io.ReadFull(conn, buf); err != nil || !bytes.Equal(buf, []byte("+PING\r\n")) {
		t.Errorf("echo = %q, %v", buf, err)
	}
	if got := conn.ConnectionState().PeerCertificates[0].SerialNumber.Int64(); got != 7 {
		t.Errorf("peer serial = %d, want 7", got)
	}
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key")
	writeCert(t, certFile, keyFile, 1)

	w, err := NewWatcher(certFile, keyFile, WithLogger(quiet), WithSettle(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run() error = %v", err)
		}
	}()

	// Let the watcher register before changing the files.
	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0644)
	writeCert(t, certFile, keyFile, 2)

	deadline := time.Now().Add(5 * time.Second)
	for serialOf(t, w) != 2 {
		if time.Now().After(deadline) {
			t.Fatal("certificate was not reloaded")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestWatcher_FailedReloadKeepsCertificate(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key")
	writeCert(t, certFile, keyFile, 3)

	w, err := NewWatcher(certFile, keyFile, WithLogger(quiet))
	if err != nil {
		t.Fatal(err)
	}
	_ = os.WriteFile(keyFile, []byte("truncated"), 0600)

	if err := w.Reload(); err == nil {
		t.Error("Reload() should fail for a broken key")
	}
	if serialOf(t, w) != 3 {
		t.Error("failed reload replaced the certificate")
	}
	if w.reloads.Load() != 1 {
		t.Errorf("reloads = %d, want 1", w.reloads.Load())
	}
}

func TestWatcher_RunMissingDir(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key")
	writeCert(t, certFile, keyFile, 1)

	w, err := NewWatcher(certFile, keyFile, WithLogger(quiet))
	if err != nil {
		t.Fatal(err)
	}
	w.certFile = filepath.Join(dir, "gone", "server.crt")
	if err := w.Run(context.Background()); err == nil {
		t.Error("Run() should fail when the directory does not exist")
	}
}
