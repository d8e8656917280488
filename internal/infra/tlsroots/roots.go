package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// ErrNoCertsFound is returned when PEM data holds no certificate.
var ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM data")

// ClientConfig returns the TLS config a client uses to reach a server.
// caFiles are trusted in addition to the system roots.
func ClientConfig(caFiles []string, insecureSkipVerify bool) (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: insecureSkipVerify,
	}
	if len(caFiles) == 0 {
		return cfg, nil
	}

	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	for _, f := range caFiles {
		if err := AppendFile(pool, f); err != nil {
			return nil, err
		}
	}
	cfg.RootCAs = pool
	return cfg, nil
}

// AppendFile adds every certificate in the PEM file at path to pool.
func AppendFile(pool *x509.CertPool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("tlsroots: read ca file: %w", err)
	}
	if err := AppendPEM(pool, data); err != nil {
		return fmt.Errorf("%w (%s)", err, path)
	}
	return nil
}

// AppendPEM adds every CERTIFICATE block in data to pool. Other block
// types are skipped.
func AppendPEM(pool *x509.CertPool, data []byte) error {
	added := 0
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("tlsroots: parse certificate: %w", err)
		}
		pool.AddCert(cert)
		added++
	}
	if added == 0 {
		return ErrNoCertsFound
	}
	return nil
}
