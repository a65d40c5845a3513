package adapter

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

var ErrNoCA = errors.New("no CA certificate")

// TLSFiles are the PEM file paths of a client TLS identity. Cert and Key
// are optional: without them only the server is verified.
type TLSFiles struct {
	CA   string
	Cert string
	Key  string
}

// Enabled reports whether TLS is configured at all.
func (f TLSFiles) Enabled() bool {
	return f.CA != ""
}

// ClientTLSConfig builds the [*tls.Config] for dialing brokers.
func ClientTLSConfig(files TLSFiles) (*tls.Config, error) {
	const op = "adapter.ClientTLSConfig"

	if !files.Enabled() {
		return nil, fmt.Errorf("%s: %w", op, ErrNoCA)
	}

	caCert, err := os.ReadFile(files.CA)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read CA certificate file: %w", op, err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("%s: failed to parse CA certificate", op)
	}

	cfg := &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}

	if files.Cert == "" && files.Key == "" {
		return cfg, nil
	}
	clientCert, err := tls.LoadX509KeyPair(files.Cert, files.Key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	cfg.Certificates = []tls.Certificate{clientCert}
	return cfg, nil
}
