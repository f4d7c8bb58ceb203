package wamp

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// TLSOptions configures the websocket TLS layer for wss:// routers.
type TLSOptions struct {
	SkipVerify bool
	// CACert is a PEM file added as the only trusted root.
	CACert string
}

// BuildTLSConfig creates a TLS configuration from profile settings.
// It returns nil when the defaults apply.
func BuildTLSConfig(opts TLSOptions) (*tls.Config, error) {
	if !opts.SkipVerify && opts.CACert == "" {
		return nil, nil
	}

	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}

	// Configure TLS skip verify
	if opts.SkipVerify {
		tlsConfig.InsecureSkipVerify = true
	}

	// Load CA certificate if provided
	if opts.CACert != "" {
		caCert, err := os.ReadFile(opts.CACert)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, errors.New("failed to parse CA certificate")
		}
		tlsConfig.RootCAs = caCertPool
	}

	return tlsConfig, nil
}
