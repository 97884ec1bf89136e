package tlsconfig_test

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"workerd/certs"
	"workerd/internal/tlsconfig"
)

func writeTestCerts(t *testing.T) string {
	t.Helper()

	certDir := t.TempDir()

	certFiles := []string{
		"ca.crt",
		"server.crt",
		"server.key",
		"client-alice.crt",
		"client-alice.key",
	}

	for _, filename := range certFiles {
		data, err := certs.FS.ReadFile(filename)
		if err != nil {
			t.Fatalf("read cert %s: %v", filename, err)
		}

		path := filepath.Join(certDir, filename)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("save cert %s: %v", filename, err)
		}
	}

	return certDir
}

func TestSetup(t *testing.T) {
	t.Parallel()

	certDir := writeTestCerts(t)

	caCertPath := filepath.Join(certDir, "ca.crt")
	serverCertPath := filepath.Join(certDir, "server.crt")
	serverKeyPath := filepath.Join(certDir, "server.key")
	clientCertPath := filepath.Join(certDir, "client-alice.crt")
	clientKeyPath := filepath.Join(certDir, "client-alice.key")

	t.Run("Test server TLS config", func(t *testing.T) {
		t.Parallel()

		tlsConfig, err := tlsconfig.Setup(&tlsconfig.Config{
			CertPath:   serverCertPath,
			KeyPath:    serverKeyPath,
			CACertPath: caCertPath,
			Server:     true,
		})
		if err != nil {
			t.Fatalf("expected setup not to return error: got '%v'", err)
		}

		if tlsConfig.MinVersion != tls.VersionTLS13 {
			t.Errorf(
				"expected min TLS version: got '%v', want '%v'",
				tlsConfig.MinVersion,
				tls.VersionTLS13,
			)
		}

		if tlsConfig.ClientAuth != tls.RequireAndVerifyClientCert {
			t.Errorf(
				"expected client auth: got '%v', want '%v'",
				tlsConfig.ClientAuth,
				tls.RequireAndVerifyClientCert,
			)
		}

		if tlsConfig.ClientCAs == nil {
			t.Error("expected client CA pool to be set")
		}
	})

	t.Run("Test client TLS config", func(t *testing.T) {
		t.Parallel()

		tlsConfig, err := tlsconfig.Setup(&tlsconfig.Config{
			CertPath:   clientCertPath,
			KeyPath:    clientKeyPath,
			CACertPath: caCertPath,
			ServerName: "localhost",
		})
		if err != nil {
			t.Fatalf("expected setup not to return error: got '%v'", err)
		}

		if tlsConfig.RootCAs == nil {
			t.Error("expected root CA pool to be set")
		}

		if tlsConfig.ServerName != "localhost" {
			t.Errorf(
				"expected server name: got '%s', want 'localhost'",
				tlsConfig.ServerName,
			)
		}
	})

	t.Run("Test peer key policy accepts P-256 ECDSA", func(t *testing.T) {
		t.Parallel()

		tlsConfig, err := tlsconfig.Setup(&tlsconfig.Config{
			CertPath:   serverCertPath,
			KeyPath:    serverKeyPath,
			CACertPath: caCertPath,
			Server:     true,
		})
		if err != nil {
			t.Fatalf("expected setup not to return error: got '%v'", err)
		}

		leaf := parseCert(t, clientCertPath)
		ca := parseCert(t, caCertPath)

		if err := tlsConfig.VerifyPeerCertificate(
			nil,
			[][]*x509.Certificate{{leaf, ca}},
		); err != nil {
			t.Errorf("expected P-256 leaf to pass key policy: got '%v'", err)
		}
	})

	t.Run("Test peer key policy rejects empty chain", func(t *testing.T) {
		t.Parallel()

		tlsConfig, err := tlsconfig.Setup(&tlsconfig.Config{
			CertPath:   serverCertPath,
			KeyPath:    serverKeyPath,
			CACertPath: caCertPath,
			Server:     true,
		})
		if err != nil {
			t.Fatalf("expected setup not to return error: got '%v'", err)
		}

		if err := tlsConfig.VerifyPeerCertificate(nil, nil); err == nil {
			t.Error("expected empty chain to be rejected")
		}
	})

	t.Run("Test missing cert paths", func(t *testing.T) {
		t.Parallel()

		if _, err := tlsconfig.Setup(&tlsconfig.Config{
			CertPath:   filepath.Join(certDir, "missing.crt"),
			KeyPath:    filepath.Join(certDir, "missing.key"),
			CACertPath: caCertPath,
		}); err == nil {
			t.Error("expected setup with missing certs to return error")
		}
	})
}

func parseCert(t *testing.T, path string) *x509.Certificate {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read cert %s: %v", path, err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		t.Fatalf("no PEM block in %s", path)
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("parse cert %s: %v", path, err)
	}

	return cert
}
